package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/quizleague/match-server-go/internal/model"
)

// ErrVersionConflict is returned when a conditional write finds the session
// changed since it was read. Callers re-read and retry.
var ErrVersionConflict = errors.New("session modified concurrently")

type SessionRepository interface {
	// LockMatchmaking takes the transaction-scoped matchmaking lock. Every
	// find-or-create decision runs under it, so two concurrent joins cannot
	// both miss the waiting session and create their own. Must be called
	// inside a transaction; the lock releases on commit or rollback.
	LockMatchmaking(ctx context.Context) error
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// FindActiveByPlayer returns the oldest non-terminal session containing
	// the player, or nil.
	FindActiveByPlayer(ctx context.Context, playerID string) (*model.Session, error)
	// FindOldestWaiting returns the oldest waiting session with room that
	// does not already contain the player, or nil.
	FindOldestWaiting(ctx context.Context, excludePlayerID string) (*model.Session, error)
	Create(ctx context.Context, s *model.Session) (*model.Session, error)
	// UpdateConditional writes the mutable fields only if the stored version
	// still equals s.Version. On success it returns the stored row with the
	// bumped version; on a lost race it returns ErrVersionConflict.
	UpdateConditional(ctx context.Context, s *model.Session) (*model.Session, error)
	DeleteStaleWaiting(ctx context.Context, olderThan time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

// sessionDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type sessionRepo struct {
	db sessionDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

// matchmakingLockKey is the advisory lock namespace for pairing decisions.
const matchmakingLockKey = 420001

func (r *sessionRepo) LockMatchmaking(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, matchmakingLockKey)
	return err
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) FindActiveByPlayer(ctx context.Context, playerID string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions
		WHERE $1 = ANY(players)
		AND status IN ('waiting', 'countdown', 'playing')
		ORDER BY created_at ASC
		LIMIT 1
	`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) FindOldestWaiting(ctx context.Context, excludePlayerID string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions
		WHERE status = 'waiting'
		AND cardinality(players) < $1
		AND NOT ($2 = ANY(players))
		ORDER BY created_at ASC
		LIMIT 1
	`, model.MaxPlayersPerSession, excludePlayerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (id, status, players, player_languages, questions, answers, player_scores, current_question)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, s.ID, s.Status, s.Players, s.PlayerLanguages, s.Questions, s.Answers, s.PlayerScores, s.CurrentQuestion)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) UpdateConditional(ctx context.Context, s *model.Session) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = $2,
			players = $3,
			player_languages = $4,
			answers = $5,
			player_scores = $6,
			current_question = $7,
			forfeited_by = $8,
			started_at = $9,
			ended_at = $10,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $11
		RETURNING *
	`, s.ID, s.Status, s.Players, s.PlayerLanguages, s.Answers, s.PlayerScores,
		s.CurrentQuestion, s.ForfeitedBy, s.StartedAt, s.EndedAt, s.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) DeleteStaleWaiting(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE status = 'waiting' AND created_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
