package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/quizleague/match-server-go/internal/model"
)

type StandingRepository interface {
	FindByPlayer(ctx context.Context, playerID string) (*model.Standing, error)
	// Put upserts a standing. Standings are created on first match and only
	// ever written by the match finalizer for that player.
	Put(ctx context.Context, s *model.Standing) (*model.Standing, error)
	// TopOfDivision lists a division ordered by current points then wins.
	TopOfDivision(ctx context.Context, division, limit int) ([]model.Standing, error)
	WithTx(tx *sqlx.Tx) StandingRepository
}

type standingRepo struct {
	db sessionDB
}

func NewStandingRepository(db *sqlx.DB) StandingRepository {
	return &standingRepo{db: db}
}

func (r *standingRepo) WithTx(tx *sqlx.Tx) StandingRepository {
	return &standingRepo{db: tx}
}

func (r *standingRepo) FindByPlayer(ctx context.Context, playerID string) (*model.Standing, error) {
	var standing model.Standing
	err := r.db.GetContext(ctx, &standing, `
		SELECT * FROM standings WHERE player_id = $1
	`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &standing, nil
}

func (r *standingRepo) Put(ctx context.Context, s *model.Standing) (*model.Standing, error) {
	var standing model.Standing
	err := r.db.GetContext(ctx, &standing, `
		INSERT INTO standings (player_id, division, current_points, matches_played, wins, losses, ties, match_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (player_id) DO UPDATE SET
			division = EXCLUDED.division,
			current_points = EXCLUDED.current_points,
			matches_played = EXCLUDED.matches_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			ties = EXCLUDED.ties,
			match_history = EXCLUDED.match_history,
			updated_at = NOW()
		RETURNING *
	`, s.PlayerID, s.Division, s.CurrentPoints, s.MatchesPlayed, s.Wins, s.Losses, s.Ties, s.MatchHistory)
	if err != nil {
		return nil, err
	}
	return &standing, nil
}

func (r *standingRepo) TopOfDivision(ctx context.Context, division, limit int) ([]model.Standing, error) {
	standings := []model.Standing{}
	err := r.db.SelectContext(ctx, &standings, `
		SELECT * FROM standings
		WHERE division = $1
		ORDER BY current_points DESC, wins DESC
		LIMIT $2
	`, division, limit)
	if err != nil {
		return nil, err
	}
	return standings, nil
}
