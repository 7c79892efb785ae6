package service

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/quizleague/match-server-go/internal/config"
	apperrors "github.com/quizleague/match-server-go/internal/errors"
	"github.com/quizleague/match-server-go/internal/model"
	"github.com/quizleague/match-server-go/internal/repository"
)

// JoinResult is the matchmaking outcome. Rejoined is set when the player was
// already in a non-terminal session and no new match was created.
type JoinResult struct {
	SessionID string              `json:"sessionId"`
	Status    model.SessionStatus `json:"status"`
	Rejoined  bool                `json:"rejoined,omitempty"`
}

// MatchmakerService pairs a joining player with the oldest waiting session
// or creates a fresh one with a snapshotted question set. The pair-or-create
// decision runs inside a single transaction under the matchmaking lock, so
// concurrent joins can never each create their own waiting session.
type MatchmakerService struct {
	db           txRunner
	sessionRepo  repository.SessionRepository
	questionRepo repository.QuestionRepository
	sessions     *SessionService
}

func NewMatchmakerService(
	db txRunner,
	sessionRepo repository.SessionRepository,
	questionRepo repository.QuestionRepository,
	sessions *SessionService,
) *MatchmakerService {
	return &MatchmakerService{
		db:           db,
		sessionRepo:  sessionRepo,
		questionRepo: questionRepo,
		sessions:     sessions,
	}
}

func (s *MatchmakerService) Join(ctx context.Context, playerID, language string) (*JoinResult, error) {
	if playerID == "" {
		return nil, apperrors.MissingRequired("playerId")
	}
	language = model.NormalizeLanguage(language)

	// Idempotent re-join: a player already in a live session gets that
	// session back untouched.
	existing, err := s.sessionRepo.FindActiveByPlayer(ctx, playerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		log.Info().
			Str("sessionId", existing.ID).
			Str("playerId", playerID).
			Str("status", string(existing.Status)).
			Msg("player rejoined active session")
		return &JoinResult{SessionID: existing.ID, Status: existing.Status, Rejoined: true}, nil
	}

	// The version guard still backstops against writers outside the lock,
	// such as the stale-session janitor deleting the row mid-pair.
	for attempt := 0; attempt < config.WriteRetryAttempts; attempt++ {
		result, paired, err := s.pairOrCreate(ctx, playerID, language)
		if err == repository.ErrVersionConflict {
			log.Debug().
				Str("playerId", playerID).
				Int("attempt", attempt+1).
				Msg("pairing write lost race, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		if paired != nil {
			log.Info().
				Str("sessionId", paired.ID).
				Str("playerId", playerID).
				Msg("session paired, countdown started")
			s.sessions.BeginCountdown(ctx, paired)
		}
		return result, nil
	}

	return nil, apperrors.Conflict("Join kept losing to concurrent updates")
}

// pairOrCreate makes the matchmaking decision atomically: under the lock it
// either claims the oldest waiting seat or creates a new waiting session.
// The returned session is non-nil only when a pairing completed.
func (s *MatchmakerService) pairOrCreate(ctx context.Context, playerID, language string) (*JoinResult, *model.Session, error) {
	var result *JoinResult
	var paired *model.Session

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.sessionRepo.WithTx(tx)
		if err := repo.LockMatchmaking(ctx); err != nil {
			return apperrors.Database(err)
		}

		waiting, err := repo.FindOldestWaiting(ctx, playerID)
		if err != nil {
			return apperrors.Database(err)
		}

		if waiting != nil &&
			len(waiting.Players) < model.MaxPlayersPerSession &&
			waiting.Status.CanTransition(model.SessionStatusCountdown) {

			waiting.Players = append(waiting.Players, playerID)
			waiting.PlayerLanguages[playerID] = language
			waiting.PlayerScores[playerID] = 0
			waiting.Status = model.SessionStatusCountdown

			updated, err := repo.UpdateConditional(ctx, waiting)
			if err == repository.ErrVersionConflict {
				return err
			}
			if err != nil {
				return apperrors.Database(err)
			}

			paired = updated
			result = &JoinResult{SessionID: updated.ID, Status: updated.Status}
			return nil
		}

		created, err := s.createSession(ctx, repo, playerID, language)
		if err != nil {
			return err
		}
		result = &JoinResult{SessionID: created.ID, Status: created.Status}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, paired, nil
}

func (s *MatchmakerService) createSession(
	ctx context.Context,
	repo repository.SessionRepository,
	playerID, language string,
) (*model.Session, error) {
	catalog, err := s.questionRepo.FetchAll(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if len(catalog) < model.QuestionsPerMatch {
		return nil, apperrors.ResourceExhausted("Not enough questions available, try again later")
	}

	session := &model.Session{
		ID:              uuid.NewString(),
		Status:          model.SessionStatusWaiting,
		Players:         []string{playerID},
		PlayerLanguages: model.LanguageMap{playerID: language},
		Questions:       drawQuestions(catalog),
		Answers:         model.AnswerSet{},
		PlayerScores:    model.ScoreMap{playerID: 0},
	}

	created, err := repo.Create(ctx, session)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("sessionId", created.ID).
		Str("playerId", playerID).
		Str("language", language).
		Msg("session created, waiting for opponent")

	return created, nil
}

// drawQuestions snapshots a random sample without replacement.
func drawQuestions(catalog []model.Question) model.QuestionList {
	indexes := rand.Perm(len(catalog))
	questions := make(model.QuestionList, 0, model.QuestionsPerMatch)
	for _, i := range indexes[:model.QuestionsPerMatch] {
		questions = append(questions, catalog[i].Snapshot())
	}
	return questions
}
