package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/quizleague/match-server-go/internal/database"
	"github.com/quizleague/match-server-go/internal/league"
	"github.com/quizleague/match-server-go/internal/model"
	"github.com/quizleague/match-server-go/internal/repository"
)

// txRunner runs a function inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// FinalizerService converts a finished session into standing updates: match
// result bookkeeping, bounded history, and division progression. It is the
// only writer of standings, so per-player records see no cross-writer
// contention.
type FinalizerService struct {
	db           txRunner
	standingRepo repository.StandingRepository
}

func NewFinalizerService(db txRunner, standingRepo repository.StandingRepository) *FinalizerService {
	return &FinalizerService{
		db:           db,
		standingRepo: standingRepo,
	}
}

// Finalize persists both players' updated standings in one transaction.
func (f *FinalizerService) Finalize(ctx context.Context, session *model.Session) error {
	if session.Status != model.SessionStatusFinished {
		return fmt.Errorf("finalize called on %s session %s", session.Status, session.ID)
	}
	if len(session.Players) < model.MaxPlayersPerSession {
		return fmt.Errorf("finalize called on unpaired session %s", session.ID)
	}

	return f.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := f.standingRepo.WithTx(tx)
		for _, playerID := range session.Players {
			if err := f.applyToPlayer(ctx, repo, session, playerID); err != nil {
				return fmt.Errorf("finalize player %s: %w", playerID, err)
			}
		}
		return nil
	})
}

func (f *FinalizerService) applyToPlayer(
	ctx context.Context,
	repo repository.StandingRepository,
	session *model.Session,
	playerID string,
) error {
	result := resultFor(session, playerID)
	opponent := session.Opponent(playerID)

	standing, err := repo.FindByPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if standing == nil {
		standing = model.NewStanding(playerID)
	}

	switch result {
	case model.MatchResultWin:
		standing.Wins++
	case model.MatchResultLoss:
		standing.Losses++
	case model.MatchResultTie:
		standing.Ties++
	}

	standing.MatchHistory = standing.MatchHistory.Prepend(model.MatchRecord{
		SessionID:  session.ID,
		OpponentID: opponent,
		Result:     result,
		Score:      fmt.Sprintf("%d-%d", session.PlayerScores[playerID], session.PlayerScores[opponent]),
		Division:   standing.Division,
		PlayedAt:   time.Now(),
	})

	updated, movement := league.Apply(*standing, result)
	if _, err := repo.Put(ctx, &updated); err != nil {
		return err
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("playerId", playerID).
		Str("result", string(result)).
		Str("movement", string(movement)).
		Int("division", updated.Division).
		Msg("standing updated")
	return nil
}

// resultFor derives one player's match result. A forfeiter always loses and
// the opponent always wins; otherwise equal scores are a tie with no further
// tie-break.
func resultFor(session *model.Session, playerID string) model.MatchResult {
	if session.ForfeitedBy != nil {
		if *session.ForfeitedBy == playerID {
			return model.MatchResultLoss
		}
		return model.MatchResultWin
	}

	mine := session.PlayerScores[playerID]
	theirs := session.PlayerScores[session.Opponent(playerID)]
	switch {
	case mine > theirs:
		return model.MatchResultWin
	case mine < theirs:
		return model.MatchResultLoss
	default:
		return model.MatchResultTie
	}
}
