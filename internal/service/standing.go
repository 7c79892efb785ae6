package service

import (
	"context"
	"math"

	apperrors "github.com/quizleague/match-server-go/internal/errors"
	"github.com/quizleague/match-server-go/internal/model"
	"github.com/quizleague/match-server-go/internal/repository"
)

const leaderboardSize = 100

// LeaderboardEntry is one division-one row, ordered by points then wins.
type LeaderboardEntry struct {
	PlayerID      string `json:"playerId"`
	Points        int    `json:"points"`
	Wins          int    `json:"wins"`
	MatchesPlayed int    `json:"matchesPlayed"`
	WinRate       int    `json:"winRate"`
}

type StandingService struct {
	standingRepo repository.StandingRepository
}

func NewStandingService(standingRepo repository.StandingRepository) *StandingService {
	return &StandingService{standingRepo: standingRepo}
}

func (s *StandingService) Get(ctx context.Context, playerID string) (*model.Standing, error) {
	if playerID == "" {
		return nil, apperrors.MissingRequired("playerId")
	}
	standing, err := s.standingRepo.FindByPlayer(ctx, playerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if standing == nil {
		return nil, apperrors.NotFound("Standing")
	}
	return standing, nil
}

// Leaderboard lists the top of division one.
func (s *StandingService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	standings, err := s.standingRepo.TopOfDivision(ctx, model.TopDivision, leaderboardSize)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	entries := make([]LeaderboardEntry, 0, len(standings))
	for _, st := range standings {
		entry := LeaderboardEntry{
			PlayerID:      st.PlayerID,
			Points:        st.CurrentPoints,
			Wins:          st.Wins,
			MatchesPlayed: st.MatchesPlayed,
		}
		// Career totals, not history length: the match history is capped.
		if played := st.Wins + st.Losses + st.Ties; played > 0 {
			entry.WinRate = int(math.Round(float64(st.Wins) / float64(played) * 100))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
