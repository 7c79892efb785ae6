package league

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quizleague/match-server-go/internal/model"
)

func standing(division, points, matches int) model.Standing {
	return model.Standing{
		PlayerID:      "p1",
		Division:      division,
		CurrentPoints: points,
		MatchesPlayed: matches,
	}
}

func TestMatchPoints(t *testing.T) {
	assert.Equal(t, 3, MatchPoints(model.MatchResultWin))
	assert.Equal(t, 1, MatchPoints(model.MatchResultTie))
	assert.Equal(t, 0, MatchPoints(model.MatchResultLoss))
}

func TestApply(t *testing.T) {
	t.Run("division five never relegates even after a full losing season", func(t *testing.T) {
		s := standing(5, 0, 0)
		var movement Movement
		for i := 0; i < 10; i++ {
			s, movement = Apply(s, model.MatchResultLoss)
		}
		assert.Equal(t, 5, s.Division)
		assert.Equal(t, 0, s.CurrentPoints)
		assert.Equal(t, 0, s.MatchesPlayed)
		assert.Equal(t, MovementSeasonReset, movement)
	})

	t.Run("division five promotes when the threshold is reached", func(t *testing.T) {
		// 9 matches played, 7 points: a win lands exactly on the 10 point
		// threshold on the final match of the season.
		s, movement := Apply(standing(5, 7, 9), model.MatchResultWin)
		assert.Equal(t, 4, s.Division)
		assert.Equal(t, 0, s.CurrentPoints)
		assert.Equal(t, 0, s.MatchesPlayed)
		assert.Equal(t, MovementPromoted, movement)
	})

	t.Run("promotion is immediate once points suffice", func(t *testing.T) {
		s, movement := Apply(standing(5, 9, 3), model.MatchResultWin)
		assert.Equal(t, 4, s.Division)
		assert.Equal(t, MovementPromoted, movement)
		assert.Equal(t, 0, s.CurrentPoints)
		assert.Equal(t, 0, s.MatchesPlayed)
	})

	t.Run("mathematical elimination relegates early", func(t *testing.T) {
		// Division 4 needs 15 points. After 6 matches with 2 points the best
		// case is 2 + 4*3 = 14 < 15.
		s, movement := Apply(standing(4, 2, 5), model.MatchResultLoss)
		assert.Equal(t, 5, s.Division)
		assert.Equal(t, MovementRelegated, movement)
		assert.Equal(t, 0, s.CurrentPoints)
		assert.Equal(t, 0, s.MatchesPlayed)
	})

	t.Run("no relegation while promotion is still reachable", func(t *testing.T) {
		s, movement := Apply(standing(4, 3, 3), model.MatchResultLoss)
		assert.Equal(t, 4, s.Division)
		assert.Equal(t, MovementHeld, movement)
		assert.Equal(t, 3, s.CurrentPoints)
		assert.Equal(t, 4, s.MatchesPlayed)
	})

	t.Run("relegation-eligible division drops at season end below threshold", func(t *testing.T) {
		// Division 2 needs 21 points; 18 after 9 matches keeps promotion
		// reachable, a final tie ends the season at 19.
		s, movement := Apply(standing(2, 18, 9), model.MatchResultTie)
		assert.Equal(t, 3, s.Division)
		assert.Equal(t, MovementRelegated, movement)
		assert.Equal(t, 0, s.CurrentPoints)
		assert.Equal(t, 0, s.MatchesPlayed)
	})

	t.Run("division one accumulates without a season boundary", func(t *testing.T) {
		s := standing(1, 0, 0)
		var movement Movement
		for i := 0; i < 25; i++ {
			s, movement = Apply(s, model.MatchResultWin)
			assert.Equal(t, 1, s.Division)
			assert.Equal(t, MovementHeld, movement)
		}
		assert.Equal(t, 75, s.CurrentPoints, "league points never reset")
		assert.Equal(t, 25, s.MatchesPlayed)
	})

	t.Run("division one never relegates", func(t *testing.T) {
		s := standing(1, 0, 0)
		for i := 0; i < 15; i++ {
			s, _ = Apply(s, model.MatchResultLoss)
		}
		assert.Equal(t, 1, s.Division)
		assert.Equal(t, 15, s.MatchesPlayed)
	})

	t.Run("mid-season results accumulate without reset", func(t *testing.T) {
		s, movement := Apply(standing(3, 4, 2), model.MatchResultWin)
		assert.Equal(t, 3, s.Division)
		assert.Equal(t, MovementHeld, movement)
		assert.Equal(t, 7, s.CurrentPoints)
		assert.Equal(t, 3, s.MatchesPlayed)
	})
}
