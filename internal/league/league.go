// Package league implements division progression: per-division season
// rules, early promotion, relegation by mathematical elimination, and
// season-end evaluation. Pure; persistence belongs to the finalizer.
package league

import (
	"github.com/quizleague/match-server-go/internal/model"
)

// Rule is the season shape for one division.
type Rule struct {
	MatchesPerSeason int
	RequiredPoints   int
	CanRelegate      bool
	League           bool
}

// rules is indexed by division, 1 (top) through 5 (bottom). Division 1 is
// the standing league: no season boundary, points accumulate indefinitely
// and it never promotes or relegates. Division 5 never relegates.
var rules = map[int]Rule{
	5: {MatchesPerSeason: 10, RequiredPoints: 10, CanRelegate: false},
	4: {MatchesPerSeason: 10, RequiredPoints: 15, CanRelegate: true},
	3: {MatchesPerSeason: 10, RequiredPoints: 18, CanRelegate: true},
	2: {MatchesPerSeason: 10, RequiredPoints: 21, CanRelegate: true},
	1: {CanRelegate: false, League: true},
}

// RuleFor returns the rule for a division, defaulting out-of-range values
// to the bottom division.
func RuleFor(division int) Rule {
	if r, ok := rules[division]; ok {
		return r
	}
	return rules[model.BottomDivision]
}

// MatchPoints converts a match result into season points.
func MatchPoints(result model.MatchResult) int {
	switch result {
	case model.MatchResultWin:
		return 3
	case model.MatchResultTie:
		return 1
	default:
		return 0
	}
}

// Movement describes what Apply decided.
type Movement string

const (
	MovementHeld        Movement = "held"
	MovementPromoted    Movement = "promoted"
	MovementRelegated   Movement = "relegated"
	MovementSeasonReset Movement = "season_reset"
)

// Apply folds one match result into a standing. Points and matches reset to
// zero exactly on a division boundary or season completion, never otherwise.
func Apply(standing model.Standing, result model.MatchResult) (model.Standing, Movement) {
	s := standing
	s.CurrentPoints += MatchPoints(result)
	s.MatchesPlayed++

	rule := RuleFor(s.Division)

	// The standing league has no season boundary: nothing to promote to,
	// nothing to relegate, no reset.
	if rule.League {
		return s, MovementHeld
	}

	// Early promotion the moment the threshold is met.
	if s.Division > model.TopDivision && s.CurrentPoints >= rule.RequiredPoints {
		s.Division--
		s.CurrentPoints = 0
		s.MatchesPlayed = 0
		return s, MovementPromoted
	}

	// Early relegation when promotion is mathematically out of reach.
	if rule.CanRelegate {
		remaining := rule.MatchesPerSeason - s.MatchesPlayed
		best := s.CurrentPoints + remaining*MatchPoints(model.MatchResultWin)
		if best < rule.RequiredPoints {
			s.Division++
			s.CurrentPoints = 0
			s.MatchesPlayed = 0
			return s, MovementRelegated
		}
	}

	// Season completion: evaluate once more, then reset regardless.
	if s.MatchesPlayed >= rule.MatchesPerSeason {
		movement := MovementSeasonReset
		if s.Division > model.TopDivision && s.CurrentPoints >= rule.RequiredPoints {
			s.Division--
			movement = MovementPromoted
		} else if rule.CanRelegate {
			s.Division++
			movement = MovementRelegated
		}
		s.CurrentPoints = 0
		s.MatchesPlayed = 0
		return s, movement
	}

	return s, MovementHeld
}
