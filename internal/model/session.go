package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const (
	// QuestionsPerMatch is the fixed number of questions snapshotted into
	// every session at creation.
	QuestionsPerMatch = 5

	// MaxPlayersPerSession is the match shape: exactly head-to-head.
	MaxPlayersPerSession = 2
)

// QuestionSnapshot is an immutable copy of a catalog question taken at
// session creation. It never tracks later catalog edits.
type QuestionSnapshot struct {
	ID            string            `json:"id"`
	Text          map[string]string `json:"text"`
	Options       []string          `json:"options"`
	CorrectOption int               `json:"correctOption"`
}

type QuestionList []QuestionSnapshot

func (q QuestionList) Value() (driver.Value, error) { return jsonbValue(q) }
func (q *QuestionList) Scan(src any) error          { return jsonbScan(q, src) }

// Answer is a single answer record. SelectedOption is nil for synthesized
// records (timeout or forfeit).
type Answer struct {
	SelectedOption    *int  `json:"selectedOption"`
	Correct           bool  `json:"correct"`
	Points            int   `json:"points"`
	ResponseLatencyMs int64 `json:"responseLatencyMs"`
	SubmittedAt       int64 `json:"submittedAt"`
	TimedOut          bool  `json:"timedOut,omitempty"`
	Forfeited         bool  `json:"forfeited,omitempty"`
	AutoWin           bool  `json:"autoWin,omitempty"`
}

// AnswerKey identifies one answer slot: a player at a question index.
type AnswerKey struct {
	PlayerID string
	Question int
}

func (k AnswerKey) String() string {
	return fmt.Sprintf("%s#q%d", k.PlayerID, k.Question)
}

// AnswerSet maps answer keys to their single record. Keys are serialized via
// AnswerKey.String so the set round-trips through JSONB.
type AnswerSet map[string]Answer

func (a AnswerSet) Value() (driver.Value, error) { return jsonbValue(a) }
func (a *AnswerSet) Scan(src any) error          { return jsonbScan(a, src) }

func (a AnswerSet) Get(k AnswerKey) (Answer, bool) {
	ans, ok := a[k.String()]
	return ans, ok
}

func (a AnswerSet) Has(k AnswerKey) bool {
	_, ok := a[k.String()]
	return ok
}

// Put records an answer for k. It is write-once: a second put for the same
// key is refused and the original record is kept.
func (a AnswerSet) Put(k AnswerKey, ans Answer) bool {
	if _, ok := a[k.String()]; ok {
		return false
	}
	a[k.String()] = ans
	return true
}

type ScoreMap map[string]int

func (m ScoreMap) Value() (driver.Value, error) { return jsonbValue(m) }
func (m *ScoreMap) Scan(src any) error          { return jsonbScan(m, src) }

type LanguageMap map[string]string

func (m LanguageMap) Value() (driver.Value, error) { return jsonbValue(m) }
func (m *LanguageMap) Scan(src any) error          { return jsonbScan(m, src) }

// Session is one head-to-head match and all of its mutable state. All
// mutations go through a version-guarded conditional write; Version is
// incremented by the store on every successful update.
type Session struct {
	ID              string         `db:"id" json:"id"`
	Status          SessionStatus  `db:"status" json:"status"`
	Players         pq.StringArray `db:"players" json:"players"`
	PlayerLanguages LanguageMap    `db:"player_languages" json:"playerLanguages"`
	Questions       QuestionList   `db:"questions" json:"-"`
	Answers         AnswerSet      `db:"answers" json:"answers"`
	PlayerScores    ScoreMap       `db:"player_scores" json:"playerScores"`
	CurrentQuestion int            `db:"current_question" json:"currentQuestionIndex"`
	ForfeitedBy     *string        `db:"forfeited_by" json:"forfeitedBy,omitempty"`
	Version         int64          `db:"version" json:"-"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	StartedAt       *time.Time     `db:"started_at" json:"startedAt,omitempty"`
	EndedAt         *time.Time     `db:"ended_at" json:"endedAt,omitempty"`
	UpdatedAt       time.Time      `db:"updated_at" json:"-"`
}

func (s *Session) HasPlayer(playerID string) bool {
	for _, p := range s.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

// Opponent returns the other player's id, or "" when the session is not yet
// full or playerID is not a member.
func (s *Session) Opponent(playerID string) string {
	if !s.HasPlayer(playerID) {
		return ""
	}
	for _, p := range s.Players {
		if p != playerID {
			return p
		}
	}
	return ""
}

// AllAnswered reports whether every current player has an answer record at
// the given question index.
func (s *Session) AllAnswered(question int) bool {
	for _, p := range s.Players {
		if !s.Answers.Has(AnswerKey{PlayerID: p, Question: question}) {
			return false
		}
	}
	return true
}

// LastQuestion reports whether question is the final index.
func (s *Session) LastQuestion(question int) bool {
	return question >= len(s.Questions)-1
}

// PlayerStats is a per-player summary of a finished match.
type PlayerStats struct {
	Score          int     `json:"score"`
	CorrectAnswers int     `json:"correctAnswers"`
	Accuracy       float64 `json:"accuracy"`
	QuickAnswers   int     `json:"quickAnswers"`
}

// Stats aggregates each player's answer records. Quick answers are correct
// answers under the speed-bonus window.
func (s *Session) Stats(speedBonusWindowMs int64) map[string]PlayerStats {
	stats := make(map[string]PlayerStats, len(s.Players))
	for _, p := range s.Players {
		ps := PlayerStats{Score: s.PlayerScores[p]}
		for i := range s.Questions {
			ans, ok := s.Answers.Get(AnswerKey{PlayerID: p, Question: i})
			if !ok {
				continue
			}
			if ans.Correct {
				ps.CorrectAnswers++
				if ans.ResponseLatencyMs < speedBonusWindowMs {
					ps.QuickAnswers++
				}
			}
		}
		if len(s.Questions) > 0 {
			ps.Accuracy = float64(ps.CorrectAnswers) / float64(len(s.Questions)) * 100
		}
		stats[p] = ps
	}
	return stats
}
