package model

import (
	"database/sql/driver"
	"time"
)

const (
	TopDivision    = 1
	BottomDivision = 5

	// MatchHistoryLimit caps the per-player history, most-recent first.
	MatchHistoryLimit = 20
)

// MatchRecord is one bounded-history entry on a standing.
type MatchRecord struct {
	SessionID  string      `json:"sessionId"`
	OpponentID string      `json:"opponentId"`
	Result     MatchResult `json:"result"`
	Score      string      `json:"score"`
	Division   int         `json:"division"`
	PlayedAt   time.Time   `json:"playedAt"`
}

type MatchHistory []MatchRecord

func (h MatchHistory) Value() (driver.Value, error) { return jsonbValue(h) }
func (h *MatchHistory) Scan(src any) error          { return jsonbScan(h, src) }

// Prepend inserts a record at the front and trims to MatchHistoryLimit.
func (h MatchHistory) Prepend(rec MatchRecord) MatchHistory {
	out := make(MatchHistory, 0, len(h)+1)
	out = append(out, rec)
	out = append(out, h...)
	if len(out) > MatchHistoryLimit {
		out = out[:MatchHistoryLimit]
	}
	return out
}

// Standing is a player's persistent division record, independent of any
// session. CurrentPoints and MatchesPlayed reset together on every division
// boundary or season completion and never otherwise.
type Standing struct {
	PlayerID      string       `db:"player_id" json:"playerId"`
	Division      int          `db:"division" json:"division"`
	CurrentPoints int          `db:"current_points" json:"currentPoints"`
	MatchesPlayed int          `db:"matches_played" json:"matchesPlayed"`
	Wins          int          `db:"wins" json:"wins"`
	Losses        int          `db:"losses" json:"losses"`
	Ties          int          `db:"ties" json:"ties"`
	MatchHistory  MatchHistory `db:"match_history" json:"matchHistory"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updatedAt"`
}

// NewStanding returns the first-match standing for a player: bottom
// division, nothing accumulated.
func NewStanding(playerID string) *Standing {
	return &Standing{
		PlayerID:     playerID,
		Division:     BottomDivision,
		MatchHistory: MatchHistory{},
	}
}
