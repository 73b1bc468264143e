package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Match modes, also the websocket path segment.
const (
	ModeMultiplayer = "multiplayer"
	ModeLocal       = "local"
	ModeTournament  = "tournament"

	// ModeSimulation marks headless AI-vs-AI matches.
	ModeSimulation = "simulation"
)

// Finish reasons recorded with a match.
const (
	ReasonScore   = "score"
	ReasonForfeit = "forfeit"
	ReasonAborted = "aborted"
)

// MatchRecord is a finished match in the pong_matches table
type MatchRecord struct {
	ID                int        `db:"id" json:"id"`
	MatchID           string     `db:"match_id" json:"match_id"`
	Mode              string     `db:"mode" json:"mode"`
	TournamentMatchID NullString `db:"tournament_match_id" json:"tournament_match_id"`
	Player1ID         string     `db:"player1_id" json:"player1_id"`
	Player1Name       string     `db:"player1_name" json:"player1_name"`
	Player2ID         string     `db:"player2_id" json:"player2_id"`
	Player2Name       string     `db:"player2_name" json:"player2_name"`
	Player1Score      int        `db:"player1_score" json:"player1_score"`
	Player2Score      int        `db:"player2_score" json:"player2_score"`
	WinnerID          NullString `db:"winner_id" json:"winner_id"`
	Reason            string     `db:"reason" json:"reason"`
	Ticks             int64      `db:"ticks" json:"ticks"`
	StartedAt         time.Time  `db:"started_at" json:"started_at"`
	FinishedAt        time.Time  `db:"finished_at" json:"finished_at"`
}

// Duration is the wall-clock length of the match.
func (m MatchRecord) Duration() time.Duration {
	return m.FinishedAt.Sub(m.StartedAt)
}

// NullString is a nullable text column. It encodes as a JSON string, or null
// when not valid.
type NullString struct {
	sql.NullString
}

// NewNullString is null for the empty string.
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

func (n *NullString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullString{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*n = NullString{sql.NullString{String: s, Valid: true}}
	return nil
}
