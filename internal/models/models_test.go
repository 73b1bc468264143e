package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestMatchRecordJSON(t *testing.T) {
	rec := MatchRecord{
		MatchID:    "m-1",
		Mode:       ModeMultiplayer,
		WinnerID:   NewNullString("u1"),
		Reason:     ReasonScore,
		StartedAt:  time.Unix(100, 0).UTC(),
		FinishedAt: time.Unix(160, 0).UTC(),
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"winner_id":"u1"`) || !strings.Contains(out, `"tournament_match_id":null`) {
		t.Errorf("json = %s", out)
	}
	if strings.Contains(out, `"Valid"`) {
		t.Errorf("nullable fields leak sql.NullString internals: %s", out)
	}

	var back MatchRecord
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.WinnerID != rec.WinnerID || back.TournamentMatchID.Valid || !back.FinishedAt.Equal(rec.FinishedAt) {
		t.Errorf("round trip = %+v, want %+v", back, rec)
	}
}

func TestNewNullString(t *testing.T) {
	if n := NewNullString(""); n.Valid {
		t.Error("empty string should be null")
	}
	if n := NewNullString("t-1"); !n.Valid || n.String != "t-1" {
		t.Errorf("NewNullString = %+v", n)
	}
	var n NullString
	if err := json.Unmarshal([]byte(`42`), &n); err == nil {
		t.Error("expected error for a non-string value")
	}
}
