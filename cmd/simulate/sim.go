package main

import (
	"fmt"
	"time"

	"github.com/playmatatu/pong/internal/game"
	"github.com/playmatatu/pong/internal/models"
)

// matchResult is the outcome of one simulated match.
type matchResult struct {
	ID       string
	Seed     int64
	Left     game.Difficulty
	Right    game.Difficulty
	Winner   game.Side // empty when the tick budget ran out
	Final    game.Snapshot
	Started  time.Time
	Finished time.Time
}

const (
	leftID  = "ai:left"
	rightID = "ai:right"
)

// simulate plays one match between two AIs. Virtual time advances one
// reference tick per step, so a seed always replays the same match.
func simulate(id string, cfg game.GameConfig, left, right game.Difficulty, seed int64, predict time.Duration, maxTicks int) matchResult {
	g := game.NewPongGame(id, cfg, seed)
	l := game.NewAI(leftID, game.SideLeft, left, seed+1)
	r := game.NewAI(rightID, game.SideRight, right, seed+2)
	l.SetPredictInterval(predict)
	r.SetPredictInterval(predict)
	g.AddPlayerAt(leftID, game.SideLeft)
	g.AddPlayerAt(rightID, game.SideRight)

	step := time.Second / game.ReferenceTickRate
	start := time.Unix(0, 0).UTC()
	now := start
	for i := 0; i < maxTicks && g.Status() == game.StatusPlaying; i++ {
		now = now.Add(step)
		l.Drive(g, now)
		r.Drive(g, now)
		g.Tick(step.Seconds())
	}

	res := matchResult{
		ID:       id,
		Seed:     seed,
		Left:     left,
		Right:    right,
		Final:    g.Snapshot(),
		Started:  start,
		Finished: now,
	}
	switch res.Final.Winner {
	case leftID:
		res.Winner = game.SideLeft
	case rightID:
		res.Winner = game.SideRight
	}
	return res
}

// record converts a result to a history row. Virtual timestamps are shifted
// to wall-clock time ending at finishedAt.
func (r matchResult) record(finishedAt time.Time) models.MatchRecord {
	rec := models.MatchRecord{
		MatchID:      r.ID,
		Mode:         models.ModeSimulation,
		Player1ID:    leftID,
		Player1Name:  fmt.Sprintf("AI (%s)", r.Left),
		Player2ID:    rightID,
		Player2Name:  fmt.Sprintf("AI (%s)", r.Right),
		Player1Score: r.Final.Scores[leftID],
		Player2Score: r.Final.Scores[rightID],
		Reason:       models.ReasonScore,
		Ticks:        int64(r.Final.Tick),
		StartedAt:    finishedAt.Add(-r.Finished.Sub(r.Started)),
		FinishedAt:   finishedAt,
	}
	if r.Winner == "" {
		rec.Reason = models.ReasonAborted
	} else {
		rec.WinnerID = models.NewNullString(r.Final.Winner)
	}
	return rec
}

// tally sums wins per side over a batch.
type tally struct {
	Left, Right, Unfinished int
	Ticks                   uint64
}

func (t *tally) add(r matchResult) {
	switch r.Winner {
	case game.SideLeft:
		t.Left++
	case game.SideRight:
		t.Right++
	default:
		t.Unfinished++
	}
	t.Ticks += r.Final.Tick
}
