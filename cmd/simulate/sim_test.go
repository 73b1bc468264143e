package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/playmatatu/pong/internal/game"
	"github.com/playmatatu/pong/internal/models"
)

func quickConfig() game.GameConfig {
	cfg := game.DefaultGameConfig()
	cfg.MaxScore = 2
	cfg.ServeDelay = 0
	return cfg
}

func TestSimulateIsReproducible(t *testing.T) {
	cfg := quickConfig()
	a := simulate("m", cfg, game.Easy, game.Hard, 7, 100*time.Millisecond, 20000)
	b := simulate("m", cfg, game.Easy, game.Hard, 7, 100*time.Millisecond, 20000)

	if !reflect.DeepEqual(a.Final, b.Final) {
		t.Fatalf("same seed diverged: tick %d vs %d", a.Final.Tick, b.Final.Tick)
	}
	if a.Winner != "" {
		if a.Final.Status != game.StatusFinished || a.Final.Scores[a.Final.Winner] != cfg.MaxScore {
			t.Errorf("winner %s but final = %+v", a.Winner, a.Final)
		}
	}
}

func TestSimulateStopsAtTickBudget(t *testing.T) {
	res := simulate("m", game.DefaultGameConfig(), game.Medium, game.Medium, 1, time.Second, 10)
	if res.Final.Tick != 10 || res.Winner != "" {
		t.Errorf("tick=%d winner=%q, want 10 and none", res.Final.Tick, res.Winner)
	}
	if got := res.Finished.Sub(res.Started); got != 10*(time.Second/game.ReferenceTickRate) {
		t.Errorf("virtual duration = %s", got)
	}

	rec := res.record(time.Unix(1000, 0))
	if rec.Reason != models.ReasonAborted || rec.WinnerID.Valid || rec.Mode != models.ModeSimulation {
		t.Errorf("record = %+v", rec)
	}
	if !rec.FinishedAt.Equal(time.Unix(1000, 0)) || rec.Duration() != res.Finished.Sub(res.Started) {
		t.Errorf("timestamps = %s .. %s", rec.StartedAt, rec.FinishedAt)
	}
}

func TestRecordOfFinishedMatch(t *testing.T) {
	res := matchResult{
		ID:     "m-9",
		Left:   game.Hard,
		Right:  game.Easy,
		Winner: game.SideLeft,
		Final: game.Snapshot{
			Tick:   900,
			Winner: leftID,
			Scores: map[string]int{leftID: 5, rightID: 3},
		},
	}
	rec := res.record(time.Now())
	if rec.Reason != models.ReasonScore || rec.WinnerID.String != leftID || rec.Player1Score != 5 || rec.Player2Score != 3 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Player1Name != "AI (HARD)" || rec.Ticks != 900 {
		t.Errorf("names/ticks = %q %d", rec.Player1Name, rec.Ticks)
	}
}

func TestTallyAndSummary(t *testing.T) {
	var sum tally
	sum.add(matchResult{Winner: game.SideLeft, Final: game.Snapshot{Tick: 100}})
	sum.add(matchResult{Winner: game.SideRight, Final: game.Snapshot{Tick: 200}})
	sum.add(matchResult{Final: game.Snapshot{Tick: 300}})
	if sum.Left != 1 || sum.Right != 1 || sum.Unfinished != 1 || sum.Ticks != 600 {
		t.Errorf("tally = %+v", sum)
	}

	var buf bytes.Buffer
	printSummary(&buf, sum, game.Easy, game.Hard, 3)
	if !strings.Contains(buf.String(), "left EASY won 1, right HARD won 1, unfinished 1") || !strings.Contains(buf.String(), "average length 200 ticks") {
		t.Errorf("summary = %q", buf.String())
	}
}

func TestRunCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"run", "--seed", "3", "--count", "2", "--max-ticks", "50", "--verify"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "unfinished 2") || !strings.Contains(out, "SEED") {
		t.Errorf("output = %q", out)
	}

	buf.Reset()
	rootCmd.SetArgs([]string{"run", "--left", "godlike"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("unknown difficulty should fail")
	}
}
