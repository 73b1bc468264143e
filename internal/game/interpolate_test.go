package game

import "testing"

func interpSnapshot(matchID string, paddleY, ballX, ballY float64, scores map[string]int) Snapshot {
	return Snapshot{
		MatchID: matchID,
		Paddles: []PaddleState{
			{ID: "a", Side: SideLeft, Y: paddleY, Height: 80},
			{ID: "b", Side: SideRight, Y: 100, Height: 80},
		},
		Ball:   BallState{X: ballX, Y: ballY},
		Scores: scores,
		Status: StatusPlaying,
	}
}

func TestInterpolateMidpoint(t *testing.T) {
	prev := interpSnapshot("m", 100, 200, 100, map[string]int{"a": 1, "b": 0})
	next := interpSnapshot("m", 120, 210, 110, map[string]int{"a": 1, "b": 0})

	got := Interpolate(prev, next, 0.5)
	if got.Paddles[0].Y != 110 {
		t.Errorf("paddle y = %.2f, want 110", got.Paddles[0].Y)
	}
	if got.Ball.X != 205 || got.Ball.Y != 105 {
		t.Errorf("ball = (%.2f, %.2f), want (205, 105)", got.Ball.X, got.Ball.Y)
	}
}

func TestInterpolateEndpointsAndClamp(t *testing.T) {
	prev := interpSnapshot("m", 100, 200, 100, map[string]int{})
	next := interpSnapshot("m", 120, 210, 110, map[string]int{})

	if got := Interpolate(prev, next, 0); got.Ball.X != 200 || got.Paddles[0].Y != 100 {
		t.Errorf("alpha 0 should equal prev, got ball x %.2f paddle y %.2f", got.Ball.X, got.Paddles[0].Y)
	}
	if got := Interpolate(prev, next, 3); got.Ball.X != 210 || got.Paddles[0].Y != 120 {
		t.Errorf("alpha above 1 should clamp to next, got ball x %.2f", got.Ball.X)
	}
}

func TestInterpolateSkipsBallAcrossPoint(t *testing.T) {
	prev := interpSnapshot("m", 100, 795, 100, map[string]int{"a": 0, "b": 0})
	next := interpSnapshot("m", 100, 400, 200, map[string]int{"a": 1, "b": 0})

	got := Interpolate(prev, next, 0.5)
	if got.Ball.X != 400 || got.Ball.Y != 200 {
		t.Errorf("ball blended across a point: (%.2f, %.2f)", got.Ball.X, got.Ball.Y)
	}
}

func TestInterpolateDifferentMatch(t *testing.T) {
	prev := interpSnapshot("one", 0, 0, 0, nil)
	next := interpSnapshot("two", 120, 210, 110, nil)

	got := Interpolate(prev, next, 0.5)
	if got.Ball.X != 210 || got.Paddles[0].Y != 120 {
		t.Error("snapshots of different matches should not blend")
	}
}

func TestInterpolateDoesNotAliasNext(t *testing.T) {
	prev := interpSnapshot("m", 100, 200, 100, map[string]int{"a": 0})
	next := interpSnapshot("m", 120, 210, 110, map[string]int{"a": 0})

	got := Interpolate(prev, next, 0.5)
	got.Paddles[0].Y = -1
	got.Scores["a"] = 99
	if next.Paddles[0].Y != 120 || next.Scores["a"] != 0 {
		t.Error("result shares storage with next")
	}
}
