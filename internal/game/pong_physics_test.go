package game

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

const dt = 1.0 / ReferenceTickRate

// setBall places the ball and cancels any pending serve.
func (g *PongGame) setBall(x, y, vx, vy float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ball.Pos = NewVec2(x, y)
	g.ball.Vel = NewVec2(vx, vy)
	g.serveIn = 0
}

func (g *PongGame) ballState() Ball {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ball
}

func newTestGame(t *testing.T, cfg GameConfig) *PongGame {
	t.Helper()
	g := NewPongGame("match-1", cfg, 42)
	if !g.AddPlayer("left") || !g.AddPlayer("right") {
		t.Fatalf("failed to seat both players")
	}
	if g.Status() != StatusPlaying {
		t.Fatalf("expected playing after two players joined, got %s", g.Status())
	}
	return g
}

func longMatchConfig() GameConfig {
	cfg := DefaultGameConfig()
	cfg.MaxScore = 1000
	return cfg
}

func TestAddPlayerAssignsSidesAndRejectsThird(t *testing.T) {
	g := NewPongGame("m", DefaultGameConfig(), 1)

	if !g.AddPlayer("a") {
		t.Fatal("first player rejected")
	}
	if g.Status() != StatusWaiting {
		t.Errorf("expected waiting with one player, got %s", g.Status())
	}
	if !g.AddPlayer("b") {
		t.Fatal("second player rejected")
	}
	if g.AddPlayer("c") {
		t.Error("third player should be rejected")
	}
	if g.AddPlayer("a") {
		t.Error("duplicate player should be rejected")
	}

	if side, _ := g.SideOf("a"); side != SideLeft {
		t.Errorf("first player side = %s, want left", side)
	}
	if side, _ := g.SideOf("b"); side != SideRight {
		t.Errorf("second player side = %s, want right", side)
	}

	s := g.Snapshot()
	if len(s.Paddles) != 2 || s.Paddles[0].ID != "a" || s.Paddles[1].ID != "b" {
		t.Errorf("paddle order not stable: %+v", s.Paddles)
	}
	if s.Scores["a"] != 0 || s.Scores["b"] != 0 {
		t.Errorf("scores should start at zero: %v", s.Scores)
	}
}

func TestRemovePlayerPausesThenFinishes(t *testing.T) {
	g := newTestGame(t, DefaultGameConfig())

	g.RemovePlayer("left")
	if g.Status() != StatusPaused {
		t.Fatalf("expected paused after one side left, got %s", g.Status())
	}
	if g.SetMovementIntent("right", DirUp) {
		t.Error("movement intent accepted while paused")
	}

	before := g.Snapshot()
	g.Tick(dt)
	if after := g.Snapshot(); after.Tick != before.Tick {
		t.Error("paused match advanced")
	}

	g.RemovePlayer("right")
	if g.Status() != StatusFinished {
		t.Fatalf("expected finished after both sides left, got %s", g.Status())
	}
	if g.AddPlayer("late") {
		t.Error("finished match accepted a player")
	}
}

func TestRejoinResumesAndKeepsScore(t *testing.T) {
	g := newTestGame(t, DefaultGameConfig())
	g.setBall(4, 380, -10, 0)
	g.Tick(dt)

	if l, r := g.Scores(); l != 0 || r != 1 {
		t.Fatalf("scores = %d-%d, want 0-1", l, r)
	}

	g.RemovePlayer("right")
	if !g.AddPlayer("right-again") {
		t.Fatal("could not refill the right side")
	}
	if g.Status() != StatusPlaying {
		t.Errorf("expected playing after refill, got %s", g.Status())
	}
	if l, r := g.Scores(); l != 0 || r != 1 {
		t.Errorf("score changed on rejoin: %d-%d", l, r)
	}
}

func TestWallContainment(t *testing.T) {
	g := newTestGame(t, longMatchConfig())
	cfg := g.Config()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		y := cfg.BallRadius + rng.Float64()*(cfg.BoardHeight-2*cfg.BallRadius)
		x := 100 + rng.Float64()*(cfg.BoardWidth-200)
		g.setBall(x, y, (rng.Float64()*2-1)*40, (rng.Float64()*2-1)*40)
		g.Tick(dt * (0.5 + rng.Float64()*3))

		b := g.ballState()
		if b.Pos.Y < cfg.BallRadius || b.Pos.Y > cfg.BoardHeight-cfg.BallRadius {
			t.Fatalf("iteration %d: ball y=%.3f escaped walls", i, b.Pos.Y)
		}
	}
}

func TestPaddleContainment(t *testing.T) {
	g := newTestGame(t, longMatchConfig())
	cfg := g.Config()

	check := func(dir Direction) {
		g.SetMovementIntent("left", dir)
		g.SetMovementIntent("right", dir)
		for i := 0; i < 200; i++ {
			g.Tick(dt)
			for _, p := range g.Snapshot().Paddles {
				if p.Y < 0 || p.Y > cfg.BoardHeight-p.Height {
					t.Fatalf("paddle %s out of bounds: y=%.2f", p.ID, p.Y)
				}
			}
		}
	}

	check(DirUp)
	if p, _ := g.Snapshot().Paddle(SideLeft); p.Y != 0 {
		t.Errorf("paddle should rest at top, y=%.2f", p.Y)
	}
	check(DirDown)
	if p, _ := g.Snapshot().Paddle(SideRight); p.Y != cfg.BoardHeight-cfg.PaddleHeight {
		t.Errorf("paddle should rest at bottom, y=%.2f", p.Y)
	}
}

func TestScoreMonotonicity(t *testing.T) {
	cfg := longMatchConfig()
	cfg.ServeDelay = 0
	g := newTestGame(t, cfg)
	rng := rand.New(rand.NewSource(99))
	dirs := []Direction{DirUp, DirDown, DirNone}

	prevL, prevR := g.Scores()
	for i := 0; i < 20000; i++ {
		g.SetMovementIntent("left", dirs[rng.Intn(3)])
		g.SetMovementIntent("right", dirs[rng.Intn(3)])
		g.Tick(dt)

		l, r := g.Scores()
		if l < prevL || r < prevR {
			t.Fatalf("tick %d: score decreased %d-%d -> %d-%d", i, prevL, prevR, l, r)
		}
		if (l-prevL)+(r-prevR) > 1 {
			t.Fatalf("tick %d: more than one point in a tick", i)
		}
		prevL, prevR = l, r
	}
	if prevL+prevR == 0 {
		t.Error("no points scored in 20000 ticks of random play")
	}
}

func TestWinTransitionIsTerminal(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.MaxScore = 2
	g := newTestGame(t, cfg)

	for point := 0; point < 2; point++ {
		g.setBall(4, 380, -10, 0)
		g.Tick(dt)
	}

	if g.Status() != StatusFinished {
		t.Fatalf("expected finished, got %s", g.Status())
	}
	if g.Winner() != "right" {
		t.Errorf("winner = %q, want right", g.Winner())
	}

	g.setBall(4, 380, -10, 0)
	for i := 0; i < 10; i++ {
		g.Tick(dt)
	}
	if l, r := g.Scores(); l != 0 || r != 2 {
		t.Errorf("scores changed after finish: %d-%d", l, r)
	}
	if g.Status() != StatusFinished {
		t.Error("finished is not terminal")
	}
	if g.SetMovementIntent("left", DirUp) {
		t.Error("intent accepted after finish")
	}
}

func TestEndToEndLeftWallCrossings(t *testing.T) {
	cfg := NewGameConfig(800, 400)
	if cfg.PaddleHeight != 80 || cfg.BallRadius != 8 || cfg.MaxScore != 5 {
		t.Fatalf("unexpected derived config: %+v", cfg)
	}
	g := newTestGame(t, cfg)

	for crossing := 1; crossing <= 5; crossing++ {
		g.setBall(100, 360, -10, 0)
		scored := false
		for i := 0; i < 50; i++ {
			g.Tick(dt)
			if _, r := g.Scores(); r == crossing {
				scored = true
				break
			}
		}
		if !scored {
			t.Fatalf("crossing %d did not score", crossing)
		}
	}

	s := g.Snapshot()
	if s.Status != StatusFinished {
		t.Fatalf("status = %s, want finished", s.Status)
	}
	if s.Winner != "right" {
		t.Errorf("winner = %q, want right", s.Winner)
	}
	if s.Scores["left"] != 0 || s.Scores["right"] != 5 {
		t.Errorf("final score %v, want left 0 right 5", s.Scores)
	}
}

func TestPaddleHitRespectsSpeedCap(t *testing.T) {
	cfg := longMatchConfig()
	g := newTestGame(t, cfg)
	rng := rand.New(rand.NewSource(3))
	p, _ := g.Snapshot().Paddle(SideRight)
	face := p.X

	hits := 0
	for i := 0; i < 500; i++ {
		vx := 5 + rng.Float64()*20
		y := p.Y + rng.Float64()*p.Height
		g.setBall(face-cfg.BallRadius-vx/2, y, vx, (rng.Float64()*2-1)*10)
		g.Tick(dt)

		b := g.ballState()
		if b.Vel.X >= 0 {
			continue
		}
		hits++
		if speed := b.Vel.Magnitude(); speed > cfg.MaxBallSpeed+1e-9 {
			t.Fatalf("speed %.4f above cap %.1f", speed, cfg.MaxBallSpeed)
		}
		if b.Pos.X != face-cfg.BallRadius {
			t.Fatalf("ball not flush with paddle face: x=%.3f", b.Pos.X)
		}
	}
	if hits == 0 {
		t.Fatal("no paddle hits registered")
	}
}

func TestPaddleHitSpeedsUpBall(t *testing.T) {
	cfg := DefaultGameConfig()
	g := newTestGame(t, cfg)
	p, _ := g.Snapshot().Paddle(SideLeft)

	// center of the paddle: no spin, only the speed-up
	g.setBall(p.X+p.Width+cfg.BallRadius+3, p.Y+p.Height/2, -5, 0)
	g.Tick(dt)

	b := g.ballState()
	if math.Abs(b.Vel.X-5*cfg.SpeedUp) > 1e-9 {
		t.Errorf("vx = %.4f, want %.4f", b.Vel.X, 5*cfg.SpeedUp)
	}
	if b.Vel.Y != 0 {
		t.Errorf("center hit should not add spin, vy = %.4f", b.Vel.Y)
	}
}

func TestServeDelay(t *testing.T) {
	cfg := DefaultGameConfig()
	g := newTestGame(t, cfg)

	for i := 0; i < 30; i++ {
		g.Tick(dt)
	}
	if b := g.ballState(); !b.Vel.IsZero() {
		t.Fatalf("ball launched during serve delay: %+v", b.Vel)
	}
	for i := 0; i < 40; i++ {
		g.Tick(dt)
	}
	b := g.ballState()
	if math.Abs(b.Vel.Magnitude()-cfg.BallSpeed) > 1e-9 {
		t.Errorf("serve speed = %.4f, want %.1f", b.Vel.Magnitude(), cfg.BallSpeed)
	}
}

func TestForfeitAwardsOpponent(t *testing.T) {
	g := newTestGame(t, DefaultGameConfig())
	if !g.Forfeit("left") {
		t.Fatal("forfeit rejected")
	}
	if g.Status() != StatusFinished || g.Winner() != "right" {
		t.Errorf("status=%s winner=%q", g.Status(), g.Winner())
	}
	if g.Forfeit("right") {
		t.Error("second forfeit should be rejected")
	}
}

func TestSnapshotIsPure(t *testing.T) {
	g := newTestGame(t, DefaultGameConfig())
	g.Tick(dt)
	a := g.Snapshot()
	b := g.Snapshot()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("consecutive snapshots differ:\n%+v\n%+v", a, b)
	}
}

func TestDeterminism(t *testing.T) {
	run := func() Snapshot {
		cfg := longMatchConfig()
		g := NewPongGame("det", cfg, 2024)
		g.AddPlayer("l")
		g.AddPlayer("r")
		rng := rand.New(rand.NewSource(5))
		dirs := []Direction{DirUp, DirDown, DirNone}
		for i := 0; i < 3000; i++ {
			g.SetMovementIntent("l", dirs[rng.Intn(3)])
			g.SetMovementIntent("r", dirs[rng.Intn(3)])
			g.Tick(dt)
		}
		return g.Snapshot()
	}

	if a, b := run(), run(); !reflect.DeepEqual(a, b) {
		t.Errorf("non-deterministic run:\n%+v\n%+v", a, b)
	}
}

func TestGameConfigValidate(t *testing.T) {
	if err := DefaultGameConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg := DefaultGameConfig()
	cfg.MaxScore = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max score")
	}
	cfg = DefaultGameConfig()
	cfg.MaxBallSpeed = 1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for max speed below base speed")
	}
}

func TestAddPlayerAtSpecificSide(t *testing.T) {
	g := NewPongGame("m", DefaultGameConfig(), 1)
	if !g.AddPlayerAt("p2", SideRight) {
		t.Fatal("could not seat right first")
	}
	if g.AddPlayerAt("other", SideRight) {
		t.Error("taken side accepted a second player")
	}
	if g.PlayerOn(SideLeft) != "" || g.Status() != StatusWaiting {
		t.Error("left side should still be free")
	}
	if !g.AddPlayer("p1") {
		t.Fatal("AddPlayer should fill the free left side")
	}
	if g.PlayerOn(SideLeft) != "p1" || g.Status() != StatusPlaying {
		t.Errorf("left=%q status=%s", g.PlayerOn(SideLeft), g.Status())
	}
}
