package game

import (
	"errors"
	"math/rand"
	"sync"
)

var (
	ErrMatchFull     = errors.New("match is full")
	ErrMatchFinished = errors.New("match is finished")
	ErrNotReady      = errors.New("both sides must be filled before starting")
)

// Snapshot is the complete serializable state of a match.
type Snapshot struct {
	MatchID     string         `json:"matchId"`
	Tick        uint64         `json:"tick"`
	Paddles     []PaddleState  `json:"paddles"`
	Ball        BallState      `json:"ball"`
	Scores      map[string]int `json:"scores"`
	Status      GameStatus     `json:"status"`
	Winner      string         `json:"winner,omitempty"`
	ServeIn     float64        `json:"serveIn"`
	ServeToward Side           `json:"serveToward,omitempty"`
	Config      GameConfig     `json:"config"`
}

// Paddle returns the paddle state on the given side, if present.
func (s Snapshot) Paddle(side Side) (PaddleState, bool) {
	for _, p := range s.Paddles {
		if p.Side == side {
			return p, true
		}
	}
	return PaddleState{}, false
}

// PongGame owns one match: one ball, up to two paddles, the score and the
// status. All methods are safe for concurrent use; the match ticker is the
// only caller of Tick.
type PongGame struct {
	id          string
	cfg         GameConfig
	ball        Ball
	paddles     [2]*Paddle // left, right
	scores      [2]int
	status      GameStatus
	winner      string
	tick        uint64
	serveIn     float64
	serveToward Side
	rng         *rand.Rand
	mu          sync.RWMutex
}

// NewPongGame creates a waiting match. The seed drives serve directions.
func NewPongGame(id string, cfg GameConfig, seed int64) *PongGame {
	g := &PongGame{
		id:     id,
		cfg:    cfg,
		status: StatusWaiting,
		rng:    rand.New(rand.NewSource(seed)),
	}
	g.ball.Center(cfg)
	return g
}

// ID returns the match id.
func (g *PongGame) ID() string {
	return g.id
}

// Config returns the immutable match configuration.
func (g *PongGame) Config() GameConfig {
	return g.cfg
}

// Status returns the current status.
func (g *PongGame) Status() GameStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// Winner returns the winning player id, empty until finished with a winner.
func (g *PongGame) Winner() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.winner
}

// AddPlayer binds id to the first free side, left before right. A third
// player is rejected. When both sides are filled the match starts (or
// resumes from paused).
func (g *PongGame) AddPlayer(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.paddles[0] == nil:
		return g.addLocked(id, SideLeft)
	case g.paddles[1] == nil:
		return g.addLocked(id, SideRight)
	}
	return false
}

// AddPlayerAt binds id to a specific side, failing if it is taken.
func (g *PongGame) AddPlayerAt(id string, side Side) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addLocked(id, side)
}

func (g *PongGame) addLocked(id string, side Side) bool {
	if id == "" || g.status == StatusFinished || g.indexOf(id) >= 0 {
		return false
	}
	i := side.index()
	if g.paddles[i] != nil {
		return false
	}

	if g.status == StatusWaiting {
		g.scores[i] = 0
	}
	p := NewPaddle(id, side, g.cfg)
	p.Score = g.scores[i]
	g.paddles[i] = p

	if g.paddles[0] != nil && g.paddles[1] != nil {
		g.startLocked()
	}
	return true
}

// Start moves a filled match to playing. It is a no-op on a running match.
func (g *PongGame) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusFinished {
		return ErrMatchFinished
	}
	if g.paddles[0] == nil || g.paddles[1] == nil {
		return ErrNotReady
	}
	g.startLocked()
	return nil
}

func (g *PongGame) startLocked() {
	if g.status == StatusPlaying {
		return
	}
	first := g.status == StatusWaiting
	g.status = StatusPlaying
	if first {
		side := SideLeft
		if g.rng.Intn(2) == 1 {
			side = SideRight
		}
		g.beginServe(side)
	}
}

// RemovePlayer frees the player's side. A playing match with an empty side
// pauses; a match with both sides empty finishes.
func (g *PongGame) RemovePlayer(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(id)
	if i < 0 {
		return false
	}
	g.paddles[i] = nil

	if g.status == StatusFinished {
		return true
	}
	if g.paddles[0] == nil && g.paddles[1] == nil {
		g.status = StatusFinished
		g.ball.Center(g.cfg)
		return true
	}
	if g.status == StatusPlaying {
		g.status = StatusPaused
	}
	return true
}

// Forfeit ends an in-progress match in favour of the loser's opponent.
func (g *PongGame) Forfeit(loserID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusPlaying && g.status != StatusPaused {
		return false
	}
	i := g.indexOf(loserID)
	if i < 0 || g.paddles[1-i] == nil {
		return false
	}
	g.status = StatusFinished
	g.winner = g.paddles[1-i].ID
	g.ball.Center(g.cfg)
	return true
}

// SetMovementIntent records the latest intent for id's paddle. Ignored
// unless the match is playing.
func (g *PongGame) SetMovementIntent(id string, dir Direction) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusPlaying {
		return false
	}
	i := g.indexOf(id)
	if i < 0 {
		return false
	}
	g.paddles[i].SetIntent(dir)
	return true
}

// Tick advances the match by deltaSeconds of wall-clock time. Order is fixed:
// paddles, ball integration, walls, paddle hits, scoring.
func (g *PongGame) Tick(deltaSeconds float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusPlaying {
		return
	}
	scale := deltaSeconds * ReferenceTickRate
	if scale <= 0 {
		return
	}
	if scale > maxTickScale {
		scale = maxTickScale
	}
	g.tick++

	for _, p := range g.paddles {
		if p != nil {
			p.Update(scale, g.cfg.PaddleSpeed, g.cfg.BoardHeight)
		}
	}

	if g.serveIn > 0 {
		g.serveIn -= scale
		if g.serveIn <= 0 {
			g.serveIn = 0
			g.ball.Serve(g.cfg, g.serveToward, g.rng)
		}
		return
	}

	prevX := g.ball.Pos.X
	g.ball.Move(scale)
	g.ball.BounceWalls(g.cfg.BoardHeight)

	for _, p := range g.paddles {
		if p != nil && g.ball.HitsPaddle(p, prevX) {
			g.ball.Deflect(p, g.cfg)
			break
		}
	}

	switch {
	case g.ball.Pos.X < 0:
		g.scorePoint(SideRight)
	case g.ball.Pos.X > g.cfg.BoardWidth:
		g.scorePoint(SideLeft)
	}
}

func (g *PongGame) scorePoint(side Side) {
	i := side.index()
	g.scores[i]++
	if p := g.paddles[i]; p != nil {
		p.Score = g.scores[i]
	}

	if g.scores[i] >= g.cfg.MaxScore {
		g.status = StatusFinished
		if p := g.paddles[i]; p != nil {
			g.winner = p.ID
		}
		g.ball.Center(g.cfg)
		g.serveIn = 0
		return
	}

	toward := SideLeft
	if g.rng.Intn(2) == 1 {
		toward = SideRight
	}
	g.beginServe(toward)
}

func (g *PongGame) beginServe(toward Side) {
	g.ball.Center(g.cfg)
	g.serveToward = toward
	g.serveIn = float64(g.cfg.ServeDelay)
	if g.serveIn == 0 {
		g.ball.Serve(g.cfg, toward, g.rng)
	}
}

// Snapshot returns the match state. Paddles are ordered left then right.
func (g *PongGame) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Snapshot{
		MatchID:     g.id,
		Tick:        g.tick,
		Paddles:     make([]PaddleState, 0, 2),
		Ball:        g.ball.State(),
		Scores:      make(map[string]int, 2),
		Status:      g.status,
		Winner:      g.winner,
		ServeIn:     g.serveIn,
		ServeToward: g.serveToward,
		Config:      g.cfg,
	}
	for _, p := range g.paddles {
		if p == nil {
			continue
		}
		s.Paddles = append(s.Paddles, p.State())
		s.Scores[p.ID] = p.Score
	}
	return s
}

// Scores returns the left and right scores.
func (g *PongGame) Scores() (left, right int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scores[0], g.scores[1]
}

// PlayerIDs returns bound player ids, left first.
func (g *PongGame) PlayerIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, 2)
	for _, p := range g.paddles {
		if p != nil {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// SideOf returns the side id plays on.
func (g *PongGame) SideOf(id string) (Side, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i := g.indexOf(id)
	if i < 0 {
		return "", false
	}
	return g.paddles[i].Side, true
}

// PlayerOn returns the id bound to side, empty when the side is free.
func (g *PongGame) PlayerOn(side Side) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if p := g.paddles[side.index()]; p != nil {
		return p.ID
	}
	return ""
}

// indexOf must be called with g.mu held.
func (g *PongGame) indexOf(id string) int {
	for i, p := range g.paddles {
		if p != nil && p.ID == id {
			return i
		}
	}
	return -1
}
