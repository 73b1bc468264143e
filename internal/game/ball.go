package game

import (
	"math"
	"math/rand"
)

// Ball is the single ball of a match.
type Ball struct {
	Pos    Vec2
	Vel    Vec2
	Radius float64
}

// BallState is the serialized form of a Ball.
type BallState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
	Speed  float64 `json:"speed"`
}

// State returns the wire form of the ball.
func (b *Ball) State() BallState {
	return BallState{
		X:      b.Pos.X,
		Y:      b.Pos.Y,
		VX:     b.Vel.X,
		VY:     b.Vel.Y,
		Radius: b.Radius,
		Speed:  b.Speed(),
	}
}

// Speed is the velocity magnitude.
func (b *Ball) Speed() float64 {
	return b.Vel.Magnitude()
}

// Center parks the ball at the middle of the board with zero velocity.
func (b *Ball) Center(cfg GameConfig) {
	b.Pos = NewVec2(cfg.BoardWidth/2, cfg.BoardHeight/2)
	b.Vel = Vec2{}
	b.Radius = cfg.BallRadius
}

// Serve launches the ball from its current position toward the given side
// with a small random vertical component.
func (b *Ball) Serve(cfg GameConfig, toward Side, rng *rand.Rand) {
	dir := 1.0
	if toward == SideLeft {
		dir = -1.0
	}
	ratio := (rng.Float64()*2 - 1) * DefaultServeMaxAngle
	v := NewVec2(dir, ratio)
	b.Vel = v.Times(cfg.BallSpeed / v.Magnitude())
}

// Reset centers the ball and serves it toward a random side.
func (b *Ball) Reset(cfg GameConfig, rng *rand.Rand) {
	b.Center(cfg)
	side := SideLeft
	if rng.Intn(2) == 1 {
		side = SideRight
	}
	b.Serve(cfg, side, rng)
}

// Move integrates position by velocity scaled to reference ticks.
func (b *Ball) Move(scale float64) {
	b.Pos = b.Pos.Plus(b.Vel.Times(scale))
}

// BounceWalls reflects the ball off the top and bottom walls. The position
// is folded back inside and clamped so a single tick can never leave the ball
// outside [radius, height-radius]. Reports whether a wall was hit.
func (b *Ball) BounceWalls(height float64) bool {
	lo, hi := b.Radius, height-b.Radius
	hit := false
	if b.Pos.Y < lo {
		b.Pos.Y = 2*lo - b.Pos.Y
		b.Vel.Y = math.Abs(b.Vel.Y)
		hit = true
	} else if b.Pos.Y > hi {
		b.Pos.Y = 2*hi - b.Pos.Y
		b.Vel.Y = -math.Abs(b.Vel.Y)
		hit = true
	}
	b.Pos.Y = clampF(b.Pos.Y, lo, hi)
	return hit
}

// HitsPaddle reports whether the ball, having moved from prevX to its
// current x, struck the paddle's face this tick.
func (b *Ball) HitsPaddle(p *Paddle, prevX float64) bool {
	if b.Pos.Y+b.Radius < p.Y || b.Pos.Y-b.Radius > p.Y+p.Height {
		return false
	}
	if p.Side == SideLeft {
		if b.Vel.X >= 0 {
			return false
		}
		face := p.X + p.Width
		return b.Pos.X-b.Radius <= face && prevX-b.Radius >= p.X
	}
	if b.Vel.X <= 0 {
		return false
	}
	face := p.X
	return b.Pos.X+b.Radius >= face && prevX+b.Radius <= p.X+p.Width
}

// Deflect bounces the ball off a paddle: horizontal direction reversed, a
// vertical kick from the impact offset and paddle motion, speed-up, and the
// speed cap. The ball is left flush against the paddle face.
func (b *Ball) Deflect(p *Paddle, cfg GameConfig) {
	offset := clampF((b.Pos.Y-p.Y)/p.Height-0.5, -0.5, 0.5)

	vx := math.Abs(b.Vel.X)
	if p.Side == SideRight {
		vx = -vx
	}
	vy := b.Vel.Y + offset*cfg.SpinFactor + p.Speed*cfg.PaddleCarry

	// keep the ball travelling mostly sideways
	if limit := math.Abs(vx) * 1.5; math.Abs(vy) > limit {
		vy = math.Copysign(limit, vy)
	}

	b.Vel = NewVec2(vx, vy).Times(cfg.SpeedUp).ClampMagnitude(cfg.MaxBallSpeed)

	if p.Side == SideLeft {
		b.Pos.X = p.X + p.Width + b.Radius
	} else {
		b.Pos.X = p.X - b.Radius
	}
}
