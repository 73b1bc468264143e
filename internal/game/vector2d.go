package game

import "math"

// Vec2 is a 2D vector in board units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// ClampMagnitude scales v down so its length does not exceed max. Direction is kept.
func (v Vec2) ClampMagnitude(max float64) Vec2 {
	m := v.Magnitude()
	if m <= max || m == 0 {
		return v
	}
	return v.Times(max / m)
}

// Lerp interpolates from v to o; t=0 yields v, t=1 yields o.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{X: v.X + (o.X-v.X)*t, Y: v.Y + (o.Y-v.Y)*t}
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
