package game

// Paddle is one player's paddle. Y is the top edge.
type Paddle struct {
	ID     string
	Side   Side
	X      float64
	Y      float64
	Width  float64
	Height float64
	GoUp   bool
	GoDown bool
	Speed  float64 // signed movement applied on the last tick, negative is up
	Score  int
}

// PaddleState is the serialized form of a Paddle.
type PaddleState struct {
	ID     string  `json:"id"`
	Side   Side    `json:"side"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	GoUp   bool    `json:"goUp"`
	GoDown bool    `json:"goDown"`
	Speed  float64 `json:"speed"`
	Score  int     `json:"score"`
}

// NewPaddle places a paddle on its side, vertically centered.
func NewPaddle(id string, side Side, cfg GameConfig) *Paddle {
	x := cfg.PaddleInset
	if side == SideRight {
		x = cfg.BoardWidth - cfg.PaddleInset - cfg.PaddleWidth
	}
	return &Paddle{
		ID:     id,
		Side:   side,
		X:      x,
		Y:      (cfg.BoardHeight - cfg.PaddleHeight) / 2,
		Width:  cfg.PaddleWidth,
		Height: cfg.PaddleHeight,
	}
}

// SetIntent replaces the movement flags; the latest intent wins.
func (p *Paddle) SetIntent(dir Direction) {
	p.GoUp = dir == DirUp
	p.GoDown = dir == DirDown
}

// Intent returns the current movement flags as a Direction.
func (p *Paddle) Intent() Direction {
	switch {
	case p.GoUp && !p.GoDown:
		return DirUp
	case p.GoDown && !p.GoUp:
		return DirDown
	}
	return DirNone
}

// Update applies the movement intent and clamps the paddle to the board.
func (p *Paddle) Update(scale, speed, boardHeight float64) {
	before := p.Y
	switch p.Intent() {
	case DirUp:
		p.Y -= speed * scale
	case DirDown:
		p.Y += speed * scale
	}
	p.Y = clampF(p.Y, 0, boardHeight-p.Height)
	if scale > 0 {
		p.Speed = (p.Y - before) / scale
	} else {
		p.Speed = 0
	}
}

// Center is the vertical middle of the paddle.
func (p *Paddle) Center() float64 {
	return p.Y + p.Height/2
}

// State returns the wire form of the paddle.
func (p *Paddle) State() PaddleState {
	return PaddleState{
		ID:     p.ID,
		Side:   p.Side,
		X:      p.X,
		Y:      p.Y,
		Width:  p.Width,
		Height: p.Height,
		GoUp:   p.GoUp,
		GoDown: p.GoDown,
		Speed:  p.Speed,
		Score:  p.Score,
	}
}
