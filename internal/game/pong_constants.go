package game

import (
	"errors"
	"fmt"
)

// Board and physics defaults. Speeds are board units per tick at ReferenceTickRate.
const (
	ReferenceTickRate = 60

	DefaultBoardWidth  = 800.0
	DefaultBoardHeight = 400.0

	DefaultPaddleSpeed   = 6.0
	DefaultBallSpeed     = 5.0
	DefaultMaxBallSpeed  = 15.0
	DefaultSpeedUp       = 1.05
	DefaultSpinFactor    = 6.0
	DefaultPaddleCarry   = 0.2
	DefaultMaxScore      = 5
	DefaultServeDelay    = 60
	DefaultServeMaxAngle = 0.35 // vy/vx ratio bound for a fresh serve

	// maxTickScale caps how many reference ticks a single Tick may integrate
	// after a stalled caller.
	maxTickScale = 4.0
)

// GameConfig is fixed for the lifetime of a match.
type GameConfig struct {
	BoardWidth   float64 `json:"boardWidth" yaml:"board_width"`
	BoardHeight  float64 `json:"boardHeight" yaml:"board_height"`
	PaddleWidth  float64 `json:"paddleWidth" yaml:"paddle_width"`
	PaddleHeight float64 `json:"paddleHeight" yaml:"paddle_height"`
	PaddleInset  float64 `json:"paddleInset" yaml:"paddle_inset"`
	PaddleSpeed  float64 `json:"paddleSpeed" yaml:"paddle_speed"`
	BallRadius   float64 `json:"ballRadius" yaml:"ball_radius"`
	BallSpeed    float64 `json:"ballSpeed" yaml:"ball_speed"`
	MaxBallSpeed float64 `json:"maxBallSpeed" yaml:"max_ball_speed"`
	SpeedUp      float64 `json:"speedUp" yaml:"speed_up"`
	SpinFactor   float64 `json:"spinFactor" yaml:"spin_factor"`
	PaddleCarry  float64 `json:"paddleCarry" yaml:"paddle_carry"`
	ServeDelay   int     `json:"serveDelay" yaml:"serve_delay_ticks"`
	MaxScore     int     `json:"maxScore" yaml:"max_score"`
}

// NewGameConfig derives paddle and ball sizes from the board dimensions.
func NewGameConfig(width, height float64) GameConfig {
	return GameConfig{
		BoardWidth:   width,
		BoardHeight:  height,
		PaddleWidth:  width / 80,
		PaddleHeight: height / 5,
		PaddleInset:  width / 80,
		PaddleSpeed:  DefaultPaddleSpeed,
		BallRadius:   height / 50,
		BallSpeed:    DefaultBallSpeed,
		MaxBallSpeed: DefaultMaxBallSpeed,
		SpeedUp:      DefaultSpeedUp,
		SpinFactor:   DefaultSpinFactor,
		PaddleCarry:  DefaultPaddleCarry,
		ServeDelay:   DefaultServeDelay,
		MaxScore:     DefaultMaxScore,
	}
}

// DefaultGameConfig is an 800x400 board, first to 5.
func DefaultGameConfig() GameConfig {
	return NewGameConfig(DefaultBoardWidth, DefaultBoardHeight)
}

// Validate reports the first inconsistent field.
func (c GameConfig) Validate() error {
	switch {
	case c.BoardWidth <= 0 || c.BoardHeight <= 0:
		return errors.New("board dimensions must be positive")
	case c.PaddleHeight <= 0 || c.PaddleHeight > c.BoardHeight:
		return fmt.Errorf("paddle height %.1f out of range", c.PaddleHeight)
	case c.PaddleWidth <= 0 || c.PaddleInset < 0:
		return errors.New("paddle width must be positive and inset non-negative")
	case c.BallRadius <= 0 || 2*c.BallRadius >= c.BoardHeight:
		return fmt.Errorf("ball radius %.1f out of range", c.BallRadius)
	case c.BallSpeed <= 0 || c.MaxBallSpeed < c.BallSpeed:
		return errors.New("ball speed must be positive and not above max ball speed")
	case c.SpeedUp < 1:
		return errors.New("speed up factor must be >= 1")
	case c.MaxScore <= 0:
		return errors.New("max score must be positive")
	case c.ServeDelay < 0:
		return errors.New("serve delay must be non-negative")
	}
	return nil
}

// leftFaceX is the x of the left paddle's hitting face.
func (c GameConfig) leftFaceX() float64 {
	return c.PaddleInset + c.PaddleWidth
}

// rightFaceX is the x of the right paddle's hitting face.
func (c GameConfig) rightFaceX() float64 {
	return c.BoardWidth - c.PaddleInset - c.PaddleWidth
}
