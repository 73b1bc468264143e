package game

import (
	"math"
	"math/rand"
	"strings"
	"time"
)

// Difficulty selects an AI skill tier.
type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Medium Difficulty = "MEDIUM"
	Hard   Difficulty = "HARD"
)

// maxReflections bounds the wall-fold loop in prediction.
const maxReflections = 10

// DefaultPredictInterval is how often an AI refreshes its intercept target.
const DefaultPredictInterval = time.Second

// ParseDifficulty is case-insensitive; unknown values report false.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(strings.ToUpper(strings.TrimSpace(s))) {
	case Easy:
		return Easy, true
	case Medium:
		return Medium, true
	case Hard:
		return Hard, true
	}
	return "", false
}

// DifficultyProfile tunes an AI's judgment and reflexes.
type DifficultyProfile struct {
	Tolerance          float64       // dead-zone in board units before the paddle moves
	PredictionAccuracy float64       // probability the predicted intercept is used unperturbed
	ReactionDelay      time.Duration // minimum time between movement decisions
	ErrorMagnitude     float64       // max offset added to a perturbed target
	BlunderChance      float64       // chance of ignoring the prediction entirely
	JitterChance       float64       // per-decision chance of a spurious move
}

var profiles = map[Difficulty]DifficultyProfile{
	Easy: {
		Tolerance:          30,
		PredictionAccuracy: 0.5,
		ReactionDelay:      300 * time.Millisecond,
		ErrorMagnitude:     120,
		BlunderChance:      0.05,
		JitterChance:       0.02,
	},
	Medium: {
		Tolerance:          15,
		PredictionAccuracy: 0.75,
		ReactionDelay:      150 * time.Millisecond,
		ErrorMagnitude:     60,
	},
	Hard: {
		Tolerance:          5,
		PredictionAccuracy: 0.95,
		ReactionDelay:      50 * time.Millisecond,
		ErrorMagnitude:     20,
	},
}

// ProfileFor returns the profile of a tier; unknown tiers get Medium.
func ProfileFor(d Difficulty) DifficultyProfile {
	if p, ok := profiles[d]; ok {
		return p
	}
	return profiles[Medium]
}

// AI drives one paddle. Predict is the expensive judgment step and runs on a
// slow cadence; MovePaddle is the cheap per-tick reflex step.
type AI struct {
	id           string
	side         Side
	difficulty   Difficulty
	profile      DifficultyProfile
	rng          *rand.Rand
	target       float64
	hasTarget    bool
	intent       Direction
	lastDecision time.Time
	lastPredict  time.Time
	predictEvery time.Duration
}

// NewAI creates an opponent for the paddle with the given id and side.
func NewAI(id string, side Side, d Difficulty, seed int64) *AI {
	return &AI{
		id:           id,
		side:         side,
		difficulty:   d,
		profile:      ProfileFor(d),
		rng:          rand.New(rand.NewSource(seed)),
		intent:       DirNone,
		predictEvery: DefaultPredictInterval,
	}
}

func (ai *AI) ID() string                 { return ai.id }
func (ai *AI) Side() Side                 { return ai.side }
func (ai *AI) Difficulty() Difficulty     { return ai.difficulty }
func (ai *AI) Profile() DifficultyProfile { return ai.profile }
func (ai *AI) Target() float64            { return ai.target }
func (ai *AI) Intent() Direction          { return ai.intent }

// SetPredictInterval changes the Predict cadence used by Drive.
func (ai *AI) SetPredictInterval(d time.Duration) {
	if d > 0 {
		ai.predictEvery = d
	}
}

// Predict computes and stores the paddle-center target for the next intercept.
func (ai *AI) Predict(s Snapshot) float64 {
	own, ok := s.Paddle(ai.side)
	if !ok {
		return ai.target
	}
	cfg := s.Config
	b := s.Ball

	if b.VX == 0 && b.VY == 0 {
		ai.setTarget(own.Y+own.Height/2, own, cfg)
		return ai.target
	}

	lo, hi := b.Radius, cfg.BoardHeight-b.Radius
	ownX, oppX := ai.contactX(cfg, b.Radius, ai.side), ai.contactX(cfg, b.Radius, ai.side.Opposite())

	x, y, vx, vy := b.X, b.Y, b.VX, b.VY
	approaching := (ai.side == SideRight && vx > 0) || (ai.side == SideLeft && vx < 0)
	if !approaching {
		if vx == 0 {
			ai.setTarget(own.Y+own.Height/2, own, cfg)
			return ai.target
		}
		// play the rally out to the opponent's paddle and mirror the return
		t := math.Max((oppX-x)/vx, 0)
		y, vy = foldReflect(y, vy, t, lo, hi)
		x, vx = oppX, -vx
	}

	t := math.Max((ownX-x)/vx, 0)
	target, _ := foldReflect(y, vy, t, lo, hi)

	if ai.rng.Float64() >= ai.profile.PredictionAccuracy {
		target += (ai.rng.Float64()*2 - 1) * ai.profile.ErrorMagnitude
	}
	if ai.profile.BlunderChance > 0 && ai.rng.Float64() < ai.profile.BlunderChance {
		target = lo + ai.rng.Float64()*(hi-lo)
	}

	ai.setTarget(target, own, cfg)
	return ai.target
}

func (ai *AI) setTarget(y float64, own PaddleState, cfg GameConfig) {
	half := own.Height / 2
	ai.target = clampF(y, half, cfg.BoardHeight-half)
	ai.hasTarget = true
}

// contactX is the ball-center x at which the ball meets side's paddle face.
func (ai *AI) contactX(cfg GameConfig, radius float64, side Side) float64 {
	if side == SideRight {
		return cfg.rightFaceX() - radius
	}
	return cfg.leftFaceX() + radius
}

// MovePaddle decides the movement intent toward the stored target. Within
// ReactionDelay of the previous decision the intent is left unchanged.
func (ai *AI) MovePaddle(s Snapshot, now time.Time) Direction {
	if !ai.lastDecision.IsZero() && now.Sub(ai.lastDecision) < ai.profile.ReactionDelay {
		return ai.intent
	}
	ai.lastDecision = now

	own, ok := s.Paddle(ai.side)
	if !ok {
		ai.intent = DirNone
		return ai.intent
	}
	center := own.Y + own.Height/2
	if !ai.hasTarget {
		ai.target = center
	}

	diff := ai.target - center
	switch {
	case math.Abs(diff) <= ai.profile.Tolerance:
		ai.intent = DirNone
	case diff < 0:
		ai.intent = DirUp
	default:
		ai.intent = DirDown
	}

	if ai.profile.JitterChance > 0 && ai.rng.Float64() < ai.profile.JitterChance {
		if ai.rng.Intn(2) == 0 {
			ai.intent = DirUp
		} else {
			ai.intent = DirDown
		}
	}
	return ai.intent
}

// Drive runs one engine tick's worth of AI: refresh the prediction when due,
// then apply the movement decision to the match.
func (ai *AI) Drive(g *PongGame, now time.Time) {
	s := g.Snapshot()
	if !ai.hasTarget || now.Sub(ai.lastPredict) >= ai.predictEvery {
		ai.Predict(s)
		ai.lastPredict = now
	}
	g.SetMovementIntent(ai.id, ai.MovePaddle(s, now))
}

// foldReflect advances y by vy*t and folds the result back between lo and hi
// as the walls would, instead of clamping. Returns the folded y and the
// vertical velocity after the reflections.
func foldReflect(y, vy, t, lo, hi float64) (float64, float64) {
	y += vy * t
	for i := 0; i < maxReflections; i++ {
		switch {
		case y < lo:
			y = 2*lo - y
			vy = -vy
		case y > hi:
			y = 2*hi - y
			vy = -vy
		default:
			return y, vy
		}
	}
	return clampF(y, lo, hi), vy
}
