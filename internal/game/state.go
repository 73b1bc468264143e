package game

// GameStatus represents the current state of a match
type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusPlaying  GameStatus = "playing"
	StatusPaused   GameStatus = "paused"
	StatusFinished GameStatus = "finished"
)

// Side is the half of the board a paddle defends.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

func (s Side) index() int {
	if s == SideRight {
		return 1
	}
	return 0
}

// Direction is a paddle movement intent.
type Direction string

const (
	DirNone Direction = "none"
	DirUp   Direction = "up"
	DirDown Direction = "down"
)

// ParseDirection accepts the wire spellings; anything else is DirNone.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case DirUp:
		return DirUp
	case DirDown:
		return DirDown
	}
	return DirNone
}
