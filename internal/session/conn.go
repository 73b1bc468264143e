package session

import (
	"errors"
	"log"

	"github.com/playmatatu/pong/internal/protocol"
)

// Conn is one client's transport. Send must not block; a full or broken
// connection reports an error and is dropped by the manager.
type Conn interface {
	Send(data []byte) error
	Close(code int, reason string) error
}

// Close codes, as in RFC 6455.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
)

// AuthContext is what the transport extracted from the handshake.
type AuthContext struct {
	Token       string
	DisplayName string
	MatchID     string // tournament mode only
}

var (
	ErrUnknownMode  = errors.New("unknown game mode")
	ErrInMatch      = errors.New("player already in a match")
	ErrNotInMatch   = errors.New("player is not in a match")
	ErrWrongMode    = errors.New("message not valid in this mode")
	ErrSeatTaken    = errors.New("seat already taken")
	ErrMatchPlayed  = errors.New("tournament match already played")
	ErrNoMatchID    = errors.New("tournament match id required")
	ErrNoHumanSeats = errors.New("tournament match has no human participants")
)

// outbound is a frame queued while the manager lock is held and sent after
// it is released.
type outbound struct {
	playerID string
	conn     Conn
	frame    []byte
}

func frameFor(c *connection, msg protocol.Message) outbound {
	b, err := protocol.Encode(msg)
	if err != nil {
		log.Printf("[WS] failed to encode %s for %s: %v", msg.Type(), c.id, err)
	}
	return outbound{playerID: c.id, conn: c.conn, frame: b}
}
