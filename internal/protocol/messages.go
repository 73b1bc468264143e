package protocol

import (
	"encoding/json"

	"github.com/playmatatu/pong/internal/game"
)

// Message type tags as they appear on the wire.
const (
	TypeJoinQueue       = "join_queue"
	TypeLeaveQueue      = "leave_queue"
	TypeMove            = "move"
	TypeCreateLocalGame = "createLocalGame"
	TypePing            = "ping"
	TypePong            = "pong"

	TypeConnected    = "connected"
	TypeWaiting      = "waiting"
	TypeGameJoined   = "game_joined"
	TypeGameStarted  = "gameStarted"
	TypeGameState    = "gameState"
	TypeGameFinished = "gameFinished"
	TypePlayerLeft   = "playerLeft"
	TypeError        = "error"
)

// Envelope is the frame every message travels in.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is implemented only by the types in this file.
type Message interface {
	Type() string
	isMessage()
}

// UserInfo is the identity attached to a connection, empty for anonymous players.
type UserInfo struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Opponent describes the other side of a match.
type Opponent struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName,omitempty"`
	IsAI        bool   `json:"isAi,omitempty"`
}

// client -> server

type JoinQueue struct {
	DisplayName string `json:"displayName,omitempty"`
}

type LeaveQueue struct{}

type Move struct {
	Direction game.Direction `json:"direction"`
	Side      game.Side      `json:"side,omitempty"` // local games only
}

type CreateLocalGame struct {
	VsAI       bool   `json:"vsAi,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// both directions

type Ping struct{}

type Pong struct{}

// server -> client

type Connected struct {
	PlayerID string    `json:"playerId"`
	Mode     string    `json:"mode"`
	User     *UserInfo `json:"user,omitempty"`
}

type Waiting struct {
	Position int `json:"position,omitempty"`
}

type GameJoined struct {
	MatchID  string    `json:"matchId"`
	Side     game.Side `json:"side"`
	Opponent Opponent  `json:"opponent"`
}

type GameStarted struct {
	Snapshot game.Snapshot `json:"snapshot"`
}

type GameState struct {
	Snapshot game.Snapshot `json:"snapshot"`
}

type GameFinished struct {
	MatchID string         `json:"matchId"`
	Winner  string         `json:"winner,omitempty"`
	Scores  map[string]int `json:"scores"`
	Reason  string         `json:"reason"`
}

type PlayerLeft struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName,omitempty"`
	Message     string `json:"message"`
	Forfeit     bool   `json:"forfeit"`
}

type Error struct {
	Message string `json:"message"`
}

func (JoinQueue) Type() string       { return TypeJoinQueue }
func (LeaveQueue) Type() string      { return TypeLeaveQueue }
func (Move) Type() string            { return TypeMove }
func (CreateLocalGame) Type() string { return TypeCreateLocalGame }
func (Ping) Type() string            { return TypePing }
func (Pong) Type() string            { return TypePong }
func (Connected) Type() string       { return TypeConnected }
func (Waiting) Type() string         { return TypeWaiting }
func (GameJoined) Type() string      { return TypeGameJoined }
func (GameStarted) Type() string     { return TypeGameStarted }
func (GameState) Type() string       { return TypeGameState }
func (GameFinished) Type() string    { return TypeGameFinished }
func (PlayerLeft) Type() string      { return TypePlayerLeft }
func (Error) Type() string           { return TypeError }

func (JoinQueue) isMessage()       {}
func (LeaveQueue) isMessage()      {}
func (Move) isMessage()            {}
func (CreateLocalGame) isMessage() {}
func (Ping) isMessage()            {}
func (Pong) isMessage()            {}
func (Connected) isMessage()       {}
func (Waiting) isMessage()         {}
func (GameJoined) isMessage()      {}
func (GameStarted) isMessage()     {}
func (GameState) isMessage()       {}
func (GameFinished) isMessage()    {}
func (PlayerLeft) isMessage()      {}
func (Error) isMessage()           {}
