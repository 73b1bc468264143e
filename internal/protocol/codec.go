package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrMalformed      = errors.New("malformed message")
)

// Encode wraps msg in an envelope. Messages without fields carry no data.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("encode: nil message")
	}

	env := Envelope{Type: msg.Type()}
	switch msg.(type) {
	case LeaveQueue, Ping, Pong:
	default:
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", msg.Type(), err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// MustEncode is Encode for messages that cannot fail to marshal.
func MustEncode(msg Message) []byte {
	b, err := Encode(msg)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode parses a frame. An unparsable envelope or payload wraps ErrMalformed;
// a well-formed envelope with an unrecognised tag returns ErrUnknownMessage.
func Decode(b []byte) (Message, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformed)
	}

	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeJoinQueue:
		return decodeData[JoinQueue](env)
	case TypeLeaveQueue:
		return LeaveQueue{}, nil
	case TypeMove:
		return decodeData[Move](env)
	case TypeCreateLocalGame:
		return decodeData[CreateLocalGame](env)
	case TypePing:
		return Ping{}, nil
	case TypePong:
		return Pong{}, nil
	case TypeConnected:
		return decodeData[Connected](env)
	case TypeWaiting:
		return decodeData[Waiting](env)
	case TypeGameJoined:
		return decodeData[GameJoined](env)
	case TypeGameStarted:
		return decodeData[GameStarted](env)
	case TypeGameState:
		return decodeData[GameState](env)
	case TypeGameFinished:
		return decodeData[GameFinished](env)
	case TypePlayerLeft:
		return decodeData[PlayerLeft](env)
	case TypeError:
		return decodeData[Error](env)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
}

// decodeData treats a missing or null payload as the zero value.
func decodeData[T Message](env Envelope) (Message, error) {
	var out T
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformed, env.Type, err)
	}
	return out, nil
}
