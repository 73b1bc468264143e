package session

import (
	"errors"
	"log"

	"github.com/playmatatu/pong/internal/game"
	"github.com/playmatatu/pong/internal/models"
	"github.com/playmatatu/pong/internal/protocol"
)

// HandleRaw decodes one inbound frame and dispatches it. Unknown or
// malformed frames are logged and ignored.
func (gm *GameManager) HandleRaw(playerID string, data []byte) {
	gm.mu.Lock()
	if c, ok := gm.connections[playerID]; ok {
		c.lastSeen = gm.sched.Now()
	}
	gm.mu.Unlock()

	msg, err := protocol.Decode(data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownMessage) {
			log.Printf("[WS] ignoring frame from %s: %v", playerID, err)
		} else {
			log.Printf("[WS] malformed frame from %s: %v", playerID, err)
		}
		return
	}
	gm.HandleMessage(playerID, msg)
}

// HandleMessage applies one decoded client message.
func (gm *GameManager) HandleMessage(playerID string, msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.Move:
		gm.handleMove(playerID, m)
	case protocol.JoinQueue:
		gm.handleJoinQueue(playerID, m)
	case protocol.LeaveQueue:
		gm.handleLeaveQueue(playerID)
	case protocol.CreateLocalGame:
		if err := gm.CreateLocalGame(playerID, m.VsAI, m.Difficulty); err != nil {
			gm.sendTo(playerID, protocol.Error{Message: err.Error()})
		}
	case protocol.Ping:
		gm.sendTo(playerID, protocol.Pong{})
	case protocol.Pong:
	default:
		gm.sendTo(playerID, protocol.Error{Message: "unexpected message " + msg.Type()})
	}
}

// handleMove records a paddle intent. Moves from players outside a match, for
// a side they do not control, or for an AI paddle are dropped.
func (gm *GameManager) handleMove(playerID string, mv protocol.Move) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	c, ok := gm.connections[playerID]
	if !ok || c.matchID == "" {
		return
	}
	m, ok := gm.matches[c.matchID]
	if !ok {
		return
	}
	s := m.seatFor(c.id, mv.Side)
	if s == nil || s.ai != nil {
		return
	}
	m.game.SetMovementIntent(s.id, game.ParseDirection(string(mv.Direction)))
}

func (gm *GameManager) handleJoinQueue(playerID string, jq protocol.JoinQueue) {
	gm.mu.Lock()
	c, ok := gm.connections[playerID]
	if !ok {
		gm.mu.Unlock()
		return
	}
	if c.mode != models.ModeMultiplayer {
		gm.mu.Unlock()
		gm.sendTo(playerID, protocol.Error{Message: ErrWrongMode.Error()})
		return
	}
	if c.matchID != "" {
		gm.mu.Unlock()
		gm.sendTo(playerID, protocol.Error{Message: ErrInMatch.Error()})
		return
	}
	if c.user == nil && jq.DisplayName != "" {
		c.displayName = displayName(c, jq.DisplayName)
	}
	if gm.queuePositionLocked(c.id) == 0 {
		gm.queue = append(gm.queue, c.id)
		log.Printf("[MATCHMAKING] %s (%s) joined the queue", c.id, c.displayName)
	}

	out, started := gm.matchPlayersLocked()
	if pos := gm.queuePositionLocked(c.id); pos > 0 {
		out = append(out, frameFor(c, protocol.Waiting{Position: pos}))
	}
	gm.mu.Unlock()

	gm.flush(out)
	gm.startTickers(started)
}

func (gm *GameManager) handleLeaveQueue(playerID string) {
	gm.mu.Lock()
	removed := gm.dequeueLocked(playerID)
	gm.mu.Unlock()

	if removed {
		log.Printf("[MATCHMAKING] %s left the queue", playerID)
	}
}

// CreateLocalGame starts a match driven entirely by one connection: either
// both paddles, or the left paddle against an AI.
func (gm *GameManager) CreateLocalGame(playerID string, vsAI bool, difficulty string) error {
	gm.mu.Lock()
	c, ok := gm.connections[playerID]
	if !ok {
		gm.mu.Unlock()
		return ErrNotInMatch
	}
	if c.mode != models.ModeLocal {
		gm.mu.Unlock()
		return ErrWrongMode
	}
	if c.matchID != "" {
		gm.mu.Unlock()
		return ErrInMatch
	}

	m := gm.newMatchLocked(models.ModeLocal, "")
	m.required = 1
	m.addSeat(&seat{id: c.id, connID: c.id, userID: c.userID(), name: c.displayName, side: game.SideLeft})

	var right *seat
	if vsAI {
		d, ok := game.ParseDifficulty(difficulty)
		if !ok {
			d = game.Medium
		}
		right = gm.newAISeat("", "", game.SideRight, d)
	} else {
		right = &seat{id: c.id + "#2", connID: c.id, userID: c.userID(), name: c.displayName + " (2)", side: game.SideRight}
	}
	m.addSeat(right)
	c.matchID = m.id

	snap := m.game.Snapshot()
	left := m.seats[game.SideLeft]
	out := []outbound{
		frameFor(c, protocol.GameJoined{MatchID: m.id, Side: game.SideLeft, Opponent: m.opponentOf(left)}),
		frameFor(c, protocol.GameStarted{Snapshot: snap}),
	}
	gm.mu.Unlock()

	log.Printf("[MATCH] local match %s created for %s (vs AI: %t)", m.id, playerID, vsAI)
	gm.flush(out)
	gm.startTickers([]*match{m})
	return nil
}
