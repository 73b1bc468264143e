package session

import (
	"context"
	"fmt"
	"log"

	"github.com/playmatatu/pong/internal/auth"
	"github.com/playmatatu/pong/internal/game"
	"github.com/playmatatu/pong/internal/models"
	"github.com/playmatatu/pong/internal/protocol"
	"github.com/playmatatu/pong/internal/tournament"
)

// fetchTournamentMatch loads the match from the tournament service and checks
// that user is one of its human participants. Called without gm.mu held.
func (gm *GameManager) fetchTournamentMatch(ctx context.Context, matchID string, user *auth.Identity) (tournament.MatchDetails, error) {
	if matchID == "" {
		return tournament.MatchDetails{}, ErrNoMatchID
	}
	if gm.tournaments == nil {
		return tournament.MatchDetails{}, tournament.ErrNotConfigured
	}

	gm.mu.RLock()
	played := gm.playedTournament[matchID]
	gm.mu.RUnlock()
	if played {
		return tournament.MatchDetails{}, ErrMatchPlayed
	}

	details, err := gm.tournaments.GetMatch(ctx, matchID)
	if err != nil {
		return tournament.MatchDetails{}, err
	}
	if details.MatchID == "" {
		details.MatchID = matchID
	}
	if details.Player1.IsAI && details.Player2.IsAI {
		return tournament.MatchDetails{}, ErrNoHumanSeats
	}

	switch details.Seat(user.ID) {
	case 1:
		if details.Player1.IsAI {
			return tournament.MatchDetails{}, tournament.ErrNotParticipant
		}
	case 2:
		if details.Player2.IsAI {
			return tournament.MatchDetails{}, tournament.ErrNotParticipant
		}
	default:
		return tournament.MatchDetails{}, tournament.ErrNotParticipant
	}
	return details, nil
}

// joinTournamentLocked binds c to the local match for details, creating it on
// first arrival. Player1 plays left. AI participants are seated at creation;
// the match starts once every human seat is filled.
func (gm *GameManager) joinTournamentLocked(c *connection, details tournament.MatchDetails) ([]outbound, []*match, error) {
	if gm.playedTournament[details.MatchID] {
		return nil, nil, ErrMatchPlayed
	}

	m, created := gm.tournamentMatchLocked(details)

	side := game.SideLeft
	if details.Seat(c.user.ID) == 2 {
		side = game.SideRight
	}
	if m.seats[side] != nil {
		gm.discardIfEmptyLocked(m, created)
		return nil, nil, ErrSeatTaken
	}

	s := &seat{id: c.id, connID: c.id, userID: c.user.ID, name: c.displayName, side: side}
	if !m.addSeat(s) {
		gm.discardIfEmptyLocked(m, created)
		return nil, nil, fmt.Errorf("%w: cannot seat %s on %s", ErrSeatTaken, c.user.ID, side)
	}
	c.matchID = m.id

	log.Printf("[TOURNAMENT] user %s joined match %s (tournament match %s) on the %s", c.user.ID, m.id, details.MatchID, side)

	if m.game.Status() != game.StatusPlaying {
		return []outbound{frameFor(c, protocol.Waiting{})}, nil, nil
	}

	var out []outbound
	snap := m.game.Snapshot()
	for _, h := range m.humanSeats() {
		hc, ok := gm.connections[h.connID]
		if !ok {
			continue
		}
		out = append(out, frameFor(hc, protocol.GameJoined{MatchID: m.id, Side: h.side, Opponent: m.opponentOf(h)}))
	}
	for _, bc := range gm.boundConnsLocked(m) {
		out = append(out, frameFor(bc, protocol.GameStarted{Snapshot: snap}))
	}
	log.Printf("[TOURNAMENT] match %s started", details.MatchID)
	return out, []*match{m}, nil
}

func (gm *GameManager) tournamentMatchLocked(details tournament.MatchDetails) (*match, bool) {
	if id, ok := gm.tournamentMatches[details.MatchID]; ok {
		if m, ok := gm.matches[id]; ok {
			return m, false
		}
	}

	m := gm.newMatchLocked(models.ModeTournament, details.MatchID)
	gm.tournamentMatches[details.MatchID] = m.id

	for i, p := range []tournament.Participant{details.Player1, details.Player2} {
		side := sides[i]
		if !p.IsAI {
			m.required++
			continue
		}
		d, ok := game.ParseDifficulty(p.AIDifficulty)
		if !ok {
			d = game.Medium
		}
		m.addSeat(gm.newAISeat(p.UserID, p.Username, side, d))
	}
	return m, true
}

func (gm *GameManager) discardIfEmptyLocked(m *match, created bool) {
	if !created || len(m.humanSeats()) > 0 {
		return
	}
	m.stop()
	delete(gm.matches, m.id)
	delete(gm.tournamentMatches, m.tournamentMatchID)
}
