package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playmatatu/pong/internal/game"
	"github.com/playmatatu/pong/internal/models"
	"github.com/playmatatu/pong/internal/protocol"
	"github.com/playmatatu/pong/internal/tournament"
)

var sides = [2]game.Side{game.SideLeft, game.SideRight}

// seat is one paddle of a match. AI seats have no connection; in local games
// both seats share one connection.
type seat struct {
	id     string // engine player id
	connID string
	userID string
	name   string
	side   game.Side
	ai     *game.AI
}

type match struct {
	id                string
	mode              string
	tournamentMatchID string
	game              *game.PongGame
	seats             map[game.Side]*seat
	required          int // bound connections needed to keep ticking
	startedAt         time.Time
	lastTick          time.Time
	cancel            game.CancelFunc
	stopped           bool
	stopOnce          sync.Once
}

func (gm *GameManager) newMatchLocked(mode, tournamentMatchID string) *match {
	id := uuid.NewString()
	m := &match{
		id:                id,
		mode:              mode,
		tournamentMatchID: tournamentMatchID,
		game:              game.NewPongGame(id, gm.opts.GameConfig, gm.nextSeed()),
		seats:             make(map[game.Side]*seat, 2),
		startedAt:         gm.sched.Now(),
	}
	gm.matches[id] = m
	return m
}

func (gm *GameManager) newAISeat(userID, name string, side game.Side, d game.Difficulty) *seat {
	id := "ai:" + string(d)
	if userID != "" {
		id = "ai:" + userID
	}
	ai := game.NewAI(id, side, d, gm.nextSeed())
	ai.SetPredictInterval(gm.opts.AIPredictInterval)
	if name == "" {
		name = "AI (" + string(d) + ")"
	}
	return &seat{id: id, userID: userID, name: name, side: side, ai: ai}
}

func (m *match) addSeat(s *seat) bool {
	if !m.game.AddPlayerAt(s.id, s.side) {
		return false
	}
	m.seats[s.side] = s
	return true
}

// seatFor resolves which paddle a move from connID drives. An explicit side
// must belong to the connection; otherwise its first seat is used.
func (m *match) seatFor(connID string, side game.Side) *seat {
	if side == game.SideLeft || side == game.SideRight {
		if s := m.seats[side]; s != nil && s.connID == connID {
			return s
		}
		return nil
	}
	for _, sd := range sides {
		if s := m.seats[sd]; s != nil && s.connID == connID {
			return s
		}
	}
	return nil
}

func (m *match) seatByID(id string) *seat {
	for _, s := range m.seats {
		if s.id == id {
			return s
		}
	}
	return nil
}

func (m *match) humanSeats() []*seat {
	out := make([]*seat, 0, 2)
	for _, sd := range sides {
		if s := m.seats[sd]; s != nil && s.ai == nil {
			out = append(out, s)
		}
	}
	return out
}

func (m *match) opponentOf(s *seat) protocol.Opponent {
	o := m.seats[s.side.Opposite()]
	if o == nil {
		return protocol.Opponent{}
	}
	return protocol.Opponent{PlayerID: o.id, DisplayName: o.name, IsAI: o.ai != nil}
}

// stop cancels the ticker exactly once. A match stopped before its ticker
// started never starts one.
func (m *match) stop() {
	m.stopped = true
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
	})
}

// boundConnsLocked returns the live connections bound to m, each once.
func (gm *GameManager) boundConnsLocked(m *match) []*connection {
	out := make([]*connection, 0, 2)
	for _, sd := range sides {
		s := m.seats[sd]
		if s == nil || s.connID == "" {
			continue
		}
		c, ok := gm.connections[s.connID]
		if !ok || c.matchID != m.id {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == c {
				dup = true
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// startTickers schedules the tick driver of each match that is still live.
func (gm *GameManager) startTickers(ms []*match) {
	for _, m := range ms {
		gm.mu.Lock()
		if cur, ok := gm.matches[m.id]; !ok || cur != m || m.stopped || m.cancel != nil {
			gm.mu.Unlock()
			continue
		}
		m.lastTick = gm.sched.Now()
		id := m.id
		m.cancel = gm.sched.Schedule(gm.opts.TickInterval, func(now time.Time) {
			gm.tick(id, now)
		})
		gm.mu.Unlock()
		log.Printf("[TICK] ticker started for match %s (%s, every %s)", m.id, m.mode, gm.opts.TickInterval)
	}
}

// tick advances one match and broadcasts the snapshot to its connections
// before returning, so every participant sees tick N before tick N+1.
func (gm *GameManager) tick(matchID string, now time.Time) {
	gm.mu.Lock()
	m, ok := gm.matches[matchID]
	if !ok {
		gm.mu.Unlock()
		return
	}

	targets := gm.boundConnsLocked(m)
	if len(targets) < m.required {
		log.Printf("[TICK] match %s has %d/%d connections; aborting", m.id, len(targets), m.required)
		out := gm.finishMatchLocked(m, models.ReasonAborted)
		gm.mu.Unlock()
		gm.flush(out)
		return
	}

	delta := now.Sub(m.lastTick)
	m.lastTick = now
	for _, sd := range sides {
		if s := m.seats[sd]; s != nil && s.ai != nil {
			s.ai.Drive(m.game, now)
		}
	}
	m.game.Tick(delta.Seconds())
	snap := m.game.Snapshot()

	out := make([]outbound, 0, len(targets)+2)
	for _, c := range targets {
		out = append(out, frameFor(c, protocol.GameState{Snapshot: snap}))
	}
	if snap.Status == game.StatusFinished {
		out = append(out, gm.finishMatchLocked(m, models.ReasonScore)...)
	}
	gm.mu.Unlock()

	gm.flush(out)
}

// finishMatchLocked stops the ticker, tells every bound connection the
// result, unbinds them and hands the record off for persistence.
// Connections stay open. An aborted tournament match submits no result and
// can be joined again.
func (gm *GameManager) finishMatchLocked(m *match, reason string) []outbound {
	m.stop()
	delete(gm.matches, m.id)
	if m.tournamentMatchID != "" {
		delete(gm.tournamentMatches, m.tournamentMatchID)
		if reason != models.ReasonAborted {
			gm.playedTournament[m.tournamentMatchID] = true
		}
	}

	snap := m.game.Snapshot()
	msg := protocol.GameFinished{MatchID: m.id, Winner: snap.Winner, Scores: snap.Scores, Reason: reason}

	var out []outbound
	for _, c := range gm.boundConnsLocked(m) {
		out = append(out, frameFor(c, msg))
		c.matchID = ""
	}

	left, right := m.game.Scores()
	log.Printf("[MATCH] match %s (%s) finished: %d-%d winner=%q reason=%s", m.id, m.mode, left, right, snap.Winner, reason)

	if m.mode != models.ModeLocal {
		rec := m.record(snap, reason, gm.sched.Now())
		var result *tournament.Result
		if m.mode == models.ModeTournament && reason != models.ReasonAborted {
			result = m.tournamentResult(snap)
		}
		gm.persistAsync(rec, result)
	}
	return out
}

func (m *match) record(snap game.Snapshot, reason string, finishedAt time.Time) models.MatchRecord {
	left, right := m.game.Scores()
	rec := models.MatchRecord{
		MatchID:      m.id,
		Mode:         m.mode,
		Player1Score: left,
		Player2Score: right,
		Reason:       reason,
		Ticks:        int64(snap.Tick),
		StartedAt:    m.startedAt,
		FinishedAt:   finishedAt,
	}
	if s := m.seats[game.SideLeft]; s != nil {
		rec.Player1ID, rec.Player1Name = s.userID, s.name
	}
	if s := m.seats[game.SideRight]; s != nil {
		rec.Player2ID, rec.Player2Name = s.userID, s.name
	}
	if m.tournamentMatchID != "" {
		rec.TournamentMatchID = models.NewNullString(m.tournamentMatchID)
	}
	if w := m.seatByID(snap.Winner); w != nil {
		rec.WinnerID = models.NewNullString(w.userID)
	}
	return rec
}

func (m *match) tournamentResult(snap game.Snapshot) *tournament.Result {
	left, right := m.game.Scores()
	r := &tournament.Result{
		MatchID:      m.tournamentMatchID,
		Player1Score: left,
		Player2Score: right,
	}
	if w := m.seatByID(snap.Winner); w != nil {
		r.WinnerID = w.userID
	}
	if humans := m.humanSeats(); len(humans) > 0 {
		r.SubmittedBy = humans[0].userID
	}
	return r
}

// persistAsync records a finished match off the tick path. Failures are
// logged; the tournament client parks results it could not deliver.
func (gm *GameManager) persistAsync(rec models.MatchRecord, result *tournament.Result) {
	if gm.recorder == nil && (result == nil || gm.tournaments == nil) {
		return
	}

	gm.wg.Add(1)
	go func() {
		defer gm.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if gm.recorder != nil {
			if err := gm.recorder.RecordMatch(ctx, rec); err != nil {
				log.Printf("[DB] failed to record match %s: %v", rec.MatchID, err)
			}
		}
		if result != nil && gm.tournaments != nil {
			if err := gm.tournaments.SubmitResult(ctx, *result); err != nil {
				log.Printf("[TOURNAMENT] result for match %s not submitted: %v", result.MatchID, err)
			} else {
				log.Printf("[TOURNAMENT] submitted result for match %s: %d-%d winner=%s", result.MatchID, result.Player1Score, result.Player2Score, result.WinnerID)
			}
		}
	}()
}
