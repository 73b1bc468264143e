package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playmatatu/pong/internal/auth"
	"github.com/playmatatu/pong/internal/game"
	"github.com/playmatatu/pong/internal/models"
	"github.com/playmatatu/pong/internal/protocol"
	"github.com/playmatatu/pong/internal/tournament"
)

// Recorder persists finished matches.
type Recorder interface {
	RecordMatch(ctx context.Context, rec models.MatchRecord) error
}

// Options tune the manager. Zero values fall back to defaults.
type Options struct {
	GameConfig              game.GameConfig
	TickInterval            time.Duration
	AIPredictInterval       time.Duration
	MultiplayerRequiresAuth bool
	IdleTimeout             time.Duration // 0 never drops idle connections
	Seed                    int64
}

// Deps are the manager's collaborators. Only Scheduler is required; a nil
// Scheduler means real time.
type Deps struct {
	Scheduler   game.Scheduler
	Verifier    auth.Verifier
	Tournaments tournament.Service
	Recorder    Recorder
}

type connection struct {
	id          string
	conn        Conn
	mode        string
	user        *auth.Identity
	displayName string
	matchID     string
	lastSeen    time.Time
}

func (c *connection) userID() string {
	if c.user != nil {
		return c.user.ID
	}
	return c.id
}

func (c *connection) userInfo() *protocol.UserInfo {
	if c.user == nil {
		return nil
	}
	return &protocol.UserInfo{ID: c.user.ID, Username: c.user.Username, Email: c.user.Email}
}

// GameManager owns the connection table, the FIFO matchmaking queue and the
// active matches. It is the only component that knows network identities.
type GameManager struct {
	opts        Options
	sched       game.Scheduler
	verifier    auth.Verifier
	tournaments tournament.Service
	recorder    Recorder

	connections       map[string]*connection // player id -> connection
	queue             []string               // player ids, oldest first
	matches           map[string]*match      // match id -> match
	tournamentMatches map[string]string      // tournament match id -> match id
	playedTournament  map[string]bool
	seed              int64
	wg                sync.WaitGroup
	mu                sync.RWMutex
}

// NewGameManager creates a manager with no connections.
func NewGameManager(opts Options, deps Deps) *GameManager {
	if opts.GameConfig.BoardWidth == 0 {
		opts.GameConfig = game.DefaultGameConfig()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / game.ReferenceTickRate
	}
	if opts.AIPredictInterval <= 0 {
		opts.AIPredictInterval = game.DefaultPredictInterval
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = game.TickerScheduler{}
	}

	return &GameManager{
		opts:              opts,
		sched:             deps.Scheduler,
		verifier:          deps.Verifier,
		tournaments:       deps.Tournaments,
		recorder:          deps.Recorder,
		connections:       make(map[string]*connection),
		matches:           make(map[string]*match),
		tournamentMatches: make(map[string]string),
		playedTournament:  make(map[string]bool),
		seed:              opts.Seed,
	}
}

// nextSeed must be called with gm.mu held.
func (gm *GameManager) nextSeed() int64 {
	gm.seed++
	return gm.seed
}

// RegisterConnection authenticates conn for mode and issues it a player id.
// Multiplayer connections are queued and paired immediately when possible;
// tournament connections are bound to their externally supplied match; local
// connections wait for createLocalGame. On failure the socket is closed with
// a policy-violation code and no queue or match state is created.
func (gm *GameManager) RegisterConnection(ctx context.Context, conn Conn, ac AuthContext, mode string) (string, error) {
	switch mode {
	case models.ModeMultiplayer, models.ModeLocal, models.ModeTournament:
	default:
		gm.reject(conn, fmt.Sprintf("unknown game mode %q", mode))
		return "", ErrUnknownMode
	}

	user, err := gm.authenticate(ctx, ac.Token, mode)
	if err != nil {
		log.Printf("[AUTH] rejecting %s connection: %v", mode, err)
		gm.reject(conn, "authentication failed")
		return "", err
	}

	var details tournament.MatchDetails
	if mode == models.ModeTournament {
		details, err = gm.fetchTournamentMatch(ctx, ac.MatchID, user)
		if err != nil {
			log.Printf("[TOURNAMENT] rejecting user %s for match %q: %v", user.ID, ac.MatchID, err)
			gm.reject(conn, err.Error())
			return "", err
		}
	}

	c := &connection{
		id:       uuid.NewString(),
		conn:     conn,
		mode:     mode,
		user:     user,
		lastSeen: gm.sched.Now(),
	}
	c.displayName = displayName(c, ac.DisplayName)

	gm.mu.Lock()
	gm.connections[c.id] = c
	out := []outbound{frameFor(c, protocol.Connected{PlayerID: c.id, Mode: mode, User: c.userInfo()})}
	var started []*match

	switch mode {
	case models.ModeMultiplayer:
		gm.queue = append(gm.queue, c.id)
		o, s := gm.matchPlayersLocked()
		out, started = append(out, o...), s
		if pos := gm.queuePositionLocked(c.id); pos > 0 {
			out = append(out, frameFor(c, protocol.Waiting{Position: pos}))
		}
	case models.ModeTournament:
		o, s, err := gm.joinTournamentLocked(c, details)
		if err != nil {
			delete(gm.connections, c.id)
			gm.mu.Unlock()
			log.Printf("[TOURNAMENT] user %s cannot join match %s: %v", user.ID, details.MatchID, err)
			gm.reject(conn, err.Error())
			return "", err
		}
		out, started = append(out, o...), s
	}
	gm.mu.Unlock()

	log.Printf("[WS] player %s (%s) registered in %s mode", c.id, c.displayName, mode)
	gm.flush(out)
	gm.startTickers(started)
	return c.id, nil
}

// authenticate verifies a handshake token. Tournament mode always needs one,
// multiplayer only when configured. A token that is present but invalid is
// rejected in every mode.
func (gm *GameManager) authenticate(ctx context.Context, token, mode string) (*auth.Identity, error) {
	required := mode == models.ModeTournament || (mode == models.ModeMultiplayer && gm.opts.MultiplayerRequiresAuth)

	if token == "" {
		if required {
			return nil, fmt.Errorf("%w: token required for %s mode", auth.ErrUnauthorized, mode)
		}
		return nil, nil
	}
	if gm.verifier == nil {
		if required {
			return nil, fmt.Errorf("%w: no verifier configured", auth.ErrUnauthorized)
		}
		return nil, nil
	}

	id, err := gm.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	log.Printf("[AUTH] verified user %s (%s)", id.ID, id.Username)
	return &id, nil
}

func (gm *GameManager) reject(conn Conn, reason string) {
	if b, err := protocol.Encode(protocol.Error{Message: reason}); err == nil {
		conn.Send(b)
	}
	if err := conn.Close(ClosePolicyViolation, reason); err != nil {
		log.Printf("[WS] close after rejection failed: %v", err)
	}
}

func displayName(c *connection, requested string) string {
	if c.user != nil && c.user.Username != "" {
		return c.user.Username
	}
	if name := strings.TrimSpace(requested); name != "" {
		if len(name) > 32 {
			name = name[:32]
		}
		return name
	}
	return "Player-" + c.id[:4]
}

// MatchPlayers pairs queued players, oldest first, until fewer than two remain.
func (gm *GameManager) MatchPlayers() {
	gm.mu.Lock()
	out, started := gm.matchPlayersLocked()
	gm.mu.Unlock()

	gm.flush(out)
	gm.startTickers(started)
}

func (gm *GameManager) matchPlayersLocked() ([]outbound, []*match) {
	var out []outbound
	var started []*match

	for {
		a, b := gm.popPairLocked()
		if a == nil || b == nil {
			return out, started
		}

		m := gm.newMatchLocked(models.ModeMultiplayer, "")
		m.required = 2
		m.addSeat(&seat{id: a.id, connID: a.id, userID: a.userID(), name: a.displayName, side: game.SideLeft})
		m.addSeat(&seat{id: b.id, connID: b.id, userID: b.userID(), name: b.displayName, side: game.SideRight})
		a.matchID, b.matchID = m.id, m.id

		snap := m.game.Snapshot()
		for _, s := range m.humanSeats() {
			c := gm.connections[s.connID]
			out = append(out, frameFor(c, protocol.GameJoined{MatchID: m.id, Side: s.side, Opponent: m.opponentOf(s)}))
		}
		for _, s := range m.humanSeats() {
			out = append(out, frameFor(gm.connections[s.connID], protocol.GameStarted{Snapshot: snap}))
		}
		started = append(started, m)

		log.Printf("[MATCHMAKING] match %s created: %s (left) vs %s (right)", m.id, a.displayName, b.displayName)
	}
}

// popPairLocked removes the two oldest queued players that are still
// connected and unmatched. Stale entries are discarded.
func (gm *GameManager) popPairLocked() (*connection, *connection) {
	var pair []*connection
	i := 0
	for ; i < len(gm.queue) && len(pair) < 2; i++ {
		c, ok := gm.connections[gm.queue[i]]
		if !ok || c.matchID != "" {
			continue
		}
		pair = append(pair, c)
	}
	if len(pair) < 2 {
		return nil, nil
	}
	gm.queue = gm.queue[i:]
	return pair[0], pair[1]
}

func (gm *GameManager) queuePositionLocked(playerID string) int {
	for i, id := range gm.queue {
		if id == playerID {
			return i + 1
		}
	}
	return 0
}

func (gm *GameManager) dequeueLocked(playerID string) bool {
	for i, id := range gm.queue {
		if id == playerID {
			gm.queue = append(gm.queue[:i], gm.queue[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveConnection forgets a player. A queued player leaves the queue. A
// player in a running two-player match forfeits it and the opponent is told;
// a local match is torn down. Safe to call more than once.
func (gm *GameManager) RemoveConnection(playerID string) {
	gm.mu.Lock()
	c, ok := gm.connections[playerID]
	if !ok {
		gm.mu.Unlock()
		return
	}
	delete(gm.connections, playerID)
	gm.dequeueLocked(playerID)

	var out []outbound
	if m, ok := gm.matches[c.matchID]; ok {
		out = gm.leaveMatchLocked(m, c)
	}
	gm.mu.Unlock()

	log.Printf("[WS] player %s removed", playerID)
	gm.flush(out)
}

func (gm *GameManager) leaveMatchLocked(m *match, c *connection) []outbound {
	c.matchID = ""

	if m.mode == models.ModeLocal {
		m.stop()
		delete(gm.matches, m.id)
		log.Printf("[MATCH] local match %s closed", m.id)
		return nil
	}

	s := m.seatFor(c.id, "")
	if s == nil {
		return nil
	}

	var out []outbound
	status := m.game.Status()
	if (status == game.StatusPlaying || status == game.StatusPaused) && m.game.Forfeit(s.id) {
		notice := protocol.PlayerLeft{
			PlayerID:    c.id,
			DisplayName: c.displayName,
			Message:     c.displayName + " left the match. You win by forfeit.",
			Forfeit:     true,
		}
		for _, other := range gm.boundConnsLocked(m) {
			out = append(out, frameFor(other, notice))
		}
		return append(out, gm.finishMatchLocked(m, models.ReasonForfeit)...)
	}

	// not started yet: free the seat so the participant can come back
	m.game.RemovePlayer(s.id)
	delete(m.seats, s.side)
	notice := protocol.PlayerLeft{
		PlayerID:    c.id,
		DisplayName: c.displayName,
		Message:     c.displayName + " left before the match started.",
	}
	remaining := gm.boundConnsLocked(m)
	for _, other := range remaining {
		out = append(out, frameFor(other, notice))
	}
	if len(remaining) == 0 {
		m.stop()
		delete(gm.matches, m.id)
		if m.tournamentMatchID != "" {
			delete(gm.tournamentMatches, m.tournamentMatchID)
		}
		log.Printf("[MATCH] match %s discarded before start", m.id)
	}
	return out
}

// flush sends queued frames outside the lock. A connection whose send fails
// is closed and removed like any other disconnect.
func (gm *GameManager) flush(out []outbound) {
	var failed []string
	for _, o := range out {
		if o.frame == nil {
			continue
		}
		if err := o.conn.Send(o.frame); err != nil {
			log.Printf("[WS] send to %s failed: %v", o.playerID, err)
			failed = append(failed, o.playerID)
		}
	}
	for _, id := range failed {
		gm.dropConnection(id, CloseInternalError, "send failed")
	}
}

// dropConnection closes the socket and removes the player.
func (gm *GameManager) dropConnection(playerID string, code int, reason string) {
	gm.mu.RLock()
	c, ok := gm.connections[playerID]
	gm.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.conn.Close(code, reason); err != nil {
		log.Printf("[WS] close %s failed: %v", playerID, err)
	}
	gm.RemoveConnection(playerID)
}

func (gm *GameManager) sendTo(playerID string, msg protocol.Message) {
	gm.mu.RLock()
	c, ok := gm.connections[playerID]
	gm.mu.RUnlock()
	if !ok {
		return
	}
	gm.flush([]outbound{frameFor(c, msg)})
}

// Status is a point-in-time count for the status endpoint.
type Status struct {
	Connections   int            `json:"connections"`
	Queued        int            `json:"queued"`
	ActiveMatches int            `json:"active_matches"`
	MatchesByMode map[string]int `json:"matches_by_mode"`
}

func (gm *GameManager) Status() Status {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	st := Status{
		Connections:   len(gm.connections),
		Queued:        len(gm.queue),
		ActiveMatches: len(gm.matches),
		MatchesByMode: make(map[string]int),
	}
	for _, m := range gm.matches {
		st.MatchesByMode[m.mode]++
	}
	return st
}

// Wait blocks until in-flight match persistence finishes.
func (gm *GameManager) Wait() {
	gm.wg.Wait()
}

// Shutdown stops every ticker and closes every connection.
func (gm *GameManager) Shutdown() {
	gm.mu.Lock()
	for id, m := range gm.matches {
		m.stop()
		delete(gm.matches, id)
	}
	conns := make([]*connection, 0, len(gm.connections))
	for id, c := range gm.connections {
		conns = append(conns, c)
		delete(gm.connections, id)
	}
	gm.queue = nil
	gm.mu.Unlock()

	for _, c := range conns {
		c.conn.Close(CloseGoingAway, "server shutting down")
	}
	log.Printf("[WS] shutdown closed %d connection(s)", len(conns))
	gm.Wait()
}
