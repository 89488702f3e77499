package tournament

import (
	"errors"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/events"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
)

var (
	ErrNotFound       = errors.New("tournament not found")
	ErrAlreadyStarted = errors.New("tournament has already started")
	ErrFull           = errors.New("tournament is full")
	ErrBadSize        = errors.New("tournament size must be a power of two (2, 4, 8, ...)")
	ErrMatchNotFound  = errors.New("match not found")
)

// codeAlphabet skips 0/O and 1/I so spoken codes survive a phone call.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Engine owns every bracket. Like the session registry it is mutated only
// from the hub goroutine; the completed-tournament destruction timer comes
// back through the schedule hook and re-checks existence.
type Engine struct {
	tournaments map[string]*Tournament
	usedCodes   map[string]bool

	schedule  func(d time.Duration, fn func())
	retention time.Duration
	rng       *rand.Rand

	// onCompleted, when set, is invoked after a tournament reaches
	// completed with its final winner. Used for the stats feed.
	onCompleted func(t *Tournament)

	// codeInUse reports whether a candidate session code is taken outside
	// the engine, e.g. by a casual session already open under it.
	codeInUse func(code string) bool
}

type Option func(*Engine)

// WithRetention sets how long a completed tournament stays visible before
// it is destroyed. The production default is ten minutes.
func WithRetention(d time.Duration) Option {
	return func(e *Engine) { e.retention = d }
}

// WithCompletionHook registers a callback fired once per completed
// tournament.
func WithCompletionHook(fn func(t *Tournament)) Option {
	return func(e *Engine) { e.onCompleted = fn }
}

// WithCodeGuard rejects candidate match session codes already in use
// elsewhere. Both the guard and the mint run on the hub goroutine.
func WithCodeGuard(fn func(code string) bool) Option {
	return func(e *Engine) { e.codeInUse = fn }
}

func NewEngine(schedule func(time.Duration, func()), opts ...Option) *Engine {
	e := &Engine{
		tournaments: make(map[string]*Tournament),
		usedCodes:   make(map[string]bool),
		schedule:    schedule,
		retention:   10 * time.Minute,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xda3e39cb94b95bdb)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create allocates a waiting tournament. Sizes that are not a power of two
// are rejected outright: silent byes would break the fixed-round bracket
// closure that clients and the completion logic rely on.
func (e *Engine) Create(size int, name string) (*Tournament, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, ErrBadSize
	}
	t := &Tournament{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      size,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
	}
	e.tournaments[t.ID] = t
	log.Printf("[TournamentEngine] tournament %s (%q, size %d) created", t.ID, name, size)
	return t, nil
}

// Get returns a tournament by id, if present.
func (e *Engine) Get(id string) *Tournament {
	return e.tournaments[id]
}

// List returns public snapshots of every tournament.
func (e *Engine) List() []Snapshot {
	out := make([]Snapshot, 0, len(e.tournaments))
	for _, t := range e.tournaments {
		out = append(out, t.snapshot())
	}
	return out
}

// Join registers a player, or treats a join by a known storedID as a
// reconnect: the entrant record is shared by reference with every match,
// so rebinding the connection here repairs in-flight match assignments
// too. Reaching capacity flips the tournament to active and pairs round 1.
func (e *Engine) Join(id, storedID, name string, conn network.Sender) error {
	t, ok := e.tournaments[id]
	if !ok {
		return ErrNotFound
	}

	if existing := t.entrant(storedID); existing != nil {
		existing.conn = conn
		if name != "" {
			existing.Name = name
		}
		conn.Send() <- events.NewTournamentUpdate(t.snapshot())
		log.Printf("[TournamentEngine] %s rebound in tournament %s", storedID, id)
		return nil
	}

	if t.Status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if len(t.Entrants) >= t.Size {
		return ErrFull
	}

	t.Entrants = append(t.Entrants, &Entrant{StoredID: storedID, Name: name, conn: conn})
	e.broadcastState(t)

	if len(t.Entrants) == t.Size {
		e.start(t)
	}
	return nil
}

// start activates the bracket and pairs round 1 strictly in join order:
// (0,1), (2,3), ... Join order is the deliberate, observable tie-break.
func (e *Engine) start(t *Tournament) {
	t.Status = StatusActive
	t.Round = 1
	for i := 0; i+1 < len(t.Entrants); i += 2 {
		t.Matches = append(t.Matches, &Match{
			ID:    uuid.NewString(),
			Round: 1,
			P1:    t.Entrants[i],
			P2:    t.Entrants[i+1],
		})
	}
	log.Printf("[TournamentEngine] tournament %s started with %d round-1 matches", t.ID, len(t.Matches))
	e.broadcastState(t)
	e.notifyMatchReady(t)
}

// notifyMatchReady pushes the session assignment for every unresolved,
// fully-seated match of the current round. The session code is allocated
// on first need, once, and reused for every later delivery.
func (e *Engine) notifyMatchReady(t *Tournament) {
	for _, m := range t.roundMatches(t.Round) {
		if m.Winner != nil || m.P1 == nil || m.P2 == nil {
			continue
		}
		if m.SessionCode == "" {
			m.SessionCode = e.newSessionCode()
		}
		m.P1.send(events.NewMatchReady(t.ID, m.ID, m.SessionCode, m.P2.Name))
		m.P2.send(events.NewMatchReady(t.ID, m.ID, m.SessionCode, m.P1.Name))
	}
}

// RequestMatchInfo re-delivers a match assignment to the participant on
// connID. Idempotent: an already-allocated code is returned as-is, so a
// refreshed client lands in the same session as its opponent.
func (e *Engine) RequestMatchInfo(connID, tournamentID, matchID string) error {
	t, ok := e.tournaments[tournamentID]
	if !ok {
		return ErrNotFound
	}
	m := t.match(matchID)
	if m == nil {
		return ErrMatchNotFound
	}
	if m.P1 == nil || m.P2 == nil {
		return ErrMatchNotFound
	}
	if m.SessionCode == "" {
		e.notifyMatchReady(t)
		return nil
	}
	for _, entrant := range []*Entrant{m.P1, m.P2} {
		if entrant.connectionID() == connID {
			entrant.send(events.NewMatchReady(t.ID, m.ID, m.SessionCode, m.opponentOf(entrant).Name))
			return nil
		}
	}
	return ErrMatchNotFound
}

// ReportResult records a match winner and advances the bracket. A match
// that already has a winner is a silent no-op: repeated or racing reports
// are expected and safe.
func (e *Engine) ReportResult(tournamentID, matchID, winnerStoredID string) error {
	t, ok := e.tournaments[tournamentID]
	if !ok {
		return ErrNotFound
	}
	m := t.match(matchID)
	if m == nil {
		return ErrMatchNotFound
	}
	if m.Winner != nil {
		log.Printf("[TournamentEngine] duplicate result for match %s ignored", matchID)
		return nil
	}
	winner := m.hasEntrant(winnerStoredID)
	if winner == nil {
		log.Printf("[TournamentEngine] result for match %s names non-participant %s, discarded", matchID, winnerStoredID)
		return ErrMatchNotFound
	}
	m.Winner = winner
	log.Printf("[TournamentEngine] match %s won by %s", matchID, winnerStoredID)
	e.advanceRound(t)
	return nil
}

// advanceRound inspects the current round. Until every match has a winner
// it only re-broadcasts bracket state. Once the round is complete it either
// closes the tournament (single winner at the final round) or pairs the
// winners, in match order, into the next round.
func (e *Engine) advanceRound(t *Tournament) {
	var winners []*Entrant
	for _, m := range t.roundMatches(t.Round) {
		if m.Winner == nil {
			e.broadcastState(t)
			return
		}
		winners = append(winners, m.Winner)
	}

	if len(winners) == 1 && t.Round >= t.totalRounds() {
		t.Status = StatusCompleted
		t.CompletedAt = time.Now()
		t.Winner = winners[0]
		log.Printf("[TournamentEngine] tournament %s completed, winner %s", t.ID, t.Winner.StoredID)
		e.broadcastState(t)
		if e.onCompleted != nil {
			e.onCompleted(t)
		}
		e.scheduleDestruction(t.ID)
		return
	}

	t.Round++
	for i := 0; i+1 < len(winners); i += 2 {
		t.Matches = append(t.Matches, &Match{
			ID:    uuid.NewString(),
			Round: t.Round,
			P1:    winners[i],
			P2:    winners[i+1],
		})
	}
	log.Printf("[TournamentEngine] tournament %s advanced to round %d", t.ID, t.Round)
	e.broadcastState(t)
	e.notifyMatchReady(t)
}

func (e *Engine) broadcastState(t *Tournament) {
	msg := events.NewTournamentUpdate(t.snapshot())
	for _, entrant := range t.Entrants {
		entrant.send(msg)
	}
}

// scheduleDestruction removes a completed tournament after the retention
// window. The callback re-checks existence and status: the registry may
// have been swept meanwhile.
func (e *Engine) scheduleDestruction(id string) {
	e.schedule(e.retention, func() {
		t, ok := e.tournaments[id]
		if !ok || t.Status != StatusCompleted {
			return
		}
		e.destroy(t)
	})
}

func (e *Engine) destroy(t *Tournament) {
	for _, m := range t.Matches {
		if m.SessionCode != "" {
			delete(e.usedCodes, m.SessionCode)
		}
	}
	delete(e.tournaments, t.ID)
	log.Printf("[TournamentEngine] tournament %s destroyed", t.ID)
}

// SweepCompleted destroys tournaments that finished more than maxAge ago.
// Safety net behind the per-tournament destruction timer; runs on the hub
// goroutine.
func (e *Engine) SweepCompleted(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, t := range e.tournaments {
		if t.Status == StatusCompleted && t.CompletedAt.Before(cutoff) {
			e.destroy(t)
			removed++
		}
	}
	return removed
}

// newSessionCode mints a 4-character code unused by the engine and, when a
// guard is configured, by anything else holding session codes.
func (e *Engine) newSessionCode() string {
	for {
		b := make([]byte, 4)
		for i := range b {
			b[i] = codeAlphabet[e.rng.IntN(len(codeAlphabet))]
		}
		code := string(b)
		if e.usedCodes[code] {
			continue
		}
		if e.codeInUse != nil && e.codeInUse(code) {
			continue
		}
		e.usedCodes[code] = true
		return code
	}
}
