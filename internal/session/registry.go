package session

import (
	"errors"
	"log"
	"time"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/events"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/game"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
)

var (
	ErrInvalidSessionCode = errors.New("session code must be exactly 4 characters")
	ErrSessionFull        = errors.New("session is already full")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotParticipant     = errors.New("connection is not a participant of this session")
)

const sessionCodeLen = 4

// Registry owns every active session. It is mutated only from the hub
// goroutine; delayed work (teardown grace, match clock, idle sweep) is
// handed back to that goroutine through the schedule hook and re-checks
// existence before acting.
type Registry struct {
	sessions map[string]*Session

	// schedule runs fn after d on the hub goroutine. Injected so tests can
	// run callbacks synchronously.
	schedule func(d time.Duration, fn func())

	teardownGrace time.Duration
	matchClock    time.Duration
	seed          func() uint64
}

type Option func(*Registry)

// WithTeardownGrace sets the delay between a termination event and the
// session actually leaving the registry.
func WithTeardownGrace(d time.Duration) Option {
	return func(r *Registry) { r.teardownGrace = d }
}

// WithMatchClock enables the optional fixed-duration match clock. Zero
// leaves it disabled, which is the default build.
func WithMatchClock(d time.Duration) Option {
	return func(r *Registry) { r.matchClock = d }
}

// WithSeed overrides the deal seed source.
func WithSeed(seed func() uint64) Option {
	return func(r *Registry) { r.seed = seed }
}

func NewRegistry(schedule func(time.Duration, func()), opts ...Option) *Registry {
	r := &Registry{
		sessions:      make(map[string]*Session),
		schedule:      schedule,
		teardownGrace: 2 * time.Second,
		seed:          func() uint64 { return uint64(time.Now().UnixNano()) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the session for code, if any.
func (r *Registry) Get(code string) *Session {
	return r.sessions[code]
}

// Len reports the number of active sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// FindByConnection locates the session holding connID as a participant.
func (r *Registry) FindByConnection(connID string) (*Session, *Participant) {
	for _, s := range r.sessions {
		if p := s.ByConnection(connID); p != nil {
			return s, p
		}
	}
	return nil, nil
}

// Join implements the full join/rejoin/reconnect state machine. The caller
// identity is the (storedID, conn) pair: storedID is durable, conn is the
// live channel being bound. On success the joiner receives its oriented
// state and, when an opponent exists, both sides learn about each other.
func (r *Registry) Join(code, storedID, displayName string, conn network.Sender, link *Link) error {
	if len(code) != sessionCodeLen {
		return ErrInvalidSessionCode
	}

	s, ok := r.sessions[code]
	if !ok {
		// First join creates the session with a fresh deal.
		s = &Session{
			Code:         code,
			Participants: make(map[game.Seat]*Participant),
			State:        game.NewState(r.seed()),
			Chat:         NewTranscript(),
			Tournament:   link,
			StartedAt:    time.Now(),
			LastActivity: time.Now(),
		}
		s.Participants[game.SeatOne] = &Participant{
			StoredID:     storedID,
			ConnectionID: conn.ConnectionID(),
			DisplayName:  displayName,
			Seat:         game.SeatOne,
			conn:         conn,
		}
		r.sessions[code] = s
		if r.matchClock > 0 {
			r.armMatchClock(s)
		}
		conn.Send() <- events.NewStateDispatch(code, s.State)
		log.Printf("[SessionRegistry] session %s created by %s", code, storedID)
		return nil
	}

	s.touch()

	// A known identity rebinds its connection and reclaims its original
	// seat, whether the session is half-empty or full.
	if p := s.byStoredID(storedID); p != nil {
		p.ConnectionID = conn.ConnectionID()
		p.conn = conn
		if displayName != "" {
			p.DisplayName = displayName
		}
		conn.Send() <- events.NewStateDispatch(code, game.Oriented(s.State, p.Seat))
		conn.Send() <- events.NewChatHistory(chatHistoryPayload{SessionCode: code, Messages: s.Chat.Entries()})
		if opp := s.Opponent(p); opp != nil {
			opp.send(events.NewOpponentPresence(code, true))
			conn.Send() <- events.NewOpponentPresence(code, true)
		}
		log.Printf("[SessionRegistry] %s rebound to session %s", storedID, code)
		return nil
	}

	if len(s.Participants) >= 2 {
		return ErrSessionFull
	}

	// Second distinct identity takes the remaining seat.
	p := &Participant{
		StoredID:     storedID,
		ConnectionID: conn.ConnectionID(),
		DisplayName:  displayName,
		Seat:         s.freeSeat(),
		conn:         conn,
	}
	s.Participants[p.Seat] = p

	conn.Send() <- events.NewStateDispatch(code, game.Oriented(s.State, p.Seat))
	conn.Send() <- events.NewChatHistory(chatHistoryPayload{SessionCode: code, Messages: s.Chat.Entries()})
	// Both sides learn the pairing is live.
	if opp := s.Opponent(p); opp != nil {
		opp.send(events.NewOpponentPresence(code, true))
		conn.Send() <- events.NewOpponentPresence(code, true)
	}
	log.Printf("[SessionRegistry] %s joined session %s as seat %d", storedID, code, p.Seat)
	return nil
}

// ApplyStateUpdate stores the submitted state as canonical and relays the
// oriented projection to every participant except the submitter, whose
// client already holds it.
func (r *Registry) ApplyStateUpdate(code, submitterConnID string, st game.State) error {
	s, ok := r.sessions[code]
	if !ok {
		return ErrSessionNotFound
	}
	submitter := s.ByConnection(submitterConnID)
	if submitter == nil {
		return ErrNotParticipant
	}

	s.touch()
	// Canonicalize: a seat-two submission arrives in seat-two orientation,
	// and the reorientation transform is its own inverse.
	if submitter.Seat == game.SeatTwo {
		st = game.Reorient(st)
	}
	s.State = st

	for _, p := range s.Participants {
		if p == submitter {
			continue
		}
		p.send(events.NewStateDispatch(code, game.Oriented(s.State, p.Seat)))
	}
	return nil
}

type chatHistoryPayload struct {
	SessionCode string        `json:"sessionCode"`
	Messages    []ChatMessage `json:"messages"`
}

type chatMessagePayload struct {
	SessionCode string      `json:"sessionCode"`
	Message     ChatMessage `json:"message"`
}

// RecordChat appends to the bounded transcript and broadcasts to every
// participant, sender included (the stamped copy is authoritative).
func (r *Registry) RecordChat(code, senderID, text string) error {
	s, ok := r.sessions[code]
	if !ok {
		return ErrSessionNotFound
	}
	s.touch()
	msg := s.Chat.Append(senderID, text)
	for _, p := range s.Participants {
		p.send(events.NewReceiveMessage(chatMessagePayload{SessionCode: code, Message: msg}))
	}
	return nil
}

// MarkRead flips foreign messages to read and broadcasts a receipt only if
// something actually changed.
func (r *Registry) MarkRead(code, readerID string) error {
	s, ok := r.sessions[code]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Chat.MarkRead(readerID) == 0 {
		return nil
	}
	s.touch()
	for _, p := range s.Participants {
		p.send(events.NewMessagesRead(code, readerID))
	}
	return nil
}

// NotifyDisconnect tells the opponent that connID went offline. Advisory
// only: the participant stays bound so a reconnect can restore it.
func (r *Registry) NotifyDisconnect(connID string) {
	s, p := r.FindByConnection(connID)
	if s == nil {
		return
	}
	if opp := s.Opponent(p); opp != nil {
		opp.send(events.NewOpponentPresence(s.Code, false))
	}
}

// Broadcast sends msg to every participant of the session.
func (r *Registry) Broadcast(code string, msg network.Message) {
	if s, ok := r.sessions[code]; ok {
		for _, p := range s.Participants {
			p.send(msg)
		}
	}
}

// Terminate removes the session after the teardown grace, leaving time for
// final broadcasts to land. The delayed callback re-checks existence: the
// session may already be gone by then.
func (r *Registry) Terminate(code string) {
	if _, ok := r.sessions[code]; !ok {
		return
	}
	r.schedule(r.teardownGrace, func() {
		if _, ok := r.sessions[code]; ok {
			delete(r.sessions, code)
			log.Printf("[SessionRegistry] session %s torn down", code)
		}
	})
}

// armMatchClock terminates a session outright once the optional fixed
// match duration elapses. Disabled in the default build.
func (r *Registry) armMatchClock(s *Session) {
	code := s.Code
	started := s.StartedAt
	r.schedule(r.matchClock, func() {
		cur, ok := r.sessions[code]
		if !ok || !cur.StartedAt.Equal(started) {
			return
		}
		log.Printf("[SessionRegistry] match clock expired for session %s", code)
		r.Broadcast(code, events.NewSessionError("match clock expired"))
		r.Terminate(code)
	})
}

// SweepIdle drops non-tournament sessions with no activity for longer than
// ttl. Tournament sessions are owned by the bracket lifecycle and are left
// alone. Must run on the hub goroutine.
func (r *Registry) SweepIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for code, s := range r.sessions {
		if s.Tournament == nil && s.LastActivity.Before(cutoff) {
			delete(r.sessions, code)
			removed++
			log.Printf("[SessionRegistry] idle session %s swept", code)
		}
	}
	return removed
}
