package coordinator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/events"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/game"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/session"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/tournament"
)

type fakeSender struct {
	id string
	ch chan network.Message
}

func newFakeSender(id string) *fakeSender {
	return &fakeSender{id: id, ch: make(chan network.Message, 256)}
}

func (f *fakeSender) ConnectionID() string         { return f.id }
func (f *fakeSender) Send() chan<- network.Message { return f.ch }

func (f *fakeSender) drain() []network.Message {
	var out []network.Message
	for {
		select {
		case m := <-f.ch:
			out = append(out, m)
		default:
			return out
		}
	}
}

func (f *fakeSender) eventsSeen() []string {
	var out []string
	for _, m := range f.drain() {
		out = append(out, m.Event)
	}
	return out
}

// lastPayload drains the sender and unmarshals the most recent payload for
// event into into, reporting whether one was seen.
func (f *fakeSender) lastPayload(t *testing.T, event string, into any) bool {
	t.Helper()
	found := false
	for _, m := range f.drain() {
		if m.Event != event {
			continue
		}
		require.NoError(t, json.Unmarshal(m.Payload, into))
		found = true
	}
	return found
}

type capturedScheduler struct {
	fns []func()
}

func (s *capturedScheduler) schedule(d time.Duration, fn func()) {
	s.fns = append(s.fns, fn)
}

func (s *capturedScheduler) fire() {
	fns := s.fns
	s.fns = nil
	for _, fn := range fns {
		fn()
	}
}

func newTestCoordinator() (*Coordinator, *session.Registry, *tournament.Engine, *capturedScheduler) {
	sched := &capturedScheduler{}
	reg := session.NewRegistry(sched.schedule, session.WithSeed(func() uint64 { return 9 }))
	eng := tournament.NewEngine(sched.schedule)
	return New(reg, eng, nil, nil), reg, eng, sched
}

func dispatch(c *Coordinator, sender network.Sender, event string, payload any) {
	c.Dispatch(sender, network.NewMessage(event, payload))
}

func TestDispatchRejectsUnknownEvent(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	s := newFakeSender("c1")

	c.Dispatch(s, network.NewMessage("teleport", nil))

	assert.Contains(t, s.eventsSeen(), events.SessionError)
}

func TestDispatchRejectsMalformedPayload(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	s := newFakeSender("c1")

	c.Dispatch(s, network.Message{Event: evJoinSession, Payload: json.RawMessage(`{"sessionCode": 42`)})

	assert.Contains(t, s.eventsSeen(), events.SessionError)
}

func TestJoinSessionRequiresStoredID(t *testing.T) {
	c, reg, _, _ := newTestCoordinator()
	s := newFakeSender("c1")

	dispatch(c, s, evJoinSession, joinSessionRequest{SessionCode: "WXYZ"})

	assert.Contains(t, s.eventsSeen(), events.SessionError)
	assert.Equal(t, 0, reg.Len())
}

func TestSendMessageRejectsBlankText(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	s := newFakeSender("c1")
	dispatch(c, s, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "alice"})
	s.drain()

	dispatch(c, s, evSendMessage, sendMessageRequest{SessionCode: "WXYZ", SenderID: "alice", Text: "   "})

	assert.Contains(t, s.eventsSeen(), events.SessionError)
}

func TestStateUpdateFlowsBetweenSeats(t *testing.T) {
	c, reg, _, _ := newTestCoordinator()
	c1 := newFakeSender("c1")
	c2 := newFakeSender("c2")

	dispatch(c, c1, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "alice", DisplayName: "Alice"})
	dispatch(c, c2, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "bob", DisplayName: "Bob"})
	c1.drain()
	c2.drain()

	updated := game.State{
		MyCards:     []game.Card{{Suit: "star", Number: 3}},
		CurrentTurn: game.SeatOne,
		Market:      20,
	}
	dispatch(c, c2, evApplyStateUpdate, stateUpdateRequest{SessionCode: "WXYZ", State: updated})

	assert.Equal(t, game.Reorient(updated), reg.Get("WXYZ").State)

	var got struct {
		State game.State `json:"state"`
	}
	require.True(t, c1.lastPayload(t, events.StateDispatch, &got))
	assert.Equal(t, reg.Get("WXYZ").State, got.State)
	assert.Empty(t, c2.drain())
}

// A connection that is not bound to the session cannot end it: no reply, no
// broadcast, no teardown, no bracket change.
func TestSessionOverFromOutsiderChangesNothing(t *testing.T) {
	c, reg, eng, sched := newTestCoordinator()
	c1 := newFakeSender("c1")
	c2 := newFakeSender("c2")
	intruder := newFakeSender("cx")

	tour, err := eng.Create(2, "cup")
	require.NoError(t, err)
	require.NoError(t, eng.Join(tour.ID, "alice", "Alice", c1))
	require.NoError(t, eng.Join(tour.ID, "bob", "Bob", c2))
	m := tour.Matches[0]

	link := &tournamentLink{TournamentID: tour.ID, MatchID: m.ID}
	dispatch(c, c1, evJoinSession, joinSessionRequest{SessionCode: m.SessionCode, StoredID: "alice", TournamentLink: link})
	dispatch(c, c2, evJoinSession, joinSessionRequest{SessionCode: m.SessionCode, StoredID: "bob", TournamentLink: link})
	c1.drain()
	c2.drain()

	dispatch(c, intruder, evSessionOver, sessionOverRequest{SessionCode: m.SessionCode})

	assert.Empty(t, intruder.drain(), "probing connections get no reply")
	assert.NotContains(t, c1.eventsSeen(), events.MatchOver)
	assert.Nil(t, m.Winner)
	assert.NotNil(t, reg.Get(m.SessionCode))
	assert.Empty(t, sched.fns, "no teardown may be pending")
}

func TestSessionOverArbitratesFromConnectionBinding(t *testing.T) {
	c, reg, eng, sched := newTestCoordinator()
	c1 := newFakeSender("c1")
	c2 := newFakeSender("c2")

	tour, err := eng.Create(2, "cup")
	require.NoError(t, err)
	require.NoError(t, eng.Join(tour.ID, "alice", "Alice", c1))
	require.NoError(t, eng.Join(tour.ID, "bob", "Bob", c2))
	m := tour.Matches[0]

	link := &tournamentLink{TournamentID: tour.ID, MatchID: m.ID}
	dispatch(c, c1, evJoinSession, joinSessionRequest{SessionCode: m.SessionCode, StoredID: "alice", TournamentLink: link})
	dispatch(c, c2, evJoinSession, joinSessionRequest{SessionCode: m.SessionCode, StoredID: "bob", TournamentLink: link})
	c1.drain()
	c2.drain()

	// Bob reports his own win. The winner identity comes from bob's
	// connection binding, whatever the payload might claim elsewhere.
	dispatch(c, c2, evSessionOver, sessionOverRequest{SessionCode: m.SessionCode})

	var over struct {
		WinnerStoredID string `json:"winnerStoredId"`
	}
	require.True(t, c1.lastPayload(t, events.MatchOver, &over))
	assert.Equal(t, "bob", over.WinnerStoredID)
	require.True(t, c2.lastPayload(t, events.MatchOver, &over))
	assert.Equal(t, "bob", over.WinnerStoredID)

	require.NotNil(t, m.Winner)
	assert.Equal(t, "bob", m.Winner.StoredID)
	assert.Equal(t, tournament.StatusCompleted, tour.Status)

	// Teardown grace, then the session is gone and the duplicate report
	// from the other side is absorbed without a reply.
	sched.fire()
	assert.Nil(t, reg.Get(m.SessionCode))

	c1.drain()
	dispatch(c, c1, evSessionOver, sessionOverRequest{SessionCode: m.SessionCode})
	assert.Empty(t, c1.drain())
}

// A second report inside the teardown grace must not re-arbitrate: the
// loser re-reporting with the default "mine" claim would otherwise be
// crowned by their own connection binding.
func TestDuplicateReportInGraceWindowIsAbsorbed(t *testing.T) {
	c, reg, _, sched := newTestCoordinator()
	c1 := newFakeSender("c1")
	c2 := newFakeSender("c2")

	dispatch(c, c1, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "alice"})
	dispatch(c, c2, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "bob"})
	c1.drain()
	c2.drain()

	dispatch(c, c2, evSessionOver, sessionOverRequest{SessionCode: "WXYZ"})

	var over struct {
		WinnerStoredID string `json:"winnerStoredId"`
	}
	require.True(t, c1.lastPayload(t, events.MatchOver, &over))
	assert.Equal(t, "bob", over.WinnerStoredID)
	c2.drain()
	require.True(t, reg.Get("WXYZ").Settled)
	require.Len(t, sched.fns, 1, "exactly one teardown pending")

	// Alice re-reports before the grace callback fires.
	dispatch(c, c1, evSessionOver, sessionOverRequest{SessionCode: "WXYZ"})

	assert.NotContains(t, c1.eventsSeen(), events.MatchOver, "no second match_over")
	assert.NotContains(t, c2.eventsSeen(), events.MatchOver)
	assert.Len(t, sched.fns, 1, "no second teardown scheduled")

	sched.fire()
	assert.Nil(t, reg.Get("WXYZ"))
}

func TestSessionOverConcededToOpponent(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c1 := newFakeSender("c1")
	c2 := newFakeSender("c2")

	dispatch(c, c1, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "alice"})
	dispatch(c, c2, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "bob"})
	c1.drain()
	c2.drain()

	dispatch(c, c1, evSessionOver, sessionOverRequest{SessionCode: "WXYZ", WinnerClaim: "opponent"})

	var over struct {
		WinnerStoredID string `json:"winnerStoredId"`
	}
	require.True(t, c2.lastPayload(t, events.MatchOver, &over))
	assert.Equal(t, "bob", over.WinnerStoredID)
}

func TestSessionOverConcessionWithNoOpponentIsDropped(t *testing.T) {
	c, reg, _, _ := newTestCoordinator()
	c1 := newFakeSender("c1")
	dispatch(c, c1, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "alice"})
	c1.drain()

	dispatch(c, c1, evSessionOver, sessionOverRequest{SessionCode: "WXYZ", WinnerClaim: "opponent"})

	assert.Empty(t, c1.drain())
	assert.NotNil(t, reg.Get("WXYZ"))
}

func TestCreateTournamentRepliesWithListing(t *testing.T) {
	c, _, eng, _ := newTestCoordinator()
	s := newFakeSender("c1")

	dispatch(c, s, evCreateTournament, createTournamentRequest{Size: 4, Name: "cup"})

	assert.Contains(t, s.eventsSeen(), events.TournamentsList)
	assert.Len(t, eng.List(), 1)

	dispatch(c, s, evCreateTournament, createTournamentRequest{Size: 3, Name: "odd"})
	assert.Contains(t, s.eventsSeen(), events.SessionError)
	assert.Len(t, eng.List(), 1)
}

func TestJoinTournamentThroughRouter(t *testing.T) {
	c, _, eng, _ := newTestCoordinator()
	s := newFakeSender("c1")

	dispatch(c, s, evCreateTournament, createTournamentRequest{Size: 2, Name: "cup"})
	id := eng.List()[0].ID
	s.drain()

	dispatch(c, s, evJoinTournament, joinTournamentRequest{TournamentID: id, StoredID: "alice", Name: "Alice"})
	assert.Contains(t, s.eventsSeen(), events.TournamentState)

	dispatch(c, s, evJoinTournament, joinTournamentRequest{TournamentID: id, Name: "NoID"})
	assert.Contains(t, s.eventsSeen(), events.SessionError)
}

func TestRequestMatchInfoThroughRouter(t *testing.T) {
	c, _, eng, _ := newTestCoordinator()
	c1 := newFakeSender("c1")
	c2 := newFakeSender("c2")

	tour, err := eng.Create(2, "cup")
	require.NoError(t, err)
	require.NoError(t, eng.Join(tour.ID, "alice", "Alice", c1))
	require.NoError(t, eng.Join(tour.ID, "bob", "Bob", c2))
	c1.drain()

	dispatch(c, c1, evRequestMatchInfo, matchInfoRequest{TournamentID: tour.ID, MatchID: tour.Matches[0].ID})

	var mr struct {
		SessionCode string `json:"sessionCode"`
	}
	require.True(t, c1.lastPayload(t, events.MatchReady, &mr))
	assert.Equal(t, tour.Matches[0].SessionCode, mr.SessionCode)
}

func TestDisconnectNotifiesOpponent(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c1 := newFakeSender("c1")
	c2 := newFakeSender("c2")
	dispatch(c, c1, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "alice"})
	dispatch(c, c2, evJoinSession, joinSessionRequest{SessionCode: "WXYZ", StoredID: "bob"})
	c1.drain()

	c.sessions.NotifyDisconnect("c2")

	var pres struct {
		Online bool `json:"online"`
	}
	require.True(t, c1.lastPayload(t, events.OpponentPres, &pres))
	assert.False(t, pres.Online)
}
