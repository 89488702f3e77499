package tournament

import (
	"time"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Entrant is a tournament participant. Matches hold pointers to the same
// Entrant records, so rebinding the connection on a rejoin repairs every
// in-flight match assignment at once.
type Entrant struct {
	StoredID string
	Name     string

	conn network.Sender
}

func (e *Entrant) send(msg network.Message) {
	if e != nil && e.conn != nil {
		e.conn.Send() <- msg
	}
}

func (e *Entrant) connectionID() string {
	if e == nil || e.conn == nil {
		return ""
	}
	return e.conn.ConnectionID()
}

// Match is one bracket slot. SessionCode is allocated lazily, exactly once,
// and then reused for every lookup so both sides land in the same session.
// Winner is set at most once.
type Match struct {
	ID          string
	Round       int
	P1, P2      *Entrant
	Winner      *Entrant
	SessionCode string
}

func (m *Match) hasEntrant(storedID string) *Entrant {
	if m.P1 != nil && m.P1.StoredID == storedID {
		return m.P1
	}
	if m.P2 != nil && m.P2.StoredID == storedID {
		return m.P2
	}
	return nil
}

func (m *Match) opponentOf(e *Entrant) *Entrant {
	if m.P1 == e {
		return m.P2
	}
	return m.P1
}

// Tournament is a single-elimination bracket over a power-of-two entrant
// count. Round is 1-based once active; the bracket closes after
// log2(Size) rounds.
type Tournament struct {
	ID        string
	Name      string
	Size      int
	Status    Status
	Round     int
	Entrants  []*Entrant
	Matches   []*Match
	Winner    *Entrant
	CreatedAt time.Time

	// CompletedAt is stamped when the bracket closes. Retention counts
	// from here, not from creation: a long-running bracket still gets its
	// full window of visibility after the final.
	CompletedAt time.Time
}

func (t *Tournament) entrant(storedID string) *Entrant {
	for _, e := range t.Entrants {
		if e.StoredID == storedID {
			return e
		}
	}
	return nil
}

func (t *Tournament) match(id string) *Match {
	for _, m := range t.Matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (t *Tournament) roundMatches(round int) []*Match {
	var out []*Match
	for _, m := range t.Matches {
		if m.Round == round {
			out = append(out, m)
		}
	}
	return out
}

// totalRounds is log2(Size) for the power-of-two sizes Create enforces.
func (t *Tournament) totalRounds() int {
	rounds := 0
	for n := t.Size; n > 1; n >>= 1 {
		rounds++
	}
	return rounds
}
