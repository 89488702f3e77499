package session

import (
	"time"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/game"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
)

// Participant binds a durable player identity to its current live
// connection. StoredID survives refreshes; conn and ConnectionID are
// replaced on every reconnect without ever creating a second participant.
type Participant struct {
	StoredID     string
	ConnectionID string
	DisplayName  string
	Seat         game.Seat

	conn network.Sender
}

func (p *Participant) send(msg network.Message) {
	if p.conn != nil {
		p.conn.Send() <- msg
	}
}

// Link ties a session to the tournament match it decides.
type Link struct {
	TournamentID string
	MatchID      string
}

// Session is one live two-player game, keyed by its 4-character code. State
// is canonical (seat one's view); seat two always gets the mirrored
// projection.
type Session struct {
	Code         string
	Participants map[game.Seat]*Participant
	State        game.State
	Chat         *Transcript
	Tournament   *Link
	StartedAt    time.Time
	LastActivity time.Time

	// Settled is set once a result has been arbitrated. The session stays
	// in the registry through the teardown grace, and any further report
	// for it is absorbed like a report for an unknown code.
	Settled bool
}

func (s *Session) touch() {
	s.LastActivity = time.Now()
}

// byStoredID finds a participant by durable identity.
func (s *Session) byStoredID(storedID string) *Participant {
	for _, p := range s.Participants {
		if p.StoredID == storedID {
			return p
		}
	}
	return nil
}

// ByConnection finds a participant by its live connection.
func (s *Session) ByConnection(connID string) *Participant {
	for _, p := range s.Participants {
		if p.ConnectionID == connID {
			return p
		}
	}
	return nil
}

// Opponent returns the other participant, or nil while the session waits
// for one.
func (s *Session) Opponent(p *Participant) *Participant {
	return s.Participants[p.Seat.Other()]
}

func (s *Session) freeSeat() game.Seat {
	if s.Participants[game.SeatOne] == nil {
		return game.SeatOne
	}
	return game.SeatTwo
}
