package stats

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectMatchCompleted = "whot.match.completed"
	SubjectXPAward        = "whot.xp.award"
)

// MatchCompleted is the outcome record published after every arbitrated
// match. Consumers (leaderboard projections, analytics) are free to lag or
// drop; nothing in the game flow waits on them.
type MatchCompleted struct {
	SessionCode    string    `json:"sessionCode"`
	WinnerStoredID string    `json:"winnerStoredId"`
	LoserStoredID  string    `json:"loserStoredId"`
	TournamentID   string    `json:"tournamentId,omitempty"`
	MatchID        string    `json:"matchId,omitempty"`
	CompletedAt    time.Time `json:"completedAt"`
}

type XPAward struct {
	StoredID string `json:"storedId"`
	Delta    int    `json:"delta"`
	IsWin    bool   `json:"isWin"`
}

// Publisher pushes fire-and-forget events onto NATS. A nil Publisher or a
// Publisher built with a nil connection silently drops everything, so the
// broker runs fine without a NATS deployment.
type Publisher struct {
	nc *nats.Conn
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// Connect dials NATS; an empty URL disables publishing.
func Connect(url string) (*Publisher, error) {
	if url == "" {
		return &Publisher{}, nil
	}
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc}, nil
}

func (p *Publisher) Publish(subject string, payload any) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Stats] marshal for %s failed: %v", subject, err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		log.Printf("[Stats] publish to %s failed: %v", subject, err)
	}
}

func (p *Publisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Close()
	}
}
