// Package coordinator routes inbound client events to the session registry
// and tournament engine, and arbitrates match results. It implements
// network.EventHandler, so everything here runs on the hub goroutine.
package coordinator

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/events"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/services/stats"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/session"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/tournament"
)

type handlerFunc func(c *Coordinator, sender network.Sender, payload json.RawMessage)

// Coordinator is the single event handler behind the hub. One router map
// covers all inbound events; each handler decodes its own DTO and reports
// failures back to the originating connection only.
type Coordinator struct {
	sessions    *session.Registry
	tournaments *tournament.Engine
	stats       *stats.Client
	publisher   *stats.Publisher

	router map[string]handlerFunc
}

func New(sessions *session.Registry, tournaments *tournament.Engine, statsClient *stats.Client, publisher *stats.Publisher) *Coordinator {
	c := &Coordinator{
		sessions:    sessions,
		tournaments: tournaments,
		stats:       statsClient,
		publisher:   publisher,
		router:      make(map[string]handlerFunc),
	}
	c.router[evJoinSession] = (*Coordinator).handleJoinSession
	c.router[evApplyStateUpdate] = (*Coordinator).handleStateUpdate
	c.router[evSendMessage] = (*Coordinator).handleSendMessage
	c.router[evMarkRead] = (*Coordinator).handleMarkRead
	c.router[evSessionOver] = (*Coordinator).handleSessionOver
	c.router[evCreateTournament] = (*Coordinator).handleCreateTournament
	c.router[evJoinTournament] = (*Coordinator).handleJoinTournament
	c.router[evRequestMatchInfo] = (*Coordinator).handleRequestMatchInfo
	c.router[evListTournaments] = (*Coordinator).handleListTournaments
	return c
}

func (c *Coordinator) OnConnect(client *network.Client) {
	log.Printf("[Coordinator] connection %s opened", client.ConnectionID())
}

// OnDisconnect is advisory: the opponent is told, but the participant
// binding survives so the player can reconnect into the same seat.
func (c *Coordinator) OnDisconnect(client *network.Client) {
	c.sessions.NotifyDisconnect(client.ConnectionID())
	log.Printf("[Coordinator] connection %s closed", client.ConnectionID())
}

func (c *Coordinator) OnMessage(client *network.Client, msg network.Message) {
	c.Dispatch(client, msg)
}

// Dispatch routes one envelope. Split from OnMessage so tests can drive the
// coordinator with fake senders.
func (c *Coordinator) Dispatch(sender network.Sender, msg network.Message) {
	handler, ok := c.router[msg.Event]
	if !ok {
		sender.Send() <- events.NewSessionError(fmt.Sprintf("unknown event %q", msg.Event))
		return
	}
	handler(c, sender, msg.Payload)
}

// decode unmarshals a payload and reports a malformed one to the sender.
func decode[T any](sender network.Sender, event string, payload json.RawMessage) (T, bool) {
	var req T
	if err := json.Unmarshal(payload, &req); err != nil {
		sender.Send() <- events.NewSessionError(fmt.Sprintf("invalid payload for %s", event))
		return req, false
	}
	return req, true
}
