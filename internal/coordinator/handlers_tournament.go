package coordinator

import (
	"encoding/json"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/events"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
)

func (c *Coordinator) handleCreateTournament(sender network.Sender, payload json.RawMessage) {
	req, ok := decode[createTournamentRequest](sender, evCreateTournament, payload)
	if !ok {
		return
	}
	if _, err := c.tournaments.Create(req.Size, req.Name); err != nil {
		sender.Send() <- events.NewSessionError(err.Error())
		return
	}
	sender.Send() <- events.NewTournamentsList(c.tournaments.List())
}

func (c *Coordinator) handleJoinTournament(sender network.Sender, payload json.RawMessage) {
	req, ok := decode[joinTournamentRequest](sender, evJoinTournament, payload)
	if !ok {
		return
	}
	if req.StoredID == "" {
		sender.Send() <- events.NewSessionError("storedId is required to join a tournament")
		return
	}
	if err := c.tournaments.Join(req.TournamentID, req.StoredID, req.Name, sender); err != nil {
		sender.Send() <- events.NewSessionError(err.Error())
	}
}

func (c *Coordinator) handleRequestMatchInfo(sender network.Sender, payload json.RawMessage) {
	req, ok := decode[matchInfoRequest](sender, evRequestMatchInfo, payload)
	if !ok {
		return
	}
	if err := c.tournaments.RequestMatchInfo(sender.ConnectionID(), req.TournamentID, req.MatchID); err != nil {
		sender.Send() <- events.NewSessionError(err.Error())
	}
}

func (c *Coordinator) handleListTournaments(sender network.Sender, _ json.RawMessage) {
	sender.Send() <- events.NewTournamentsList(c.tournaments.List())
}
