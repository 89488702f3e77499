package coordinator

import (
	"encoding/json"
	"strings"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/events"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/session"
)

func (c *Coordinator) handleJoinSession(sender network.Sender, payload json.RawMessage) {
	req, ok := decode[joinSessionRequest](sender, evJoinSession, payload)
	if !ok {
		return
	}
	if req.StoredID == "" {
		sender.Send() <- events.NewSessionError("storedId is required to join a session")
		return
	}

	var link *session.Link
	if req.TournamentLink != nil {
		link = &session.Link{
			TournamentID: req.TournamentLink.TournamentID,
			MatchID:      req.TournamentLink.MatchID,
		}
	}

	if err := c.sessions.Join(req.SessionCode, req.StoredID, req.DisplayName, sender, link); err != nil {
		sender.Send() <- events.NewSessionError(err.Error())
	}
}

func (c *Coordinator) handleStateUpdate(sender network.Sender, payload json.RawMessage) {
	req, ok := decode[stateUpdateRequest](sender, evApplyStateUpdate, payload)
	if !ok {
		return
	}
	if err := c.sessions.ApplyStateUpdate(req.SessionCode, sender.ConnectionID(), req.State); err != nil {
		sender.Send() <- events.NewSessionError(err.Error())
	}
}

func (c *Coordinator) handleSendMessage(sender network.Sender, payload json.RawMessage) {
	req, ok := decode[sendMessageRequest](sender, evSendMessage, payload)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		sender.Send() <- events.NewSessionError("message text is required")
		return
	}
	if err := c.sessions.RecordChat(req.SessionCode, req.SenderID, req.Text); err != nil {
		sender.Send() <- events.NewSessionError(err.Error())
	}
}

func (c *Coordinator) handleMarkRead(sender network.Sender, payload json.RawMessage) {
	req, ok := decode[markReadRequest](sender, evMarkRead, payload)
	if !ok {
		return
	}
	if err := c.sessions.MarkRead(req.SessionCode, req.ReaderID); err != nil {
		sender.Send() <- events.NewSessionError(err.Error())
	}
}
