// Package events builds the outbound messages the broker pushes to
// clients. Inbound event names live with their handlers in coordinator.
package events

import (
	"github.com/vortex-hue/dex-naija-whot-backend/internal/game"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
)

const (
	StateDispatch   = "state_dispatch"
	SessionError    = "session_error"
	OpponentPres    = "opponent_presence_changed"
	ChatHistory     = "chat_history"
	ReceiveMessage  = "receive_message"
	MessagesRead    = "messages_read"
	TournamentState = "tournament_update"
	TournamentsList = "tournaments_list"
	MatchReady      = "tournament_match_ready"
	MatchOver       = "match_over"
)

type statePayload struct {
	SessionCode string     `json:"sessionCode"`
	State       game.State `json:"state"`
}

// NewStateDispatch carries an initial or updated game state, already
// oriented to the receiving seat.
func NewStateDispatch(code string, st game.State) network.Message {
	return network.NewMessage(StateDispatch, statePayload{SessionCode: code, State: st})
}

type errorPayload struct {
	Error string `json:"error"`
}

// NewSessionError carries a human-readable rejection. Clients get prose,
// not codes.
func NewSessionError(msg string) network.Message {
	return network.NewMessage(SessionError, errorPayload{Error: msg})
}

type presencePayload struct {
	SessionCode string `json:"sessionCode"`
	Online      bool   `json:"online"`
}

func NewOpponentPresence(code string, online bool) network.Message {
	return network.NewMessage(OpponentPres, presencePayload{SessionCode: code, Online: online})
}

type matchReadyPayload struct {
	SessionCode  string `json:"sessionCode"`
	MatchID      string `json:"matchId"`
	OpponentName string `json:"opponentName"`
	TournamentID string `json:"tournamentId"`
}

func NewMatchReady(tournamentID, matchID, sessionCode, opponentName string) network.Message {
	return network.NewMessage(MatchReady, matchReadyPayload{
		SessionCode:  sessionCode,
		MatchID:      matchID,
		OpponentName: opponentName,
		TournamentID: tournamentID,
	})
}

type matchOverPayload struct {
	SessionCode    string `json:"sessionCode"`
	WinnerStoredID string `json:"winnerStoredId"`
}

func NewMatchOver(code, winnerStoredID string) network.Message {
	return network.NewMessage(MatchOver, matchOverPayload{SessionCode: code, WinnerStoredID: winnerStoredID})
}

// NewChatHistory, NewReceiveMessage and NewMessagesRead take already-shaped
// payloads from the session package; the wrapper only names the event.
func NewChatHistory(payload any) network.Message {
	return network.NewMessage(ChatHistory, payload)
}

func NewReceiveMessage(payload any) network.Message {
	return network.NewMessage(ReceiveMessage, payload)
}

type readPayload struct {
	SessionCode string `json:"sessionCode"`
	ReaderID    string `json:"readerId"`
}

func NewMessagesRead(code, readerID string) network.Message {
	return network.NewMessage(MessagesRead, readPayload{SessionCode: code, ReaderID: readerID})
}

func NewTournamentUpdate(snapshot any) network.Message {
	return network.NewMessage(TournamentState, snapshot)
}

func NewTournamentsList(snapshots any) network.Message {
	return network.NewMessage(TournamentsList, snapshots)
}
