package coordinator

import "github.com/vortex-hue/dex-naija-whot-backend/internal/game"

// One DTO per inbound event. Payloads are validated here, at the boundary,
// before any engine code sees them.

const (
	evJoinSession      = "join_session"
	evApplyStateUpdate = "apply_state_update"
	evSendMessage      = "send_message"
	evMarkRead         = "mark_read"
	evSessionOver      = "session_over"
	evCreateTournament = "create_tournament"
	evJoinTournament   = "join_tournament"
	evRequestMatchInfo = "request_match_info"
	evListTournaments  = "list_tournaments"
)

type tournamentLink struct {
	TournamentID string `json:"tournamentId"`
	MatchID      string `json:"matchId"`
}

type joinSessionRequest struct {
	SessionCode    string          `json:"sessionCode"`
	StoredID       string          `json:"storedId"`
	DisplayName    string          `json:"displayName"`
	TournamentLink *tournamentLink `json:"tournamentLink,omitempty"`
}

type stateUpdateRequest struct {
	SessionCode string     `json:"sessionCode"`
	State       game.State `json:"state"`
}

type sendMessageRequest struct {
	SessionCode string `json:"sessionCode"`
	SenderID    string `json:"senderId"`
	Text        string `json:"text"`
}

type markReadRequest struct {
	SessionCode string `json:"sessionCode"`
	ReaderID    string `json:"readerId"`
}

// sessionOverRequest carries a relative claim. WinnerClaim is "mine"
// (default) or "opponent"; any absolute identity a client tries to smuggle
// in here is ignored -- the winner is resolved from the reporting
// connection's own binding.
type sessionOverRequest struct {
	SessionCode string `json:"sessionCode"`
	WinnerClaim string `json:"winnerClaim,omitempty"`
}

type createTournamentRequest struct {
	Size int    `json:"size"`
	Name string `json:"name"`
}

type joinTournamentRequest struct {
	TournamentID string `json:"tournamentId"`
	StoredID     string `json:"storedId"`
	Name         string `json:"name"`
}

type matchInfoRequest struct {
	TournamentID string `json:"tournamentId"`
	MatchID      string `json:"matchId"`
}
