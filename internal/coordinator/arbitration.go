package coordinator

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/events"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/services/stats"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/session"
)

// XP credited after an arbitrated match. Losers still earn a little for
// finishing, which keeps abandonment worse than losing.
const (
	xpWin  = 100
	xpLoss = 25
)

const statsTimeout = 30 * time.Second

// handleSessionOver arbitrates a termination report. The winner comes from
// the reporting connection's bound participant record, never from a
// client-supplied identity: a connection can only ever claim a result for
// the seat it is actually bound to. An unbound reporter is logged and
// dropped with no state change and no reply, so a probing client learns
// nothing about the arbitration logic.
func (c *Coordinator) handleSessionOver(sender network.Sender, payload json.RawMessage) {
	req, ok := decode[sessionOverRequest](sender, evSessionOver, payload)
	if !ok {
		return
	}

	s := c.sessions.Get(req.SessionCode)
	if s == nil {
		// The session may already be torn down by the opponent's report;
		// absorb quietly to keep re-reporting idempotent.
		log.Printf("[Arbitration] result for unknown session %q ignored", req.SessionCode)
		return
	}
	if s.Settled {
		// Already arbitrated, still inside the teardown grace. A repeated
		// report, whoever it claims won, changes nothing.
		log.Printf("[Arbitration] session %s is already settled, duplicate report ignored", req.SessionCode)
		return
	}

	reporter := s.ByConnection(sender.ConnectionID())
	if reporter == nil {
		log.Printf("[Arbitration] connection %s reported a result for session %s it does not belong to, discarded",
			sender.ConnectionID(), req.SessionCode)
		return
	}

	winner := reporter
	if req.WinnerClaim == "opponent" {
		winner = s.Opponent(reporter)
		if winner == nil {
			log.Printf("[Arbitration] %s conceded in session %s with no opponent present, discarded",
				reporter.StoredID, req.SessionCode)
			return
		}
	}
	loser := s.Opponent(winner)
	s.Settled = true

	// Bracket first: the session teardown must never outrun the
	// tournament advancement it feeds.
	if s.Tournament != nil {
		if err := c.tournaments.ReportResult(s.Tournament.TournamentID, s.Tournament.MatchID, winner.StoredID); err != nil {
			log.Printf("[Arbitration] bracket update for session %s failed: %v", req.SessionCode, err)
		}
	}

	c.sessions.Broadcast(req.SessionCode, events.NewMatchOver(req.SessionCode, winner.StoredID))
	c.sessions.Terminate(req.SessionCode)

	loserID := ""
	if loser != nil {
		loserID = loser.StoredID
	}
	c.recordOutcome(s.Code, winner.StoredID, loserID, s.Tournament)
}

// recordOutcome ships XP and the outcome event to the collaborators.
// Strictly fire-and-forget: failures are logged, never retried beyond the
// client's own backoff, and never touch game flow.
func (c *Coordinator) recordOutcome(code, winnerID, loserID string, link *session.Link) {
	completed := stats.MatchCompleted{
		SessionCode:    code,
		WinnerStoredID: winnerID,
		LoserStoredID:  loserID,
		CompletedAt:    time.Now(),
	}
	if link != nil {
		completed.TournamentID = link.TournamentID
		completed.MatchID = link.MatchID
	}
	c.publisher.Publish(stats.SubjectMatchCompleted, completed)
	c.publisher.Publish(stats.SubjectXPAward, stats.XPAward{StoredID: winnerID, Delta: xpWin, IsWin: true})
	if loserID != "" {
		c.publisher.Publish(stats.SubjectXPAward, stats.XPAward{StoredID: loserID, Delta: xpLoss, IsWin: false})
	}

	if c.stats == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()
		if err := c.stats.UpdateUserXP(ctx, winnerID, xpWin, true); err != nil {
			log.Printf("[Arbitration] winner XP update for %s failed: %v", winnerID, err)
		}
		if loserID != "" {
			if err := c.stats.UpdateUserXP(ctx, loserID, xpLoss, false); err != nil {
				log.Printf("[Arbitration] loser XP update for %s failed: %v", loserID, err)
			}
		}
	}()
}
