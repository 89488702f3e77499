package tournament

// Public snapshots reduce players to display name plus stored identity.
// Connection identifiers never leave the engine.

type EntrantSnapshot struct {
	StoredID string `json:"storedId"`
	Name     string `json:"name"`
}

type MatchSnapshot struct {
	ID          string           `json:"matchId"`
	Round       int              `json:"round"`
	P1          *EntrantSnapshot `json:"p1"`
	P2          *EntrantSnapshot `json:"p2"`
	Winner      *EntrantSnapshot `json:"winner,omitempty"`
	SessionCode string           `json:"sessionCode,omitempty"`
}

type Snapshot struct {
	ID           string            `json:"tournamentId"`
	Name         string            `json:"name"`
	Size         int               `json:"size"`
	Status       Status            `json:"status"`
	Round        int               `json:"currentRound"`
	Participants []EntrantSnapshot `json:"participants"`
	Matches      []MatchSnapshot   `json:"matches"`
	Winner       *EntrantSnapshot  `json:"winner,omitempty"`
}

func snapEntrant(e *Entrant) *EntrantSnapshot {
	if e == nil {
		return nil
	}
	return &EntrantSnapshot{StoredID: e.StoredID, Name: e.Name}
}

func (t *Tournament) snapshot() Snapshot {
	snap := Snapshot{
		ID:           t.ID,
		Name:         t.Name,
		Size:         t.Size,
		Status:       t.Status,
		Round:        t.Round,
		Participants: make([]EntrantSnapshot, 0, len(t.Entrants)),
		Matches:      make([]MatchSnapshot, 0, len(t.Matches)),
		Winner:       snapEntrant(t.Winner),
	}
	for _, e := range t.Entrants {
		snap.Participants = append(snap.Participants, *snapEntrant(e))
	}
	for _, m := range t.Matches {
		snap.Matches = append(snap.Matches, MatchSnapshot{
			ID:          m.ID,
			Round:       m.Round,
			P1:          snapEntrant(m.P1),
			P2:          snapEntrant(m.P2),
			Winner:      snapEntrant(m.Winner),
			SessionCode: m.SessionCode,
		})
	}
	return snap
}
