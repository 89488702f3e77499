package session

import (
	"time"

	"github.com/google/uuid"
)

// transcriptCap bounds the retained chat history per session. Older entries
// are evicted in arrival order.
const transcriptCap = 50

const (
	statusSent = "sent"
	statusRead = "read"
)

type ChatMessage struct {
	ID       string    `json:"id"`
	SenderID string    `json:"senderId"`
	Text     string    `json:"text"`
	Status   string    `json:"status"`
	SentAt   time.Time `json:"sentAt"`
}

// Transcript is the bounded message log of one session. Only the registry
// touches it, always from the hub goroutine.
type Transcript struct {
	entries []ChatMessage
}

func NewTranscript() *Transcript {
	return &Transcript{entries: make([]ChatMessage, 0, transcriptCap)}
}

// Append stores a new message stamped "sent", evicting the oldest entry
// once the transcript is full.
func (t *Transcript) Append(senderID, text string) ChatMessage {
	msg := ChatMessage{
		ID:       uuid.NewString(),
		SenderID: senderID,
		Text:     text,
		Status:   statusSent,
		SentAt:   time.Now(),
	}
	if len(t.entries) >= transcriptCap {
		t.entries = t.entries[1:]
	}
	t.entries = append(t.entries, msg)
	return msg
}

// MarkRead flips every message not authored by readerID to "read" and
// reports how many changed, so callers can skip the broadcast when nothing
// did.
func (t *Transcript) MarkRead(readerID string) int {
	changed := 0
	for i := range t.entries {
		if t.entries[i].SenderID != readerID && t.entries[i].Status != statusRead {
			t.entries[i].Status = statusRead
			changed++
		}
	}
	return changed
}

// Entries returns a copy of the transcript in arrival order.
func (t *Transcript) Entries() []ChatMessage {
	out := make([]ChatMessage, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Transcript) Len() int {
	return len(t.entries)
}
