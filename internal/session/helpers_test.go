package session

import (
	"encoding/json"
	"time"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
)

// fakeSender stands in for a websocket client.
type fakeSender struct {
	id string
	ch chan network.Message
}

func newFakeSender(id string) *fakeSender {
	return &fakeSender{id: id, ch: make(chan network.Message, 128)}
}

func (f *fakeSender) ConnectionID() string {
	return f.id
}

func (f *fakeSender) Send() chan<- network.Message {
	return f.ch
}

// drain returns everything buffered so far.
func (f *fakeSender) drain() []network.Message {
	var out []network.Message
	for {
		select {
		case msg := <-f.ch:
			out = append(out, msg)
		default:
			return out
		}
	}
}

// eventsSeen returns only the event names, in order.
func (f *fakeSender) eventsSeen() []string {
	var out []string
	for _, msg := range f.drain() {
		out = append(out, msg.Event)
	}
	return out
}

// lastPayload decodes the payload of the last buffered message with the
// given event name, reporting whether one was found.
func (f *fakeSender) lastPayload(event string, into any) bool {
	found := false
	for _, msg := range f.drain() {
		if msg.Event == event {
			if json.Unmarshal(msg.Payload, into) == nil {
				found = true
			}
		}
	}
	return found
}

// capturedScheduler records delayed callbacks so tests decide when (and
// whether) they fire.
type capturedScheduler struct {
	fns []func()
}

func (s *capturedScheduler) schedule(d time.Duration, fn func()) {
	s.fns = append(s.fns, fn)
}

func (s *capturedScheduler) fire() {
	fns := s.fns
	s.fns = nil
	for _, fn := range fns {
		fn()
	}
}
