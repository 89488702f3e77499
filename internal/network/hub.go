package network

// EventHandler connects the network layer to the game logic. Each method is
// invoked from the hub goroutine, so implementations may mutate shared
// state without locking.
type EventHandler interface {
	OnConnect(c *Client)
	OnDisconnect(c *Client)
	OnMessage(c *Client, msg Message)
}

// clientMessage pairs a message with the client that sent it.
type clientMessage struct {
	client *Client
	msg    Message
}

// Hub owns the set of live clients and routes every event through a single
// goroutine. All registry and bracket mutation happens on that goroutine:
// handlers run to completion one at a time, which is the concurrency model
// the whole broker is built on.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage

	// tasks carries closures scheduled from other goroutines (teardown
	// timers, sweepers). They execute on the hub goroutine like any other
	// event, so a timer callback still sees a consistent world and must
	// re-check that its target still exists.
	tasks chan func()

	handler EventHandler
}

func NewHub(handler EventHandler) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		tasks:      make(chan func(), 64),
		handler:    handler,
	}
}

// Do schedules fn to run on the hub goroutine. Safe to call from timers and
// background jobs.
func (h *Hub) Do(fn func()) {
	h.tasks <- fn
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Closing send stops the client's writeLoop.
				close(client.send)
				h.handler.OnDisconnect(client)
			}

		case cm := <-h.incoming:
			h.handler.OnMessage(cm.client, cm.msg)

		case fn := <-h.tasks:
			fn()
		}
	}
}
