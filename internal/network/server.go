package network

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// Clients connect from arbitrary origins (web build, mobile webview).
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server upgrades HTTP connections to websockets and feeds them to the hub.
// Extra request/response endpoints (health, leaderboard, payment) hang off
// the same mux but never touch the hub goroutine.
type Server struct {
	hub     *Hub
	mux     *http.ServeMux
	httpSrv *http.Server
}

func NewServer(handler EventHandler) *Server {
	s := &Server{
		hub: NewHub(handler),
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/ws", s.wsHandler)
	s.httpSrv = &http.Server{Handler: s.mux}
	return s
}

// Hub exposes the hub so timers and sweepers can schedule work on it.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handle mounts an off-core HTTP endpoint next to /ws.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Network] websocket upgrade failed: %v", err)
		return
	}

	client := newClient(conn, s.hub)
	client.hub.register <- client

	go client.writeLoop()
	go client.readLoop()
}

// Listen starts the hub goroutine and blocks serving HTTP until the
// process exits or Shutdown is called. A clean shutdown returns nil.
func (s *Server) Listen(address string) error {
	go s.hub.Run()

	s.httpSrv.Addr = address
	log.Printf("[Network] listening on ws://%s/ws", address)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
