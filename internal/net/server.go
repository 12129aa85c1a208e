// Package net is the observer transport: a websocket endpoint that
// streams tick frames to passive rendering clients. Clients send a
// single SUBSCRIBE handshake and then only consume; nothing a client
// sends reaches the simulation.
package net

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/soulrift/server/internal/config"
	"github.com/soulrift/server/internal/protocol"
)

type subscribeMsg struct {
	Type string `json:"type"`
}

type client struct {
	id   uint64
	conn *websocket.Conn
	out  chan []byte
}

// Server owns the observer connections. The game loop publishes encoded
// frames; the server fans them out without ever touching simulation
// state. A client that cannot keep up with the tick stream is dropped.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]*client

	// Latest encoded snapshot, replaced by the game loop on the snapshot
	// cadence. Joining clients get it before any tick frame.
	snapshot atomic.Pointer[[]byte]

	httpSrv *http.Server
}

func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	return &Server{
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // observers are read-only
		},
		clients: make(map[uint64]*client),
	}
}

// Run serves the websocket endpoint until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	s.httpSrv = &http.Server{
		Addr:    s.cfg.Network.BindAddress,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()
	s.log.Info("observer endpoint listening", zap.String("addr", s.cfg.Network.BindAddress))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		s.closeAll()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Broadcast queues a frame for every connected client. A client whose
// queue is full is dropped rather than allowed to stall the loop.
func (s *Server) Broadcast(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		select {
		case c.out <- frame:
		default:
			s.log.Warn("dropping slow observer", zap.Uint64("client", id))
			delete(s.clients, id)
			close(c.out)
			_ = c.conn.Close()
		}
	}
}

// PublishSnapshot stores the snapshot for future joiners and broadcasts
// it so connected clients resynchronize.
func (s *Server) PublishSnapshot(frame []byte) {
	s.snapshot.Store(&frame)
	s.Broadcast(frame)
}

// ClientCount returns the number of connected observers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Handshake: the first frame must be a SUBSCRIBE.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return
	}
	var sub subscribeMsg
	if err := json.Unmarshal(raw, &sub); err != nil || sub.Type != "SUBSCRIBE" {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"),
			time.Now().Add(time.Second))
		return
	}

	c := &client{
		id:   s.nextID.Add(1),
		conn: conn,
		out:  make(chan []byte, s.cfg.Network.ClientQueueSize),
	}

	hello, err := json.Marshal(protocol.Hello{
		Type:       protocol.TypeHello,
		ServerName: s.cfg.Server.Name,
		ServerID:   s.cfg.Server.ID,
		TickRateMs: s.cfg.Network.TickRate.Milliseconds(),
	})
	if err == nil {
		c.out <- hello
	}
	if snap := s.snapshot.Load(); snap != nil {
		c.out <- *snap
	}

	s.mu.Lock()
	s.clients[c.id] = c
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("observer connected",
		zap.Uint64("client", c.id),
		zap.String("remote", r.RemoteAddr),
		zap.Int("observers", n))

	done := make(chan struct{})
	go s.writer(c, done)

	// Reader loop exists only to notice disconnects; observer input is
	// ignored after the handshake.
	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.remove(c.id)
	<-done
	s.log.Info("observer disconnected", zap.Uint64("client", c.id))
}

func (s *Server) writer(c *client, done chan<- struct{}) {
	defer close(done)
	for frame := range c.out {
		_ = c.conn.SetWriteDeadline(time.Now().Add(s.cfg.Network.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.remove(c.id)
			// Drain so Broadcast never blocks on a dead client.
			for range c.out {
			}
			return
		}
	}
}

// remove unregisters the client and closes its queue exactly once.
func (s *Server) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[id]; ok {
		delete(s.clients, id)
		close(c.out)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		delete(s.clients, id)
		close(c.out)
		_ = c.conn.Close()
	}
}
