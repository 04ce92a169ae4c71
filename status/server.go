// Package status serves the monitor snapshots over HTTP and websockets.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/digineo/go-netcheck/monitor"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		return host == strings.ToLower(strings.TrimSpace(u.Host))
	},
}

// Server publishes the latest snapshot. It implements monitor.Sink.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger

	mtx     sync.Mutex
	latest  *monitor.Snapshot
	clients map[chan monitor.Snapshot]struct{}
	closed  chan struct{}
	once    sync.Once
}

// New creates a server listening on addr once Run is called.
func New(addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		log:     log,
		clients: make(map[chan monitor.Snapshot]struct{}),
		closed:  make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/ws", s.handleWS)
	return mux
}

// Run blocks and serves HTTP traffic until Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("status server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown disconnects all websocket clients and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.once.Do(func() { close(s.closed) })
	return s.httpServer.Shutdown(ctx)
}

// Publish stores the snapshot and pushes it to every websocket client.
// Clients which have not yet received the previous snapshot only get this
// one.
func (s *Server) Publish(snap monitor.Snapshot) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.latest = &snap
	for ch := range s.clients {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *Server) current() (monitor.Snapshot, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.latest == nil {
		return monitor.Snapshot{}, false
	}
	return *s.latest, true
}

func (s *Server) subscribe() chan monitor.Snapshot {
	ch := make(chan monitor.Snapshot, 1)

	s.mtx.Lock()
	if s.latest != nil {
		ch <- *s.latest
	}
	s.clients[ch] = struct{}{}
	s.mtx.Unlock()

	return ch
}

func (s *Server) unsubscribe(ch chan monitor.Snapshot) {
	s.mtx.Lock()
	delete(s.clients, ch)
	s.mtx.Unlock()
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// the reader detects closed connections
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(snap); err != nil {
				s.log.Debug("websocket write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		case <-done:
			return
		case <-s.closed:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
