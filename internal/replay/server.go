package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"neon-snake/internal/api"
)

const (
	// MaxClientsTotal caps concurrent playback viewers
	MaxClientsTotal = 100

	// MaxClientsPerIP caps viewers from one address
	MaxClientsPerIP = 10

	maxLineSize  = 1024 * 1024
	writeTimeout = 5 * time.Second
)

// ErrNoFrames is returned when a recording holds no lines.
var ErrNoFrames = errors.New("recording has no frames")

// The client is a native program and sends no Origin, which the default
// check accepts; browsers from other origins are refused.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// LoadFrames reads a JSONL recording. Blank lines are skipped; every other
// line is kept verbatim, malformed or not.
func LoadFrames(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var frames [][]byte
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frames = append(frames, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return frames, nil
}

type viewer struct {
	conn *websocket.Conn
	ip   string
}

// Server broadcasts a recording to every websocket viewer on /ws at a fixed
// rate, looping forever. All writes happen on the Run goroutine.
type Server struct {
	frames   [][]byte
	interval time.Duration
	cursor   int

	clients    map[*websocket.Conn]*viewer
	register   chan *viewer
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	done       chan struct{}

	connLimiter *api.ConnLimiter
	router      *chi.Mux

	sent uint64 // atomic, frames broadcast
}

// NewServer creates a playback server. Nothing runs until Run is called.
func NewServer(frames [][]byte, fps int) *Server {
	if fps <= 0 {
		fps = 30
	}
	s := &Server{
		frames:      frames,
		interval:    time.Second / time.Duration(fps),
		clients:     make(map[*websocket.Conn]*viewer),
		register:    make(chan *viewer),
		unregister:  make(chan *websocket.Conn),
		done:        make(chan struct{}),
		connLimiter: api.NewConnLimiter(MaxClientsPerIP),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.handleWS)
	r.Get("/health", s.handleHealth)
	s.router = r

	return s
}

// Handler returns the HTTP handler for http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run owns the viewer set and the broadcast clock until ctx ends.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.done)
	defer s.closeAll()

	log.Printf("▶️ Replaying %d frames every %v", len(s.frames), s.interval)

	for {
		select {
		case <-ctx.Done():
			return

		case v := <-s.register:
			s.mu.Lock()
			s.clients[v.conn] = v
			count := len(s.clients)
			s.mu.Unlock()

			log.Printf("📱 Viewer connected from %s (%d total)", v.ip, count)
			api.UpdateWSConnections(count)

		case conn := <-s.unregister:
			s.remove(conn)

		case <-ticker.C:
			if len(s.frames) == 0 {
				continue
			}
			frame := s.frames[s.cursor]
			s.cursor = (s.cursor + 1) % len(s.frames)
			s.broadcast(frame)
		}
	}
}

func (s *Server) broadcast(frame []byte) {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.remove(conn)
		}
	}
	atomic.AddUint64(&s.sent, 1)
	api.IncrementWSMessages()
}

func (s *Server) remove(conn *websocket.Conn) {
	s.mu.Lock()
	v, ok := s.clients[conn]
	if ok {
		delete(s.clients, conn)
	}
	count := len(s.clients)
	s.mu.Unlock()

	if !ok {
		return
	}
	s.connLimiter.Release(v.ip)
	conn.Close()

	log.Printf("📱 Viewer disconnected (%d remaining)", count)
	api.UpdateWSConnections(count)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, v := range s.clients {
		s.connLimiter.Release(v.ip)
		conn.Close()
		delete(s.clients, conn)
	}
	api.UpdateWSConnections(0)
}

// DropClients closes every viewer connection, as a server restart would.
func (s *Server) DropClients() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.clients {
		conn.Close()
	}
}

// ClientCount returns the number of connected viewers
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// FramesSent returns how many frames have been broadcast
func (s *Server) FramesSent() uint64 {
	return atomic.LoadUint64(&s.sent)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := api.GetClientIP(r)

	if s.ClientCount() >= MaxClientsTotal {
		log.Printf("⚠️ Viewer rejected: total limit reached (%d)", MaxClientsTotal)
		api.RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !s.connLimiter.Acquire(ip) {
		log.Printf("⚠️ Viewer rejected from %s: per-IP limit reached", ip)
		api.RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		s.connLimiter.Release(ip)
		return
	}

	select {
	case s.register <- &viewer{conn: conn, ip: ip}:
	case <-s.done:
		s.connLimiter.Release(ip)
		conn.Close()
		return
	}

	// Viewers never send application data; reading drives pong and close handling.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}
		select {
		case s.unregister <- conn:
		case <-s.done:
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"frames":  len(s.frames),
		"clients": s.ClientCount(),
		"sent":    s.FramesSent(),
	})
}
