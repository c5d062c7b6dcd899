package feed

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"neon-snake/internal/api"
	"neon-snake/internal/game"
)

// Stats is a point-in-time copy of the subscriber counters.
type Stats struct {
	Received   int64 // valid snapshots delivered
	Discarded  int64 // malformed or invalid messages dropped
	Attempts   int64 // connection attempts, including the first
	Reconnects int64 // attempts after the first
	Connected  bool
}

// Subscriber keeps one websocket open to the game server and hands every
// valid snapshot to OnSnapshot. A lost or failed connection is retried after
// exactly ReconnectDelay, forever.
type Subscriber struct {
	url    string
	dialer *websocket.Dialer

	conn   *websocket.Conn
	connMu sync.Mutex

	// Stats
	received  int64 // atomic
	discarded int64 // atomic
	attempts  int64 // atomic
	connected int32 // atomic

	// Malformed messages can arrive at frame rate; keep the log readable.
	logLimiter *rate.Limiter

	// Control
	running int32 // atomic
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Callbacks, invoked on the read goroutine
	onSnapshot   func(*game.Snapshot)
	onRaw        func([]byte)
	onConnect    func()
	onDisconnect func(error)
	onAttempt    func(time.Time)
}

// NewSubscriber creates a subscriber for url (DefaultURL when empty).
func NewSubscriber(url string) *Subscriber {
	if url == "" {
		url = DefaultURL
	}

	return &Subscriber{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: HandshakeTimeout,
		},
		logLimiter: rate.NewLimiter(rate.Limit(discardLogRate), discardLogBurst),
	}
}

// OnSnapshot sets a callback for every valid snapshot
func (s *Subscriber) OnSnapshot(fn func(*game.Snapshot)) {
	s.onSnapshot = fn
}

// OnRaw sets a callback for every inbound message, valid or not
func (s *Subscriber) OnRaw(fn func([]byte)) {
	s.onRaw = fn
}

// OnConnect sets a callback for when connection is established
func (s *Subscriber) OnConnect(fn func()) {
	s.onConnect = fn
}

// OnDisconnect sets a callback for when connection is lost
func (s *Subscriber) OnDisconnect(fn func(error)) {
	s.onDisconnect = fn
}

// OnAttempt sets a callback invoked right before each dial
func (s *Subscriber) OnAttempt(fn func(time.Time)) {
	s.onAttempt = fn
}

// Start starts the connection loop. Callbacks must be set before Start.
func (s *Subscriber) Start() error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return nil // Already running
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.connectionLoop()

	log.Printf("📡 Snapshot feed started, connecting to %s", s.url)
	return nil
}

// Stop closes the connection and waits for the loop to exit.
func (s *Subscriber) Stop() {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return // Not running
	}

	s.cancel()

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	log.Println("📡 Snapshot feed stopped")
}

// GetStats returns subscriber statistics
func (s *Subscriber) GetStats() Stats {
	attempts := atomic.LoadInt64(&s.attempts)
	return Stats{
		Received:   atomic.LoadInt64(&s.received),
		Discarded:  atomic.LoadInt64(&s.discarded),
		Attempts:   attempts,
		Reconnects: max(0, attempts-1),
		Connected:  atomic.LoadInt32(&s.connected) == 1,
	}
}

// IsConnected returns whether the subscriber is connected
func (s *Subscriber) IsConnected() bool {
	return atomic.LoadInt32(&s.connected) == 1
}

// connectionLoop dials, reads until the connection drops, then waits
// ReconnectDelay and starts over. There is no backoff and no attempt limit.
func (s *Subscriber) connectionLoop() {
	defer s.wg.Done()

	for atomic.LoadInt32(&s.running) == 1 {
		conn, err := s.connect()
		if err == nil {
			s.serve(conn)
		} else if s.ctx.Err() == nil {
			log.Printf("⚠️ Dial %s failed: %v (retrying in %v)", s.url, err, ReconnectDelay)
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(ReconnectDelay):
		}
	}
}

// connect performs one dial attempt
func (s *Subscriber) connect() (*websocket.Conn, error) {
	n := atomic.AddInt64(&s.attempts, 1)
	if n > 1 {
		api.RecordReconnect()
	}
	if s.onAttempt != nil {
		s.onAttempt(time.Now())
	}

	conn, _, err := s.dialer.DialContext(s.ctx, s.url, nil)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Connected to game server at %s", s.url)
	return conn, nil
}

// serve runs one connection to completion.
func (s *Subscriber) serve(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	// Stop may have raced the dial; it cannot see this conn, so close it here.
	if s.ctx.Err() != nil {
		conn.Close()
	}

	atomic.StoreInt32(&s.connected, 1)
	api.SetConnected(true)
	if s.onConnect != nil {
		s.onConnect()
	}

	pingDone := make(chan struct{})
	go s.pingLoop(conn, pingDone)

	err := s.readLoop(conn)

	close(pingDone)
	conn.Close()

	s.connMu.Lock()
	s.conn = nil
	s.connMu.Unlock()

	atomic.StoreInt32(&s.connected, 0)
	api.SetConnected(false)
	if s.onDisconnect != nil {
		s.onDisconnect(err)
	}
}

// readLoop reads messages until the connection fails
func (s *Subscriber) readLoop(conn *websocket.Conn) error {
	conn.SetReadLimit(MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("🔌 Server closed connection")
			} else if s.ctx.Err() == nil {
				log.Printf("⚠️ Feed read error: %v", err)
			}
			return err
		}
		// Any traffic proves the peer is alive.
		conn.SetReadDeadline(time.Now().Add(PongWait))

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		s.handleMessage(data)
	}
}

// handleMessage decodes one message; invalid ones are logged and dropped.
func (s *Subscriber) handleMessage(data []byte) {
	if s.onRaw != nil {
		s.onRaw(data)
	}

	snapshot, err := game.DecodeSnapshot(data)
	if err != nil {
		atomic.AddInt64(&s.discarded, 1)
		api.RecordSnapshotDiscarded(game.DiscardReason(err))
		if s.logLimiter.Allow() {
			log.Printf("⚠️ Discarding snapshot: %v", err)
		}
		return
	}

	atomic.AddInt64(&s.received, 1)
	api.RecordSnapshotReceived()

	if s.onSnapshot != nil {
		s.onSnapshot(snapshot)
	}
}

// pingLoop keeps the connection alive; it is the only writer on conn.
func (s *Subscriber) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-s.ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutting down"),
				time.Now().Add(WriteTimeout))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteTimeout)); err != nil {
				return
			}
		}
	}
}
