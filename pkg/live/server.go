// Package live pushes re-rendered fixtures to preview pages over WebSocket.
package live

import (
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/recera/htag/pkg/scheduler"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
	readWait   = 60 * time.Second
	sendBuffer = 64
)

// Hub tracks preview sessions and broadcasts fixture updates to them
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	latest   map[string]Update
	seq      uint64
	nextID   atomic.Uint64

	// Publish coalescing
	sched   *scheduler.Scheduler
	task    *scheduler.Task
	pending map[string]Update
}

// Session represents one connected preview page
type Session struct {
	ID string
	// Fixture limits the session to one fixture; empty receives all
	Fixture string

	conn      *websocket.Conn
	sendChan  chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewHub creates a hub. A nil logger discards log output.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Hub{
		upgrader: websocket.Upgrader{
			// The preview server only listens on the configured dev address
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:   logger,
		sessions: make(map[string]*Session),
		latest:   make(map[string]Update),
		pending:  make(map[string]Update),
		sched:    scheduler.NewScheduler(),
	}
	h.task = h.sched.CreateTask(h.flushPending)
	h.sched.SetDefaultErrorHandler(func(task *scheduler.Task, err interface{}) bool {
		h.logger.Error("publish failed", "error", err)
		return true
	})
	return h
}

// ServeHTTP upgrades the request and serves the session until it closes.
// The "fixture" query parameter subscribes to a single fixture.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", "error", err)
		return
	}

	s := &Session{
		ID:        strconv.FormatUint(h.nextID.Add(1), 10),
		Fixture:   r.URL.Query().Get("fixture"),
		conn:      conn,
		sendChan:  make(chan []byte, sendBuffer),
		closeChan: make(chan struct{}),
	}
	s.logger = h.logger.With("session", s.ID)

	// HELLO and the replay are queued before any broadcast can reach the
	// session
	h.mu.Lock()
	h.sessions[s.ID] = s
	s.send(EncodeControl(ControlHello, h.seq))
	for _, u := range h.replayLocked(s) {
		s.send(EncodeUpdate(u))
	}
	h.mu.Unlock()

	s.logger.Debug("session connected", "fixture", s.Fixture)
	go s.writer()
	s.reader()
	h.remove(s)
}

// replayLocked returns the latest updates the session should see, sorted by
// fixture name
func (h *Hub) replayLocked(s *Session) []Update {
	var out []Update
	for name, u := range h.latest {
		if s.Fixture == "" || s.Fixture == name {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fixture < out[j].Fixture })
	return out
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.mu.Unlock()
	s.close()
	s.logger.Debug("session closed")
}

// Broadcast assigns the next sequence number to u and sends it to every
// subscribed session. It returns the sequence number.
func (h *Hub) Broadcast(u Update) uint64 {
	h.mu.Lock()
	h.seq++
	u.Seq = h.seq
	if u.Error == "" {
		h.latest[u.Fixture] = u
	}
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s.Fixture == "" || s.Fixture == u.Fixture {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	data := EncodeUpdate(u)
	for _, s := range targets {
		s.send(data)
	}
	h.logger.Debug("broadcast", "fixture", u.Fixture, "seq", u.Seq, "sessions", len(targets))
	return u.Seq
}

// SessionCount returns the number of connected sessions
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Latest returns the last successful update of a fixture
func (h *Hub) Latest(fixture string) (Update, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	u, ok := h.latest[fixture]
	return u, ok
}

// Close disconnects every session and stops publishing
func (h *Hub) Close() {
	h.sched.Stop()

	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// send queues a frame without blocking; a full buffer drops it
func (s *Session) send(data []byte) {
	select {
	case <-s.closeChan:
		return
	default:
	}
	select {
	case s.sendChan <- data:
	default:
		s.logger.Warn("send buffer full, dropping frame")
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
		s.conn.Close()
	})
}

// reader handles incoming frames until the connection fails
func (s *Session) reader() {
	s.conn.SetReadDeadline(time.Now().Add(readWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("unexpected close", "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(readWait))
		if messageType != websocket.BinaryMessage {
			continue
		}

		msg, _, err := DecodeControl(data)
		if err != nil {
			s.logger.Debug("ignoring frame", "error", err)
			continue
		}
		if msg == ControlPing {
			s.send(EncodeControl(ControlPong, 0))
		}
	}
}

// writer handles writing messages to the WebSocket
func (s *Session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-s.sendChan:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				s.logger.Debug("failed to write message", "error", err)
				s.close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}

		case <-s.closeChan:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}
