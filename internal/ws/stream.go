package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/models"
)

const (
	writeTimeout     = 10 * time.Second
	wsReadLimit      = 64 * 1024
	streamSendBuffer = 16
	maxConnLifetime  = 1 * time.Hour
	pingInterval     = 30 * time.Second
	pingTimeout      = 10 * time.Second
	maxMissedPongs   = int32(2)
)

// Cursor is the part of a query cursor a stream drives.
type Cursor interface {
	Next() bool
	Path() models.Path
	Err() error
	Close()
}

// CursorOpener validates a walk request and opens a cursor over its paths.
type CursorOpener func(ctx context.Context, req models.WalkRequest) (Cursor, error)

// Stream serves one WebSocket connection. The client pulls pages of paths
// from a cursor it opened with a walk message; nothing is evaluated until
// the client asks for it.
type Stream struct {
	hub         *Hub
	conn        *websocket.Conn
	open        CursorOpener
	send        chan []byte
	log         *logrus.Logger
	cursor      Cursor
	mu          sync.Mutex
	closed      bool
	connectedAt time.Time
}

// NewStream creates a Stream for the given WebSocket connection.
func NewStream(hub *Hub, conn *websocket.Conn, open CursorOpener) *Stream {
	return &Stream{
		hub:         hub,
		conn:        conn,
		open:        open,
		send:        make(chan []byte, streamSendBuffer),
		log:         hub.log,
		connectedAt: time.Now(),
	}
}

// closeSend closes the send channel exactly once. WritePump flushes what is
// already queued and then closes the connection.
func (s *Stream) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

func (s *Stream) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// ReadPump reads client messages until the connection closes. Cursor work
// happens on this goroutine, so a stream never has more than one page in
// flight.
func (s *Stream) ReadPump(ctx context.Context) {
	defer func() {
		s.releaseCursor()
		s.hub.Unregister(s)
		s.conn.CloseNow() //nolint:errcheck // best-effort close on teardown
	}()

	s.conn.SetReadLimit(wsReadLimit)

	for {
		_, msgBytes, err := s.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				s.log.WithField("status", websocket.CloseStatus(err)).Debug("stream client disconnected")
			}

			return
		}

		// Keep reading after closeSend so the close handshake can finish.
		if s.isClosing() {
			continue
		}

		if !s.handleMessage(ctx, msgBytes) {
			s.releaseCursor()
			s.closeSend()
		}
	}
}

// handleMessage processes one client message. It returns false when the
// stream should end.
func (s *Stream) handleMessage(ctx context.Context, msgBytes []byte) bool {
	var msg ClientMsg
	if err := json.Unmarshal(msgBytes, &msg); err != nil {
		return s.enqueue(ErrorMsg{Type: MsgError, Code: CodeInvalidRequest, Message: "malformed message"})
	}

	switch msg.Type {
	case MsgWalk:
		return s.startWalk(ctx, msg)
	case MsgNext:
		if s.cursor == nil {
			return s.enqueue(ErrorMsg{Type: MsgError, Code: CodeInvalidRequest, Message: "no walk in progress"})
		}

		return s.sendPage(pageSize(msg.N))
	case MsgClose:
		s.releaseCursor()

		return false
	default:
		return s.enqueue(ErrorMsg{Type: MsgError, Code: CodeInvalidRequest, Message: "unknown message type"})
	}
}

func (s *Stream) startWalk(ctx context.Context, msg ClientMsg) bool {
	if s.cursor != nil {
		return s.enqueue(ErrorMsg{Type: MsgError, Code: CodeInvalidRequest, Message: "walk already in progress"})
	}

	if msg.Request == nil {
		return s.enqueue(ErrorMsg{Type: MsgError, Code: CodeInvalidRequest, Message: "request is required"})
	}

	cur, err := s.open(ctx, *msg.Request)
	if err != nil {
		return s.enqueue(errorMsg(err))
	}

	s.cursor = cur

	s.log.WithField("steps", len(msg.Request.Steps)).Debug("stream walk opened")

	if msg.N > 0 {
		return s.sendPage(pageSize(msg.N))
	}

	return true
}

// sendPage pulls up to n paths and queues them. A short page means the
// cursor is exhausted or failed; either way it is released.
func (s *Stream) sendPage(n int) bool {
	page := PathsMsg{Type: MsgPaths, Paths: make([]models.Path, 0, n)}

	for len(page.Paths) < n && s.cursor.Next() {
		page.Paths = append(page.Paths, s.cursor.Path())
	}

	page.Count = len(page.Paths)

	if page.Count == n {
		return s.enqueue(page)
	}

	err := s.cursor.Err()
	s.releaseCursor()

	if err != nil {
		if page.Count > 0 && !s.enqueue(page) {
			return false
		}

		s.log.WithError(err).Warn("stream walk failed")

		return s.enqueue(errorMsg(err))
	}

	page.Done = true

	return s.enqueue(page)
}

func (s *Stream) releaseCursor() {
	if s.cursor != nil {
		s.cursor.Close()
		s.cursor = nil
	}
}

// enqueue marshals v onto the send buffer. A client that lets the buffer
// fill up is disconnected.
func (s *Stream) enqueue(v any) bool {
	msg, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).Error("failed to marshal stream message")

		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.send <- msg:
		return true
	default:
		s.log.Warn("stream send buffer full, closing")

		return false
	}
}

// sendPing sends a WebSocket ping and tracks missed pongs.
// Returns true if the connection should be closed.
func (s *Stream) sendPing(ctx context.Context, missedPongs *atomic.Int32) bool {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := s.conn.Ping(pingCtx)
	cancel()

	if err != nil {
		if missedPongs.Add(1) >= maxMissedPongs {
			s.log.Debug("closing stream: 2 consecutive missed pongs")

			return true
		}

		return false
	}

	missedPongs.Store(0)

	return false
}

// WritePump writes queued messages to the connection. It closes the
// connection normally once the send channel is closed, and enforces a
// maximum connection lifetime.
func (s *Stream) WritePump(ctx context.Context) {
	defer s.conn.CloseNow() //nolint:errcheck // best-effort close on teardown

	lifetimeTimer := time.NewTimer(time.Until(s.connectedAt.Add(maxConnLifetime)))
	defer lifetimeTimer.Stop()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	var missedPongs atomic.Int32

	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			if s.sendPing(ctx, &missedPongs) {
				return
			}
		case msg, ok := <-s.send:
			if !ok {
				s.conn.Close(websocket.StatusNormalClosure, "stream closed") //nolint:errcheck // best-effort

				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)

			err := s.conn.Write(writeCtx, websocket.MessageText, msg)

			cancel()

			if err != nil {
				s.log.WithError(err).Debug("stream write failed")

				return
			}
		case <-lifetimeTimer.C:
			s.log.Info("closing stream: max connection lifetime exceeded")
			s.conn.Close(websocket.StatusNormalClosure, "max connection lifetime exceeded") //nolint:errcheck // best-effort

			return
		}
	}
}
