// Package ws streams query cursors over WebSocket connections.
package ws

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/metrics"
)

const registerBuffer = 64

// DefaultMaxStreams caps concurrent streams when NewHub is given zero.
const DefaultMaxStreams = 1000

// Hub tracks active streams, enforces the connection cap and drains streams
// on shutdown. All stream map mutations happen exclusively in the Run
// goroutine.
type Hub struct {
	streams    map[*Stream]bool
	maxStreams int
	register   chan *Stream
	unregister chan *Stream
	shutdown   chan struct{} // signals Run to begin graceful drain
	done       chan struct{} // closed when Run has finished draining
	count      atomic.Int64
	log        *logrus.Logger
}

// NewHub creates a new Hub instance.
func NewHub(maxStreams int, log *logrus.Logger) *Hub {
	if maxStreams <= 0 {
		maxStreams = DefaultMaxStreams
	}

	return &Hub{
		streams:    make(map[*Stream]bool),
		maxStreams: maxStreams,
		register:   make(chan *Stream, registerBuffer),
		unregister: make(chan *Stream, registerBuffer),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
	}
}

// drainTimeout is how long the hub waits for streams to flush after shutdown.
const drainTimeout = 3 * time.Second

// Run starts the hub event loop. It should be run as a goroutine.
// It exits when Shutdown is called or the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.drainStreams()

			return
		case <-h.shutdown:
			h.drainStreams()

			return

		case s := <-h.register:
			if len(h.streams) >= h.maxStreams {
				h.log.Warn("stream limit reached, dropping client")
				s.closeSend()

				continue
			}

			h.streams[s] = true
			h.setCount()
			h.log.WithField("total", len(h.streams)).Debug("stream registered")

		case s := <-h.unregister:
			if _, ok := h.streams[s]; ok {
				delete(h.streams, s)
				s.closeSend()
			}

			h.setCount()
			h.log.WithField("total", len(h.streams)).Debug("stream unregistered")
		}
	}
}

func (h *Hub) setCount() {
	h.count.Store(int64(len(h.streams)))
	metrics.StreamConnections.Set(float64(len(h.streams)))
}

// Register adds a stream to the hub.
func (h *Hub) Register(s *Stream) {
	select {
	case h.register <- s:
	default:
		h.log.Warn("register channel full, dropping client")
		s.closeSend()
	}
}

// Unregister removes a stream from the hub.
func (h *Hub) Unregister(s *Stream) {
	select {
	case h.unregister <- s:
	default:
		// Run loop already exited; cleanup happened in Run shutdown.
	}
}

// StreamCount returns the number of active streams.
func (h *Hub) StreamCount() int {
	return int(h.count.Load())
}

// Shutdown initiates a graceful drain: sends a shutdown frame to every
// stream, waits for their write pumps to flush, then closes all
// connections. It blocks until drain is complete or the timeout expires.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

// drainStreams sends a shutdown message to every stream and waits for
// buffers to flush.
func (h *Hub) drainStreams() {
	if len(h.streams) == 0 {
		return
	}

	h.log.WithField("streams", len(h.streams)).Info("draining cursor streams")

	for s := range h.streams {
		s.enqueue(ErrorMsg{Type: MsgShutdown, Code: "shutdown", Message: "server shutting down"})
	}

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond) //nolint:mnd // poll interval
	defer ticker.Stop()

drain:
	for {
		drained := true

		for s := range h.streams {
			if len(s.send) > 0 {
				drained = false

				break
			}
		}

		if drained {
			break
		}

		select {
		case <-deadline:
			h.log.Warn("stream drain timeout, closing remaining streams")

			break drain
		case <-ticker.C:
		}
	}

	for s := range h.streams {
		s.closeSend()
		delete(h.streams, s)
	}

	h.setCount()
}
