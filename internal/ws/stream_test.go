package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// sliceCursor yields paths from a slice, optionally failing after them.
type sliceCursor struct {
	mu     sync.Mutex
	paths  []models.Path
	pos    int
	cur    models.Path
	fail   error
	err    error
	closed bool
}

func (c *sliceCursor) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	if c.pos < len(c.paths) {
		c.cur = c.paths[c.pos]
		c.pos++

		return true
	}

	c.err = c.fail
	c.closed = true

	return false
}

func (c *sliceCursor) Path() models.Path { return c.cur }

func (c *sliceCursor) Err() error { return c.err }

func (c *sliceCursor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *sliceCursor) advanced() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pos
}

func (c *sliceCursor) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func paths(n int) []models.Path {
	out := make([]models.Path, n)
	for i := range out {
		out[i] = models.Path{Nodes: []models.Node{"ex:a", models.Node(fmt.Sprintf("ex:n%d", i))}, Predicates: []models.Node{"ex:p"}}
	}

	return out
}

// newTestServer serves streams backed by open and returns a dial function.
func newTestServer(t *testing.T, hub *Hub, open CursorOpener) func() *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}

		s := NewStream(hub, conn, open)
		hub.Register(s)

		go s.WritePump(ctx)
		s.ReadPump(ctx)
	}))
	t.Cleanup(srv.Close)

	return func() *websocket.Conn {
		dialCtx, dialCancel := context.WithTimeout(ctx, 5*time.Second)
		defer dialCancel()

		conn, _, err := websocket.Dial(dialCtx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}

		t.Cleanup(func() { conn.CloseNow() }) //nolint:errcheck // test teardown

		return conn
	}
}

func startHub(t *testing.T, maxStreams int) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(maxStreams, testLogger())
	go hub.Run(ctx)

	return hub
}

func opener(cur *sliceCursor) CursorOpener {
	return func(context.Context, models.WalkRequest) (Cursor, error) {
		return cur, nil
	}
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMsg) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := wsjson.Write(ctx, conn, msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// reply is the union of every server message.
type reply struct {
	Type    string        `json:"type"`
	Paths   []models.Path `json:"paths"`
	Count   int           `json:"count"`
	Done    bool          `json:"done"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
}

func receive(t *testing.T, conn *websocket.Conn) reply {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var r reply
	if err := wsjson.Read(ctx, conn, &r); err != nil {
		t.Fatalf("read: %v", err)
	}

	return r
}

var walkMsg = &models.WalkRequest{From: []models.Node{"ex:a"}}

func TestStream_Pages(t *testing.T) {
	tests := []struct {
		name  string
		total int
		page  int
		want  []int
	}{
		{name: "short last page", total: 5, page: 2, want: []int{2, 2, 1}},
		{name: "exact multiple", total: 4, page: 2, want: []int{2, 2, 0}},
		{name: "empty walk", total: 0, page: 3, want: []int{0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cur := &sliceCursor{paths: paths(tc.total)}
			dial := newTestServer(t, startHub(t, 0), opener(cur))
			conn := dial()

			send(t, conn, ClientMsg{Type: MsgWalk, Request: walkMsg, N: tc.page})

			for i, want := range tc.want {
				if i > 0 {
					send(t, conn, ClientMsg{Type: MsgNext, N: tc.page})
				}

				r := receive(t, conn)
				if r.Type != MsgPaths || r.Count != want || len(r.Paths) != want {
					t.Fatalf("page %d = %+v, want %d paths", i, r, want)
				}

				last := i == len(tc.want)-1
				if r.Done != last {
					t.Fatalf("page %d done = %v, want %v", i, r.Done, last)
				}
			}

			if !cur.isClosed() {
				t.Error("cursor not closed after final page")
			}
		})
	}
}

func TestStream_WalkWithoutFirstPage(t *testing.T) {
	cur := &sliceCursor{paths: paths(3)}
	conn := newTestServer(t, startHub(t, 0), opener(cur))()

	send(t, conn, ClientMsg{Type: MsgWalk, Request: walkMsg})
	send(t, conn, ClientMsg{Type: MsgNext})

	r := receive(t, conn)
	if r.Count != 3 || !r.Done {
		t.Fatalf("reply = %+v, want 3 paths and done", r)
	}

	if n := cur.advanced(); n != 3 {
		t.Errorf("cursor advanced %d times, want 3", n)
	}
}

func TestStream_Errors(t *testing.T) {
	storeErr := &models.StoreError{Backend: "mock", Op: "edges", Err: errors.New("down")}

	tests := []struct {
		name      string
		open      CursorOpener
		msgs      []ClientMsg
		wantPaths int
		wantCode  string
	}{
		{
			name: "invalid request",
			open: func(context.Context, models.WalkRequest) (Cursor, error) {
				return nil, fmt.Errorf("%w: step 0: unknown step", models.ErrInvalidRequest)
			},
			msgs:     []ClientMsg{{Type: MsgWalk, Request: walkMsg, N: 1}},
			wantCode: CodeInvalidRequest,
		},
		{
			name:      "store failure mid-walk",
			open:      opener(&sliceCursor{paths: paths(1), fail: storeErr}),
			msgs:      []ClientMsg{{Type: MsgWalk, Request: walkMsg, N: 5}},
			wantPaths: 1,
			wantCode:  CodeStoreUnavailable,
		},
		{
			name:     "next without walk",
			open:     opener(&sliceCursor{}),
			msgs:     []ClientMsg{{Type: MsgNext}},
			wantCode: CodeInvalidRequest,
		},
		{
			name:     "walk without request",
			open:     opener(&sliceCursor{}),
			msgs:     []ClientMsg{{Type: MsgWalk}},
			wantCode: CodeInvalidRequest,
		},
		{
			name:     "unknown message",
			open:     opener(&sliceCursor{}),
			msgs:     []ClientMsg{{Type: "rewind"}},
			wantCode: CodeInvalidRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn := newTestServer(t, startHub(t, 0), tc.open)()

			for _, m := range tc.msgs {
				send(t, conn, m)
			}

			r := receive(t, conn)
			if tc.wantPaths > 0 {
				if r.Type != MsgPaths || r.Count != tc.wantPaths || r.Done {
					t.Fatalf("partial page = %+v", r)
				}

				r = receive(t, conn)
			}

			if r.Type != MsgError || r.Code != tc.wantCode {
				t.Fatalf("reply = %+v, want error %q", r, tc.wantCode)
			}
		})
	}
}

func TestStream_Close(t *testing.T) {
	cur := &sliceCursor{paths: paths(10)}
	conn := newTestServer(t, startHub(t, 0), opener(cur))()

	send(t, conn, ClientMsg{Type: MsgWalk, Request: walkMsg, N: 2})
	receive(t, conn)
	send(t, conn, ClientMsg{Type: MsgClose})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Fatalf("read after close = %v, want normal closure", err)
	}

	if !cur.isClosed() {
		t.Error("cursor not closed")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_StreamLimit(t *testing.T) {
	hub := startHub(t, 1)
	dial := newTestServer(t, hub, opener(&sliceCursor{}))

	dial()
	waitFor(t, func() bool { return hub.StreamCount() == 1 })

	second := dial()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := second.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Fatalf("second stream read = %v, want normal closure", err)
	}

	if hub.StreamCount() != 1 {
		t.Errorf("StreamCount = %d, want 1", hub.StreamCount())
	}
}

func TestHub_Shutdown(t *testing.T) {
	hub := startHub(t, 0)
	conn := newTestServer(t, hub, opener(&sliceCursor{}))()

	waitFor(t, func() bool { return hub.StreamCount() == 1 })

	hub.Shutdown()

	r := receive(t, conn)
	if r.Type != MsgShutdown {
		t.Fatalf("reply = %+v, want shutdown", r)
	}

	if hub.StreamCount() != 0 {
		t.Errorf("StreamCount = %d, want 0", hub.StreamCount())
	}
}
