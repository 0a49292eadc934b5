package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	streamReadLimit    = 16 << 20
	streamCloseTimeout = 5 * time.Second
)

// streamMsg is what the client sends on a walk stream.
type streamMsg struct {
	Type    string       `json:"type"`
	Request *WalkRequest `json:"request,omitempty"`
	N       int          `json:"n,omitempty"`
}

// streamReply is the union of every message the server sends.
type streamReply struct {
	Type    string `json:"type"`
	Paths   []Path `json:"paths"`
	Done    bool   `json:"done"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PathStream pulls the paths of one walk page by page. Nothing is evaluated
// on the server until Next is called.
type PathStream struct {
	conn *websocket.Conn
	done bool
}

// Stream opens a walk over a WebSocket connection. The caller must Close the
// returned stream.
func (c *Client) Stream(ctx context.Context, req WalkRequest) (*PathStream, error) {
	u := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/v1/walk/stream"

	opts := &websocket.DialOptions{HTTPHeader: c.headers(false)}

	conn, resp, err := websocket.Dial(ctx, u, opts) //nolint:bodyclose // the library owns the handshake body
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return nil, &APIError{StatusCode: resp.StatusCode, Code: "unknown", Message: err.Error()}
		}

		return nil, fmt.Errorf("dial stream: %w", err)
	}

	conn.SetReadLimit(streamReadLimit)

	if err := wsjson.Write(ctx, conn, streamMsg{Type: "walk", Request: &req}); err != nil {
		conn.CloseNow() //nolint:errcheck // already failing

		return nil, fmt.Errorf("send walk: %w", err)
	}

	return &PathStream{conn: conn}, nil
}

// Next returns up to n more paths. done is true once the walk is exhausted;
// later calls return no paths. A server-side failure is returned as an
// *APIError with status 0.
func (s *PathStream) Next(ctx context.Context, n int) (paths []Path, done bool, err error) {
	if s.done {
		return nil, true, nil
	}

	if err := wsjson.Write(ctx, s.conn, streamMsg{Type: "next", N: n}); err != nil {
		return nil, false, fmt.Errorf("send next: %w", err)
	}

	var reply streamReply
	if err := wsjson.Read(ctx, s.conn, &reply); err != nil {
		return nil, false, fmt.Errorf("read page: %w", err)
	}

	switch reply.Type {
	case "paths":
		s.done = reply.Done
		return reply.Paths, reply.Done, nil
	case "error", "shutdown":
		s.done = true
		return nil, true, &APIError{Code: reply.Code, Message: reply.Message}
	default:
		return nil, false, fmt.Errorf("unexpected stream message %q", reply.Type)
	}
}

// Close releases the server-side cursor and closes the connection.
func (s *PathStream) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), streamCloseTimeout)
	defer cancel()

	wsjson.Write(ctx, s.conn, streamMsg{Type: "close"}) //nolint:errcheck // best-effort, the connection closes either way

	return s.conn.Close(websocket.StatusNormalClosure, "")
}
