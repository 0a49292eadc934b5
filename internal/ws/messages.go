package ws

import (
	"errors"

	"github.com/persistorai/triplewalk/internal/models"
)

// Client message types.
const (
	MsgWalk  = "walk"
	MsgNext  = "next"
	MsgClose = "close"
)

// Server message types.
const (
	MsgPaths    = "paths"
	MsgError    = "error"
	MsgShutdown = "shutdown"
)

// Page sizes for "next" requests.
const (
	DefaultPage = 100
	MaxPage     = 1000
)

// Error codes sent in ErrorMsg.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeStoreUnavailable = "store_unavailable"
	CodeInternalError    = "internal_error"
)

// ClientMsg is sent by the client. A walk message opens a cursor and, when N
// is positive, returns its first page right away. A next message pulls up
// to N more paths. A close message releases the cursor and ends the stream.
type ClientMsg struct {
	Type    string              `json:"type"`
	Request *models.WalkRequest `json:"request,omitempty"`
	N       int                 `json:"n,omitempty"`
}

// PathsMsg carries one page of paths. Done is set once the cursor is
// exhausted; a new walk may be started afterwards.
type PathsMsg struct {
	Type  string        `json:"type"`
	Paths []models.Path `json:"paths"`
	Count int           `json:"count"`
	Done  bool          `json:"done"`
}

// ErrorMsg reports a failed walk. The cursor is closed when it is sent.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorMsg(err error) ErrorMsg {
	msg := ErrorMsg{Type: MsgError, Code: CodeInternalError, Message: "internal server error"}

	switch {
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrInvalidExpression):
		msg.Code = CodeInvalidRequest
		msg.Message = err.Error()
	case errors.Is(err, models.ErrStoreUnavailable):
		msg.Code = CodeStoreUnavailable
		msg.Message = "graph store unavailable"
	}

	return msg
}

func pageSize(n int) int {
	if n <= 0 {
		return DefaultPage
	}

	return min(n, MaxPage)
}
