// Package httputil provides the JSON error envelope shared by handlers and
// middleware.
package httputil

import "github.com/gin-gonic/gin"

// RequestIDKey is the gin context key the request ID middleware stores under.
const RequestIDKey = "request_id"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestID returns the request ID set by the request ID middleware, or "".
func RequestID(c *gin.Context) string {
	if rid, exists := c.Get(RequestIDKey); exists {
		if s, ok := rid.(string); ok {
			return s
		}
	}

	return ""
}

// RespondError writes an ErrorResponse and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: RequestID(c),
	})
}
