package api

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/httputil"
	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/ws"
)

// streamHandler upgrades to a WebSocket and serves a pull-based cursor
// stream. Cursors live on the stream's context, so they are released when
// the client disconnects or the server shuts down.
func streamHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, svc QueryService, corsOrigins []string) gin.HandlerFunc {
	open := func(ctx context.Context, req models.WalkRequest) (ws.Cursor, error) {
		cur, err := svc.OpenCursor(ctx, req)
		if err != nil {
			return nil, err
		}

		return cur, nil
	}

	return func(c *gin.Context) {
		// CORS origins are reused as WebSocket origin patterns.
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithError(err).Error("websocket accept failed")

			return
		}

		stream := ws.NewStream(hub, conn, open)
		hub.Register(stream)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go stream.WritePump(wsCtx)
		stream.ReadPump(wsCtx)
		wsCancel()
	}
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid := httputil.RequestID(c); rid != "" {
			fields["request_id"] = rid
		}
		log.WithFields(fields).Info("request")
	}
}

// validateParam checks that a required query parameter is present and within
// length limits.
func validateParam(name, v string) error {
	if v == "" {
		return fmt.Errorf("%s must not be empty", name)
	}

	if len(v) > models.MaxLabelBytes {
		return fmt.Errorf("%s exceeds maximum length of %d", name, models.MaxLabelBytes)
	}

	return nil
}
