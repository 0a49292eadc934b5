package middleware_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/middleware"
)

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	expected := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Permissions-Policy":      "camera=(), microphone=(), geolocation=()",
		"Cache-Control":           "no-store",
	}

	tests := []struct {
		name     string
		tls      bool
		wantHSTS string
	}{
		{"plain http", false, ""},
		{"tls", true, "max-age=63072000; includeSubDomains"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			r.ServeHTTP(w, req)

			for header, want := range expected {
				if got := w.Header().Get(header); got != want {
					t.Errorf("%s = %q, want %q", header, got, want)
				}
			}

			if got := w.Header().Get("Strict-Transport-Security"); got != tt.wantHSTS {
				t.Errorf("Strict-Transport-Security = %q, want %q", got, tt.wantHSTS)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	var seen, clientSeen string
	r := gin.New()
	r.Use(middleware.RequestID(log))
	r.GET("/test", func(c *gin.Context) {
		seen = c.GetString(middleware.RequestIDKey)
		clientSeen = c.GetString("client_request_id")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, strings.Repeat("x", 300))
	r.ServeHTTP(w, req)

	got := w.Header().Get(middleware.RequestIDHeader)
	if got == "" || got != seen {
		t.Fatalf("response id %q, context id %q", got, seen)
	}

	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("request id %q is not a uuid: %v", got, err)
	}

	if len(clientSeen) != 128 {
		t.Errorf("client request id length = %d, want 128", len(clientSeen))
	}
}

func TestMaxBodySize(t *testing.T) {
	r := gin.New()
	r.Use(middleware.MaxBodySize(8))
	r.POST("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name string
		body string
		want int
	}{
		{"within limit", "{}", http.StatusOK},
		{"declared too large", `{"from":["ex:a"]}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("got %d, want %d", w.Code, tt.want)
			}
		})
	}
}
