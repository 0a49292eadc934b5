package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/triplewalk/internal/api"
)

func TestLiveness_ReturnsOK(t *testing.T) {
	t.Parallel()

	h := api.NewHealthHandler(&mockQueryService{}, nil, testLogger(), "test-v1", "memory")

	r := gin.New()
	r.GET("/health", h.Liveness)

	w := doRequest(r, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body["status"] != "ok" || body["version"] != "test-v1" || body["backend"] != "memory" {
		t.Errorf("unexpected body %v", body)
	}

	if body["store"] != "connected" {
		t.Errorf("expected store 'connected', got %v", body["store"])
	}
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pinger   api.Pinger
		wantCode int
		wantStat string
	}{
		{"store up", &mockQueryService{}, http.StatusOK, "ready"},
		{"store down", &mockQueryService{pingFn: func(context.Context) error { return errors.New("refused") }}, http.StatusServiceUnavailable, "not_ready"},
		{"no store", nil, http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := api.NewHealthHandler(tt.pinger, nil, testLogger(), "test", "memory")

			r := gin.New()
			r.GET("/ready", h.Readiness)

			w := doRequest(r, http.MethodGet, "/ready", "")
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}

			var body struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			if body.Status != tt.wantStat {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStat)
			}
		})
	}
}
