package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/churchroll/internal/app/features/health"
	"github.com/dalemusser/churchroll/internal/app/store/memstore"
	"go.uber.org/zap"
)

func TestServe(t *testing.T) {
	tests := []struct {
		name     string
		ping     func(context.Context) error
		status   int
		database string
	}{
		{"memory backend", memstore.New().Backend().Ping, http.StatusOK, "connected"},
		{"ping fails", func(context.Context) error { return errors.New("no reachable servers") }, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(tt.ping, "memory", zap.NewNop())
			rec := httptest.NewRecorder()
			health.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q", ct)
			}
			var body struct {
				Status   string `json:"status"`
				Database string `json:"database"`
				Message  string `json:"message"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Database != tt.database {
				t.Errorf("database: got %q, want %q", body.Database, tt.database)
			}
			if tt.status != http.StatusOK && body.Message == "" {
				t.Error("expected a message on failure")
			}
		})
	}
}
