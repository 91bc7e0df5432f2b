package health

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Ping    func(ctx context.Context) error
	Backend string
	Log     *zap.Logger
}

// NewHandler constructs a health Handler around the backend's ping.
func NewHandler(ping func(ctx context.Context) error, backend string, logger *zap.Logger) *Handler {
	return &Handler{Ping: ping, Backend: backend, Log: logger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "backend":"mongo", "database":"connected" }
//
// On ping failure: 503 and
//
//	{ "status":"error", "database":"unavailable", "message":"Database unavailable" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{Status: "ok", Backend: h.Backend, Database: "connected"}
	if h.Ping != nil {
		if err := h.Ping(ctx); err != nil {
			h.Log.Warn("health check: ping failed", zap.Error(err))
			resp = healthResponse{Status: "error", Backend: h.Backend, Database: "unavailable", Message: "Database unavailable"}
			uierrors.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}
