// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /login.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	return r
}

// MeRoutes is mounted at /me.
func MeRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Get("/", h.ServeMe)
	return r
}
