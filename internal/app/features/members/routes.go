// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all member routes under the path where the caller mounts it.
// Typically: r.Mount("/members", members.Routes(handler, sessionMgr))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/counts", h.ServeCounts)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}", h.ServeGet)
		pr.Get("/{id}/history", h.ServeHistory)
		pr.Post("/{id}/status", h.HandleStatus)
	})

	return r
}
