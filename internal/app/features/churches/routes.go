// internal/app/features/churches/routes.go
package churches

import (
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts church routes. Reads are open to every signed-in role
// (filtered by scope); writes require superadmin or field_secretary.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeGet)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("superadmin", "field_secretary"))
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}", h.HandleUpdate)
		pr.Post("/{id}/deactivate", h.HandleDeactivate)
	})

	return r
}
