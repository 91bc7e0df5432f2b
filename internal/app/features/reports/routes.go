// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/missionary", h.ServeMissionaryList)
	r.Post("/missionary", h.HandleFile)
	r.Get("/members.csv", h.ServeMembersCSV)

	return r
}
