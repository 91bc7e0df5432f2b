// internal/app/features/reports/memberscsv.go
package reports

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/churchroll/internal/app/features/shared"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/csvutil"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeMembersCSV handles GET /reports/members.csv?church_id=&status=&filename=
// and streams the members in the caller's scope. An empty scope yields a
// header-only file.
func (h *Handler) ServeMembersCSV(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	church, ok := shared.QueryID(w, r, "church_id")
	if !ok {
		return
	}
	status := normalize.Status(query.Get(r, "status"))
	if status != "" && !models.ValidMemberStatus(status) {
		h.ErrLog.LogBadRequest(w, r, "bad member status filter", nil, "Unknown member status.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "members csv")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return
	}
	if church != nil && !sc.Allows(*church) {
		h.ErrLog.Render(w, r, "export outside scope", errViewScope)
		return
	}

	var rows []csvutil.RosterRow
	if !sc.IsEmpty() {
		members, err := h.Members.List(ctx, store.MemberQuery{
			Scope:    sc.Store(),
			ChurchID: church,
			Status:   status,
			Page:     store.Page{Limit: csvutil.MaxRows},
		})
		if err != nil {
			h.ErrLog.LogServerError(w, r, "list members for csv", err)
			return
		}
		names := map[primitive.ObjectID]string{}
		for _, m := range members {
			name, seen := names[m.ChurchID]
			if !seen {
				c, err := h.Churches.GetByID(ctx, m.ChurchID)
				if err != nil {
					h.Log.Warn("church lookup for csv failed", zap.Error(err), zap.String("church_id", m.ChurchID.Hex()))
				}
				name = c.Name
				names[m.ChurchID] = name
			}
			rows = append(rows, csvutil.RosterRow{Member: m, ChurchName: name})
		}
	}

	filename := csvutil.Filename("members", query.Get(r, "filename"), time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))
	w.Header().Set("Cache-Control", "no-store")
	if err := csvutil.WriteRoster(w, rows); err != nil {
		h.Log.Warn("members csv write failed", zap.Error(err))
	}
}
