// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/features/shared"
	"github.com/dalemusser/churchroll/internal/app/store/audit"
	"github.com/dalemusser/churchroll/internal/app/system/formutil"
	"github.com/dalemusser/churchroll/internal/app/system/paging"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// listItem is one audit event with the actor's name resolved.
type listItem struct {
	audit.Event
	ActorName string `json:"actor_name,omitempty"`
}

// ServeList handles GET /audit?category=&action=&table=&record_id=&user_id=
// &start_date=&end_date=&offset=&limit=, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	record, ok := shared.QueryID(w, r, "record_id")
	if !ok {
		return
	}
	user, ok := shared.QueryID(w, r, "user_id")
	if !ok {
		return
	}
	start, err := formutil.Date("start_date", query.Get(r, "start_date"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad start date", err, "Start date must be YYYY-MM-DD.")
		return
	}
	end, err := formutil.Date("end_date", query.Get(r, "end_date"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad end date", err, "End date must be YYYY-MM-DD.")
		return
	}
	if end != nil {
		endOfDay := end.Add(24*time.Hour - time.Nanosecond)
		end = &endOfDay
	}
	pg := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	page := pg.LookAhead()
	events, err := h.Audit.Query(ctx, audit.QueryFilter{
		UserID:    user,
		RecordID:  record,
		Category:  query.Get(r, "category"),
		Action:    query.Get(r, "action"),
		TableName: query.Get(r, "table"),
		StartTime: start,
		EndTime:   end,
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events", err)
		return
	}

	names := make(map[primitive.ObjectID]string)
	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{Event: e}
		if e.UserID != nil {
			name, seen := names[*e.UserID]
			if !seen {
				if u, err := h.Users.GetByID(ctx, *e.UserID); err == nil {
					name = u.FullName
				} else {
					h.Log.Debug("audit actor lookup failed", zap.Error(err), zap.String("user_id", e.UserID.Hex()))
				}
				names[*e.UserID] = name
			}
			item.ActorName = name
		}
		items = append(items, item)
	}
	uierrors.WriteJSON(w, http.StatusOK, paging.Trim(items, pg))
}
