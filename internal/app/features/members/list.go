// internal/app/features/members/list.go
package members

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/features/shared"
	"github.com/dalemusser/churchroll/internal/app/policy/memberpolicy"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/paging"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

var (
	errMemberNotFound = apperr.NotFound("Member not found.")
	errMemberScope    = apperr.Forbidden("You don't have access to this member.")
	errChurchScope    = apperr.Forbidden("You don't have access to that church.")
)

type listResponse struct {
	paging.Page[models.Member]
	Total int64 `json:"total"`
}

// ServeList handles GET /members?church_id=&status=&q=&offset=&limit=.
//
// The scope filter is applied before any other filter; an empty scope
// returns an empty page without querying members.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
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
	pg := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return
	}
	if church != nil && !sc.Allows(*church) {
		h.ErrLog.Render(w, r, "list members outside scope", errChurchScope)
		return
	}
	if sc.IsEmpty() {
		uierrors.WriteJSON(w, http.StatusOK, listResponse{Page: paging.Trim[models.Member](nil, pg)})
		return
	}

	q := store.MemberQuery{
		Scope:    sc.Store(),
		ChurchID: church,
		Status:   status,
		Search:   query.Get(r, "q"),
	}
	total, err := h.Members.Count(ctx, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count members", err)
		return
	}
	q.Page = pg.LookAhead()
	rows, err := h.Members.List(ctx, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, listResponse{Page: paging.Trim(rows, pg), Total: total})
}

// ServeCounts handles GET /members/counts: member totals per in-scope church,
// keyed by church id.
func (h *Handler) ServeCounts(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "count members by church")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return
	}
	out := map[string]int64{}
	if !sc.IsEmpty() {
		counts, err := h.Members.CountByChurch(ctx, sc.Store())
		if err != nil {
			h.ErrLog.LogServerError(w, r, "count members by church", err)
			return
		}
		for id, n := range counts {
			out[id.Hex()] = n
		}
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}

// ServeGet handles GET /members/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadVisible(w, r)
	if !ok {
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, m)
}

// ServeHistory handles GET /members/{id}/history.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadVisible(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "member history")
	defer cancel()

	rows, err := h.History.ListByMember(ctx, m.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list member history", err)
		return
	}
	if rows == nil {
		rows = []models.TransferHistory{}
	}
	uierrors.WriteJSON(w, http.StatusOK, rows)
}

// loadVisible loads the {id} member and checks it is in the caller's scope.
func (h *Handler) loadVisible(w http.ResponseWriter, r *http.Request) (models.Member, bool) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return models.Member{}, false
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return models.Member{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load member")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return models.Member{}, false
	}
	m, err := h.Members.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.ErrLog.Render(w, r, "member not found", errMemberNotFound)
		return models.Member{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member", err)
		return models.Member{}, false
	}
	if !memberpolicy.CanView(sc, m.ChurchID) {
		h.ErrLog.Render(w, r, "member outside scope", errMemberScope)
		return models.Member{}, false
	}
	return m, true
}
