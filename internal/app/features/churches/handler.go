// internal/app/features/churches/handler.go
package churches

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/features/shared"
	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/paging"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

var (
	errNotFound = apperr.NotFound("Church not found.")
	errScope    = apperr.Forbidden("You don't have access to this church.")
)

type Handler struct {
	Churches store.Churches
	Members  store.Members
	Tx       store.TxRunner
	Scopes   *churchscope.Resolver
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(be store.Backend, scopes *churchscope.Resolver, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Churches: be.Churches,
		Members:  be.Members,
		Tx:       be.Tx,
		Scopes:   scopes,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type listResponse struct {
	paging.Page[models.Church]
	Total int64 `json:"total"`
}

// ServeList handles GET /churches?q=&field=&district=&active=&offset=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	pg := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list churches")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return
	}
	if sc.IsEmpty() {
		uierrors.WriteJSON(w, http.StatusOK, listResponse{Page: paging.Trim[models.Church](nil, pg)})
		return
	}

	q := store.ChurchQuery{
		Scope:      sc.Store(),
		Search:     query.Get(r, "q"),
		Field:      normalize.Territory(query.Get(r, "field")),
		District:   normalize.Territory(query.Get(r, "district")),
		ActiveOnly: query.Get(r, "active") == "1" || query.Get(r, "active") == "true",
	}
	total, err := h.Churches.Count(ctx, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count churches", err)
		return
	}
	q.Page = pg.LookAhead()
	rows, err := h.Churches.List(ctx, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list churches", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, listResponse{Page: paging.Trim(rows, pg), Total: total})
}

// ServeGet handles GET /churches/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get church")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return
	}
	if !sc.Allows(id) {
		h.ErrLog.Render(w, r, "church outside scope", errScope)
		return
	}
	c, err := h.Churches.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.ErrLog.Render(w, r, "church not found", errNotFound)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load church", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, c)
}
