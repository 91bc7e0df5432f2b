// internal/app/features/transfers/handler.go
package transfers

import (
	"net/http"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/features/shared"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/formutil"
	"github.com/dalemusser/churchroll/internal/app/system/metrics"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/paging"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler serves the transfer endpoints on top of a Workflow. Metrics may be
// nil.
type Handler struct {
	Workflow *Workflow
	Metrics  *metrics.Metrics
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(wf *Workflow, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Workflow: wf, ErrLog: errLog, Log: logger}
}

type createInput struct {
	MemberID     string `json:"member_id"`
	FromChurchID string `json:"from_church_id"`
	ToChurchID   string `json:"to_church_id"`
	Notes        string `json:"notes"`
}

type rejectInput struct {
	Reason string `json:"reason"`
}

// ServeList handles GET /transfers?status=&member_id=&offset=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	memberID, ok := shared.QueryID(w, r, "member_id")
	if !ok {
		return
	}
	status := normalize.Status(query.Get(r, "status"))
	switch status {
	case "", models.TransferPending, models.TransferApproved, models.TransferRejected:
	default:
		h.ErrLog.LogBadRequest(w, r, "bad transfer status filter", nil, "Unknown transfer status.")
		return
	}

	pg := paging.Parse(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list transfers")
	defer cancel()

	rows, err := h.Workflow.List(ctx, a, store.TransferQuery{
		Status:   status,
		MemberID: memberID,
		Page:     pg.LookAhead(),
	})
	if err != nil {
		h.ErrLog.Render(w, r, "list transfers", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, paging.Trim(rows, pg))
}

// ServeGet handles GET /transfers/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get transfer")
	defer cancel()

	t, err := h.Workflow.Get(ctx, a, id)
	if err != nil {
		h.ErrLog.Render(w, r, "get transfer", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, t)
}

// HandleCreate handles POST /transfers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var in createInput
	if err := formutil.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode transfer request", err, "Invalid request body.")
		return
	}
	member, err := formutil.ObjectID("member_id", in.MemberID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad member id", err, "Please choose a member.")
		return
	}
	from, err := formutil.ObjectID("from_church_id", in.FromChurchID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad source church id", err, "Please choose the source church.")
		return
	}
	to, err := formutil.ObjectID("to_church_id", in.ToChurchID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad destination church id", err, "Please choose the destination church.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create transfer")
	defer cancel()

	t, err := h.Workflow.Create(ctx, a, CreateInput{
		MemberID:     member,
		FromChurchID: from,
		ToChurchID:   to,
		Notes:        in.Notes,
	})
	h.Metrics.Transfer(metrics.ActionRequest, err)
	if err != nil {
		h.ErrLog.Render(w, r, "create transfer", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, t)
}

// HandleApprove handles POST /transfers/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "approve transfer")
	defer cancel()

	t, err := h.Workflow.Approve(ctx, a, id)
	h.Metrics.Transfer(metrics.ActionApprove, err)
	if err != nil {
		h.ErrLog.Render(w, r, "approve transfer", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, t)
}

// HandleReject handles POST /transfers/{id}/reject with {"reason": "..."}.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	var in rejectInput
	if err := formutil.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode rejection", err, "Invalid request body.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reject transfer")
	defer cancel()

	t, err := h.Workflow.Reject(ctx, a, id, in.Reason)
	h.Metrics.Transfer(metrics.ActionReject, err)
	if err != nil {
		h.ErrLog.Render(w, r, "reject transfer", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, t)
}
