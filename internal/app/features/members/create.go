// internal/app/features/members/create.go
package members

import (
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/features/shared"
	"github.com/dalemusser/churchroll/internal/app/policy/memberpolicy"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/formutil"
	"github.com/dalemusser/churchroll/internal/app/system/limits"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/textsanitize"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
)

var (
	errManageScope   = apperr.Forbidden("You don't have permission to manage members of this church.")
	errChurchMissing = apperr.NotFound("Church not found.")
	errChurchClosed  = apperr.Validation("Members cannot be added to an inactive church.")
	errNameRequired  = apperr.Validation("Full name is required.")
	errBadStatus     = apperr.Validation("Unknown member status.")
	errDateRequired  = apperr.Validation("A date is required for this status.")
)

type createInput struct {
	ChurchID    string `json:"church_id"`
	FullName    string `json:"full_name"`
	Gender      string `json:"gender"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	BirthDate   string `json:"birth_date"`
	BaptismDate string `json:"baptism_date"`
}

type statusInput struct {
	Status       string `json:"status"`
	Date         string `json:"date"`
	CauseOfDeath string `json:"cause_of_death"`
}

// HandleCreate handles POST /members. New members are always active.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var in createInput
	if err := formutil.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode member", err, "Invalid request body.")
		return
	}
	churchID, err := formutil.ObjectID("church_id", in.ChurchID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad church id", err, "Please choose a church.")
		return
	}
	name := textsanitize.PlainMax(normalize.Name(in.FullName), limits.MaxName)
	if name == "" {
		h.ErrLog.Render(w, r, "member without name", errNameRequired)
		return
	}
	birth, err := formutil.Date("birth_date", in.BirthDate)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad birth date", err, "Birth date must be YYYY-MM-DD.")
		return
	}
	baptism, err := formutil.Date("baptism_date", in.BaptismDate)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad baptism date", err, "Baptism date must be YYYY-MM-DD.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create member")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return
	}
	if !memberpolicy.CanManage(a, sc, churchID) {
		h.ErrLog.Render(w, r, "create member outside scope", errManageScope)
		return
	}
	church, err := h.Churches.GetByID(ctx, churchID)
	if errors.Is(err, store.ErrNotFound) {
		h.ErrLog.Render(w, r, "church not found", errChurchMissing)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load church", err)
		return
	}
	if !church.IsActive {
		h.ErrLog.Render(w, r, "member for inactive church", errChurchClosed)
		return
	}

	m, err := h.Members.Create(ctx, models.Member{
		ChurchID:    churchID,
		FullName:    name,
		Gender:      normalize.Status(in.Gender),
		Phone:       textsanitize.PlainMax(in.Phone, limits.MaxPhone),
		Email:       normalize.Email(in.Email),
		BirthDate:   birth,
		BaptismDate: baptism,
		Status:      models.MemberActive,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create member", err)
		return
	}
	h.AuditLog.MemberCreated(ctx, a.ID, m)
	uierrors.WriteJSON(w, http.StatusCreated, m)
}

// HandleStatus handles POST /members/{id}/status.
//
// Resigned, disfellowshipped and deceased require a date. The fields of every
// other status are cleared so at most one status-specific date is set.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	var in statusInput
	if err := formutil.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode member status", err, "Invalid request body.")
		return
	}
	change, err := parseStatus(in)
	if err != nil {
		h.ErrLog.Render(w, r, "bad member status", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "member status")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return
	}
	m, err := h.Members.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.ErrLog.Render(w, r, "member not found", errMemberNotFound)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member", err)
		return
	}
	if !memberpolicy.CanView(sc, m.ChurchID) {
		h.ErrLog.Render(w, r, "member outside scope", errMemberScope)
		return
	}
	if !memberpolicy.CanManage(a, sc, m.ChurchID) {
		h.ErrLog.Render(w, r, "member status without permission", errManageScope)
		return
	}

	old := m.Status
	m.ApplyStatus(change)
	m.UpdatedAt = time.Now().UTC()
	if err := h.Members.SaveStatus(ctx, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.ErrLog.Render(w, r, "member vanished", errMemberNotFound)
			return
		}
		h.ErrLog.LogServerError(w, r, "save member status", err)
		return
	}
	if old != m.Status {
		h.AuditLog.MemberStatusChanged(ctx, a.ID, m, old)
	}
	uierrors.WriteJSON(w, http.StatusOK, m)
}

func parseStatus(in statusInput) (models.StatusChange, error) {
	status := normalize.Status(in.Status)
	if !models.ValidMemberStatus(status) {
		return models.StatusChange{}, errBadStatus
	}
	date, err := formutil.Date("date", in.Date)
	if err != nil {
		return models.StatusChange{}, apperr.Validation("Date must be YYYY-MM-DD.")
	}
	switch status {
	case models.MemberResigned, models.MemberDisfellowshipped, models.MemberDeceased:
		if date == nil {
			return models.StatusChange{}, errDateRequired
		}
	}
	c := models.StatusChange{Status: status, Date: date}
	if status == models.MemberDeceased {
		c.CauseOfDeath = textsanitize.PlainMax(in.CauseOfDeath, limits.MaxCause)
	}
	return c, nil
}
