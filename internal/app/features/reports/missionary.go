// internal/app/features/reports/missionary.go
package reports

import (
	"errors"
	"net/http"
	"regexp"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/features/shared"
	"github.com/dalemusser/churchroll/internal/app/policy/reportpolicy"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/formutil"
	"github.com/dalemusser/churchroll/internal/app/system/limits"
	"github.com/dalemusser/churchroll/internal/app/system/paging"
	"github.com/dalemusser/churchroll/internal/app/system/textsanitize"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

var periodRE = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var (
	errFileScope   = apperr.Forbidden("You can't file reports for this church.")
	errViewScope   = apperr.Forbidden("You don't have access to that church.")
	errPeriod      = apperr.Validation("Period must be YYYY-MM.")
	errNegative    = apperr.Validation("Counts cannot be negative.")
	errDuplicate   = apperr.Conflict("You already filed a report for this church and period.")
	errChurchGone  = apperr.NotFound("Church not found.")
	errChurchInact = apperr.Validation("Reports cannot be filed for an inactive church.")
)

type fileInput struct {
	ChurchID     string `json:"church_id"`
	Period       string `json:"period"`
	BibleStudies int    `json:"bible_studies"`
	Visits       int    `json:"visits"`
	Baptisms     int    `json:"baptisms"`
	Literature   int    `json:"literature"`
	Notes        string `json:"notes"`
}

// HandleFile handles POST /reports/missionary.
func (h *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var in fileInput
	if err := formutil.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode report", err, "Invalid request body.")
		return
	}
	churchID, err := formutil.ObjectID("church_id", in.ChurchID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad church id", err, "Please choose a church.")
		return
	}
	if !periodRE.MatchString(in.Period) {
		h.ErrLog.Render(w, r, "bad report period", errPeriod)
		return
	}
	if in.BibleStudies < 0 || in.Visits < 0 || in.Baptisms < 0 || in.Literature < 0 {
		h.ErrLog.Render(w, r, "negative report count", errNegative)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "file report")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return
	}
	if !reportpolicy.CanFile(a, sc, churchID) {
		h.ErrLog.Render(w, r, "file report outside scope", errFileScope)
		return
	}
	church, err := h.Churches.GetByID(ctx, churchID)
	if errors.Is(err, store.ErrNotFound) {
		h.ErrLog.Render(w, r, "church not found", errChurchGone)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load church", err)
		return
	}
	if !church.IsActive {
		h.ErrLog.Render(w, r, "report for inactive church", errChurchInact)
		return
	}

	rep, err := h.Reports.Create(ctx, models.MissionaryReport{
		ChurchID:     churchID,
		ReporterID:   a.ID,
		ReporterName: a.Name,
		Period:       in.Period,
		BibleStudies: in.BibleStudies,
		Visits:       in.Visits,
		Baptisms:     in.Baptisms,
		Literature:   in.Literature,
		Notes:        textsanitize.PlainMax(in.Notes, limits.MaxReportNotes),
	})
	if errors.Is(err, store.ErrDuplicate) {
		h.ErrLog.Render(w, r, "duplicate report", errDuplicate)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "file report", err)
		return
	}
	h.AuditLog.ReportFiled(ctx, a.ID, rep)
	uierrors.WriteJSON(w, http.StatusCreated, rep)
}

// ServeMissionaryList handles GET /reports/missionary?church_id=&period=&mine=1.
func (h *Handler) ServeMissionaryList(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	church, ok := shared.QueryID(w, r, "church_id")
	if !ok {
		return
	}
	period := query.Get(r, "period")
	if period != "" && !periodRE.MatchString(period) {
		h.ErrLog.Render(w, r, "bad report period filter", errPeriod)
		return
	}
	pg := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list reports")
	defer cancel()

	sc, err := h.Scopes.Resolve(ctx, a)
	if err != nil {
		h.ErrLog.Render(w, r, "resolve scope", err)
		return
	}
	if church != nil && !reportpolicy.CanView(sc, *church) {
		h.ErrLog.Render(w, r, "reports outside scope", errViewScope)
		return
	}
	if sc.IsEmpty() {
		uierrors.WriteJSON(w, http.StatusOK, paging.Trim[models.MissionaryReport](nil, pg))
		return
	}

	q := store.ReportQuery{
		Scope:    sc.Store(),
		ChurchID: church,
		Period:   period,
		Page:     pg.LookAhead(),
	}
	if query.Get(r, "mine") == "1" {
		q.ReporterID = &a.ID
	}
	rows, err := h.Reports.List(ctx, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list reports", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, paging.Trim(rows, pg))
}
