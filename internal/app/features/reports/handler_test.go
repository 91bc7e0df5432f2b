package reports_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/features/reports"
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/churchroll/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*testutil.Fixtures, chi.Router) {
	t.Helper()
	fx := testutil.NewFixtures(t)
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := reports.NewHandler(fx.Backend, fx.Scopes(), uierrors.NewErrorLogger(zap.NewNop()), fx.AuditLog(), zap.NewNop())
	return fx, reports.Routes(h, sm)
}

func do(t *testing.T, router chi.Router, method, target string, body any, u *auth.SessionUser) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(t, method, target, body, u))
	return rec
}

func TestFile(t *testing.T) {
	fx, router := setup(t)
	a := fx.CreateChurch("Grace Chapel", "east", "north")
	b := fx.CreateChurch("Hope Church", "east", "south")
	bw := testutil.Bibleworker(a.ID)

	report := func(church models.Church, period string) map[string]any {
		return map[string]any{
			"church_id": church.ID.Hex(), "period": period,
			"bible_studies": 4, "visits": 12, "baptisms": 1, "literature": 30,
			"notes": "<script>x</script>Good month",
		}
	}

	tests := []struct {
		name   string
		user   *auth.SessionUser
		body   map[string]any
		status int
	}{
		{"bibleworker assigned church", bw, report(a, "2026-09"), http.StatusCreated},
		{"same period again", bw, report(a, "2026-09"), http.StatusConflict},
		{"next period", bw, report(a, "2026-10"), http.StatusCreated},
		{"unassigned church", bw, report(b, "2026-09"), http.StatusForbidden},
		{"church secretary cannot file", testutil.ChurchSecretary(a.ID), report(a, "2026-09"), http.StatusForbidden},
		{"superadmin any church", testutil.SuperAdmin(), report(b, "2026-09"), http.StatusCreated},
		{"bad period", bw, report(a, "2026-13"), http.StatusUnprocessableEntity},
		{"negative count", bw, map[string]any{"church_id": a.ID.Hex(), "period": "2026-08", "visits": -1}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, router, "POST", "/missionary", tt.body, tt.user).AssertStatus(t, tt.status)
		})
	}

	rec := do(t, router, "GET", "/missionary?church_id="+a.ID.Hex(), nil, testutil.Pastor("north"))
	rec.AssertStatus(t, http.StatusOK)
	var page struct {
		Items []models.MissionaryReport `json:"items"`
	}
	rec.DecodeJSON(t, &page)
	if len(page.Items) != 2 {
		t.Fatalf("got %d reports, want 2", len(page.Items))
	}
	if page.Items[0].Notes != "Good month" {
		t.Errorf("notes not sanitized: %q", page.Items[0].Notes)
	}

	do(t, router, "GET", "/missionary?church_id="+b.ID.Hex(), nil, testutil.Pastor("north")).
		AssertStatus(t, http.StatusForbidden)
}

func TestMembersCSV_Scoped(t *testing.T) {
	fx, router := setup(t)
	a := fx.CreateChurch("Grace Chapel", "east", "north")
	b := fx.CreateChurch("Hope Church", "east", "south")
	fx.CreateMember(a, "Ana Reyes")
	fx.CreateMember(a, "Ben Cruz")
	fx.CreateMember(b, "Carla Diaz")

	rec := do(t, router, "GET", "/members.csv", nil, testutil.ChurchSecretary(a.ID))
	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2", len(records))
	}
	for _, row := range records[1:] {
		if row[1] != "Grace Chapel" {
			t.Errorf("row from %q leaked", row[1])
		}
	}

	empty := do(t, router, "GET", "/members.csv", nil, testutil.Bibleworker())
	empty.AssertStatus(t, http.StatusOK)
	records, _ = csv.NewReader(empty.Body).ReadAll()
	if len(records) != 1 {
		t.Errorf("empty scope: got %d records, want header only", len(records))
	}

	do(t, router, "GET", "/members.csv?church_id="+b.ID.Hex(), nil, testutil.ChurchSecretary(a.ID)).
		AssertStatus(t, http.StatusForbidden)
}
