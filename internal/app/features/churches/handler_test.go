package churches_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/churchroll/internal/app/features/churches"
	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/store/audit"
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/churchroll/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*testutil.Fixtures, chi.Router) {
	t.Helper()
	fx := testutil.NewFixtures(t)
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := churches.NewHandler(fx.Backend, fx.Scopes(), uierrors.NewErrorLogger(zap.NewNop()), fx.AuditLog(), zap.NewNop())
	return fx, churches.Routes(h, sm)
}

func do(t *testing.T, router chi.Router, method, target string, body any, u *auth.SessionUser) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(t, method, target, body, u))
	return rec
}

func TestList_Scoped(t *testing.T) {
	fx, router := setup(t)
	a := fx.CreateChurch("Grace Chapel", "east", "north")
	fx.CreateChurch("Hope Church", "east", "south")
	fx.CreateChurch("Coast Church", "west", "coast")

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"superadmin", testutil.SuperAdmin(), 3},
		{"field secretary", testutil.FieldSecretary("east"), 2},
		{"pastor", testutil.Pastor("coast"), 1},
		{"church secretary", testutil.ChurchSecretary(a.ID), 1},
		{"bibleworker without churches", testutil.Bibleworker(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, "GET", "/", nil, tt.user)
			rec.AssertStatus(t, http.StatusOK)
			var body struct {
				Items []models.Church `json:"items"`
				Total int64           `json:"total"`
			}
			rec.DecodeJSON(t, &body)
			if len(body.Items) != tt.want || body.Total != int64(tt.want) {
				t.Errorf("got %d items total %d, want %d", len(body.Items), body.Total, tt.want)
			}
		})
	}
}

func TestGet_OutOfScope(t *testing.T) {
	fx, router := setup(t)
	a := fx.CreateChurch("Grace Chapel", "east", "north")
	b := fx.CreateChurch("Hope Church", "east", "south")

	do(t, router, "GET", "/"+a.ID.Hex(), nil, testutil.ChurchSecretary(a.ID)).AssertStatus(t, http.StatusOK)
	do(t, router, "GET", "/"+b.ID.Hex(), nil, testutil.ChurchSecretary(a.ID)).AssertStatus(t, http.StatusForbidden)
}

func TestCreate(t *testing.T) {
	fx, router := setup(t)

	tests := []struct {
		name   string
		user   *auth.SessionUser
		body   map[string]string
		status int
	}{
		{"superadmin", testutil.SuperAdmin(),
			map[string]string{"name": "Grace Chapel", "field": "east", "district": "north", "city": "Springfield"}, http.StatusCreated},
		{"duplicate in district", testutil.SuperAdmin(),
			map[string]string{"name": "grace chapel", "field": "east", "district": "north"}, http.StatusConflict},
		{"same name other district", testutil.FieldSecretary("east"),
			map[string]string{"name": "Grace Chapel", "field": "east", "district": "south"}, http.StatusCreated},
		{"field secretary other field", testutil.FieldSecretary("east"),
			map[string]string{"name": "Coast Church", "field": "west", "district": "coast"}, http.StatusForbidden},
		{"pastor", testutil.Pastor("north"),
			map[string]string{"name": "Other", "field": "east", "district": "north"}, http.StatusForbidden},
		{"missing territory", testutil.SuperAdmin(),
			map[string]string{"name": "Nowhere"}, http.StatusUnprocessableEntity},
		{"missing name", testutil.SuperAdmin(),
			map[string]string{"field": "east", "district": "north"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, router, "POST", "/", tt.body, tt.user).AssertStatus(t, tt.status)
		})
	}

	events, _ := fx.Backend.Audit.Query(context.Background(), audit.QueryFilter{Action: audit.ActionChurchCreated})
	if len(events) != 2 {
		t.Errorf("expected 2 church_created events, got %d", len(events))
	}
}

func TestUpdate(t *testing.T) {
	fx, router := setup(t)
	c := fx.CreateChurch("Grace Chapel", "east", "north")
	fs := testutil.FieldSecretary("east")

	rec := do(t, router, "POST", "/"+c.ID.Hex(), map[string]string{"name": "Grace Chapel North"}, fs)
	rec.AssertStatus(t, http.StatusOK)
	var got models.Church
	rec.DecodeJSON(t, &got)
	if got.Name != "Grace Chapel North" || got.District != "north" {
		t.Errorf("after update: %+v", got)
	}

	do(t, router, "POST", "/"+c.ID.Hex(), map[string]string{"field": "west"}, fs).AssertStatus(t, http.StatusForbidden)
	do(t, router, "POST", "/"+c.ID.Hex(), map[string]string{"name": "X"}, testutil.FieldSecretary("west")).
		AssertStatus(t, http.StatusForbidden)

	events, _ := fx.Backend.Audit.Query(context.Background(), audit.QueryFilter{Action: audit.ActionChurchUpdated})
	if len(events) != 1 || events[0].NewValues["name"] != "Grace Chapel North" {
		t.Errorf("unexpected update events %+v", events)
	}
}

func TestDeactivate_RequiresNoMembers(t *testing.T) {
	fx, router := setup(t)
	c := fx.CreateChurch("Grace Chapel", "east", "north")
	empty := fx.CreateChurch("Empty Church", "east", "north")
	fx.CreateMember(c, "Ana Reyes")

	do(t, router, "POST", "/"+c.ID.Hex()+"/deactivate", nil, testutil.SuperAdmin()).AssertStatus(t, http.StatusConflict)
	do(t, router, "POST", "/"+empty.ID.Hex()+"/deactivate", nil, testutil.ChurchSecretary(empty.ID)).
		AssertStatus(t, http.StatusForbidden)

	rec := do(t, router, "POST", "/"+empty.ID.Hex()+"/deactivate", nil, testutil.SuperAdmin())
	rec.AssertStatus(t, http.StatusOK)
	stored, err := fx.Backend.Churches.GetByID(context.Background(), empty.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IsActive {
		t.Error("church should be inactive")
	}
	active, _ := fx.Backend.Churches.GetByID(context.Background(), c.ID)
	if !active.IsActive {
		t.Error("church with members must stay active")
	}
}

// joiningChurches adds a member right after a church is deactivated, as a
// concurrent member create that passed its active check would.
type joiningChurches struct {
	store.Churches
	join func()
}

func (j joiningChurches) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	if err := j.Churches.SetActive(ctx, id, active); err != nil {
		return err
	}
	if !active {
		j.join()
	}
	return nil
}

func TestDeactivate_MemberAddedDuringDeactivation(t *testing.T) {
	fx := testutil.NewFixtures(t)
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	c := fx.CreateChurch("Bethel", "east", "north")

	be := fx.Backend
	be.Churches = joiningChurches{Churches: fx.Backend.Churches, join: func() { fx.CreateMember(c, "Late Arrival") }}
	h := churches.NewHandler(be, fx.Scopes(), uierrors.NewErrorLogger(zap.NewNop()), fx.AuditLog(), zap.NewNop())
	router := churches.Routes(h, sm)

	do(t, router, "POST", "/"+c.ID.Hex()+"/deactivate", nil, testutil.SuperAdmin()).AssertStatus(t, http.StatusConflict)

	stored, err := fx.Backend.Churches.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.IsActive {
		t.Error("church that gained a member must be active again")
	}
	events, _ := fx.Backend.Audit.Query(context.Background(), audit.QueryFilter{Action: audit.ActionChurchDeactivated})
	if len(events) != 0 {
		t.Errorf("got %d deactivation audit events, want 0", len(events))
	}
}
