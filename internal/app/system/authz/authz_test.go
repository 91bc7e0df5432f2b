package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   authz.Role
		wantOK bool
	}{
		{"superadmin", authz.RoleSuperAdmin, true},
		{"  Pastor ", authz.RolePastor, true},
		{"CHURCH_SECRETARY", authz.RoleChurchSecretary, true},
		{"bibleworker", authz.RoleBibleworker, true},
		{"admin", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := authz.ParseRole(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseRole(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAllRolesParse(t *testing.T) {
	for _, r := range authz.AllRoles {
		if got, ok := authz.ParseRole(string(r)); !ok || got != r {
			t.Errorf("role %q does not round-trip", r)
		}
		if r.Label() == string(r) {
			t.Errorf("role %q has no label", r)
		}
	}
}

func TestCurrentActor_NoUser(t *testing.T) {
	if _, ok := authz.CurrentActor(httptest.NewRequest("GET", "/", nil)); ok {
		t.Error("expected no actor without a session user")
	}
}

func TestCurrentActor_MalformedID(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
		ID:   "not-an-object-id",
		Role: "superadmin",
	})
	if _, ok := authz.CurrentActor(req); ok {
		t.Error("malformed user ID must fail closed")
	}
}

func TestCurrentActor_UnknownRole(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Role: "admin",
	})
	if _, ok := authz.CurrentActor(req); ok {
		t.Error("unknown role must fail closed")
	}
}

func TestCurrentActor_Bibleworker(t *testing.T) {
	c1, c2 := primitive.NewObjectID(), primitive.NewObjectID()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
		ID:                primitive.NewObjectID().Hex(),
		Role:              "bibleworker",
		AssignedChurchIDs: []string{c1.Hex(), "garbage", c2.Hex()},
	})
	a, ok := authz.CurrentActor(req)
	if !ok {
		t.Fatal("expected actor")
	}
	if len(a.AssignedChurchIDs) != 2 {
		t.Fatalf("expected 2 assigned churches, got %d", len(a.AssignedChurchIDs))
	}
	if a.AssignedChurchIDs[0] != c1 || a.AssignedChurchIDs[1] != c2 {
		t.Error("assigned churches not preserved in order")
	}
}

func TestActorCapabilities(t *testing.T) {
	tests := []struct {
		role         authz.Role
		manageChurch bool
		fileReports  bool
		isSuperAdmin bool
	}{
		{authz.RoleSuperAdmin, true, true, true},
		{authz.RoleFieldSecretary, true, false, false},
		{authz.RolePastor, false, false, false},
		{authz.RoleChurchSecretary, false, false, false},
		{authz.RoleCoordinator, false, false, false},
		{authz.RoleBibleworker, false, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			a := &authz.Actor{Role: tt.role}
			if a.CanManageChurches() != tt.manageChurch {
				t.Errorf("CanManageChurches = %v", a.CanManageChurches())
			}
			if a.CanFileReports() != tt.fileReports {
				t.Errorf("CanFileReports = %v", a.CanFileReports())
			}
			if a.IsSuperAdmin() != tt.isSuperAdmin {
				t.Errorf("IsSuperAdmin = %v", a.IsSuperAdmin())
			}
		})
	}

	var nilActor *authz.Actor
	if nilActor.Is(authz.RoleSuperAdmin) {
		t.Error("nil actor must have no roles")
	}
}
