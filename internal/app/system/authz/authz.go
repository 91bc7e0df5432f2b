// internal/app/system/authz/authz.go
package authz

import (
	"errors"
	"net/http"

	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated user a core operation runs on behalf of.
// It is built once per request and passed explicitly to services.
type Actor struct {
	ID   primitive.ObjectID
	Name string
	Role Role

	ChurchID          primitive.ObjectID // church_secretary; NilObjectID if unassigned
	DistrictID        string             // pastor
	FieldID           string             // field_secretary
	AssignedChurchIDs []primitive.ObjectID
}

var (
	errBadUserID = errors.New("authz: malformed user id")
	errBadRole   = errors.New("authz: unknown role")
)

// ActorFromSession converts a SessionUser into an Actor. Malformed IDs in
// the territory list are dropped; a malformed user ID or unknown role is an
// error so callers fail closed.
func ActorFromSession(u *auth.SessionUser) (*Actor, error) {
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil, errBadUserID
	}
	role, ok := ParseRole(u.Role)
	if !ok {
		return nil, errBadRole
	}

	a := &Actor{
		ID:         id,
		Name:       u.Name,
		Role:       role,
		DistrictID: u.DistrictID,
		FieldID:    u.FieldID,
	}
	if u.ChurchID != "" {
		if oid, err := primitive.ObjectIDFromHex(u.ChurchID); err == nil {
			a.ChurchID = oid
		}
	}
	for _, hex := range u.AssignedChurchIDs {
		if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
			a.AssignedChurchIDs = append(a.AssignedChurchIDs, oid)
		}
	}
	return a, nil
}

// CurrentActor returns the request's Actor and a found flag.
// ok=false means the request must be treated as unauthenticated.
func CurrentActor(r *http.Request) (*Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil, false
	}
	a, err := ActorFromSession(u)
	if err != nil {
		// Session corruption or a role removed from the enum - fail closed.
		return nil, false
	}
	return a, true
}

// Is reports whether the actor has one of roles.
func (a *Actor) Is(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the actor is a superadmin.
func (a *Actor) IsSuperAdmin() bool { return a.Is(RoleSuperAdmin) }

// CanManageChurches reports whether the actor may create or edit churches.
// Field secretaries are further limited to their own field by the caller.
func (a *Actor) CanManageChurches() bool {
	return a.Is(RoleSuperAdmin, RoleFieldSecretary)
}

// CanFileReports reports whether the actor may file missionary reports.
func (a *Actor) CanFileReports() bool {
	return a.Is(RoleSuperAdmin, RoleBibleworker)
}
