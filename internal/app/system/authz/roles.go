// internal/app/system/authz/roles.go
package authz

import "strings"

// Role is one of the fixed administrative roles. The set is closed: every
// switch over Role in this codebase lists all of them, so a new role shows up
// as a missing case during review rather than as a silent default.
type Role string

const (
	RoleSuperAdmin      Role = "superadmin"
	RoleFieldSecretary  Role = "field_secretary"
	RolePastor          Role = "pastor"
	RoleChurchSecretary Role = "church_secretary"
	RoleCoordinator     Role = "coordinator"
	RoleBibleworker     Role = "bibleworker"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleFieldSecretary,
	RolePastor,
	RoleChurchSecretary,
	RoleCoordinator,
	RoleBibleworker,
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleSuperAdmin, RoleFieldSecretary, RolePastor, RoleChurchSecretary, RoleCoordinator, RoleBibleworker:
		return r, true
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// Label is the human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleFieldSecretary:
		return "Field Secretary"
	case RolePastor:
		return "Pastor"
	case RoleChurchSecretary:
		return "Church Secretary"
	case RoleCoordinator:
		return "Coordinator"
	case RoleBibleworker:
		return "Bibleworker"
	}
	return string(r)
}
