// Package memberpolicy provides authorization policies for member management.
//
// Authorization rules:
//   - Every role may view members of churches in its scope
//   - Superadmins, field secretaries, pastors and church secretaries may
//     create members and change member status within their scope
//   - Coordinators and bibleworkers have read-only access
//   - Transfer requests follow the same manage rule for the source church;
//     approval and rejection are decided in the transfer service
package memberpolicy

import (
	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanView reports whether a member of churchID is visible under sc.
func CanView(sc churchscope.Scope, churchID primitive.ObjectID) bool {
	return sc.Allows(churchID)
}

// CanManageRole reports whether the actor's role may write member records at
// all, before any church is considered.
func CanManageRole(a *authz.Actor) bool {
	if a == nil {
		return false
	}
	switch a.Role {
	case authz.RoleSuperAdmin, authz.RoleFieldSecretary, authz.RolePastor, authz.RoleChurchSecretary:
		return true
	case authz.RoleCoordinator, authz.RoleBibleworker:
		return false
	}
	return false
}

// CanManage reports whether a may write members of churchID.
func CanManage(a *authz.Actor, sc churchscope.Scope, churchID primitive.ObjectID) bool {
	return CanManageRole(a) && sc.Allows(churchID)
}
