// Package churchpolicy decides who may create and edit churches.
//
// Superadmins manage every church. Field secretaries manage the churches of
// their own field and may not move a church into another field. Nobody else
// manages churches.
package churchpolicy

import (
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
)

// CanManageField reports whether a may manage a church located in field.
func CanManageField(a *authz.Actor, field string) bool {
	if a == nil || !a.CanManageChurches() {
		return false
	}
	if a.IsSuperAdmin() {
		return true
	}
	field = normalize.Territory(field)
	return a.FieldID != "" && field == a.FieldID
}
