// Package reportpolicy provides authorization policies for missionary reports.
//
// Authorization rules:
//   - Every role may view reports for churches in its scope
//   - Bibleworkers file reports for their assigned churches
//   - Superadmins may file on behalf of any church
package reportpolicy

import (
	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanView reports whether reports of churchID are visible under sc.
func CanView(sc churchscope.Scope, churchID primitive.ObjectID) bool {
	return sc.Allows(churchID)
}

// CanFile reports whether a may file a report for churchID.
func CanFile(a *authz.Actor, sc churchscope.Scope, churchID primitive.ObjectID) bool {
	return a.CanFileReports() && sc.Allows(churchID)
}
