package reportpolicy_test

import (
	"testing"

	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	"github.com/dalemusser/churchroll/internal/app/policy/reportpolicy"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanFile(t *testing.T) {
	assigned := primitive.NewObjectID()
	elsewhere := primitive.NewObjectID()

	tests := []struct {
		name   string
		actor  *authz.Actor
		scope  churchscope.Scope
		church primitive.ObjectID
		want   bool
	}{
		{"bibleworker assigned", &authz.Actor{Role: authz.RoleBibleworker}, churchscope.Of(assigned), assigned, true},
		{"bibleworker elsewhere", &authz.Actor{Role: authz.RoleBibleworker}, churchscope.Of(assigned), elsewhere, false},
		{"superadmin", &authz.Actor{Role: authz.RoleSuperAdmin}, churchscope.Unrestricted(), elsewhere, true},
		{"coordinator", &authz.Actor{Role: authz.RoleCoordinator}, churchscope.Unrestricted(), assigned, false},
		{"pastor", &authz.Actor{Role: authz.RolePastor}, churchscope.Of(assigned), assigned, false},
		{"nil actor", nil, churchscope.Unrestricted(), assigned, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reportpolicy.CanFile(tt.actor, tt.scope, tt.church); got != tt.want {
				t.Errorf("CanFile = %v, want %v", got, tt.want)
			}
		})
	}
}
