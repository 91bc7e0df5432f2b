package churchscope_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	"github.com/dalemusser/churchroll/internal/app/store/memstore"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	resolver *churchscope.Resolver
	northA   primitive.ObjectID // field east, district north
	northB   primitive.ObjectID // field east, district north
	south    primitive.ObjectID // field east, district south
	west     primitive.ObjectID // field west, district coast
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	be := memstore.New().Backend()
	ctx := context.Background()
	mk := func(name, field, district string) primitive.ObjectID {
		c, err := be.Churches.Create(ctx, models.Church{Name: name, Field: field, District: district})
		if err != nil {
			t.Fatalf("create church %s: %v", name, err)
		}
		return c.ID
	}
	f := fixture{
		northA: mk("North A", "east", "north"),
		northB: mk("North B", "east", "north"),
		south:  mk("South", "east", "south"),
		west:   mk("Coast", "west", "coast"),
	}
	f.resolver = churchscope.NewResolver(be.Churches)
	return f
}

func TestResolve_PerRole(t *testing.T) {
	f := newFixture(t)
	all := []primitive.ObjectID{f.northA, f.northB, f.south, f.west}

	tests := []struct {
		name  string
		actor *authz.Actor
		unres bool
		want  []primitive.ObjectID
	}{
		{"superadmin", &authz.Actor{Role: authz.RoleSuperAdmin}, true, all},
		{"coordinator", &authz.Actor{Role: authz.RoleCoordinator}, true, all},
		{"field secretary", &authz.Actor{Role: authz.RoleFieldSecretary, FieldID: "east"}, false,
			[]primitive.ObjectID{f.northA, f.northB, f.south}},
		{"field secretary without field", &authz.Actor{Role: authz.RoleFieldSecretary}, false, nil},
		{"pastor", &authz.Actor{Role: authz.RolePastor, DistrictID: "north"}, false,
			[]primitive.ObjectID{f.northA, f.northB}},
		{"pastor of empty district", &authz.Actor{Role: authz.RolePastor, DistrictID: "nowhere"}, false, nil},
		{"church secretary", &authz.Actor{Role: authz.RoleChurchSecretary, ChurchID: f.south}, false,
			[]primitive.ObjectID{f.south}},
		{"unassigned church secretary", &authz.Actor{Role: authz.RoleChurchSecretary}, false, nil},
		{"bibleworker", &authz.Actor{Role: authz.RoleBibleworker, AssignedChurchIDs: []primitive.ObjectID{f.west, f.northA}}, false,
			[]primitive.ObjectID{f.west, f.northA}},
		{"bibleworker without churches", &authz.Actor{Role: authz.RoleBibleworker}, false, nil},
		{"unknown role", &authz.Actor{Role: authz.Role("deacon")}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := f.resolver.Resolve(context.Background(), tt.actor)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if sc.IsUnrestricted() != tt.unres {
				t.Fatalf("IsUnrestricted = %v, want %v", sc.IsUnrestricted(), tt.unres)
			}
			if sc.IsEmpty() != (len(tt.want) == 0) {
				t.Errorf("IsEmpty = %v, want %v", sc.IsEmpty(), len(tt.want) == 0)
			}
			if !tt.unres && len(sc.ChurchIDs()) != len(tt.want) {
				t.Errorf("got %d churches, want %d", len(sc.ChurchIDs()), len(tt.want))
			}
			for _, id := range tt.want {
				if !sc.Allows(id) {
					t.Errorf("expected %s in scope", id.Hex())
				}
			}
			// containment: nothing outside want is allowed
			if !tt.unres {
				for _, id := range all {
					if sc.Allows(id) != contains(tt.want, id) {
						t.Errorf("Allows(%s) = %v", id.Hex(), sc.Allows(id))
					}
				}
			}
		})
	}
}

func TestResolve_NilActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.Resolve(context.Background(), nil)
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestResolve_IsFresh(t *testing.T) {
	db := memstore.New()
	be := db.Backend()
	ctx := context.Background()
	r := churchscope.NewResolver(be.Churches)
	pastor := &authz.Actor{Role: authz.RolePastor, DistrictID: "north"}

	sc, _ := r.Resolve(ctx, pastor)
	if !sc.IsEmpty() {
		t.Fatal("expected empty scope before any church exists")
	}
	c, err := be.Churches.Create(ctx, models.Church{Name: "New", Field: "east", District: "north"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sc, _ = r.Resolve(ctx, pastor)
	if !sc.Allows(c.ID) {
		t.Error("new church in district should be in scope on the next call")
	}
}

func TestResolve_LookupError(t *testing.T) {
	r := churchscope.NewResolver(failingLookup{})
	_, err := r.Resolve(context.Background(), &authz.Actor{Role: authz.RolePastor, DistrictID: "north"})
	if !apperr.IsKind(err, apperr.KindStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestRequire(t *testing.T) {
	f := newFixture(t)
	sec := &authz.Actor{Role: authz.RoleChurchSecretary, ChurchID: f.south}

	if _, err := f.resolver.Require(context.Background(), sec, f.south, "no"); err != nil {
		t.Errorf("own church: %v", err)
	}
	_, err := f.resolver.Require(context.Background(), sec, f.west, "no")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("other church: expected forbidden, got %v", err)
	}
}

func TestScope_Store(t *testing.T) {
	if got := churchscope.Unrestricted().Store(); !got.AllChurches {
		t.Error("unrestricted scope must map to AllChurches")
	}
	id := primitive.NewObjectID()
	got := churchscope.Of(id, primitive.NilObjectID).Store()
	if got.AllChurches || len(got.ChurchIDs) != 1 || got.ChurchIDs[0] != id {
		t.Errorf("unexpected store scope %+v", got)
	}
	var zero churchscope.Scope
	if !zero.IsEmpty() || zero.Allows(id) {
		t.Error("zero scope must be empty")
	}
}

type failingLookup struct{}

func (failingLookup) IDsByDistrict(context.Context, string) ([]primitive.ObjectID, error) {
	return nil, errors.New("down")
}

func (failingLookup) IDsByField(context.Context, string) ([]primitive.ObjectID, error) {
	return nil, errors.New("down")
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
