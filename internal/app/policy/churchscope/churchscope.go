// Package churchscope resolves which churches an actor may see.
//
// Resolution rules:
//   - superadmin, coordinator: every church (unrestricted)
//   - field_secretary: churches whose field equals the user's field
//   - pastor: churches whose district equals the user's district
//   - church_secretary: the assigned church, or none when unassigned
//   - bibleworker: the explicitly assigned churches (possibly none)
//
// Every list, search and stat query over members, churches, transfers and
// missionary reports is filtered by the resolved Scope before any other
// filter. An empty Scope means "nothing", never "everything".
package churchscope

import (
	"context"
	"sort"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scope is either unrestricted or a concrete, possibly empty, set of churches.
// The zero Scope is empty.
type Scope struct {
	unrestricted bool
	ids          map[primitive.ObjectID]struct{}
}

// Unrestricted returns the scope that allows every church.
func Unrestricted() Scope { return Scope{unrestricted: true} }

// Of returns a concrete scope over ids. Nil IDs are ignored.
func Of(ids ...primitive.ObjectID) Scope {
	s := Scope{ids: make(map[primitive.ObjectID]struct{}, len(ids))}
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		s.ids[id] = struct{}{}
	}
	return s
}

// IsUnrestricted reports whether the scope allows every church.
func (s Scope) IsUnrestricted() bool { return s.unrestricted }

// IsEmpty reports whether the scope allows no church at all.
// Callers short-circuit to an empty result when this is true.
func (s Scope) IsEmpty() bool { return !s.unrestricted && len(s.ids) == 0 }

// Allows reports whether churchID is in scope.
func (s Scope) Allows(churchID primitive.ObjectID) bool {
	if s.unrestricted {
		return true
	}
	_, ok := s.ids[churchID]
	return ok
}

// ChurchIDs returns the concrete ids in hex order, or nil when unrestricted.
func (s Scope) ChurchIDs() []primitive.ObjectID {
	if s.unrestricted {
		return nil
	}
	out := make([]primitive.ObjectID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

// Store converts the scope into the filter the stores understand.
func (s Scope) Store() store.Scope {
	if s.unrestricted {
		return store.Scope{AllChurches: true}
	}
	return store.Scope{ChurchIDs: s.ChurchIDs()}
}

// ChurchLookup is the part of the church store the resolver needs.
type ChurchLookup interface {
	IDsByDistrict(ctx context.Context, district string) ([]primitive.ObjectID, error)
	IDsByField(ctx context.Context, field string) ([]primitive.ObjectID, error)
}

// Resolver computes scopes. It holds no per-request state and is safe for
// concurrent use.
type Resolver struct {
	churches ChurchLookup
}

// NewResolver builds a Resolver over churches.
func NewResolver(churches ChurchLookup) *Resolver {
	return &Resolver{churches: churches}
}

// Resolve returns the scope of a. A nil actor is unauthenticated.
// Lookup errors are returned as storage errors.
func (r *Resolver) Resolve(ctx context.Context, a *authz.Actor) (Scope, error) {
	if a == nil {
		return Scope{}, apperr.ErrUnauthenticated
	}

	switch a.Role {
	case authz.RoleSuperAdmin, authz.RoleCoordinator:
		return Unrestricted(), nil

	case authz.RoleFieldSecretary:
		if a.FieldID == "" {
			return Scope{}, nil
		}
		ids, err := r.churches.IDsByField(ctx, a.FieldID)
		if err != nil {
			return Scope{}, apperr.Storage(err)
		}
		return Of(ids...), nil

	case authz.RolePastor:
		if a.DistrictID == "" {
			return Scope{}, nil
		}
		ids, err := r.churches.IDsByDistrict(ctx, a.DistrictID)
		if err != nil {
			return Scope{}, apperr.Storage(err)
		}
		return Of(ids...), nil

	case authz.RoleChurchSecretary:
		return Of(a.ChurchID), nil

	case authz.RoleBibleworker:
		return Of(a.AssignedChurchIDs...), nil
	}

	// Unknown role: fail closed.
	return Scope{}, nil
}

// Require resolves a's scope and returns Forbidden unless it allows churchID.
func (r *Resolver) Require(ctx context.Context, a *authz.Actor, churchID primitive.ObjectID, msg string) (Scope, error) {
	sc, err := r.Resolve(ctx, a)
	if err != nil {
		return Scope{}, err
	}
	if !sc.Allows(churchID) {
		return Scope{}, apperr.Forbidden(msg)
	}
	return sc, nil
}
