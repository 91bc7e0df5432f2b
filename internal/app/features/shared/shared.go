// Package shared holds request helpers used by every JSON feature.
package shared

import (
	"net/http"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor returns the request's actor or writes 401 and returns false.
func Actor(w http.ResponseWriter, r *http.Request) (*authz.Actor, bool) {
	a, ok := authz.CurrentActor(r)
	if !ok {
		uierrors.Write(w, apperr.ErrUnauthenticated)
		return nil, false
	}
	return a, true
}

// PathID parses the chi URL parameter name as an ObjectID or writes 404.
func PathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		uierrors.Write(w, apperr.NotFound("Not found."))
		return primitive.NilObjectID, false
	}
	return id, true
}

// QueryID parses an optional ObjectID query parameter. ok is false when the
// parameter is present but malformed; a validation error has been written.
func QueryID(w http.ResponseWriter, r *http.Request, name string) (*primitive.ObjectID, bool) {
	raw := query.Get(r, name)
	if raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		uierrors.Write(w, apperr.Validation("Invalid "+name+"."))
		return nil, false
	}
	return &id, true
}
