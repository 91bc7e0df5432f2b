// internal/app/features/systemusers/users.go
package systemusers

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/features/shared"
	"github.com/dalemusser/churchroll/internal/app/store"
	userstore "github.com/dalemusser/churchroll/internal/app/store/users"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/authutil"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/churchroll/internal/app/system/formutil"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/paging"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	errNotFound    = apperr.NotFound("User not found.")
	errDuplicate   = apperr.Conflict("A user with that email already exists.")
	errBadRole     = apperr.Validation("Unknown role.")
	errTerritory   = apperr.Validation("This role needs a territory: a church for church secretaries, a district for pastors, a field for field secretaries.")
	errNameMissing = apperr.Validation("Full name is required.")
	errSelf        = apperr.Conflict("You cannot deactivate your own account.")
	errBadChurches = apperr.Validation("Every assigned church must exist.")
)

type createInput struct {
	FullName          string   `json:"full_name"`
	Email             string   `json:"email"`
	Password          string   `json:"password"`
	Role              string   `json:"role"`
	ChurchID          string   `json:"church_id"`
	DistrictID        string   `json:"district_id"`
	FieldID           string   `json:"field_id"`
	AssignedChurchIDs []string `json:"assigned_church_ids"`
}

// ServeList handles GET /users?role=&active=1&offset=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role := normalize.Role(query.Get(r, "role"))
	if role != "" {
		if _, ok := authz.ParseRole(role); !ok {
			h.ErrLog.Render(w, r, "bad role filter", errBadRole)
			return
		}
	}
	pg := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list users")
	defer cancel()

	rows, err := h.Users.List(ctx, store.UserQuery{
		Role:       role,
		ActiveOnly: query.Get(r, "active") == "1",
		Page:       pg.LookAhead(),
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, paging.Trim(rows, pg))
}

// ServeGet handles GET /users/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get user")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.ErrLog.Render(w, r, "user not found", errNotFound)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}

// HandleCreate handles POST /users. The role decides which territory field
// is required; the others are dropped.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var in createInput
	if err := formutil.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode user", err, "Invalid request body.")
		return
	}
	if normalize.Name(in.FullName) == "" {
		h.ErrLog.Render(w, r, "user without name", errNameMissing)
		return
	}
	email := normalize.Email(in.Email)
	if err := authutil.ValidateEmail(email); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad user email", err, "Please enter a valid email address.")
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		h.ErrLog.LogBadRequest(w, r, "weak password", err, authutil.PasswordRules())
		return
	}

	u := models.User{
		FullName:   in.FullName,
		Email:      email,
		Role:       normalize.Role(in.Role),
		DistrictID: in.DistrictID,
		FieldID:    in.FieldID,
	}
	if in.ChurchID != "" {
		id, err := formutil.ObjectID("church_id", in.ChurchID)
		if err != nil {
			h.ErrLog.LogBadRequest(w, r, "bad church id", err, "Invalid church.")
			return
		}
		u.ChurchID = &id
	}
	assigned, err := formutil.ObjectIDs("assigned_church_ids", in.AssignedChurchIDs)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad assigned church id", err, "Invalid assigned church.")
		return
	}
	u.AssignedChurchIDs = assigned

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create user")
	defer cancel()

	churches := assigned
	if u.ChurchID != nil {
		churches = append([]primitive.ObjectID{*u.ChurchID}, assigned...)
	}
	for _, id := range churches {
		if _, err := h.Churches.GetByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				h.ErrLog.Render(w, r, "user church missing", errBadChurches)
				return
			}
			h.ErrLog.LogServerError(w, r, "load church", err)
			return
		}
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err)
		return
	}
	u.PasswordHash = hash

	created, err := h.Users.Create(ctx, u)
	switch {
	case errors.Is(err, userstore.ErrBadRole):
		h.ErrLog.Render(w, r, "create user bad role", errBadRole)
		return
	case errors.Is(err, userstore.ErrTerritoryRequired):
		h.ErrLog.Render(w, r, "create user without territory", errTerritory)
		return
	case errors.Is(err, store.ErrDuplicate):
		h.ErrLog.Render(w, r, "duplicate user email", errDuplicate)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create user", err)
		return
	}
	h.AuditLog.UserCreated(ctx, a.ID, created)
	uierrors.WriteJSON(w, http.StatusCreated, created)
}

// HandleDeactivate handles POST /users/{id}/deactivate. Users are never
// deleted; a deactivated user's session stops working on the next request.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	if id == a.ID {
		h.ErrLog.Render(w, r, "deactivate self", errSelf)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "deactivate user")
	defer cancel()

	err := h.Users.SetActive(ctx, id, false)
	if errors.Is(err, store.ErrNotFound) {
		h.ErrLog.Render(w, r, "user not found", errNotFound)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "deactivate user", err)
		return
	}
	h.AuditLog.UserDeactivated(ctx, a.ID, id)
	w.WriteHeader(http.StatusNoContent)
}
