// internal/app/features/churches/manage.go
package churches

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/features/shared"
	"github.com/dalemusser/churchroll/internal/app/policy/churchpolicy"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/churchroll/internal/app/system/formutil"
	"github.com/dalemusser/churchroll/internal/app/system/limits"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/ordered"
	"github.com/dalemusser/churchroll/internal/app/system/textsanitize"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	errManage      = apperr.Forbidden("You don't have permission to manage churches in this field.")
	errDuplicate   = apperr.Conflict("A church with that name already exists in this district.")
	errHasMembers  = apperr.Conflict("A church with members cannot be deactivated. Transfer its members first.")
	errNameMissing = apperr.Validation("Church name is required.")
	errTerritory   = apperr.Validation("Field and district are required.")
)

// churchInput is the body of create and update. On update, empty fields are
// left unchanged.
type churchInput struct {
	Name     string `json:"name"`
	Field    string `json:"field"`
	District string `json:"district"`
	City     string `json:"city"`
	Province string `json:"province"`
	Address  string `json:"address"`
}

func (in churchInput) clean() churchInput {
	return churchInput{
		Name:     textsanitize.PlainMax(normalize.Name(in.Name), limits.MaxName),
		Field:    normalize.Territory(in.Field),
		District: normalize.Territory(in.District),
		City:     textsanitize.PlainMax(in.City, limits.MaxPlace),
		Province: textsanitize.PlainMax(in.Province, limits.MaxPlace),
		Address:  textsanitize.PlainMax(in.Address, limits.MaxAddress),
	}
}

// HandleCreate handles POST /churches.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var raw churchInput
	if err := formutil.Decode(r, &raw); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode church", err, "Invalid request body.")
		return
	}
	in := raw.clean()
	if in.Name == "" {
		h.ErrLog.Render(w, r, "church without name", errNameMissing)
		return
	}
	if in.Field == "" || in.District == "" {
		h.ErrLog.Render(w, r, "church without territory", errTerritory)
		return
	}
	if !churchpolicy.CanManageField(a, in.Field) {
		h.ErrLog.Render(w, r, "create church outside field", errManage)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create church")
	defer cancel()

	c, err := h.Churches.Create(ctx, models.Church{
		Name:     in.Name,
		Field:    in.Field,
		District: in.District,
		City:     in.City,
		Province: in.Province,
		Address:  in.Address,
	})
	if errors.Is(err, store.ErrDuplicate) {
		h.ErrLog.Render(w, r, "duplicate church", errDuplicate)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create church", err)
		return
	}
	h.AuditLog.ChurchCreated(ctx, a.ID, c)
	uierrors.WriteJSON(w, http.StatusCreated, c)
}

// HandleUpdate handles POST /churches/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	var raw churchInput
	if err := formutil.Decode(r, &raw); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode church", err, "Invalid request body.")
		return
	}
	in := raw.clean()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update church")
	defer cancel()

	cur, ok := h.loadManaged(ctx, w, r, a, id)
	if !ok {
		return
	}
	if in.Field != "" && !churchpolicy.CanManageField(a, in.Field) {
		h.ErrLog.Render(w, r, "move church outside field", errManage)
		return
	}

	upd := store.ChurchUpdate{
		Name:     in.Name,
		Field:    in.Field,
		District: in.District,
		City:     in.City,
		Province: in.Province,
		Address:  in.Address,
	}
	err := h.Churches.Update(ctx, id, upd)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		h.ErrLog.Render(w, r, "duplicate church", errDuplicate)
		return
	case errors.Is(err, store.ErrNotFound):
		h.ErrLog.Render(w, r, "church vanished", errNotFound)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update church", err)
		return
	}

	if changed := changedFields(cur, upd); len(changed) > 0 {
		h.AuditLog.ChurchUpdated(ctx, a.ID, id, changed)
	}
	c, err := h.Churches.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload church", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, c)
}

// HandleDeactivate handles POST /churches/{id}/deactivate. Only churches
// without members may be deactivated.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	a, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "deactivate church")
	defer cancel()

	c, ok := h.loadManaged(ctx, w, r, a, id)
	if !ok {
		return
	}
	if c.IsActive {
		err := h.Tx.InTx(ctx, func(ctx context.Context) error {
			return ordered.Run(ctx,
				ordered.Step{Name: "check members", Do: h.requireNoMembers(id)},
				ordered.Step{
					Name: "deactivate",
					Do:   func(ctx context.Context) error { return h.Churches.SetActive(ctx, id, false) },
					Undo: func(ctx context.Context) error { return h.Churches.SetActive(ctx, id, true) },
				},
				// A member added between the first count and the write.
				ordered.Step{Name: "recheck members", Do: h.requireNoMembers(id)},
			)
		})
		switch {
		case errors.Is(err, errHasMembers):
			h.ErrLog.Render(w, r, "deactivate church with members", errHasMembers)
			return
		case err != nil:
			h.ErrLog.LogServerError(w, r, "deactivate church", err)
			return
		}
		h.AuditLog.ChurchDeactivated(ctx, a.ID, id)
		c.IsActive = false
	}
	uierrors.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) requireNoMembers(id primitive.ObjectID) func(context.Context) error {
	return func(ctx context.Context) error {
		n, err := h.Members.Count(ctx, store.MemberQuery{
			Scope:    store.Scope{AllChurches: true},
			ChurchID: &id,
		})
		if err != nil {
			return err
		}
		if n > 0 {
			return errHasMembers
		}
		return nil
	}
}

// loadManaged loads a church the actor may manage, writing the error response
// otherwise.
func (h *Handler) loadManaged(ctx context.Context, w http.ResponseWriter, r *http.Request, a *authz.Actor, id primitive.ObjectID) (models.Church, bool) {
	c, err := h.Churches.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.ErrLog.Render(w, r, "church not found", errNotFound)
		return models.Church{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load church", err)
		return models.Church{}, false
	}
	if !churchpolicy.CanManageField(a, c.Field) {
		h.ErrLog.Render(w, r, "manage church outside field", errManage)
		return models.Church{}, false
	}
	return c, true
}

func changedFields(c models.Church, upd store.ChurchUpdate) map[string]any {
	out := map[string]any{}
	set := func(key, old, nv string) {
		if nv != "" && nv != old {
			out[key] = nv
		}
	}
	set("name", c.Name, upd.Name)
	set("field", c.Field, upd.Field)
	set("district", c.District, upd.District)
	set("city", c.City, upd.City)
	set("province", c.Province, upd.Province)
	set("address", c.Address, upd.Address)
	return out
}
