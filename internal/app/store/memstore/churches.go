package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	churchstore "github.com/dalemusser/churchroll/internal/app/store/churches"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/search"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type churches struct{ db *DB }

func (s churches) Create(_ context.Context, c models.Church) (models.Church, error) {
	c = churchstore.Prepare(c)

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpChurchCreate); err != nil {
		return models.Church{}, err
	}
	if s.nameTaken(c.District, c.NameCI, primitive.NilObjectID) {
		return models.Church{}, store.ErrDuplicate
	}
	s.db.churches[c.ID] = c
	return c, nil
}

// nameTaken must be called with mu held.
func (s churches) nameTaken(district, nameCI string, except primitive.ObjectID) bool {
	for id, x := range s.db.churches {
		if id != except && x.District == district && x.NameCI == nameCI {
			return true
		}
	}
	return false
}

func (s churches) GetByID(_ context.Context, id primitive.ObjectID) (models.Church, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	c, ok := s.db.churches[id]
	if !ok {
		return models.Church{}, store.ErrNotFound
	}
	return c, nil
}

func (s churches) Update(_ context.Context, id primitive.ObjectID, upd store.ChurchUpdate) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.churches[id]
	if !ok {
		return store.ErrNotFound
	}
	churchstore.ApplyUpdate(&c, upd)
	if s.nameTaken(c.District, c.NameCI, id) {
		return store.ErrDuplicate
	}
	s.db.churches[id] = c
	return nil
}

func (s churches) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.churches[id]
	if !ok {
		return store.ErrNotFound
	}
	c.IsActive = active
	c.UpdatedAt = time.Now().UTC()
	s.db.churches[id] = c
	return nil
}

func (s churches) IDsByDistrict(_ context.Context, district string) ([]primitive.ObjectID, error) {
	district = normalize.Territory(district)
	return s.ids(func(c models.Church) bool { return c.District == district }), nil
}

func (s churches) IDsByField(_ context.Context, field string) ([]primitive.ObjectID, error) {
	field = normalize.Territory(field)
	return s.ids(func(c models.Church) bool { return c.Field == field }), nil
}

func (s churches) ids(match func(models.Church) bool) []primitive.ObjectID {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	ids := []primitive.ObjectID{}
	for id, c := range s.db.churches {
		if match(c) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s churches) List(_ context.Context, q store.ChurchQuery) ([]models.Church, error) {
	out := s.filter(q)
	sort.Slice(out, func(i, j int) bool {
		if out[i].NameCI != out[j].NameCI {
			return out[i].NameCI < out[j].NameCI
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return window(out, q.Page), nil
}

func (s churches) Count(_ context.Context, q store.ChurchQuery) (int64, error) {
	return int64(len(s.filter(q))), nil
}

func (s churches) filter(q store.ChurchQuery) []models.Church {
	q.Search = search.Fold(q.Search)
	field := normalize.Territory(q.Field)
	district := normalize.Territory(q.District)

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []models.Church
	for id, c := range s.db.churches {
		switch {
		case !inScope(q.Scope, id):
		case q.Search != "" && !search.HasPrefix(c.NameCI, q.Search):
		case field != "" && c.Field != field:
		case district != "" && c.District != district:
		case q.ActiveOnly && !c.IsActive:
		default:
			out = append(out, c)
		}
	}
	return out
}
