package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	userstore "github.com/dalemusser/churchroll/internal/app/store/users"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type users struct{ db *DB }

func (s users) Create(_ context.Context, u models.User) (models.User, error) {
	u, err := userstore.Prepare(u)
	if err != nil {
		return models.User{}, err
	}
	u.AssignedChurchIDs = append([]primitive.ObjectID(nil), u.AssignedChurchIDs...)

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpUserCreate); err != nil {
		return models.User{}, err
	}
	for _, x := range s.db.users {
		if x.Email == u.Email {
			return models.User{}, store.ErrDuplicate
		}
	}
	s.db.users[u.ID] = u
	return u, nil
}

func (s users) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s users) GetByEmail(_ context.Context, email string) (models.User, error) {
	email = normalize.Email(email)
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s users) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	s.db.users[id] = u
	return nil
}

func (s users) List(_ context.Context, q store.UserQuery) ([]models.User, error) {
	role := normalize.Role(q.Role)
	s.db.mu.RLock()
	var out []models.User
	for _, u := range s.db.users {
		if role != "" && u.Role != role {
			continue
		}
		if q.ActiveOnly && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	s.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FullNameCI != out[j].FullNameCI {
			return out[i].FullNameCI < out[j].FullNameCI
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return window(out, q.Page), nil
}
