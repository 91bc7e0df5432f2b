package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	memberstore "github.com/dalemusser/churchroll/internal/app/store/members"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/search"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type members struct{ db *DB }

func (s members) Create(_ context.Context, m models.Member) (models.Member, error) {
	m = memberstore.Prepare(m)

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpMemberCreate); err != nil {
		return models.Member{}, err
	}
	s.db.members[m.ID] = m
	return m, nil
}

func (s members) GetByID(_ context.Context, id primitive.ObjectID) (models.Member, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	m, ok := s.db.members[id]
	if !ok {
		return models.Member{}, store.ErrNotFound
	}
	return m, nil
}

func (s members) List(_ context.Context, q store.MemberQuery) ([]models.Member, error) {
	out := s.filter(q)
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullNameCI != out[j].FullNameCI {
			return out[i].FullNameCI < out[j].FullNameCI
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return window(out, q.Page), nil
}

func (s members) Count(_ context.Context, q store.MemberQuery) (int64, error) {
	return int64(len(s.filter(q))), nil
}

func (s members) filter(q store.MemberQuery) []models.Member {
	status := normalize.Status(q.Status)
	q.Search = search.Fold(q.Search)

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []models.Member
	for _, m := range s.db.members {
		switch {
		case !inScope(q.Scope, m.ChurchID):
		case q.ChurchID != nil && m.ChurchID != *q.ChurchID:
		case status != "" && m.Status != status:
		case q.Search != "" && !search.HasPrefix(m.FullNameCI, q.Search):
		default:
			out = append(out, m)
		}
	}
	return out
}

func (s members) CountByChurch(_ context.Context, sc store.Scope) (map[primitive.ObjectID]int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := map[primitive.ObjectID]int64{}
	for _, m := range s.db.members {
		if inScope(sc, m.ChurchID) {
			out[m.ChurchID]++
		}
	}
	return out, nil
}

func (s members) MoveChurch(_ context.Context, id, from, to primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpMemberMoveChurch); err != nil {
		return err
	}
	m, ok := s.db.members[id]
	if !ok || m.ChurchID != from {
		return store.ErrStateChanged
	}
	m.ChurchID = to
	m.UpdatedAt = time.Now().UTC()
	s.db.members[id] = m
	return nil
}

func (s members) SaveStatus(_ context.Context, m models.Member) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpMemberSaveStatus); err != nil {
		return err
	}
	cur, ok := s.db.members[m.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Status = m.Status
	cur.ResignationDate = m.ResignationDate
	cur.DisfellowshipDate = m.DisfellowshipDate
	cur.DateOfDeath = m.DateOfDeath
	cur.CauseOfDeath = m.CauseOfDeath
	cur.UpdatedAt = time.Now().UTC()
	s.db.members[m.ID] = cur
	return nil
}
