package memstore

import (
	"context"
	"sort"

	"github.com/dalemusser/churchroll/internal/app/store"
	transferstore "github.com/dalemusser/churchroll/internal/app/store/transfers"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type transfers struct{ db *DB }

func (s transfers) Create(_ context.Context, t models.TransferRequest) (models.TransferRequest, error) {
	t = transferstore.Prepare(t)

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpTransferCreate); err != nil {
		return models.TransferRequest{}, err
	}
	if s.pending(t.MemberID) {
		return models.TransferRequest{}, store.ErrDuplicate
	}
	s.db.transfers[t.ID] = t
	return t, nil
}

// pending must be called with mu held.
func (s transfers) pending(memberID primitive.ObjectID) bool {
	for _, x := range s.db.transfers {
		if x.MemberID == memberID && x.Status == models.TransferPending {
			return true
		}
	}
	return false
}

func (s transfers) GetByID(_ context.Context, id primitive.ObjectID) (models.TransferRequest, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	t, ok := s.db.transfers[id]
	if !ok {
		return models.TransferRequest{}, store.ErrNotFound
	}
	return t, nil
}

func (s transfers) HasPending(_ context.Context, memberID primitive.ObjectID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.pending(memberID), nil
}

func (s transfers) Transition(_ context.Context, id primitive.ObjectID, from, to string, rv store.Review) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpTransferTransition); err != nil {
		return err
	}
	t, ok := s.db.transfers[id]
	if !ok {
		return store.ErrNotFound
	}
	if t.Status != from {
		return store.ErrStateChanged
	}
	if to == models.TransferPending && s.pending(t.MemberID) {
		return store.ErrDuplicate
	}
	transferstore.ApplyReview(&t, to, rv)
	s.db.transfers[id] = t
	return nil
}

func (s transfers) List(_ context.Context, q store.TransferQuery) ([]models.TransferRequest, error) {
	s.db.mu.RLock()
	var out []models.TransferRequest
	for _, t := range s.db.transfers {
		switch {
		case !inScope(q.Scope, t.FromChurchID) && !inScope(q.Scope, t.ToChurchID):
		case q.Status != "" && t.Status != q.Status:
		case q.MemberID != nil && t.MemberID != *q.MemberID:
		default:
			out = append(out, t)
		}
	}
	s.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return window(out, q.Page), nil
}
