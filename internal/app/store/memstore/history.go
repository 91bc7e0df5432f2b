package memstore

import (
	"context"

	historystore "github.com/dalemusser/churchroll/internal/app/store/transferhistory"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type history struct{ db *DB }

func (s history) Append(_ context.Context, h models.TransferHistory) (models.TransferHistory, error) {
	h = historystore.Prepare(h)

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpHistoryAppend); err != nil {
		return models.TransferHistory{}, err
	}
	s.db.history = append(s.db.history, h)
	return h, nil
}

func (s history) ListByMember(_ context.Context, memberID primitive.ObjectID) ([]models.TransferHistory, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []models.TransferHistory
	for _, h := range s.db.history {
		if h.MemberID == memberID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s history) CountByRequest(_ context.Context, requestID primitive.ObjectID) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, h := range s.db.history {
		if h.TransferRequestID == requestID {
			n++
		}
	}
	return n, nil
}
