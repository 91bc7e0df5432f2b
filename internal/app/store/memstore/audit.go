package memstore

import (
	"context"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/store/audit"
)

type auditEvents struct{ db *DB }

func (s auditEvents) Log(_ context.Context, e audit.Event) error {
	audit.Prepare(&e)
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpAuditLog); err != nil {
		return err
	}
	s.db.audit = append(s.db.audit, e)
	return nil
}

func (s auditEvents) Query(_ context.Context, f audit.QueryFilter) ([]audit.Event, error) {
	s.db.mu.RLock()
	var out []audit.Event
	for i := len(s.db.audit) - 1; i >= 0; i-- {
		if f.Matches(s.db.audit[i]) {
			out = append(out, s.db.audit[i])
		}
	}
	s.db.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = audit.DefaultLimit
	}
	return window(out, store.Page{Offset: f.Offset, Limit: limit}), nil
}
