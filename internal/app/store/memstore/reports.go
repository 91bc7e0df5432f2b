package memstore

import (
	"context"
	"sort"

	"github.com/dalemusser/churchroll/internal/app/store"
	reportstore "github.com/dalemusser/churchroll/internal/app/store/reports"
	"github.com/dalemusser/churchroll/internal/domain/models"
)

type reports struct{ db *DB }

func (s reports) Create(_ context.Context, r models.MissionaryReport) (models.MissionaryReport, error) {
	r = reportstore.Prepare(r)

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpReportCreate); err != nil {
		return models.MissionaryReport{}, err
	}
	for _, x := range s.db.reports {
		if x.ReporterID == r.ReporterID && x.ChurchID == r.ChurchID && x.Period == r.Period {
			return models.MissionaryReport{}, store.ErrDuplicate
		}
	}
	s.db.reports[r.ID] = r
	return r, nil
}

func (s reports) List(_ context.Context, q store.ReportQuery) ([]models.MissionaryReport, error) {
	s.db.mu.RLock()
	var out []models.MissionaryReport
	for _, r := range s.db.reports {
		switch {
		case !inScope(q.Scope, r.ChurchID):
		case q.ChurchID != nil && r.ChurchID != *q.ChurchID:
		case q.ReporterID != nil && r.ReporterID != *q.ReporterID:
		case q.Period != "" && r.Period != q.Period:
		default:
			out = append(out, r)
		}
	}
	s.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period > out[j].Period
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return window(out, q.Page), nil
}
