// internal/app/store/reports/reportstore.go
package reportstore

import (
	"context"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/store/queries/scopequery"
	"github.com/dalemusser/churchroll/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("missionary_reports")}
}

// Prepare assigns an ID and stamps timestamps.
func Prepare(r models.MissionaryReport) models.MissionaryReport {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.CreatedAt = now
	r.UpdatedAt = now
	return r
}

// Create inserts a report. One report per reporter, church and period;
// a second one returns store.ErrDuplicate.
func (s *Store) Create(ctx context.Context, r models.MissionaryReport) (models.MissionaryReport, error) {
	r = Prepare(r)
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.MissionaryReport{}, store.ErrDuplicate
		}
		return models.MissionaryReport{}, err
	}
	return r, nil
}

// List returns reports in scope, newest period first.
func (s *Store) List(ctx context.Context, q store.ReportQuery) ([]models.MissionaryReport, error) {
	filter := bson.M{}
	if !scopequery.Narrow(filter, "church_id", q.Scope, q.ChurchID) {
		return nil, nil
	}
	if q.ReporterID != nil {
		filter["reporter_id"] = *q.ReporterID
	}
	if q.Period != "" {
		filter["period"] = q.Period
	}

	sort := bson.D{{Key: "period", Value: -1}, {Key: "_id", Value: -1}}
	cur, err := s.c.Find(ctx, filter, scopequery.Find(q.Page, sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MissionaryReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
