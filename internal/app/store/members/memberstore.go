// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/store/queries/scopequery"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/search"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// Prepare assigns an ID, folds the name and defaults Status to active.
func Prepare(m models.Member) models.Member {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.FullName = normalize.Name(m.FullName)
	m.FullNameCI = text.Fold(m.FullName)
	m.Email = normalize.Email(m.Email)
	if m.Status == "" {
		m.Status = models.MemberActive
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	return m
}

func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	m = Prepare(m)
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Member{}, store.ErrNotFound
		}
		return models.Member{}, err
	}
	return m, nil
}

// List returns members matching q sorted by folded name.
func (s *Store) List(ctx context.Context, q store.MemberQuery) ([]models.Member, error) {
	filter, ok := buildFilter(q)
	if !ok {
		return nil, nil
	}
	sort := bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}
	cur, err := s.c.Find(ctx, filter, scopequery.Find(q.Page, sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of members matching q, ignoring the page.
func (s *Store) Count(ctx context.Context, q store.MemberQuery) (int64, error) {
	filter, ok := buildFilter(q)
	if !ok {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, filter)
}

// CountByChurch groups member counts by church for the scope.
func (s *Store) CountByChurch(ctx context.Context, sc store.Scope) (map[primitive.ObjectID]int64, error) {
	out := map[primitive.ObjectID]int64{}
	match := bson.M{}
	if !scopequery.Apply(match, "church_id", sc) {
		return out, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$church_id"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// MoveChurch sets church_id=to only if the member is currently in from.
func (s *Store) MoveChurch(ctx context.Context, id, from, to primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "church_id": from},
		bson.M{"$set": bson.M{"church_id": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrStateChanged
	}
	return nil
}

// SaveStatus writes the status and all four status-specific fields so a
// field left over from a previous status is cleared.
func (s *Store) SaveStatus(ctx context.Context, m models.Member) error {
	res, err := s.c.UpdateByID(ctx, m.ID, bson.M{"$set": bson.M{
		"status":             m.Status,
		"resignation_date":   m.ResignationDate,
		"disfellowship_date": m.DisfellowshipDate,
		"date_of_death":      m.DateOfDeath,
		"cause_of_death":     m.CauseOfDeath,
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func buildFilter(q store.MemberQuery) (bson.M, bool) {
	filter := bson.M{}
	if !scopequery.Narrow(filter, "church_id", q.Scope, q.ChurchID) {
		return nil, false
	}
	if q.Status != "" {
		filter["status"] = normalize.Status(q.Status)
	}
	if p := search.Prefix(q.Search); p != nil {
		filter["full_name_ci"] = p
	}
	return filter, true
}
