// internal/app/store/churches/churchstore.go
package churchstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/store/queries/scopequery"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/search"
	"github.com/dalemusser/churchroll/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("churches")}
}

// Prepare assigns an ID, folds the searchable fields and stamps timestamps.
// New churches are active.
func Prepare(c models.Church) models.Church {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.CityCI = text.Fold(c.City)
	c.Field = normalize.Territory(c.Field)
	c.District = normalize.Territory(c.District)
	c.IsActive = true
	c.CreatedAt = now
	c.UpdatedAt = now
	return c
}

// ApplyUpdate copies the non-empty fields of upd onto c.
func ApplyUpdate(c *models.Church, upd store.ChurchUpdate) {
	if upd.Name != "" {
		c.Name = normalize.Name(upd.Name)
		c.NameCI = text.Fold(c.Name)
	}
	if upd.Field != "" {
		c.Field = normalize.Territory(upd.Field)
	}
	if upd.District != "" {
		c.District = normalize.Territory(upd.District)
	}
	if upd.City != "" {
		c.City = upd.City
		c.CityCI = text.Fold(upd.City)
	}
	if upd.Province != "" {
		c.Province = upd.Province
	}
	if upd.Address != "" {
		c.Address = upd.Address
	}
	c.UpdatedAt = time.Now().UTC()
}

// Create inserts a church. Returns store.ErrDuplicate when a church with the
// same name already exists in the district.
func (s *Store) Create(ctx context.Context, c models.Church) (models.Church, error) {
	c = Prepare(c)
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Church{}, store.ErrDuplicate
		}
		return models.Church{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Church, error) {
	var c models.Church
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Church{}, store.ErrNotFound
		}
		return models.Church{}, err
	}
	return c, nil
}

// Update modifies a church's mutable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd store.ChurchUpdate) error {
	var c models.Church
	ApplyUpdate(&c, upd)

	set := bson.M{"updated_at": c.UpdatedAt}
	if upd.Name != "" {
		set["name"] = c.Name
		set["name_ci"] = c.NameCI
	}
	if upd.Field != "" {
		set["field"] = c.Field
	}
	if upd.District != "" {
		set["district"] = c.District
	}
	if upd.City != "" {
		set["city"] = c.City
		set["city_ci"] = c.CityCI
	}
	if upd.Province != "" {
		set["province"] = c.Province
	}
	if upd.Address != "" {
		set["address"] = c.Address
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return store.ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetActive activates or deactivates a church. Churches are never deleted.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IDsByDistrict returns the ids of every church in district, active or not.
func (s *Store) IDsByDistrict(ctx context.Context, district string) ([]primitive.ObjectID, error) {
	return s.ids(ctx, bson.M{"district": normalize.Territory(district)})
}

// IDsByField returns the ids of every church in field, active or not.
func (s *Store) IDsByField(ctx context.Context, field string) ([]primitive.ObjectID, error) {
	return s.ids(ctx, bson.M{"field": normalize.Territory(field)})
}

func (s *Store) ids(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// List returns churches matching q sorted by folded name.
func (s *Store) List(ctx context.Context, q store.ChurchQuery) ([]models.Church, error) {
	filter, ok := buildFilter(q)
	if !ok {
		return nil, nil
	}
	sort := bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}
	cur, err := s.c.Find(ctx, filter, scopequery.Find(q.Page, sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Church
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of churches matching q, ignoring the page.
func (s *Store) Count(ctx context.Context, q store.ChurchQuery) (int64, error) {
	filter, ok := buildFilter(q)
	if !ok {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, filter)
}

func buildFilter(q store.ChurchQuery) (bson.M, bool) {
	filter := bson.M{}
	if !scopequery.Apply(filter, "_id", q.Scope) {
		return nil, false
	}
	if p := search.Prefix(q.Search); p != nil {
		filter["name_ci"] = p
	}
	if q.Field != "" {
		filter["field"] = normalize.Territory(q.Field)
	}
	if q.District != "" {
		filter["district"] = normalize.Territory(q.District)
	}
	if q.ActiveOnly {
		filter["is_active"] = true
	}
	return filter, true
}
