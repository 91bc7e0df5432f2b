package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
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
	return &Store{c: db.Collection("users")}
}

var (
	ErrBadRole           = errors.New("role is not one of the known roles")
	ErrTerritoryRequired = errors.New("role requires a territory assignment")
)

// Prepare normalizes u for insertion and checks that the territory field
// for its role is set. It is shared with the in-memory store.
func Prepare(u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.DistrictID = normalize.Territory(u.DistrictID)
	u.FieldID = normalize.Territory(u.FieldID)

	role, ok := authz.ParseRole(u.Role)
	if !ok {
		return models.User{}, ErrBadRole
	}
	u.Role = role.String()

	// Only the territory field that belongs to the role is kept.
	if role != authz.RoleChurchSecretary {
		u.ChurchID = nil
	}
	if role != authz.RolePastor {
		u.DistrictID = ""
	}
	if role != authz.RoleFieldSecretary {
		u.FieldID = ""
	}
	if role != authz.RoleBibleworker {
		u.AssignedChurchIDs = nil
	}

	switch role {
	case authz.RoleChurchSecretary:
		if u.ChurchID == nil {
			return models.User{}, ErrTerritoryRequired
		}
	case authz.RolePastor:
		if u.DistrictID == "" {
			return models.User{}, ErrTerritoryRequired
		}
	case authz.RoleFieldSecretary:
		if u.FieldID == "" {
			return models.User{}, ErrTerritoryRequired
		}
	case authz.RoleSuperAdmin, authz.RoleCoordinator, authz.RoleBibleworker:
		// bibleworkers may start with no assigned churches
	}

	u.IsActive = true
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

// Create inserts a new user. Returns store.ErrDuplicate if the email is taken.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u, err := Prepare(u)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, store.ErrDuplicate
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, store.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// SetActive activates or deactivates a user. Users are never deleted.
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

// List returns users sorted by folded name.
func (s *Store) List(ctx context.Context, q store.UserQuery) ([]models.User, error) {
	filter := bson.M{}
	if q.Role != "" {
		filter["role"] = normalize.Role(q.Role)
	}
	if q.ActiveOnly {
		filter["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	if q.Offset > 0 {
		opts.SetSkip(q.Offset)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
