// internal/app/store/transferhistory/historystore.go
package historystore

import (
	"context"
	"time"

	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the append-only transfer log. It has no update or delete.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("transfer_history")}
}

// Prepare assigns an ID and creation time, and defaults the transfer type.
func Prepare(h models.TransferHistory) models.TransferHistory {
	h.ID = primitive.NewObjectID()
	h.CreatedAt = time.Now().UTC()
	if h.TransferType == "" {
		h.TransferType = models.TransferTypeIn
	}
	if h.TransferDate.IsZero() {
		h.TransferDate = h.CreatedAt
	}
	return h
}

func (s *Store) Append(ctx context.Context, h models.TransferHistory) (models.TransferHistory, error) {
	h = Prepare(h)
	if _, err := s.c.InsertOne(ctx, h); err != nil {
		return models.TransferHistory{}, err
	}
	return h, nil
}

// ListByMember returns a member's transfers, oldest first.
func (s *Store) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.TransferHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "transfer_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"member_id": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TransferHistory
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByRequest returns how many history rows reference a request.
func (s *Store) CountByRequest(ctx context.Context, requestID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"transfer_request_id": requestID})
}
