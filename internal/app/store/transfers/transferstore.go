// internal/app/store/transfers/transferstore.go
package transferstore

import (
	"context"
	"errors"
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
	return &Store{c: db.Collection("transfer_requests")}
}

// Prepare assigns an ID, forces pending status and stamps timestamps.
func Prepare(t models.TransferRequest) models.TransferRequest {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Status = models.TransferPending
	t.RequestedAt = now
	t.UpdatedAt = now
	t.ReviewedByID = nil
	t.ReviewedAt = nil
	t.RejectionReason = ""
	return t
}

// ApplyReview sets or clears the review fields of t for a transition to status.
func ApplyReview(t *models.TransferRequest, status string, rv store.Review) {
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	if rv.ReviewerID.IsZero() {
		t.ReviewedByID = nil
		t.ReviewedAt = nil
		t.RejectionReason = ""
		return
	}
	id := rv.ReviewerID
	at := rv.ReviewedAt
	t.ReviewedByID = &id
	t.ReviewedAt = &at
	t.RejectionReason = rv.RejectionReason
}

// Create inserts a pending request. The partial unique index on member_id
// for pending requests turns a concurrent second request into ErrDuplicate.
func (s *Store) Create(ctx context.Context, t models.TransferRequest) (models.TransferRequest, error) {
	t = Prepare(t)
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.TransferRequest{}, store.ErrDuplicate
		}
		return models.TransferRequest{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.TransferRequest, error) {
	var t models.TransferRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.TransferRequest{}, store.ErrNotFound
		}
		return models.TransferRequest{}, err
	}
	return t, nil
}

// HasPending reports whether the member has a pending request.
func (s *Store) HasPending(ctx context.Context, memberID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"member_id": memberID, "status": models.TransferPending}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Transition moves a request from status `from` to `to`. The status match in
// the filter makes this a compare-and-set: of two concurrent reviewers only
// one matches.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, from, to string, rv store.Review) error {
	var t models.TransferRequest
	ApplyReview(&t, to, rv)

	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": t.UpdatedAt,
	}}
	if t.ReviewedByID == nil {
		update["$unset"] = bson.M{"reviewed_by_id": "", "reviewed_at": "", "rejection_reason": ""}
	} else {
		set := update["$set"].(bson.M)
		set["reviewed_by_id"] = t.ReviewedByID
		set["reviewed_at"] = t.ReviewedAt
		if t.RejectionReason != "" {
			set["rejection_reason"] = t.RejectionReason
		}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": from}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrStateChanged
}

// List returns requests in scope (either church), newest first.
func (s *Store) List(ctx context.Context, q store.TransferQuery) ([]models.TransferRequest, error) {
	filter := bson.M{}
	if !scopequery.ApplyEither(filter, q.Scope, "from_church_id", "to_church_id") {
		return nil, nil
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.MemberID != nil {
		filter["member_id"] = *q.MemberID
	}

	sort := bson.D{{Key: "requested_at", Value: -1}, {Key: "_id", Value: -1}}
	cur, err := s.c.Find(ctx, filter, scopequery.Find(q.Page, sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TransferRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
