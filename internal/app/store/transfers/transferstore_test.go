package transferstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	transferstore "github.com/dalemusser/churchroll/internal/app/store/transfers"
	"github.com/dalemusser/churchroll/internal/app/system/indexes"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/churchroll/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestApplyReview(t *testing.T) {
	var tr models.TransferRequest
	reviewer := primitive.NewObjectID()
	transferstore.ApplyReview(&tr, models.TransferRejected, store.Review{
		ReviewerID:      reviewer,
		ReviewedAt:      time.Now(),
		RejectionReason: "wrong destination church",
	})
	if tr.ReviewedByID == nil || *tr.ReviewedByID != reviewer {
		t.Error("expected reviewer to be set")
	}
	if tr.RejectionReason == "" {
		t.Error("expected rejection reason to be set")
	}

	transferstore.ApplyReview(&tr, models.TransferPending, store.Review{})
	if tr.ReviewedByID != nil || tr.ReviewedAt != nil || tr.RejectionReason != "" {
		t.Error("zero review must clear review fields")
	}
}

func newRequest(member primitive.ObjectID) models.TransferRequest {
	return models.TransferRequest{
		MemberID:      member,
		FromChurchID:  primitive.NewObjectID(),
		ToChurchID:    primitive.NewObjectID(),
		RequestedByID: primitive.NewObjectID(),
	}
}

func TestStore_Create_SinglePendingPerMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	s := transferstore.New(db)

	member := primitive.NewObjectID()
	first, err := s.Create(ctx, newRequest(member))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.Status != models.TransferPending {
		t.Errorf("Status: got %q", first.Status)
	}

	if _, err := s.Create(ctx, newRequest(member)); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	// Once the first is rejected a new pending request is allowed.
	rv := store.Review{ReviewerID: primitive.NewObjectID(), ReviewedAt: time.Now(), RejectionReason: "duplicate request"}
	if err := s.Transition(ctx, first.ID, models.TransferPending, models.TransferRejected, rv); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if _, err := s.Create(ctx, newRequest(member)); err != nil {
		t.Errorf("expected a new request to be allowed, got %v", err)
	}
}

func TestStore_Transition_CompareAndSet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := transferstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tr, err := s.Create(ctx, newRequest(primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rv := store.Review{ReviewerID: primitive.NewObjectID(), ReviewedAt: time.Now()}
	if err := s.Transition(ctx, tr.ID, models.TransferPending, models.TransferApproved, rv); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	err = s.Transition(ctx, tr.ID, models.TransferPending, models.TransferRejected, rv)
	if !errors.Is(err, store.ErrStateChanged) {
		t.Errorf("expected ErrStateChanged, got %v", err)
	}
	err = s.Transition(context.Background(), primitive.NewObjectID(), models.TransferPending, models.TransferApproved, rv)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
