package memberstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	memberstore "github.com/dalemusser/churchroll/internal/app/store/members"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/churchroll/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPrepare_DefaultsActive(t *testing.T) {
	m := memberstore.Prepare(models.Member{FullName: " Ana Cruz ", ChurchID: primitive.NewObjectID()})
	if m.Status != models.MemberActive {
		t.Errorf("Status: got %q, want active", m.Status)
	}
	if m.FullName != "Ana Cruz" || m.FullNameCI == "" {
		t.Errorf("unexpected name fields %q / %q", m.FullName, m.FullNameCI)
	}
}

func TestStore_MoveChurch_CompareAndSet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	m, err := s.Create(ctx, models.Member{FullName: "Ana", ChurchID: a})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.MoveChurch(ctx, m.ID, a, b); err != nil {
		t.Fatalf("MoveChurch failed: %v", err)
	}
	// A second move from a no longer matches.
	if err := s.MoveChurch(ctx, m.ID, a, c); !errors.Is(err, store.ErrStateChanged) {
		t.Errorf("expected ErrStateChanged, got %v", err)
	}
	got, _ := s.GetByID(ctx, m.ID)
	if got.ChurchID != b {
		t.Errorf("ChurchID: got %v, want %v", got.ChurchID, b)
	}
}

func TestStore_SaveStatus_ClearsStaleFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := s.Create(ctx, models.Member{FullName: "Ben", ChurchID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m.ApplyStatus(models.StatusChange{Status: models.MemberResigned, Date: &when})
	if err := s.SaveStatus(ctx, m); err != nil {
		t.Fatalf("SaveStatus failed: %v", err)
	}

	m.ApplyStatus(models.StatusChange{Status: models.MemberActive})
	if err := s.SaveStatus(ctx, m); err != nil {
		t.Fatalf("SaveStatus failed: %v", err)
	}

	got, _ := s.GetByID(ctx, m.ID)
	if got.Status != models.MemberActive {
		t.Errorf("Status: got %q", got.Status)
	}
	if got.ResignationDate != nil {
		t.Error("resignation date must be cleared")
	}
}

func TestStore_ListAndCountByChurch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	for _, c := range []primitive.ObjectID{a, a, b} {
		if _, err := s.Create(ctx, models.Member{FullName: "M", ChurchID: c}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list, err := s.List(ctx, store.MemberQuery{Scope: store.Scope{ChurchIDs: []primitive.ObjectID{a}}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 members in a, got %d", len(list))
	}

	counts, err := s.CountByChurch(ctx, store.Scope{AllChurches: true})
	if err != nil {
		t.Fatalf("CountByChurch failed: %v", err)
	}
	if counts[a] != 2 || counts[b] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}

	// Requested church outside the scope yields nothing.
	list, err = s.List(ctx, store.MemberQuery{Scope: store.Scope{ChurchIDs: []primitive.ObjectID{a}}, ChurchID: &b})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no members, got %d", len(list))
	}
}
