package historystore_test

import (
	"testing"

	historystore "github.com/dalemusser/churchroll/internal/app/store/transferhistory"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/churchroll/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_AppendAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := historystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := primitive.NewObjectID()
	req := primitive.NewObjectID()
	h, err := s.Append(ctx, models.TransferHistory{
		MemberID:          member,
		TransferRequestID: req,
		FromChurchName:    "Hope",
		ToChurchName:      "Grace",
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if h.TransferType != models.TransferTypeIn {
		t.Errorf("TransferType: got %q", h.TransferType)
	}
	if h.TransferDate.IsZero() {
		t.Error("expected transfer date to default to now")
	}

	rows, err := s.ListByMember(ctx, member)
	if err != nil {
		t.Fatalf("ListByMember failed: %v", err)
	}
	if len(rows) != 1 || rows[0].FromChurchName != "Hope" {
		t.Errorf("unexpected rows %v", rows)
	}

	n, err := s.CountByRequest(ctx, req)
	if err != nil {
		t.Fatalf("CountByRequest failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountByRequest: got %d, want 1", n)
	}
}
