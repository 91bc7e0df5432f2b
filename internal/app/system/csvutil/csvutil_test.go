package csvutil_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/dalemusser/churchroll/internal/app/system/csvutil"
	"github.com/dalemusser/churchroll/internal/domain/models"
)

func TestWriteRoster(t *testing.T) {
	resigned := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	rows := []csvutil.RosterRow{
		{Member: models.Member{FullName: "Ana Reyes", Status: models.MemberActive, Email: "ana@example.com"}, ChurchName: "Grace Chapel"},
		{Member: models.Member{FullName: "=HYPERLINK(\"x\")", Status: models.MemberResigned, ResignationDate: &resigned}, ChurchName: "Hope, Church"},
	}

	var buf bytes.Buffer
	if err := csvutil.WriteRoster(&buf, rows); err != nil {
		t.Fatalf("WriteRoster: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0][0] != "Full Name" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != "Grace Chapel" || records[1][5] != "ana@example.com" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[2][0] != "'=HYPERLINK(\"x\")" {
		t.Errorf("formula not neutralized: %q", records[2][0])
	}
	if records[2][1] != "Hope, Church" || records[2][8] != "2024-03-09" {
		t.Errorf("row 2 = %v", records[2])
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		requested string
		want      string
	}{
		{"", "members_20260102_030405.csv"},
		{"roster", "roster.csv"},
		{"roster.CSV", "roster.CSV"},
		{"../../etc/passwd", "passwd.csv"},
		{`..\evil.csv`, "evil.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			if got := csvutil.Filename("members", tt.requested, now); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.requested, got, tt.want)
			}
		})
	}
}
