package normalize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/domain/models"
)

func TestRole_EveryRoleParsesAfterSloppyInput(t *testing.T) {
	for _, r := range authz.AllRoles {
		in := "  " + strings.ToUpper(string(r)) + "\t"
		got := normalize.Role(in)
		if got != string(r) {
			t.Errorf("Role(%q) = %q, want %q", in, got, r)
		}
		if _, ok := authz.ParseRole(got); !ok {
			t.Errorf("normalized %q does not parse as a role", got)
		}
	}
}

func TestStatus_EveryMemberStatusIsValidAfterNormalizing(t *testing.T) {
	statuses := []string{
		models.MemberActive,
		models.MemberTransferredOut,
		models.MemberResigned,
		models.MemberDisfellowshipped,
		models.MemberDeceased,
	}
	for _, s := range statuses {
		in := " " + strings.ToUpper(s[:1]) + s[1:] + " "
		got := normalize.Status(in)
		if !models.ValidMemberStatus(got) {
			t.Errorf("Status(%q) = %q, not a member status", in, got)
		}
	}
	if got := normalize.Status(" Pending\n"); got != models.TransferPending {
		t.Errorf("transfer status: got %q", got)
	}
}

func TestTerritory_KeepsInnerSpacingAndCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"North Luzon", "North Luzon"},
		{"  North Luzon  ", "North Luzon"},
		{"District  7", "District  7"},
		{"\tcentral\n", "central"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := normalize.Territory(tt.in); got != tt.want {
			t.Errorf("Territory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	// Territory keys are matched exactly, so case differences stay distinct.
	if normalize.Territory("North") == normalize.Territory("north") {
		t.Error("district keys must stay case-sensitive")
	}
}

func TestChurchID_AllMeansNoFilter(t *testing.T) {
	id := "64b7f0c2a1e4d2f3b5c6a7d8"
	tests := []struct {
		in, want string
	}{
		{"all", ""},
		{" ALL ", ""},
		{"", ""},
		{id, id},
		{"  " + id + " ", id},
		{"allsaints", "allsaints"},
	}
	for _, tt := range tests {
		if got := normalize.ChurchID(tt.in); got != tt.want {
			t.Errorf("ChurchID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmailAndName(t *testing.T) {
	if got := normalize.Email("  Pastor.Cruz@Church.ORG "); got != "pastor.cruz@church.org" {
		t.Errorf("Email: got %q", got)
	}
	// Display names keep their case and inner spacing.
	if got := normalize.Name("  María de la Cruz "); got != "María de la Cruz" {
		t.Errorf("Name: got %q", got)
	}
	if got := normalize.QueryParam("  grace  "); got != "grace" {
		t.Errorf("QueryParam: got %q", got)
	}
}
