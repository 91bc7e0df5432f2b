// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member lifecycle statuses.
const (
	MemberActive           = "active"
	MemberTransferredOut   = "transferred_out"
	MemberResigned         = "resigned"
	MemberDisfellowshipped = "disfellowshipped"
	MemberDeceased         = "deceased"
)

// Member is a church member. A member belongs to exactly one church.
//
// The status-specific fields are mutually exclusive: only the fields that
// belong to Status may be non-nil. Use ApplyStatus to change Status.
type Member struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	ChurchID    primitive.ObjectID `bson:"church_id" json:"church_id"`
	FullName    string             `bson:"full_name" json:"full_name"`
	FullNameCI  string             `bson:"full_name_ci" json:"-"`
	Gender      string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	BirthDate   *time.Time         `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	BaptismDate *time.Time         `bson:"baptism_date,omitempty" json:"baptism_date,omitempty"`
	Status      string             `bson:"status" json:"status"`

	ResignationDate   *time.Time `bson:"resignation_date" json:"resignation_date"`
	DisfellowshipDate *time.Time `bson:"disfellowship_date" json:"disfellowship_date"`
	DateOfDeath       *time.Time `bson:"date_of_death" json:"date_of_death"`
	CauseOfDeath      *string    `bson:"cause_of_death" json:"cause_of_death"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// StatusChange carries a requested status and the details that status needs.
type StatusChange struct {
	Status       string
	Date         *time.Time // resignation, disfellowship or death date
	CauseOfDeath string
}

// ValidMemberStatus reports whether s is a known member status.
func ValidMemberStatus(s string) bool {
	switch s {
	case MemberActive, MemberTransferredOut, MemberResigned, MemberDisfellowshipped, MemberDeceased:
		return true
	}
	return false
}

// ApplyStatus sets Status and clears every status-specific field that does
// not belong to the new status.
func (m *Member) ApplyStatus(c StatusChange) {
	m.Status = c.Status
	m.ResignationDate = nil
	m.DisfellowshipDate = nil
	m.DateOfDeath = nil
	m.CauseOfDeath = nil

	switch c.Status {
	case MemberResigned:
		m.ResignationDate = c.Date
	case MemberDisfellowshipped:
		m.DisfellowshipDate = c.Date
	case MemberDeceased:
		m.DateOfDeath = c.Date
		if c.CauseOfDeath != "" {
			cause := c.CauseOfDeath
			m.CauseOfDeath = &cause
		}
	}
}
