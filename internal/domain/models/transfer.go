// internal/domain/models/transfer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transfer request statuses.
const (
	TransferPending  = "pending"
	TransferApproved = "approved"
	TransferRejected = "rejected"
)

// TransferTypeIn is the history type recorded for an approved transfer.
const TransferTypeIn = "transfer_in"

// TransferRequest proposes moving a member from one church to another.
// At most one pending request may exist per member.
type TransferRequest struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	MemberID     primitive.ObjectID `bson:"member_id" json:"member_id"`
	FromChurchID primitive.ObjectID `bson:"from_church_id" json:"from_church_id"`
	ToChurchID   primitive.ObjectID `bson:"to_church_id" json:"to_church_id"`
	Status       string             `bson:"status" json:"status"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`

	RequestedByID   primitive.ObjectID  `bson:"requested_by_id" json:"requested_by_id"`
	RequestedAt     time.Time           `bson:"requested_at" json:"requested_at"`
	ReviewedByID    *primitive.ObjectID `bson:"reviewed_by_id,omitempty" json:"reviewed_by_id,omitempty"`
	ReviewedAt      *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// TransferHistory is an append-only record of a completed transfer.
// Church names are captured at approval time.
type TransferHistory struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	MemberID          primitive.ObjectID `bson:"member_id" json:"member_id"`
	TransferRequestID primitive.ObjectID `bson:"transfer_request_id" json:"transfer_request_id"`
	FromChurchID      primitive.ObjectID `bson:"from_church_id" json:"from_church_id"`
	ToChurchID        primitive.ObjectID `bson:"to_church_id" json:"to_church_id"`
	FromChurchName    string             `bson:"from_church_name" json:"from_church_name"`
	ToChurchName      string             `bson:"to_church_name" json:"to_church_name"`
	TransferType      string             `bson:"transfer_type" json:"transfer_type"`
	TransferDate      time.Time          `bson:"transfer_date" json:"transfer_date"`
	ApprovedByID      primitive.ObjectID `bson:"approved_by_id" json:"approved_by_id"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}
