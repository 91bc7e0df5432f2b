// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an administrative account (superadmin, field secretary, pastor,
// church secretary, coordinator, bibleworker).
//
// NOTE:
//   - Only the territory field that matches Role is populated:
//     ChurchID (church_secretary), DistrictID (pastor), FieldID (field_secretary),
//     AssignedChurchIDs (bibleworker).
//   - Users are never hard-deleted; IsActive=false deactivates them.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"`
	IsActive     bool               `bson:"is_active" json:"is_active"`

	ChurchID          *primitive.ObjectID  `bson:"church_id,omitempty" json:"church_id,omitempty"`
	DistrictID        string               `bson:"district_id,omitempty" json:"district_id,omitempty"`
	FieldID           string               `bson:"field_id,omitempty" json:"field_id,omitempty"`
	AssignedChurchIDs []primitive.ObjectID `bson:"assigned_church_ids,omitempty" json:"assigned_church_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
