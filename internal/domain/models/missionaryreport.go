// internal/domain/models/missionaryreport.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MissionaryReport is a bibleworker's monthly activity summary for one church.
type MissionaryReport struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	ChurchID     primitive.ObjectID `bson:"church_id" json:"church_id"`
	ReporterID   primitive.ObjectID `bson:"reporter_id" json:"reporter_id"`
	ReporterName string             `bson:"reporter_name" json:"reporter_name"`
	Period       string             `bson:"period" json:"period"` // YYYY-MM
	BibleStudies int                `bson:"bible_studies" json:"bible_studies"`
	Visits       int                `bson:"visits" json:"visits"`
	Baptisms     int                `bson:"baptisms" json:"baptisms"`
	Literature   int                `bson:"literature" json:"literature"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
