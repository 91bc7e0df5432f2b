// internal/domain/models/church.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Church includes case/diacritic-insensitive fields for search/sort.
// Field and District are the territory keys pastors and field secretaries
// are assigned to.
type Church struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	Field     string             `bson:"field" json:"field"`
	District  string             `bson:"district" json:"district"`
	City      string             `bson:"city" json:"city"`
	CityCI    string             `bson:"city_ci" json:"-"`
	Province  string             `bson:"province" json:"province"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
