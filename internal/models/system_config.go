package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemConfig is a key/value document for operational state, such as
// the record of the last completed monthly bonus cycle.
type SystemConfig struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Key       string             `bson:"key" json:"key"`
	Value     interface{}        `bson:"value" json:"value"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
