// internal/domain/models/record.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meta is the bookkeeping every feature record carries. It is embedded
// inline so the fields sit at the top level of each document.
type Meta struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubmitterID string             `bson:"submitter_id" json:"submitter_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Base returns a pointer to the embedded Meta so generic code can reach it.
func (m *Meta) Base() *Meta { return m }
