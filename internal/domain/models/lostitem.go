// internal/domain/models/lostitem.go
package models

import "time"

// Lost-and-found kinds.
const (
	KindLost  = "lost"
	KindFound = "found"
)

// LostItem is a lost or found item report.
type LostItem struct {
	Meta        `bson:",inline"`
	Kind        string     `bson:"kind" json:"kind" validate:"required,oneof=lost found"`
	Title       string     `bson:"title" json:"title" validate:"required,notblank,max=200"`
	Description string     `bson:"description,omitempty" json:"description,omitempty" validate:"max=2000"`
	Location    string     `bson:"location,omitempty" json:"location,omitempty" validate:"max=200"`
	OccurredOn  *time.Time `bson:"occurred_on,omitempty" json:"occurred_on,omitempty"`
	ImageURL    string     `bson:"image_url,omitempty" json:"image_url,omitempty" validate:"omitempty,http_url"`
	Contact     string     `bson:"contact,omitempty" json:"contact,omitempty" validate:"max=200"`
	Claimed     bool       `bson:"claimed" json:"claimed"`
	ClaimedBy   string     `bson:"claimed_by,omitempty" json:"claimed_by,omitempty"`
}
