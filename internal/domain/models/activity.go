// internal/domain/models/activity.go
package models

import "time"

// Activity status values.
const (
	ActivityScheduled = "scheduled"
	ActivityCancelled = "cancelled"
	ActivityCompleted = "completed"
)

// Activity is a campus event published by administrators.
type Activity struct {
	Meta        `bson:",inline"`
	Title       string     `bson:"title" json:"title" validate:"required,notblank,max=200"`
	Description string     `bson:"description,omitempty" json:"description,omitempty" validate:"max=5000"`
	Location    string     `bson:"location,omitempty" json:"location,omitempty" validate:"max=200"`
	StartsAt    *time.Time `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	EndsAt      *time.Time `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
	Capacity    int        `bson:"capacity,omitempty" json:"capacity,omitempty" validate:"gte=0"`
	ImageURL    string     `bson:"image_url,omitempty" json:"image_url,omitempty" validate:"omitempty,http_url"`
	Status      string     `bson:"status" json:"status" validate:"omitempty,oneof=scheduled cancelled completed"`
}
