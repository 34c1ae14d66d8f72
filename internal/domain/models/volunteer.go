// internal/domain/models/volunteer.go
package models

// Volunteer status values.
const (
	VolunteerPending  = "pending"
	VolunteerApproved = "approved"
	VolunteerRejected = "rejected"
)

// Volunteer is a volunteer registration, optionally tied to an activity.
type Volunteer struct {
	Meta         `bson:",inline"`
	FullName     string `bson:"full_name" json:"full_name" validate:"required,notblank,max=200"`
	Email        string `bson:"email" json:"email" validate:"required,email"`
	Phone        string `bson:"phone,omitempty" json:"phone,omitempty" validate:"max=40"`
	Skills       string `bson:"skills,omitempty" json:"skills,omitempty" validate:"max=1000"`
	Availability string `bson:"availability,omitempty" json:"availability,omitempty" validate:"max=500"`
	ActivityID   string `bson:"activity_id,omitempty" json:"activity_id,omitempty"`
	Status       string `bson:"status" json:"status" validate:"omitempty,oneof=pending approved rejected"`
}
