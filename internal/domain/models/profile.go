// internal/domain/models/profile.go
package models

import "time"

// Role values stored on Profile.Role.
const (
	RoleAdmin       = "admin"
	RoleParticipant = "participant"
	RoleOrganizer   = "organizer"
	RoleVolunteer   = "volunteer"
)

// Profile status values.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// AllRoles lists every role a profile may hold.
var AllRoles = []string{RoleAdmin, RoleParticipant, RoleOrganizer, RoleVolunteer}

// Profile is the application-owned record for an Identity. It is keyed by
// the identity id, so there is at most one per identity.
type Profile struct {
	ID         string    `bson:"_id" json:"id"`
	FullName   string    `bson:"full_name" json:"full_name"`
	FullNameCI string    `bson:"full_name_ci" json:"-"`
	Email      string    `bson:"email" json:"email"`
	Role       string    `bson:"role" json:"role"`
	Status     string    `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`

	Bio           string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Notifications *NotificationPrefs `bson:"notifications,omitempty" json:"notifications,omitempty"`
	Privacy       *PrivacyPrefs      `bson:"privacy,omitempty" json:"privacy,omitempty"`
}

// NotificationPrefs controls how a user hears about new notifications.
type NotificationPrefs struct {
	Email bool `bson:"email" json:"email"`
	InApp bool `bson:"in_app" json:"in_app"`
}

// PrivacyPrefs controls what other users can see.
type PrivacyPrefs struct {
	ShowEmail   bool `bson:"show_email" json:"show_email"`
	ShowProfile bool `bson:"show_profile" json:"show_profile"`
}

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
