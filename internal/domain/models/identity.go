// internal/domain/models/identity.go
package models

import "time"

// Identity is an authenticated account as known to the identity provider.
// The ID is opaque to the rest of the application.
type Identity struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	DisplayName  string    `bson:"display_name" json:"display_name"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	GoogleSub    string    `bson:"google_sub,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
