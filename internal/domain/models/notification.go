// internal/domain/models/notification.go
package models

// Notification kinds.
const (
	NotificationInfo     = "info"
	NotificationAlert    = "alert"
	NotificationReminder = "reminder"
)

// Notification is a message from administrators. An empty RecipientID
// means it is broadcast to everyone.
type Notification struct {
	Meta        `bson:",inline"`
	RecipientID string   `bson:"recipient_id" json:"recipient_id,omitempty"`
	Title       string   `bson:"title" json:"title" validate:"required,notblank,max=200"`
	Body        string   `bson:"body,omitempty" json:"body,omitempty" validate:"max=5000"`
	Kind        string   `bson:"kind" json:"kind" validate:"omitempty,oneof=info alert reminder"`
	ReadBy      []string `bson:"read_by,omitempty" json:"-"`
}

// IsFor reports whether the notification is addressed to identityID.
func (n *Notification) IsFor(identityID string) bool {
	return n.RecipientID == "" || n.RecipientID == identityID
}

// IsReadBy reports whether identityID has marked the notification read.
func (n *Notification) IsReadBy(identityID string) bool {
	for _, id := range n.ReadBy {
		if id == identityID {
			return true
		}
	}
	return false
}
