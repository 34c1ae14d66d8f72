// internal/domain/models/complaint.go
package models

// Complaint status values.
const (
	ComplaintOpen     = "open"
	ComplaintInReview = "in_review"
	ComplaintResolved = "resolved"
	ComplaintRejected = "rejected"
)

// Complaint is a student-submitted issue report.
type Complaint struct {
	Meta        `bson:",inline"`
	Title       string `bson:"title" json:"title" validate:"required,notblank,max=200"`
	Description string `bson:"description" json:"description" validate:"required,notblank,max=5000"`
	Category    string `bson:"category" json:"category" validate:"omitempty,oneof=academic facilities hostel transport canteen other"`
	Location    string `bson:"location,omitempty" json:"location,omitempty" validate:"max=200"`
	Status      string `bson:"status" json:"status" validate:"omitempty,oneof=open in_review resolved rejected"`
	AdminNote   string `bson:"admin_note,omitempty" json:"admin_note,omitempty" validate:"max=2000"`
}
