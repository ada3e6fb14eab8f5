// internal/domain/models/report.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report statuses. Faculty move a report from draft to submitted; the
// remaining transitions belong to administrators.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusReviewed  = "reviewed"
	StatusApproved  = "approved"
)

// ReportSchemaVersion is stamped on every report written by this version.
const ReportSchemaVersion = 1

// AllStatuses lists report statuses in lifecycle order.
var AllStatuses = []string{StatusDraft, StatusSubmitted, StatusReviewed, StatusApproved}

// ValidStatus reports whether s is a known report status.
func ValidStatus(s string) bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// AdminComment is one entry in a report's append-only review history.
type AdminComment struct {
	Comment   string             `bson:"comment" json:"comment"`
	AdminID   primitive.ObjectID `bson:"admin_id" json:"admin_id"`
	AdminName string             `bson:"admin_name" json:"admin_name"`
	Date      time.Time          `bson:"date" json:"date"`
	Status    string             `bson:"status" json:"status"`
}

// Report is the yearly activity report for one faculty member and one
// academic year. Section documents live in their own collections and are
// linked by id.
type Report struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID      primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	AcademicYear string             `bson:"academic_year" json:"academic_year"` // "YYYY-YYYY"
	Status       string             `bson:"status" json:"status"`

	SubmittedDate *time.Time `bson:"submitted_date" json:"submitted_date"`
	ReviewedDate  *time.Time `bson:"reviewed_date" json:"reviewed_date"`
	ApprovedDate  *time.Time `bson:"approved_date" json:"approved_date"`

	TeachingSectionID *primitive.ObjectID  `bson:"teaching_section_id" json:"teaching_section_id"`
	ResearchSectionID *primitive.ObjectID  `bson:"research_section_id" json:"research_section_id"`
	ServiceSectionIDs []primitive.ObjectID `bson:"service_section_ids" json:"service_section_ids"`

	Notes         string         `bson:"notes" json:"notes"`
	AdminComments []AdminComment `bson:"admin_comments" json:"admin_comments"`

	SchemaVersion int       `bson:"schema_version" json:"-"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}
