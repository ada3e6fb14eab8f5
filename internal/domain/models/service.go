// internal/domain/models/service.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceTypeCommittee marks a thesis or dissertation committee entry. Any
// other type value is a standard service entry.
const ServiceTypeCommittee = "Thesis / Dissertation Committee"

// DegreeTypes accepted on committee entries.
var DegreeTypes = []string{"Undergraduate", "Graduate", "Ph.D."}

// ServiceEntry is one service record. Committee entries use CommitteeName,
// DegreeType and Students; standard entries use Role, Department and
// Description. The struct validator rejects mixed shapes.
type ServiceEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportID  primitive.ObjectID `bson:"report_id" json:"report_id"`
	FacultyID primitive.ObjectID `bson:"faculty_id" json:"faculty_id"`
	Type      string             `bson:"type" json:"type" validate:"notblank,max=200"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`

	// standard
	Role        string `bson:"role,omitempty" json:"role,omitempty"`
	Department  string `bson:"department,omitempty" json:"department,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	// committee
	CommitteeName string   `bson:"committee_name,omitempty" json:"committee_name,omitempty"`
	DegreeType    string   `bson:"degree_type,omitempty" json:"degree_type,omitempty"`
	Students      []string `bson:"students,omitempty" json:"students,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsCommittee reports whether the entry is a committee variant.
func (s ServiceEntry) IsCommittee() bool {
	return s.Type == ServiceTypeCommittee
}
