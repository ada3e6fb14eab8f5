// internal/domain/models/teaching.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCourseName is stored when a course is submitted without a name.
const DefaultCourseName = "Untitled Course"

// Quarters a course can be taught in.
var Quarters = []string{"Autumn", "Winter", "Spring", "Summer"}

// Course is one taught course inside a teaching section.
//
// StudentCreditHours is whatever the client sent; it is only derived as
// Credits * Enrollment when the client omitted it.
type Course struct {
	Name                    string             `bson:"name" json:"name" validate:"max=300"`
	Credits                 float64            `bson:"credits" json:"credits" validate:"gte=0"`
	Enrollment              int                `bson:"enrollment" json:"enrollment" validate:"gte=0"`
	StudentCreditHours      *float64           `bson:"student_credit_hours" json:"student_credit_hours" validate:"omitempty,gte=0"`
	EvaluationScore         *float64           `bson:"evaluation_score,omitempty" json:"evaluation_score,omitempty" validate:"omitempty,gte=0"`
	AdjustedEvaluationScore string             `bson:"adjusted_evaluation_score,omitempty" json:"adjusted_evaluation_score,omitempty"`
	CommEngaged             bool               `bson:"comm_engaged" json:"comm_engaged"`
	UpdatedCourse           bool               `bson:"updated_course" json:"updated_course"`
	Quarter                 string             `bson:"quarter,omitempty" json:"quarter,omitempty" validate:"omitempty,quarter"`
	Year                    int                `bson:"year,omitempty" json:"year,omitempty" validate:"omitempty,gte=1900,lte=2200"`
	Notes                   string             `bson:"notes,omitempty" json:"notes,omitempty"`
	ReportID                primitive.ObjectID `bson:"report_id" json:"report_id"`
}

// TeachingSection holds every course for one report. There is at most one
// per report (unique index on report_id).
type TeachingSection struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportID          primitive.ObjectID `bson:"report_id" json:"report_id"`
	FacultyID         primitive.ObjectID `bson:"faculty_id" json:"faculty_id"`
	Courses           []Course           `bson:"courses" json:"courses" validate:"dive"`
	TaughtOutsideDept bool               `bson:"taught_outside_dept" json:"taught_outside_dept"`
	SectionNotes      string             `bson:"section_notes,omitempty" json:"section_notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
