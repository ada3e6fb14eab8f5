// internal/domain/models/research.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Publication types.
var PublicationTypes = []string{"Journal", "Conference", "Book", "Book Chapter", "Report"}

// Grant kinds. Every grant carries one of these in its type field.
const (
	GrantTypeGrant             = "Grant"
	GrantTypeNonFundedResearch = "NonFundedResearch"
	GrantTypeFundedResearch    = "FundedResearch"
	GrantTypeOtherFunding      = "OtherFunding"
)

// GrantTypes lists the accepted grant kinds.
var GrantTypes = []string{GrantTypeGrant, GrantTypeNonFundedResearch, GrantTypeFundedResearch, GrantTypeOtherFunding}

type Publication struct {
	PublicationType   string `bson:"publication_type" json:"publication_type" validate:"required,publication_type"`
	Title             string `bson:"title" json:"title" validate:"notblank,max=500"`
	JournalName       string `bson:"journal_name" json:"journal_name" validate:"notblank,max=300"`
	Status            string `bson:"status,omitempty" json:"status,omitempty"`
	PublicationStatus string `bson:"publication_status,omitempty" json:"publication_status,omitempty"` // In Progress, Published, Accepted...
}

type CoPI struct {
	Name        string `bson:"name" json:"name" validate:"notblank"`
	Affiliation string `bson:"affiliation,omitempty" json:"affiliation,omitempty"`
}

// Grant covers every funding record; Type says which kind.
type Grant struct {
	Type           string     `bson:"type" json:"type" validate:"required,grant_type"`
	Client         string     `bson:"client,omitempty" json:"client,omitempty"`
	Title          string     `bson:"title,omitempty" json:"title,omitempty"`
	ContractNumber string     `bson:"contract_number,omitempty" json:"contract_number,omitempty"`
	Role           string     `bson:"role,omitempty" json:"role,omitempty"`
	TotalAmount    float64    `bson:"total_amount,omitempty" json:"total_amount,omitempty" validate:"gte=0"`
	YourShare      float64    `bson:"your_share,omitempty" json:"your_share,omitempty" validate:"gte=0"`
	StartDate      *time.Time `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate        *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`
	CoPIs          []CoPI     `bson:"co_pis,omitempty" json:"co_pis,omitempty" validate:"dive"`
	Notes          string     `bson:"notes,omitempty" json:"notes,omitempty"`
}

type Conference struct {
	Name      string     `bson:"name" json:"name" validate:"notblank,max=300"`
	StartDate *time.Time `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Notes     string     `bson:"notes,omitempty" json:"notes,omitempty"`
}

// ResearchSection holds publications, grants and conferences for one report.
// The three lists are always replaced together.
type ResearchSection struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportID     primitive.ObjectID `bson:"report_id" json:"report_id"`
	FacultyID    primitive.ObjectID `bson:"faculty_id" json:"faculty_id"`
	Publications []Publication      `bson:"publications" json:"publications" validate:"dive"`
	Grants       []Grant            `bson:"grants" json:"grants" validate:"dive"`
	Conferences  []Conference       `bson:"conferences" json:"conferences" validate:"dive"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
