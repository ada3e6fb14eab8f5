// Package lifecycle holds the report status machine.
//
// Faculty can only move a report from draft to submitted, and only once all
// three sections exist. Administrators may set any status; each status they
// set stamps its matching date. Every function here works on the in-memory
// report and leaves persistence to the caller.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrIncomplete matches any *IncompleteError via errors.Is.
	ErrIncomplete = errors.New("report is incomplete")
	// ErrNotDraft is returned when a non-draft report is submitted.
	ErrNotDraft = errors.New("only draft reports can be submitted")
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New(`status must be "draft"|"submitted"|"reviewed"|"approved"`)
)

// Completion says which sections of a report are present.
type Completion struct {
	Teaching bool `json:"teaching"`
	Research bool `json:"research"`
	Service  bool `json:"service"`
}

// Complete reports whether every section is present.
func (c Completion) Complete() bool {
	return c.Teaching && c.Research && c.Service
}

// Missing lists the absent sections in wizard order.
func (c Completion) Missing() []string {
	var out []string
	if !c.Teaching {
		out = append(out, "teaching")
	}
	if !c.Research {
		out = append(out, "research")
	}
	if !c.Service {
		out = append(out, "service")
	}
	return out
}

// IncompleteError carries the completion breakdown of a rejected submit.
type IncompleteError struct {
	Completion Completion
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("report is incomplete: missing %s", strings.Join(e.Completion.Missing(), ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// CompletionOf inspects the section links on r.
func CompletionOf(r *models.Report) Completion {
	return Completion{
		Teaching: r.TeachingSectionID != nil && !r.TeachingSectionID.IsZero(),
		Research: r.ResearchSectionID != nil && !r.ResearchSectionID.IsZero(),
		Service:  len(r.ServiceSectionIDs) > 0,
	}
}

// IsComplete reports whether r has a teaching section, a research section
// and at least one service entry.
func IsComplete(r *models.Report) bool {
	return CompletionOf(r).Complete()
}

// Submit moves a complete draft to submitted and stamps SubmittedDate.
// On error r is left untouched.
func Submit(r *models.Report, now time.Time) error {
	c := CompletionOf(r)
	if !c.Complete() {
		return &IncompleteError{Completion: c}
	}
	if r.Status != models.StatusDraft {
		return ErrNotDraft
	}
	r.Status = models.StatusSubmitted
	r.SubmittedDate = &now
	r.UpdatedAt = now
	return nil
}

// Admin identifies the administrator acting on a report.
type Admin struct {
	ID   primitive.ObjectID
	Name string
}

// AdminSetStatus applies an administrative status change. A non-blank
// comment is appended to the review history together with the new status.
// Setting draft keeps any earlier dates.
func AdminSetStatus(r *models.Report, status, comment string, admin Admin, now time.Time) error {
	if !models.ValidStatus(status) {
		return ErrInvalidStatus
	}

	r.Status = status
	switch status {
	case models.StatusSubmitted:
		r.SubmittedDate = &now
	case models.StatusReviewed:
		r.ReviewedDate = &now
	case models.StatusApproved:
		r.ApprovedDate = &now
	}

	if c := strings.TrimSpace(comment); c != "" {
		r.AdminComments = append(r.AdminComments, models.AdminComment{
			Comment:   c,
			AdminID:   admin.ID,
			AdminName: admin.Name,
			Date:      now,
			Status:    status,
		})
	}
	r.UpdatedAt = now
	return nil
}

// CanTransition reports whether to is the next step after from on the
// regular path draft -> submitted -> reviewed -> approved.
func CanTransition(from, to string) bool {
	for i := 0; i+1 < len(models.AllStatuses); i++ {
		if models.AllStatuses[i] == from {
			return models.AllStatuses[i+1] == to
		}
	}
	return false
}

// NextStatus returns the status that follows from on the regular path, or
// "" once a report is approved.
func NextStatus(from string) string {
	for _, to := range models.AllStatuses {
		if CanTransition(from, to) {
			return to
		}
	}
	return ""
}
