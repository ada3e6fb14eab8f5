package assembly

import (
	"context"

	reportstore "github.com/dalemusser/yar/internal/app/store/reports"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/htmlsanitize"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TeachingInput replaces the whole teaching section.
type TeachingInput struct {
	Courses           []models.Course `json:"courses" validate:"dive"`
	TaughtOutsideDept bool            `json:"taught_outside_dept"`
	SectionNotes      string          `json:"section_notes"`
}

// ResearchInput replaces all three research lists at once.
type ResearchInput struct {
	Publications []models.Publication `json:"publications" validate:"dive"`
	Grants       []models.Grant       `json:"grants" validate:"dive"`
	Conferences  []models.Conference  `json:"conferences" validate:"dive"`
}

// normalizeCourses fills the default name and derives student credit hours
// when the client left them out. Client-supplied hours are kept as sent.
func normalizeCourses(in []models.Course, reportID primitive.ObjectID) []models.Course {
	out := make([]models.Course, 0, len(in))
	for _, c := range in {
		c.Name = htmlsanitize.Notes(c.Name)
		if c.Name == "" {
			c.Name = models.DefaultCourseName
		}
		if c.StudentCreditHours == nil {
			sch := c.Credits * float64(c.Enrollment)
			c.StudentCreditHours = &sch
		}
		c.Notes = htmlsanitize.Notes(c.Notes)
		c.ReportID = reportID
		out = append(out, c)
	}
	return out
}

// GetTeaching returns the report's teaching section, or nil when none has
// been saved yet.
func (s *Service) GetTeaching(ctx context.Context, actor authz.Actor, reportID primitive.ObjectID) (*models.TeachingSection, error) {
	if _, err := s.loadReport(ctx, actor, reportID); err != nil {
		return nil, err
	}
	sec, err := s.teaching.GetByReport(ctx, reportID)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, serverErr(err, "load teaching section")
	}
	return &sec, nil
}

// UpsertTeaching creates or wholesale replaces the teaching section and
// links it from the report. created is true on first save.
func (s *Service) UpsertTeaching(ctx context.Context, actor authz.Actor, reportID primitive.ObjectID, in TeachingInput) (sec models.TeachingSection, created bool, err error) {
	if err := validate(in); err != nil {
		return models.TeachingSection{}, false, err
	}
	r, err := s.loadReport(ctx, actor, reportID)
	if err != nil {
		return models.TeachingSection{}, false, err
	}

	sec, created, err = s.teaching.Upsert(ctx, models.TeachingSection{
		ReportID:          r.ID,
		FacultyID:         r.OwnerID,
		Courses:           normalizeCourses(in.Courses, r.ID),
		TaughtOutsideDept: in.TaughtOutsideDept,
		SectionNotes:      htmlsanitize.Notes(in.SectionNotes),
	})
	if err != nil {
		return models.TeachingSection{}, false, serverErr(err, "save teaching section")
	}
	if err := s.link(ctx, r, reportstore.FieldTeaching, r.TeachingSectionID, sec.ID); err != nil {
		return models.TeachingSection{}, false, err
	}
	return sec, created, nil
}

// GetResearch returns the report's research section, or nil.
func (s *Service) GetResearch(ctx context.Context, actor authz.Actor, reportID primitive.ObjectID) (*models.ResearchSection, error) {
	if _, err := s.loadReport(ctx, actor, reportID); err != nil {
		return nil, err
	}
	sec, err := s.research.GetByReport(ctx, reportID)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, serverErr(err, "load research section")
	}
	return &sec, nil
}

// UpsertResearch creates or replaces the research section.
func (s *Service) UpsertResearch(ctx context.Context, actor authz.Actor, reportID primitive.ObjectID, in ResearchInput) (sec models.ResearchSection, created bool, err error) {
	if err := validate(in); err != nil {
		return models.ResearchSection{}, false, err
	}
	r, err := s.loadReport(ctx, actor, reportID)
	if err != nil {
		return models.ResearchSection{}, false, err
	}

	for i := range in.Grants {
		in.Grants[i].Notes = htmlsanitize.Notes(in.Grants[i].Notes)
	}
	for i := range in.Conferences {
		in.Conferences[i].Notes = htmlsanitize.Notes(in.Conferences[i].Notes)
	}

	sec, created, err = s.research.Upsert(ctx, models.ResearchSection{
		ReportID:     r.ID,
		FacultyID:    r.OwnerID,
		Publications: in.Publications,
		Grants:       in.Grants,
		Conferences:  in.Conferences,
	})
	if err != nil {
		return models.ResearchSection{}, false, serverErr(err, "save research section")
	}
	if err := s.link(ctx, r, reportstore.FieldResearch, r.ResearchSectionID, sec.ID); err != nil {
		return models.ResearchSection{}, false, err
	}
	return sec, created, nil
}

// link writes the report's back-reference to a section. A failure leaves
// the section unreferenced; the next save finds it by report id and links
// it again.
func (s *Service) link(ctx context.Context, r models.Report, field string, current *primitive.ObjectID, sectionID primitive.ObjectID) error {
	linked, err := s.reports.LinkSection(ctx, r.ID, field, sectionID)
	if err != nil {
		s.log.Error("section saved but report link failed", zap.Error(err),
			zap.String("report_id", r.ID.Hex()), zap.String("field", field),
			zap.String("section_id", sectionID.Hex()))
		return serverErr(err, "link section")
	}
	if !linked && current != nil && *current != sectionID {
		s.log.Warn("report links a different section",
			zap.String("report_id", r.ID.Hex()), zap.String("field", field),
			zap.String("linked_id", current.Hex()), zap.String("section_id", sectionID.Hex()))
	}
	return nil
}
