package assembly

import (
	"context"
	"errors"
	"strings"

	reportstore "github.com/dalemusser/yar/internal/app/store/reports"
	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/htmlsanitize"
	"github.com/dalemusser/yar/internal/domain/academicyear"
	"github.com/dalemusser/yar/internal/domain/lifecycle"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const msgDuplicateYear = "A report for this academic year already exists"

// CreateReportInput is the body of POST /reports. An empty year means the
// academic year containing today.
type CreateReportInput struct {
	AcademicYear string `json:"academic_year" validate:"omitempty,academic_year"`
	Notes        string `json:"notes"`
}

// UpdateReportInput is the body of PUT /reports/{id}. Nil fields are left
// unchanged.
type UpdateReportInput struct {
	AcademicYear *string `json:"academic_year" validate:"omitempty,academic_year"`
	Notes        *string `json:"notes"`
}

// HydratedReport is a report with its sections resolved.
type HydratedReport struct {
	models.Report
	Teaching   *models.TeachingSection `json:"teaching"`
	Research   *models.ResearchSection `json:"research"`
	Services   []models.ServiceEntry   `json:"services"`
	Completion lifecycle.Completion    `json:"completion"`
	NextStatus string                  `json:"next_status,omitempty"`
}

// duplicateYear builds the conflict for an (owner, year) pair that is
// already taken, naming the existing report when it can be found.
func (s *Service) duplicateYear(ctx context.Context, ownerID primitive.ObjectID, year string) error {
	existing, err := s.reports.FindByOwnerYear(ctx, ownerID, year)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			s.log.Warn("lookup of existing report failed", zap.Error(err),
				zap.String("owner_id", ownerID.Hex()), zap.String("academic_year", year))
		}
		return apierr.Conflict(msgDuplicateYear, "")
	}
	return apierr.Conflict(msgDuplicateYear, existing.ID.Hex())
}

// CreateReport starts a draft for the actor.
func (s *Service) CreateReport(ctx context.Context, actor authz.Actor, in CreateReportInput) (models.Report, error) {
	in.AcademicYear = strings.TrimSpace(in.AcademicYear)
	if err := validate(in); err != nil {
		return models.Report{}, err
	}
	year := in.AcademicYear
	if year == "" {
		year = academicyear.For(s.now())
	}

	if _, err := s.reports.FindByOwnerYear(ctx, actor.ID, year); err == nil {
		return models.Report{}, s.duplicateYear(ctx, actor.ID, year)
	} else if err != mongo.ErrNoDocuments {
		return models.Report{}, serverErr(err, "check existing report")
	}

	r, err := s.reports.Create(ctx, models.Report{
		OwnerID:      actor.ID,
		AcademicYear: year,
		Status:       models.StatusDraft,
		Notes:        htmlsanitize.Notes(in.Notes),
	})
	if errors.Is(err, reportstore.ErrDuplicate) {
		return models.Report{}, s.duplicateYear(ctx, actor.ID, year)
	}
	if err != nil {
		return models.Report{}, serverErr(err, "create report")
	}
	s.log.Info("report created", zap.String("report_id", r.ID.Hex()),
		zap.String("user_id", actor.ID.Hex()), zap.String("academic_year", year))
	return r, nil
}

// ListReports returns the actor's own reports, newest year first.
func (s *Service) ListReports(ctx context.Context, actor authz.Actor) ([]models.Report, error) {
	list, err := s.reports.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, serverErr(err, "list reports")
	}
	if list == nil {
		list = []models.Report{}
	}
	return list, nil
}

// GetReport returns the report with its sections.
func (s *Service) GetReport(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (HydratedReport, error) {
	r, err := s.loadReport(ctx, actor, id)
	if err != nil {
		return HydratedReport{}, err
	}
	return s.hydrate(ctx, r)
}

// hydrate loads the three sections concurrently. Services come back in the
// order of the report's id list.
func (s *Service) hydrate(ctx context.Context, r models.Report) (HydratedReport, error) {
	out := HydratedReport{
		Report:     r,
		Completion: lifecycle.CompletionOf(&r),
		NextStatus: lifecycle.NextStatus(r.Status),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sec, err := s.teaching.GetByReport(gctx, r.ID)
		if err == mongo.ErrNoDocuments {
			return nil
		}
		if err != nil {
			return err
		}
		out.Teaching = &sec
		return nil
	})
	g.Go(func() error {
		sec, err := s.research.GetByReport(gctx, r.ID)
		if err == mongo.ErrNoDocuments {
			return nil
		}
		if err != nil {
			return err
		}
		out.Research = &sec
		return nil
	})
	g.Go(func() error {
		list, err := s.services.ListByIDs(gctx, r.ServiceSectionIDs)
		if err != nil {
			return err
		}
		out.Services = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return HydratedReport{}, serverErr(err, "load report sections")
	}
	if out.Services == nil {
		out.Services = []models.ServiceEntry{}
	}
	return out, nil
}

// UpdateReport edits the academic year and report notes.
func (s *Service) UpdateReport(ctx context.Context, actor authz.Actor, id primitive.ObjectID, in UpdateReportInput) (models.Report, error) {
	if in.AcademicYear != nil {
		y := strings.TrimSpace(*in.AcademicYear)
		in.AcademicYear = &y
	}
	if err := validate(in); err != nil {
		return models.Report{}, err
	}
	r, err := s.loadReport(ctx, actor, id)
	if err != nil {
		return models.Report{}, err
	}

	year, notes := r.AcademicYear, r.Notes
	if in.AcademicYear != nil && *in.AcademicYear != "" {
		year = *in.AcademicYear
	}
	if in.Notes != nil {
		notes = htmlsanitize.Notes(*in.Notes)
	}

	if year != r.AcademicYear {
		if other, err := s.reports.FindByOwnerYear(ctx, r.OwnerID, year); err == nil {
			return models.Report{}, apierr.Conflict(msgDuplicateYear, other.ID.Hex())
		} else if err != mongo.ErrNoDocuments {
			return models.Report{}, serverErr(err, "check existing report")
		}
	}

	out, err := s.reports.UpdateInfo(ctx, id, year, notes)
	switch {
	case errors.Is(err, reportstore.ErrDuplicate):
		return models.Report{}, s.duplicateYear(ctx, r.OwnerID, year)
	case err == mongo.ErrNoDocuments:
		return models.Report{}, apierr.NotFound("Report not found")
	case err != nil:
		return models.Report{}, serverErr(err, "update report")
	}
	return out, nil
}

// SetGeneralNotes replaces the report-level notes.
func (s *Service) SetGeneralNotes(ctx context.Context, actor authz.Actor, id primitive.ObjectID, notes string) (models.Report, error) {
	if _, err := s.loadReport(ctx, actor, id); err != nil {
		return models.Report{}, err
	}
	out, err := s.reports.SetNotes(ctx, id, htmlsanitize.Notes(notes))
	if err == mongo.ErrNoDocuments {
		return models.Report{}, apierr.NotFound("Report not found")
	}
	if err != nil {
		return models.Report{}, serverErr(err, "save notes")
	}
	return out, nil
}

// SubmitReport moves a complete draft to submitted. The stored status only
// changes when the write still sees the report as a draft.
func (s *Service) SubmitReport(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Report, error) {
	r, err := s.loadReport(ctx, actor, id)
	if err != nil {
		return models.Report{}, err
	}

	from := r.Status
	if err := lifecycle.Submit(&r, s.now()); err != nil {
		var inc *lifecycle.IncompleteError
		if errors.As(err, &inc) {
			return models.Report{}, apierr.Incomplete(inc.Completion)
		}
		if errors.Is(err, lifecycle.ErrNotDraft) {
			return models.Report{}, apierr.Validation("Only draft reports can be submitted")
		}
		return models.Report{}, serverErr(err, "submit report")
	}

	out, err := s.reports.UpdateStatus(ctx, id, from, reportstore.StatusUpdate{
		Status:        r.Status,
		SubmittedDate: r.SubmittedDate,
		ReviewedDate:  r.ReviewedDate,
		ApprovedDate:  r.ApprovedDate,
	})
	switch {
	case errors.Is(err, reportstore.ErrStatusChanged):
		return models.Report{}, apierr.Validation("Only draft reports can be submitted")
	case err == mongo.ErrNoDocuments:
		return models.Report{}, apierr.NotFound("Report not found")
	case err != nil:
		return models.Report{}, serverErr(err, "submit report")
	}
	s.log.Info("report submitted", zap.String("report_id", id.Hex()), zap.String("user_id", actor.ID.Hex()))
	return out, nil
}

// DeleteReport removes a report and every section that belongs to it. The
// report goes first so that, without a transaction, a partial failure only
// leaves sections nothing points at. Section deletes are all attempted.
func (s *Service) DeleteReport(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Report, error) {
	r, err := s.loadReport(ctx, actor, id)
	if err != nil {
		return models.Report{}, err
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		n, err := s.reports.Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return mongo.ErrNoDocuments
		}
		var errs []error
		for _, del := range []func(context.Context, primitive.ObjectID) (int64, error){
			s.teaching.DeleteByReport,
			s.research.DeleteByReport,
			s.services.DeleteByReport,
		} {
			if _, err := del(ctx, id); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
	if err == mongo.ErrNoDocuments {
		return models.Report{}, apierr.NotFound("Report not found")
	}
	if err != nil {
		s.log.Error("report delete incomplete", zap.Error(err), zap.String("report_id", id.Hex()))
		return models.Report{}, serverErr(err, "delete report")
	}
	s.log.Info("report deleted", zap.String("report_id", id.Hex()), zap.String("user_id", actor.ID.Hex()))
	return r, nil
}
