package assembly

import (
	"context"
	"errors"

	reportstore "github.com/dalemusser/yar/internal/app/store/reports"
	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/htmlsanitize"
	"github.com/dalemusser/yar/internal/app/system/normalize"
	"github.com/dalemusser/yar/internal/domain/lifecycle"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FacultyWithReports is one row of the admin faculty list. ReportsUnavailable
// is set when that member's reports could not be loaded.
type FacultyWithReports struct {
	models.User
	Reports            []models.Report `json:"reports"`
	ReportsUnavailable bool            `json:"reports_unavailable,omitempty"`
}

// FacultyReport is the admin view of one report.
type FacultyReport struct {
	Faculty      models.User             `json:"faculty"`
	Report       models.Report           `json:"report"`
	TeachingData *models.TeachingSection `json:"teaching_data"`
	ResearchData *models.ResearchSection `json:"research_data"`
	ServiceData  []models.ServiceEntry   `json:"service_data"`
	Completion   lifecycle.Completion    `json:"completion"`
}

// StatusChange is the result of an admin status update.
type StatusChange struct {
	Report models.Report
	From   string
}

// RoleChange is the result of an admin role update.
type RoleChange struct {
	User models.User
	From string
}

// StatusInput is the body of PUT /admin/report/{id}/status.
type StatusInput struct {
	Status  string `json:"status" validate:"required,report_status"`
	Comment string `json:"comment" validate:"max=5000"`
}

// RoleInput is the body of PUT /admin/users/{id}/role.
type RoleInput struct {
	Role string `json:"role" validate:"required,user_role"`
}

func (s *Service) loadFaculty(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return models.User{}, apierr.NotFound("Faculty member not found")
	}
	if err != nil {
		return models.User{}, serverErr(err, "load faculty member")
	}
	return *u, nil
}

// ListFacultyWithReports lists active faculty with their reports. Reports
// are loaded concurrently; a member whose lookup fails is still listed,
// with no reports.
func (s *Service) ListFacultyWithReports(ctx context.Context, actor authz.Actor) ([]FacultyWithReports, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	faculty, err := s.users.ListFaculty(ctx)
	if err != nil {
		return nil, serverErr(err, "list faculty")
	}

	out := make([]FacultyWithReports, len(faculty))
	var g errgroup.Group
	g.SetLimit(fanOutLimit)
	for i, u := range faculty {
		out[i] = FacultyWithReports{User: u, Reports: []models.Report{}}
		g.Go(func() error {
			list, err := s.reports.ListByOwner(ctx, u.ID)
			if err != nil {
				s.log.Warn("faculty reports unavailable", zap.Error(err), zap.String("user_id", u.ID.Hex()))
				out[i].ReportsUnavailable = true
				return nil
			}
			if list != nil {
				out[i].Reports = list
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// ListReportsForFaculty lists one member's reports.
func (s *Service) ListReportsForFaculty(ctx context.Context, actor authz.Actor, facultyID primitive.ObjectID) ([]models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.loadFaculty(ctx, facultyID); err != nil {
		return nil, err
	}
	list, err := s.reports.ListByOwner(ctx, facultyID)
	if err != nil {
		return nil, serverErr(err, "list reports")
	}
	if list == nil {
		list = []models.Report{}
	}
	return list, nil
}

// GetFacultyReport returns a report together with its owner. A report that
// belongs to someone else is reported as missing.
func (s *Service) GetFacultyReport(ctx context.Context, actor authz.Actor, facultyID, reportID primitive.ObjectID) (FacultyReport, error) {
	if err := requireAdmin(actor); err != nil {
		return FacultyReport{}, err
	}
	u, err := s.loadFaculty(ctx, facultyID)
	if err != nil {
		return FacultyReport{}, err
	}
	r, err := s.loadReport(ctx, actor, reportID)
	if err != nil {
		return FacultyReport{}, err
	}
	if r.OwnerID != facultyID {
		return FacultyReport{}, apierr.NotFound("Report not found")
	}
	h, err := s.hydrate(ctx, r)
	if err != nil {
		return FacultyReport{}, err
	}
	return FacultyReport{
		Faculty:      u,
		Report:       h.Report,
		TeachingData: h.Teaching,
		ResearchData: h.Research,
		ServiceData:  h.Services,
		Completion:   h.Completion,
	}, nil
}

// SetStatus applies an administrative status change with an optional
// review comment.
func (s *Service) SetStatus(ctx context.Context, actor authz.Actor, reportID primitive.ObjectID, in StatusInput) (StatusChange, error) {
	if err := requireAdmin(actor); err != nil {
		return StatusChange{}, err
	}
	in.Status = normalize.Status(in.Status)
	if err := validate(in); err != nil {
		return StatusChange{}, err
	}
	r, err := s.loadReport(ctx, actor, reportID)
	if err != nil {
		return StatusChange{}, err
	}

	from := r.Status
	before := len(r.AdminComments)
	admin := lifecycle.Admin{ID: actor.ID, Name: actor.Name}
	if err := lifecycle.AdminSetStatus(&r, in.Status, htmlsanitize.Notes(in.Comment), admin, s.now()); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidStatus) {
			return StatusChange{}, apierr.Validation(err.Error())
		}
		return StatusChange{}, serverErr(err, "set status")
	}

	upd := reportstore.StatusUpdate{
		Status:        r.Status,
		SubmittedDate: r.SubmittedDate,
		ReviewedDate:  r.ReviewedDate,
		ApprovedDate:  r.ApprovedDate,
	}
	if len(r.AdminComments) > before {
		c := r.AdminComments[len(r.AdminComments)-1]
		upd.Comment = &c
	}

	out, err := s.reports.UpdateStatus(ctx, reportID, from, upd)
	switch {
	case errors.Is(err, reportstore.ErrStatusChanged):
		return StatusChange{}, apierr.Conflict("Report status changed; reload and try again", "")
	case err == mongo.ErrNoDocuments:
		return StatusChange{}, apierr.NotFound("Report not found")
	case err != nil:
		return StatusChange{}, serverErr(err, "set status")
	}
	s.log.Info("report status changed", zap.String("report_id", reportID.Hex()),
		zap.String("from", from), zap.String("status", out.Status), zap.String("user_id", actor.ID.Hex()))
	return StatusChange{Report: out, From: from}, nil
}

// SetUserRole changes another user's role.
func (s *Service) SetUserRole(ctx context.Context, actor authz.Actor, userID primitive.ObjectID, in RoleInput) (RoleChange, error) {
	if err := requireAdmin(actor); err != nil {
		return RoleChange{}, err
	}
	in.Role = normalize.Role(in.Role)
	if err := validate(in); err != nil {
		return RoleChange{}, err
	}
	if userID == actor.ID {
		return RoleChange{}, apierr.Validation("You cannot change your own role")
	}
	cur, err := s.users.GetByID(ctx, userID)
	if err == mongo.ErrNoDocuments {
		return RoleChange{}, apierr.NotFound("User not found")
	}
	if err != nil {
		return RoleChange{}, serverErr(err, "load user")
	}
	u, err := s.users.SetRole(ctx, userID, in.Role)
	if err == mongo.ErrNoDocuments {
		return RoleChange{}, apierr.NotFound("User not found")
	}
	if err != nil {
		return RoleChange{}, serverErr(err, "set role")
	}
	return RoleChange{User: *u, From: cur.Role}, nil
}
