package assembly

import (
	"context"
	"strings"

	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/htmlsanitize"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// cleanEntry trims the free-text fields and drops blank student names.
func cleanEntry(e models.ServiceEntry) models.ServiceEntry {
	e.Type = strings.TrimSpace(e.Type)
	e.Role = strings.TrimSpace(e.Role)
	e.Department = strings.TrimSpace(e.Department)
	e.CommitteeName = strings.TrimSpace(e.CommitteeName)
	e.DegreeType = strings.TrimSpace(e.DegreeType)
	e.Description = htmlsanitize.Notes(e.Description)
	e.Notes = htmlsanitize.Notes(e.Notes)

	var students []string
	for _, st := range e.Students {
		if st = strings.TrimSpace(st); st != "" {
			students = append(students, st)
		}
	}
	e.Students = students
	return e
}

// loadEntry fetches a service entry and checks access through its report.
func (s *Service) loadEntry(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.ServiceEntry, error) {
	e, err := s.services.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return models.ServiceEntry{}, apierr.NotFound("Service entry not found")
	}
	if err != nil {
		return models.ServiceEntry{}, serverErr(err, "load service entry")
	}
	if !actor.CanAccess(e.FacultyID) {
		return models.ServiceEntry{}, apierr.NotFound("Service entry not found")
	}
	return e, nil
}

// ListServices returns the report's service entries in creation order.
func (s *Service) ListServices(ctx context.Context, actor authz.Actor, reportID primitive.ObjectID) ([]models.ServiceEntry, error) {
	r, err := s.loadReport(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	list, err := s.services.ListByIDs(ctx, r.ServiceSectionIDs)
	if err != nil {
		return nil, serverErr(err, "list service entries")
	}
	if list == nil {
		list = []models.ServiceEntry{}
	}
	return list, nil
}

// CreateService appends one entry to the report. If the report cannot be
// updated the new entry is removed again.
func (s *Service) CreateService(ctx context.Context, actor authz.Actor, reportID primitive.ObjectID, in models.ServiceEntry) (models.ServiceEntry, error) {
	in = cleanEntry(in)
	if err := validate(in); err != nil {
		return models.ServiceEntry{}, err
	}
	r, err := s.loadReport(ctx, actor, reportID)
	if err != nil {
		return models.ServiceEntry{}, err
	}

	in.ID = primitive.NilObjectID
	in.ReportID = r.ID
	in.FacultyID = r.OwnerID
	e, err := s.services.Create(ctx, in)
	if err != nil {
		return models.ServiceEntry{}, serverErr(err, "create service entry")
	}

	if err := s.reports.AddService(ctx, r.ID, e.ID); err != nil {
		if _, derr := s.services.Delete(ctx, e.ID); derr != nil {
			s.log.Error("orphaned service entry", zap.Error(derr),
				zap.String("report_id", r.ID.Hex()), zap.String("service_id", e.ID.Hex()))
		}
		if err == mongo.ErrNoDocuments {
			return models.ServiceEntry{}, apierr.NotFound("Report not found")
		}
		return models.ServiceEntry{}, serverErr(err, "link service entry")
	}
	return e, nil
}

// UpdateService replaces the fields of one entry. The entry keeps its
// report and owner.
func (s *Service) UpdateService(ctx context.Context, actor authz.Actor, id primitive.ObjectID, in models.ServiceEntry) (models.ServiceEntry, error) {
	in = cleanEntry(in)
	if err := validate(in); err != nil {
		return models.ServiceEntry{}, err
	}
	cur, err := s.loadEntry(ctx, actor, id)
	if err != nil {
		return models.ServiceEntry{}, err
	}

	in.ID = cur.ID
	in.ReportID = cur.ReportID
	in.FacultyID = cur.FacultyID
	out, err := s.services.Replace(ctx, id, in)
	if err == mongo.ErrNoDocuments {
		return models.ServiceEntry{}, apierr.NotFound("Service entry not found")
	}
	if err != nil {
		return models.ServiceEntry{}, serverErr(err, "update service entry")
	}
	return out, nil
}

// DeleteService removes one entry. The report's reference is dropped first
// so a failed delete leaves only an unreferenced document behind.
func (s *Service) DeleteService(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	cur, err := s.loadEntry(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.reports.PullService(ctx, cur.ReportID, id); err != nil {
		return serverErr(err, "unlink service entry")
	}
	n, err := s.services.Delete(ctx, id)
	if err != nil {
		s.log.Error("orphaned service entry", zap.Error(err),
			zap.String("report_id", cur.ReportID.Hex()), zap.String("service_id", id.Hex()))
		return serverErr(err, "delete service entry")
	}
	if n == 0 {
		return apierr.NotFound("Service entry not found")
	}
	return nil
}
