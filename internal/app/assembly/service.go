// Package assembly is the report service behind the REST handlers. It loads
// and stores a report together with its teaching, research and service
// sections, enforces owner-or-admin access, and turns store failures into
// apierr values.
package assembly

import (
	"context"
	"time"

	reportstore "github.com/dalemusser/yar/internal/app/store/reports"
	researchstore "github.com/dalemusser/yar/internal/app/store/research"
	servicestore "github.com/dalemusser/yar/internal/app/store/services"
	teachingstore "github.com/dalemusser/yar/internal/app/store/teaching"
	userstore "github.com/dalemusser/yar/internal/app/store/users"
	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/inputval"
	"github.com/dalemusser/yar/internal/app/system/txn"
	"github.com/dalemusser/yar/internal/domain/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ReportStore is the subset of reportstore.Store the service needs.
type ReportStore interface {
	Create(ctx context.Context, r models.Report) (models.Report, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Report, error)
	FindByOwnerYear(ctx context.Context, ownerID primitive.ObjectID, academicYear string) (models.Report, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Report, error)
	UpdateInfo(ctx context.Context, id primitive.ObjectID, academicYear, notes string) (models.Report, error)
	SetNotes(ctx context.Context, id primitive.ObjectID, notes string) (models.Report, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from string, upd reportstore.StatusUpdate) (models.Report, error)
	LinkSection(ctx context.Context, reportID primitive.ObjectID, field string, sectionID primitive.ObjectID) (bool, error)
	AddService(ctx context.Context, reportID, serviceID primitive.ObjectID) error
	PullService(ctx context.Context, reportID, serviceID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type TeachingStore interface {
	GetByReport(ctx context.Context, reportID primitive.ObjectID) (models.TeachingSection, error)
	Upsert(ctx context.Context, sec models.TeachingSection) (models.TeachingSection, bool, error)
	DeleteByReport(ctx context.Context, reportID primitive.ObjectID) (int64, error)
}

type ResearchStore interface {
	GetByReport(ctx context.Context, reportID primitive.ObjectID) (models.ResearchSection, error)
	Upsert(ctx context.Context, sec models.ResearchSection) (models.ResearchSection, bool, error)
	DeleteByReport(ctx context.Context, reportID primitive.ObjectID) (int64, error)
}

type ServiceStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.ServiceEntry, error)
	Create(ctx context.Context, e models.ServiceEntry) (models.ServiceEntry, error)
	Replace(ctx context.Context, id primitive.ObjectID, e models.ServiceEntry) (models.ServiceEntry, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.ServiceEntry, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	DeleteByReport(ctx context.Context, reportID primitive.ObjectID) (int64, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListFaculty(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error)
}

// Stores groups the persistence dependencies.
type Stores struct {
	Reports  ReportStore
	Teaching TeachingStore
	Research ResearchStore
	Services ServiceStore
	Users    UserStore
}

// TxFunc runs fn as one unit of work.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// fanOutLimit caps concurrent per-faculty report lookups.
const fanOutLimit = 8

type Service struct {
	reports  ReportStore
	teaching TeachingStore
	research ResearchStore
	services ServiceStore
	users    UserStore

	tx  TxFunc
	log *zap.Logger
	now func() time.Time
}

// New builds a Service over the given stores. A nil tx runs fn directly.
func New(st Stores, tx TxFunc, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		reports:  st.Reports,
		teaching: st.Teaching,
		research: st.Research,
		services: st.Services,
		users:    st.Users,
		tx:       tx,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewFromDB wires the Mongo stores and transactions.
func NewFromDB(db *mongo.Database, logger *zap.Logger) *Service {
	return New(Stores{
		Reports:  reportstore.New(db),
		Teaching: teachingstore.New(db),
		Research: researchstore.New(db),
		Services: servicestore.New(db),
		Users:    userstore.New(db),
	}, func(ctx context.Context, fn func(ctx context.Context) error) error {
		return txn.Run(ctx, db, logger, fn)
	}, logger)
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func validate(v any) error {
	if res := inputval.Validate(v); res.HasErrors() {
		return apierr.Invalid(res)
	}
	return nil
}

func serverErr(err error, op string) error {
	return apierr.Server(errors.Wrap(err, op))
}

// loadReport fetches a report the actor may access. Reports owned by
// someone else are reported as missing.
func (s *Service) loadReport(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Report, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return models.Report{}, apierr.NotFound("Report not found")
	}
	if err != nil {
		return models.Report{}, serverErr(err, "load report")
	}
	if !actor.CanAccess(r.OwnerID) {
		return models.Report{}, apierr.NotFound("Report not found")
	}
	return r, nil
}

func requireAdmin(actor authz.Actor) error {
	if !actor.IsAdmin() {
		return apierr.Forbidden("Admin access required")
	}
	return nil
}
