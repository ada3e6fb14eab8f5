// internal/app/store/reports/reportstore.go
package reportstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Section reference fields on a report.
const (
	FieldTeaching = "teaching_section_id"
	FieldResearch = "research_section_id"
)

var (
	// ErrDuplicate is returned when the owner already has a report for the year.
	ErrDuplicate = errors.New("a report for this academic year already exists")
	// ErrStatusChanged is returned when a status update lost a race with
	// another writer.
	ErrStatusChanged = errors.New("report status changed concurrently")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reports")}
}

// Create inserts a new draft report. The (owner_id, academic_year) unique
// index turns a concurrent duplicate into ErrDuplicate.
func (s *Store) Create(ctx context.Context, r models.Report) (models.Report, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	if r.Status == "" {
		r.Status = models.StatusDraft
	}
	if r.ServiceSectionIDs == nil {
		r.ServiceSectionIDs = []primitive.ObjectID{}
	}
	if r.AdminComments == nil {
		r.AdminComments = []models.AdminComment{}
	}
	r.SchemaVersion = models.ReportSchemaVersion
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Report{}, ErrDuplicate
		}
		return models.Report{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Report, error) {
	var r models.Report
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Report{}, err
	}
	return r, nil
}

// FindByOwnerYear returns mongo.ErrNoDocuments when the owner has no report
// for the year.
func (s *Store) FindByOwnerYear(ctx context.Context, ownerID primitive.ObjectID, academicYear string) (models.Report, error) {
	var r models.Report
	err := s.c.FindOne(ctx, bson.M{"owner_id": ownerID, "academic_year": academicYear}).Decode(&r)
	if err != nil {
		return models.Report{}, err
	}
	return r, nil
}

// ListByOwner returns the owner's reports, newest academic year first.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "academic_year", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Report{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) findAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Report, error) {
	set["updated_at"] = time.Now().UTC()
	var r models.Report
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Report{}, ErrDuplicate
		}
		return models.Report{}, err
	}
	return r, nil
}

// UpdateInfo sets the academic year and notes.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, academicYear, notes string) (models.Report, error) {
	return s.findAndSet(ctx, id, bson.M{"academic_year": academicYear, "notes": notes})
}

// SetNotes replaces the report's general notes.
func (s *Store) SetNotes(ctx context.Context, id primitive.ObjectID, notes string) (models.Report, error) {
	return s.findAndSet(ctx, id, bson.M{"notes": notes})
}

// StatusUpdate is the persisted result of a lifecycle transition.
type StatusUpdate struct {
	Status        string
	SubmittedDate *time.Time
	ReviewedDate  *time.Time
	ApprovedDate  *time.Time
	Comment       *models.AdminComment
}

// UpdateStatus writes a transition computed from a report read with status
// from. If the stored status is no longer from the write is skipped and
// ErrStatusChanged returned; a missing report yields mongo.ErrNoDocuments.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, from string, upd StatusUpdate) (models.Report, error) {
	update := bson.M{
		"$set": bson.M{
			"status":         upd.Status,
			"submitted_date": upd.SubmittedDate,
			"reviewed_date":  upd.ReviewedDate,
			"approved_date":  upd.ApprovedDate,
			"updated_at":     time.Now().UTC(),
		},
	}
	if upd.Comment != nil {
		update["$push"] = bson.M{"admin_comments": upd.Comment}
	}

	var r models.Report
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err == nil {
		return r, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.Report{}, err
	}
	n, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return models.Report{}, cerr
	}
	if n == 0 {
		return models.Report{}, mongo.ErrNoDocuments
	}
	return models.Report{}, ErrStatusChanged
}

// LinkSection records sectionID in field only while field is still null, so
// two racing first writes cannot overwrite each other's link. linked is
// false when a link was already present; updated_at is refreshed either way.
func (s *Store) LinkSection(ctx context.Context, reportID primitive.ObjectID, field string, sectionID primitive.ObjectID) (linked bool, err error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": reportID, field: nil},
		bson.M{"$set": bson.M{field: sectionID, "updated_at": now}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	return false, s.Touch(ctx, reportID)
}

// AddService appends a service entry id, ignoring repeats.
func (s *Store) AddService(ctx context.Context, reportID, serviceID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": reportID},
		bson.M{
			"$addToSet": bson.M{"service_section_ids": serviceID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// PullService removes a service entry id.
func (s *Store) PullService(ctx context.Context, reportID, serviceID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": reportID},
		bson.M{
			"$pull": bson.M{"service_section_ids": serviceID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

// Touch refreshes updated_at.
func (s *Store) Touch(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a report by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
