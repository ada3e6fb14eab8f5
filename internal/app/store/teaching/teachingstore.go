// internal/app/store/teaching/teachingstore.go
package teachingstore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("teaching")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.TeachingSection, error) {
	var t models.TeachingSection
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.TeachingSection{}, err
	}
	return t, nil
}

// GetByReport returns mongo.ErrNoDocuments when the report has no teaching
// section yet.
func (s *Store) GetByReport(ctx context.Context, reportID primitive.ObjectID) (models.TeachingSection, error) {
	var t models.TeachingSection
	if err := s.c.FindOne(ctx, bson.M{"report_id": reportID}).Decode(&t); err != nil {
		return models.TeachingSection{}, err
	}
	return t, nil
}

// Upsert creates the report's teaching section or replaces its contents
// wholesale. Every course is stamped with the report id. created reports
// whether this call inserted the document.
//
// Two first writes for the same report can race: the unique report_id index
// fails the loser with a duplicate key, and the single retry then matches
// the winner's document and updates it.
func (s *Store) Upsert(ctx context.Context, sec models.TeachingSection) (models.TeachingSection, bool, error) {
	courses := make([]models.Course, len(sec.Courses))
	for i, c := range sec.Courses {
		c.ReportID = sec.ReportID
		courses[i] = c
	}

	now := time.Now().UTC()
	filter := bson.M{"report_id": sec.ReportID}
	update := bson.M{
		"$set": bson.M{
			"faculty_id":          sec.FacultyID,
			"courses":             courses,
			"taught_outside_dept": sec.TaughtOutsideDept,
			"section_notes":       sec.SectionNotes,
			"updated_at":          now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	res, err := s.c.UpdateOne(ctx, filter, update, opts)
	if err != nil && wafflemongo.IsDup(err) {
		res, err = s.c.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return models.TeachingSection{}, false, err
	}

	out, err := s.GetByReport(ctx, sec.ReportID)
	if err != nil {
		return models.TeachingSection{}, false, err
	}
	return out, res.UpsertedCount > 0, nil
}

// DeleteByReport removes the report's teaching section, if any.
func (s *Store) DeleteByReport(ctx context.Context, reportID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"report_id": reportID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
