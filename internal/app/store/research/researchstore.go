// internal/app/store/research/researchstore.go
package researchstore

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
	return &Store{c: db.Collection("research")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ResearchSection, error) {
	var r models.ResearchSection
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.ResearchSection{}, err
	}
	return r, nil
}

// GetByReport returns mongo.ErrNoDocuments when the report has no research
// section yet.
func (s *Store) GetByReport(ctx context.Context, reportID primitive.ObjectID) (models.ResearchSection, error) {
	var r models.ResearchSection
	if err := s.c.FindOne(ctx, bson.M{"report_id": reportID}).Decode(&r); err != nil {
		return models.ResearchSection{}, err
	}
	return r, nil
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Upsert creates the report's research section or replaces publications,
// grants and conferences together. A duplicate key from a racing first write
// is retried once, as in the teaching store.
func (s *Store) Upsert(ctx context.Context, sec models.ResearchSection) (models.ResearchSection, bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"report_id": sec.ReportID}
	update := bson.M{
		"$set": bson.M{
			"faculty_id":   sec.FacultyID,
			"publications": orEmpty(sec.Publications),
			"grants":       orEmpty(sec.Grants),
			"conferences":  orEmpty(sec.Conferences),
			"updated_at":   now,
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
		return models.ResearchSection{}, false, err
	}

	out, err := s.GetByReport(ctx, sec.ReportID)
	if err != nil {
		return models.ResearchSection{}, false, err
	}
	return out, res.UpsertedCount > 0, nil
}

// DeleteByReport removes the report's research section, if any.
func (s *Store) DeleteByReport(ctx context.Context, reportID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"report_id": reportID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
