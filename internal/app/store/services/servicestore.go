// internal/app/store/services/servicestore.go
package servicestore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("services")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ServiceEntry, error) {
	var e models.ServiceEntry
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.ServiceEntry{}, err
	}
	return e, nil
}

// Create inserts a service entry.
func (s *Store) Create(ctx context.Context, e models.ServiceEntry) (models.ServiceEntry, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.ServiceEntry{}, err
	}
	return e, nil
}

// Replace overwrites the entry's content. Both variants' fields are written
// so switching an entry between standard and committee clears the other
// variant's leftovers.
func (s *Store) Replace(ctx context.Context, id primitive.ObjectID, e models.ServiceEntry) (models.ServiceEntry, error) {
	set := bson.M{
		"type":           e.Type,
		"notes":          e.Notes,
		"role":           e.Role,
		"department":     e.Department,
		"description":    e.Description,
		"committee_name": e.CommitteeName,
		"degree_type":    e.DegreeType,
		"students":       e.Students,
		"updated_at":     time.Now().UTC(),
	}
	if e.Students == nil {
		set["students"] = []string{}
	}

	var out models.ServiceEntry
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return models.ServiceEntry{}, err
	}
	return out, nil
}

// ListByIDs resolves ids with one $in query and returns the entries in the
// order of ids. Ids with no document are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.ServiceEntry, error) {
	out := []models.ServiceEntry{}
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	byID := make(map[primitive.ObjectID]models.ServiceEntry, len(ids))
	for cur.Next(ctx) {
		var e models.ServiceEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		byID[e.ID] = e
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Delete removes one entry. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByReport removes every entry belonging to a report.
func (s *Store) DeleteByReport(ctx context.Context, reportID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"report_id": reportID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
