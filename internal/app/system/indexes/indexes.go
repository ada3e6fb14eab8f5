// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	name   string
	models []mongo.IndexModel
}

func wanted() []collectionIndexes {
	return []collectionIndexes{
		{"users", []mongo.IndexModel{
			// NetID is the login name
			{
				Keys:    bson.D{{Key: "net_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_users_net_id"),
			},
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
			},
			// Faculty listing for admins: {role, is_active} filter, name sort
			{
				Keys: bson.D{
					{Key: "role", Value: 1},
					{Key: "is_active", Value: 1},
					{Key: "full_name_ci", Value: 1},
					{Key: "_id", Value: 1},
				},
				Options: options.Index().SetName("idx_users_role_active_fullnameci_id"),
			},
		}},
		{"reports", []mongo.IndexModel{
			// One report per faculty member per academic year
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "academic_year", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_reports_owner_year"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: -1}},
				Options: options.Index().SetName("idx_reports_status_updated"),
			},
		}},
		// At most one teaching and one research section per report.
		{"teaching", []mongo.IndexModel{{
			Keys:    bson.D{{Key: "report_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_teaching_report"),
		}}},
		{"research", []mongo.IndexModel{{
			Keys:    bson.D{{Key: "report_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_research_report"),
		}}},
		{"services", []mongo.IndexModel{{
			Keys:    bson.D{{Key: "report_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_services_report__id"),
		}}},
	}
}

/*
EnsureAll is called at startup. Every collection is reconciled even when an
earlier one fails; the problems are joined so startup can fail fast with
the full picture.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, c := range wanted() {
		if err := ensureIndexSet(ctx, db.Collection(c.name), c.models); err != nil {
			problems = append(problems, c.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func (e existingIndex) unique() bool { return e.Unique != nil && *e.Unique }

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) ([]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	var out []existingIndex
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ensureIndexSet makes coll carry each model, matching on the key pattern.
// An index with the same keys but another name or uniqueness is rebuilt.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	// A collection that does not exist yet lists no indexes.
	existing, _ := listIndexes(ctx, coll)

	var errs []string
	for _, m := range models {
		if err := ensureOne(ctx, coll, m, existing); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureOne(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, existing []existingIndex) error {
	var name string
	var unique bool
	if m.Options != nil {
		if m.Options.Name != nil {
			name = *m.Options.Name
		}
		unique = m.Options.Unique != nil && *m.Options.Unique
	}
	sig := keySig(m.Keys.(bson.D))
	log := zap.L().With(
		zap.String("collection", coll.Name()),
		zap.String("name", name),
		zap.String("keys", sig),
		zap.Bool("unique", unique))

	for _, ex := range existing {
		sameKeys := keySig(ex.Key) == sig
		if sameKeys && ex.unique() == unique && (name == "" || ex.Name == name) {
			log.Debug("index present")
			return nil
		}
		// Same keys with other options, or our name on other keys.
		if sameKeys || (name != "" && ex.Name == name) {
			log.Info("dropping index to rebuild", zap.String("existing", ex.Name))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				return fmt.Errorf("%s: drop %s: %w", name, ex.Name, err)
			}
		}
	}

	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if unique && wafflemongo.IsDup(err) {
			return fmt.Errorf("%s: cannot create unique index (duplicates present)%s", name, duplicateHint(coll.Name(), sig))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Info("index created")
	return nil
}

// duplicateHint suggests an aggregation that finds the documents blocking a
// unique index.
func duplicateHint(coll, sig string) string {
	var field string
	switch {
	case coll == "users" && strings.HasPrefix(sig, "email:1"):
		field = "email"
	case coll == "users" && strings.HasPrefix(sig, "net_id:1"):
		field = "net_id"
	case strings.HasPrefix(sig, "report_id:1"):
		field = "report_id"
	case coll == "reports":
		return "; find them with:\n" +
			`db.reports.aggregate([{ $group: { _id: { o: "$owner_id", y: "$academic_year" }, n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	default:
		return ""
	}
	return fmt.Sprintf("; find them with:\n"+
		`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`, coll, field)
}
