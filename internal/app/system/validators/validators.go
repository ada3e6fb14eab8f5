// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/yar/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("reports", reportsSchema())

	// Section collections
	ensure("teaching", teachingSchema())
	ensure("research", researchSchema())
	ensure("services", servicesSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("audit_events", nil)
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enum(values []string) bson.A {
	out := bson.A{}
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"net_id", "email", "role", "is_active"},
			"properties": bson.M{
				"net_id":       nonBlank,
				"email":        nonBlank,
				"full_name":    bson.M{"bsonType": "string"},
				"full_name_ci": bson.M{"bsonType": "string"},
				"role":         bson.M{"enum": bson.A{models.RoleFaculty, models.RoleAdmin}},
				"is_active":    bson.M{"bsonType": "bool"},
				"orcid_id":     bson.M{"bsonType": "string"},
			},
		},
	}
}

func reportsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"owner_id", "academic_year", "status", "created_at"},
			"properties": bson.M{
				"owner_id":            bson.M{"bsonType": "objectId"},
				"academic_year":       bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-[0-9]{4}$"},
				"status":              bson.M{"enum": enum(models.AllStatuses)},
				"submitted_date":      bson.M{"bsonType": bson.A{"date", "null"}},
				"reviewed_date":       bson.M{"bsonType": bson.A{"date", "null"}},
				"approved_date":       bson.M{"bsonType": bson.A{"date", "null"}},
				"teaching_section_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
				"research_section_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
				"service_section_ids": bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"bsonType": "objectId"}},
				"notes":               bson.M{"bsonType": "string"},
				"admin_comments": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"admin_id", "date", "status"},
						"properties": bson.M{
							"admin_id": bson.M{"bsonType": "objectId"},
							"date":     bson.M{"bsonType": "date"},
							"status":   bson.M{"enum": enum(models.AllStatuses)},
						},
					},
				},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func teachingSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"report_id", "faculty_id", "courses"},
			"properties": bson.M{
				"report_id":  bson.M{"bsonType": "objectId"},
				"faculty_id": bson.M{"bsonType": "objectId"},
				"courses": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"name", "report_id"},
						"properties": bson.M{
							"name":       nonBlank,
							"credits":    bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
							"enrollment": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
							"quarter":    bson.M{"enum": enum(models.Quarters)},
							"report_id":  bson.M{"bsonType": "objectId"},
						},
					},
				},
				"taught_outside_dept": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func researchSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"report_id", "faculty_id"},
			"properties": bson.M{
				"report_id":  bson.M{"bsonType": "objectId"},
				"faculty_id": bson.M{"bsonType": "objectId"},
				"publications": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"publication_type", "title", "journal_name"},
						"properties": bson.M{
							"publication_type": bson.M{"enum": enum(models.PublicationTypes)},
							"title":            nonBlank,
							"journal_name":     nonBlank,
						},
					},
				},
				"grants": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"type"},
						"properties": bson.M{
							"type": bson.M{"enum": enum(models.GrantTypes)},
						},
					},
				},
				"conferences": bson.M{"bsonType": bson.A{"array", "null"}},
			},
		},
	}
}

func servicesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"report_id", "faculty_id", "type"},
			"properties": bson.M{
				"report_id":   bson.M{"bsonType": "objectId"},
				"faculty_id":  bson.M{"bsonType": "objectId"},
				"type":        nonBlank,
				"degree_type": bson.M{"enum": enum(models.DegreeTypes)},
				"students":    bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}
