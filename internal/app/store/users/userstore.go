package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/yar/internal/app/system/normalize"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	// ErrDuplicateNetID is returned when the NetID is already registered.
	ErrDuplicateNetID = errors.New("a user with this NetID already exists")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "faculty"|"admin"`)
	errNoNetID        = errors.New("net_id is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByNetID looks up a user by NetID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByNetID(ctx context.Context, netID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"net_id": normalize.NetID(netID)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
// PasswordHash must already be hashed.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.NetID = normalize.NetID(u.NetID)
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Role == "" {
		u.Role = models.RoleFaculty
	}
	if u.NetID == "" {
		return models.User{}, errNoNetID
	}
	if !models.ValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	u.SchemaVersion = models.UserSchemaVersion

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, dupError(err)
		}
		return models.User{}, err
	}
	return u, nil
}

// dupError tells the two unique indexes apart by the index name the server
// reports in the error message.
func dupError(err error) error {
	if strings.Contains(err.Error(), "email") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateNetID
}

// SetRole changes a user's role and returns the updated document.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	role = normalize.Role(role)
	if !models.ValidRole(role) {
		return nil, errBadRole
	}
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetOrcid records the ORCID iD linked to the user.
func (s *Store) SetOrcid(ctx context.Context, id primitive.ObjectID, orcidID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"orcid_id": strings.TrimSpace(orcidID), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// PromoteByEmail gives the admin role to the user with this email. It
// returns false when no such user exists yet.
func (s *Store) PromoteByEmail(ctx context.Context, email string) (bool, error) {
	email = normalize.Email(email)
	if email == "" {
		return false, nil
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email, "role": bson.M{"$ne": models.RoleAdmin}},
		bson.M{"$set": bson.M{"role": models.RoleAdmin, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"email": email})
	return n > 0, err
}

// ListFaculty returns every active faculty member ordered by name.
func (s *Store) ListFaculty(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})
	cur, err := s.c.Find(ctx, bson.M{"role": models.RoleFaculty, "is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MigrateLegacyRoles rewrites department_head accounts to faculty and
// stamps the current schema version on older documents. It returns how many
// roles were rewritten.
func (s *Store) MigrateLegacyRoles(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{"role": models.RoleDepartmentHead},
		bson.M{"$set": bson.M{
			"role":           models.RoleFaculty,
			"schema_version": models.UserSchemaVersion,
			"updated_at":     now,
		}},
	)
	if err != nil {
		return 0, err
	}

	_, err = s.c.UpdateMany(ctx,
		bson.M{"$or": bson.A{
			bson.M{"schema_version": bson.M{"$exists": false}},
			bson.M{"schema_version": bson.M{"$lt": models.UserSchemaVersion}},
		}},
		bson.M{"$set": bson.M{"schema_version": models.UserSchemaVersion}},
	)
	if err != nil {
		return res.ModifiedCount, err
	}
	return res.ModifiedCount, nil
}
