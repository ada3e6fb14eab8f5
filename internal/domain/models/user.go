// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold.
const (
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"

	// RoleDepartmentHead only exists in data written before roles were
	// consolidated. EnsureSchema rewrites it to RoleFaculty.
	RoleDepartmentHead = "department_head"
)

// UserSchemaVersion is bumped whenever stored user documents need a migration.
const UserSchemaVersion = 2

// User is the single identity record for faculty and administrators.
//
// NetID is the campus login name and is unique. Email is unique as well and
// defaults to <net_id>@<email_domain> at signup.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NetID        string             `bson:"net_id" json:"net_id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Department   string             `bson:"department,omitempty" json:"department,omitempty"`
	Role         string             `bson:"role" json:"role"` // faculty | admin
	IsActive     bool               `bson:"is_active" json:"is_active"`
	OrcidID      string             `bson:"orcid_id,omitempty" json:"orcid_id,omitempty"`

	SchemaVersion int       `bson:"schema_version" json:"-"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether role is one a user may be assigned today.
func ValidRole(role string) bool {
	return role == RoleFaculty || role == RoleAdmin
}
