// internal/app/features/login/handler.go
package login

import (
	"time"

	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	userstore "github.com/dalemusser/yar/internal/app/store/users"
	"github.com/dalemusser/yar/internal/app/system/auditlog"
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/dalemusser/yar/internal/app/system/ratelimit"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves signup, login and the current-user lookup.
type Handler struct {
	Users    *userstore.Store
	Auth     *auth.Manager
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Limiter  *ratelimit.LoginLimiter

	EmailDomain string // signup email defaults to <net_id>@EmailDomain
	AdminEmail  string // an account registering with this email starts as admin
}

func NewHandler(
	db *mongo.Database,
	am *auth.Manager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	emailDomain string,
	adminEmail string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:       userstore.New(db),
		Auth:        am,
		Log:         logger,
		ErrLog:      errLog,
		AuditLog:    audit,
		Limiter:     limiter,
		EmailDomain: emailDomain,
		AdminEmail:  adminEmail,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request / response shapes                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type signupInput struct {
	NetID      string `json:"net_id" validate:"required,notblank,max=64"`
	FullName   string `json:"full_name" validate:"required,notblank,max=200"`
	Email      string `json:"email" validate:"omitempty,email,max=254"`
	Password   string `json:"password" validate:"required,min=8,max=128"`
	Department string `json:"department" validate:"max=200"`
}

type loginInput struct {
	NetID    string `json:"net_id" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

// session is returned by signup and login.
type session struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}
