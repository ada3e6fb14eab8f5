// internal/app/features/authorcid/handler.go
package authorcid

import (
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	"github.com/dalemusser/yar/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/yar/internal/app/store/users"
	"github.com/dalemusser/yar/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// stateTTL bounds how long a user has to finish the ORCID consent screen.
const stateTTL = 10 * time.Minute

// ORCID authorization servers.
var (
	ProductionEndpoint = oauth2.Endpoint{
		AuthURL:   "https://orcid.org/oauth/authorize",
		TokenURL:  "https://orcid.org/oauth/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	SandboxEndpoint = oauth2.Endpoint{
		AuthURL:   "https://sandbox.orcid.org/oauth/authorize",
		TokenURL:  "https://sandbox.orcid.org/oauth/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
)

// Handler links a signed-in user's account to their ORCID iD.
type Handler struct {
	Users      *userstore.Store
	StateStore *oauthstate.Store
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://yar.example.edu/auth/orcid/callback"
	Endpoint     oauth2.Endpoint

	FrontendURL string // where the browser lands after the callback
}

func NewHandler(
	db *mongo.Database,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL, frontendURL string,
	sandbox bool,
	logger *zap.Logger,
) *Handler {
	endpoint := ProductionEndpoint
	if sandbox {
		endpoint = SandboxEndpoint
	}
	return &Handler{
		Users:        userstore.New(db),
		StateStore:   oauthstate.New(db),
		Log:          logger,
		ErrLog:       errLog,
		AuditLog:     audit,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/orcid/callback",
		Endpoint:     endpoint,
		FrontendURL:  strings.TrimRight(frontendURL, "/"),
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"/authenticate"},
		Endpoint:     h.Endpoint,
	}
}

// IsConfigured returns true if ORCID credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// localPath accepts only same-site paths so the callback cannot be used as
// an open redirect.
func localPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return "/"
	}
	return p
}

// frontendRedirect builds the browser destination with an orcid=<outcome>
// query parameter.
func (h *Handler) frontendRedirect(path, outcome string) string {
	u, err := url.Parse(h.FrontendURL + localPath(path))
	if err != nil {
		return h.FrontendURL + "/?orcid=" + url.QueryEscape(outcome)
	}
	q := u.Query()
	q.Set("orcid", outcome)
	u.RawQuery = q.Encode()
	return u.String()
}
