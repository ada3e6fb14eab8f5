// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	adminfeature "github.com/dalemusser/yar/internal/app/features/admin"
	orcidfeature "github.com/dalemusser/yar/internal/app/features/authorcid"
	errorsfeature "github.com/dalemusser/yar/internal/app/features/errors"
	healthfeature "github.com/dalemusser/yar/internal/app/features/health"
	loginfeature "github.com/dalemusser/yar/internal/app/features/login"
	reportsfeature "github.com/dalemusser/yar/internal/app/features/reports"
	researchfeature "github.com/dalemusser/yar/internal/app/features/research"
	servicefeature "github.com/dalemusser/yar/internal/app/features/service"
	teachingfeature "github.com/dalemusser/yar/internal/app/features/teaching"
	"github.com/dalemusser/yar/internal/app/store/audit"
	userstore "github.com/dalemusser/yar/internal/app/store/users"
	"github.com/dalemusser/yar/internal/app/system/auditlog"
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/dalemusser/yar/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// YAR builds the token manager, applies CORS and bearer-token middleware,
// and mounts the JSON feature routers: auth, reports, teaching, research,
// service, admin and health.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	am, err := auth.NewManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadUser re-reads the user on each request so role changes and
	// deactivations take effect immediately.
	am.SetUserFetcher(userstore.NewFetcher(db))

	showDetails := coreCfg.Env != "prod"
	errLog := errorsfeature.NewErrorLogger(logger).WithDetails(showDetails)
	auditLogger := auditlog.New(audit.New(db), logger, auditConfig(appCfg))

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global auth middleware: loads the bearer token's user into context.
	// Handlers read it via auth.CurrentUser(r) / authz.RequireActor(r).
	r.Use(am.LoadUser)

	errorsHandler := errorsfeature.NewHandler(errLog)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, showDetails, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication and ORCID linking
	limiter := ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	loginHandler := loginfeature.NewHandler(db, am, errLog, auditLogger, limiter,
		appCfg.EmailDomain, appCfg.AdminEmail, logger)
	authRouter := loginfeature.Routes(loginHandler, am)

	orcidHandler := orcidfeature.NewHandler(db, errLog, auditLogger,
		appCfg.OrcidClientID, appCfg.OrcidClientSecret, appCfg.BaseURL, appCfg.FrontendURL,
		appCfg.OrcidSandbox, logger)
	authRouter.Mount("/orcid", orcidfeature.Routes(orcidHandler, am))
	r.Mount("/auth", authRouter)

	// Reports and their sections
	reportsHandler := reportsfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/reports", reportsfeature.Routes(reportsHandler, am))

	teachingHandler := teachingfeature.NewHandler(db, errLog, logger)
	r.Mount("/teaching", teachingfeature.Routes(teachingHandler, am))

	researchHandler := researchfeature.NewHandler(db, errLog, logger)
	r.Mount("/research", researchfeature.Routes(researchHandler, am))

	serviceHandler := servicefeature.NewHandler(db, errLog, logger)
	r.Mount("/service", servicefeature.Routes(serviceHandler, am))

	// Administration
	adminHandler := adminfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, am))

	return r, nil
}
