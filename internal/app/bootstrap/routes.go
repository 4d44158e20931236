// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authapifeature "github.com/mariam168/notakok/internal/app/features/authapi"
	contentapifeature "github.com/mariam168/notakok/internal/app/features/contentapi"
	dashboardapifeature "github.com/mariam168/notakok/internal/app/features/dashboardapi"
	healthfeature "github.com/mariam168/notakok/internal/app/features/health"
	mediaapifeature "github.com/mariam168/notakok/internal/app/features/mediaapi"
	shareapifeature "github.com/mariam168/notakok/internal/app/features/shareapi"
	folderstore "github.com/mariam168/notakok/internal/app/store/folders"
	mediastore "github.com/mariam168/notakok/internal/app/store/media"
	sharelinkstore "github.com/mariam168/notakok/internal/app/store/sharelinks"
	userstore "github.com/mariam168/notakok/internal/app/store/users"
	"github.com/mariam168/notakok/internal/app/system/access"
	"github.com/mariam168/notakok/internal/app/system/auth"
	"github.com/mariam168/notakok/internal/app/system/jsonutil"
	"github.com/mariam168/notakok/internal/app/system/proof"
	"github.com/mariam168/notakok/internal/app/system/share"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup
// and the Startup hook have completed. The API is a pure JSON surface
// authenticated with bearer tokens; there are no sessions, cookies, or
// CSRF concerns here. Uploaded files are never served statically: every
// byte goes through the media view/download handlers, which enforce the
// hierarchy's access rules.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"

	tokens, err := auth.NewManager(appCfg.JWTSecret, appCfg.JWTExpiry, secure, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	proofs := proof.NewIssuer(appCfg.ProofKey, appCfg.ProofExpiry)

	users := userstore.New(deps.MongoDatabase)
	folders := folderstore.New(deps.MongoDatabase)
	media := mediastore.New(deps.MongoDatabase)
	links := sharelinkstore.New(deps.MongoDatabase)

	accessEngine := access.New(folders, media, users, proofs, logger)
	shareEngine := share.New(links, folders, media, logger)

	r := chi.NewRouter()

	// Global middleware. The token middleware only loads the current
	// user into context; each feature decides whether to require one.
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(tokens.Middleware(users))

	// Health check endpoints for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Accounts: registration, verification, login, password reset.
	authHandler := authapifeature.NewHandler(users, tokens, deps.Mailer, appCfg.BaseURL, logger)
	r.Mount("/api/auth", authapifeature.Routes(authHandler))

	// Folder hierarchy: content listings, folder CRUD, collaborators.
	contentHandler := contentapifeature.NewHandler(accessEngine, logger)
	r.Mount("/api/content", contentapifeature.Routes(contentHandler))

	// Media: uploads, renames, favorites, trash, streaming. The static
	// mount takes precedence over the /api/content wildcard.
	mediaHandler := mediaapifeature.NewHandler(accessEngine, media, deps.FileStorage, logger)
	r.Mount("/api/content/media", mediaapifeature.Routes(mediaHandler))

	// Share links: minting and management plus anonymous resolution.
	shareHandler := shareapifeature.NewHandler(shareEngine, logger)
	r.Mount("/api/share", shareapifeature.Routes(shareHandler))

	// Dashboard stats.
	dashboardHandler := dashboardapifeature.NewHandler(folders, media, logger)
	r.Mount("/api/dashboard", dashboardapifeature.Routes(dashboardHandler))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.NotFound(w, "not found")
	})

	return r, nil
}
