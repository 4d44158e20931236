// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	sharelinkstore "github.com/mariam168/notakok/internal/app/store/sharelinks"
	userstore "github.com/mariam168/notakok/internal/app/store/users"
	"github.com/mariam168/notakok/internal/app/system/tasks"
)

// Startup runs once after DB connections and schema setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error aborts startup and prevents the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	startTaskRunner(deps.MongoDatabase, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful
// shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background housekeeping
// jobs: expired password-reset tokens and long-expired share links.
func startTaskRunner(db *mongo.Database, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.ResetTokenCleanupJob(userstore.New(db), logger))
	taskRunner.Register(tasks.ShareLinkCleanupJob(sharelinkstore.New(db), logger))

	taskRunner.Start()
}
