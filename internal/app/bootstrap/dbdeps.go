// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mariam168/notakok/internal/app/system/mailer"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to the subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. The
// Shutdown hook closes these connections when the application
// terminates.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage for uploaded media
	FileStorage storage.Store

	// Mailer for verification and password-reset email; nil when mail
	// is disabled.
	Mailer *mailer.Mailer
}
