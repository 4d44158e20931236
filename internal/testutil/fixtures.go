package testutil

import (
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	userstore "github.com/mariam168/notakok/internal/app/store/users"
	"github.com/mariam168/notakok/internal/app/system/authutil"
	"github.com/mariam168/notakok/internal/domain/models"
)

// CreateUser inserts a verified account for tests. The password for
// every fixture account is "testpass123".
func CreateUser(t *testing.T, db *mongo.Database, username, email string) *models.User {
	t.Helper()

	ctx, cancel := TestContext()
	defer cancel()

	hash, err := authutil.HashPassword("testpass123")
	if err != nil {
		t.Fatalf("hashing fixture password: %v", err)
	}

	store := userstore.New(db)
	user, err := store.Create(ctx, userstore.CreateInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("creating fixture user %s: %v", email, err)
	}

	if err := store.MarkVerified(ctx, user.ID); err != nil {
		t.Fatalf("verifying fixture user %s: %v", email, err)
	}
	user.IsVerified = true
	return user
}
