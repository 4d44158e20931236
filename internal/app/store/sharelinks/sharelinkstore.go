// Package sharelinkstore provides storage for share links.
package sharelinkstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mariam168/notakok/internal/domain/models"
)

// Store provides access to the share_links collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new share link store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("share_links"),
	}
}

// CreateInput contains the input for creating a share link.
type CreateInput struct {
	ItemID       primitive.ObjectID
	ItemType     string
	OwnerID      primitive.ObjectID
	PasswordHash *string
	ExpiresAt    *time.Time
}

// Create creates a share link with a fresh random access key.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.ShareLink, error) {
	key, err := GenerateAccessKey()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	link := models.ShareLink{
		ID:           primitive.NewObjectID(),
		ItemID:       input.ItemID,
		ItemType:     input.ItemType,
		OwnerID:      input.OwnerID,
		AccessKey:    key,
		PasswordHash: input.PasswordHash,
		ExpiresAt:    input.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, link); err != nil {
		return nil, err
	}

	return &link, nil
}

// GetByAccessKey retrieves a share link by its access key. Expiry is not
// checked here; callers evaluate it at resolve time.
func (s *Store) GetByAccessKey(ctx context.Context, accessKey string) (*models.ShareLink, error) {
	var link models.ShareLink
	if err := s.c.FindOne(ctx, bson.M{"access_key": accessKey}).Decode(&link); err != nil {
		return nil, err
	}
	return &link, nil
}

// ListByOwner returns the share links a user has created.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.ShareLink, error) {
	cursor, err := s.c.Find(ctx, bson.M{"owner": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var links []models.ShareLink
	if err := cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// Delete removes a share link by id, scoped to its owner.
func (s *Store) Delete(ctx context.Context, id, ownerID primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner": ownerID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// PurgeExpiredBefore removes links whose expiry is older than the cutoff.
// Housekeeping calls this with a grace window so recently expired links
// remain inspectable for a while.
func (s *Store) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// GenerateAccessKey returns a 16-character hex capability key.
func GenerateAccessKey() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
