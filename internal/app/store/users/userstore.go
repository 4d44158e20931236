// internal/app/store/users/userstore.go
// Package userstore provides storage for user accounts.
package userstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mariam168/notakok/internal/app/system/inputval"
	"github.com/mariam168/notakok/internal/app/system/timeouts"
	"github.com/mariam168/notakok/internal/domain/models"
)

// Store provides access to the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new user store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("users"),
	}
}

// CreateInput contains the input for creating a user.
type CreateInput struct {
	Username          string
	Email             string
	PasswordHash      string
	VerificationToken *string
}

// Create creates a new, unverified user account.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.User, error) {
	now := time.Now()
	user := models.User{
		ID:                primitive.NewObjectID(),
		Username:          input.Username,
		Email:             inputval.NormalizeEmail(input.Email),
		PasswordHash:      input.PasswordHash,
		IsVerified:        false,
		VerificationToken: input.VerificationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := s.c.InsertOne(ctx, user); err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDs retrieves multiple users by their IDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	filter := bson.M{"email": inputval.NormalizeEmail(email)}
	if err := s.c.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether an account with the given email exists.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"email": inputval.NormalizeEmail(email)})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByVerificationToken retrieves an unverified user by their email
// verification token.
func (s *Store) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	filter := bson.M{"verification_token": token}
	if err := s.c.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// MarkVerified marks the account verified and clears the token.
func (s *Store) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"is_verified": true, "updated_at": time.Now()},
		"$unset": bson.M{"verification_token": ""},
	})
	return err
}

// SetResetToken stores a password reset token with its expiry.
func (s *Store) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"reset_password_token":   token,
			"reset_password_expires": expires,
			"updated_at":             time.Now(),
		},
	})
	return err
}

// GetByValidResetToken retrieves a user whose reset token matches and has
// not yet expired.
func (s *Store) GetByValidResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	var user models.User
	filter := bson.M{
		"reset_password_token":   token,
		"reset_password_expires": bson.M{"$gt": now},
	}
	if err := s.c.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword replaces the password hash and clears any reset token.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": time.Now()},
		"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""},
	})
	return err
}

// ClearExpiredResetTokens removes reset tokens whose expiry has passed.
// Returns the number of accounts cleaned.
func (s *Store) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"reset_password_expires": bson.M{"$lt": now}},
		bson.M{"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// FetchUser implements auth.UserFetcher for the bearer-token middleware.
// It applies its own short timeout so a slow lookup cannot stall the
// request pipeline.
func (s *Store) FetchUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	return s.GetByID(ctx, id)
}
