// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the identity store.
//
// Accounts start unverified: a registration email carries
// VerificationToken, and the token is cleared once the address is
// confirmed. Password resets use a one-hour token the same way.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"` // unique, stored lowercase

	PasswordHash string `bson:"password_hash" json:"-"` // bcrypt hash (never in JSON)

	IsVerified        bool    `bson:"is_verified" json:"is_verified"`
	VerificationToken *string `bson:"verification_token,omitempty" json:"-"`

	ResetPasswordToken   *string    `bson:"reset_password_token,omitempty" json:"-"`
	ResetPasswordExpires *time.Time `bson:"reset_password_expires,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
