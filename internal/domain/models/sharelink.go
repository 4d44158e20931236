package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Share link item types.
const (
	ShareItemFolder = "folder"
	ShareItemMedia  = "media"
)

// ShareLink grants anonymous access to a single folder or media item via
// an opaque access key, optionally gated by a password and an expiry.
// Expiry is evaluated lazily at resolve time; expired links are never
// served but their records linger until housekeeping removes them.
type ShareLink struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ItemID   primitive.ObjectID `bson:"item_id" json:"item_id"`
	ItemType string             `bson:"item_type" json:"item_type"` // folder or media
	OwnerID  primitive.ObjectID `bson:"owner" json:"owner_id"`

	AccessKey    string     `bson:"access_key" json:"access_key"`
	PasswordHash *string    `bson:"password_hash,omitempty" json:"-"`
	ExpiresAt    *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Expired reports whether the link is past its expiry at the given time.
func (l *ShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// HasPassword returns true if the link is password protected.
func (l *ShareLink) HasPassword() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}
