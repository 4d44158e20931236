package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collaborator roles.
const (
	CollaboratorRoleViewer = "viewer"
	CollaboratorRoleEditor = "editor"
)

// Collaborator is a per-folder access grant for a non-owner account.
// At most one entry exists per user; the folder's owner is never listed.
type Collaborator struct {
	UserID primitive.ObjectID `bson:"user" json:"user_id"`
	Role   string             `bson:"role" json:"role"` // viewer or editor
}

// Folder is a node in the per-owner folder hierarchy.
type Folder struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID primitive.ObjectID `bson:"user" json:"owner_id"`

	Name     string              `bson:"name" json:"name"`
	NameCI   string              `bson:"name_ci" json:"-"`                             // folded for sorting/search
	ParentID *primitive.ObjectID `bson:"parent_folder,omitempty" json:"parent_folder"` // nil = root level

	// PasswordHash gates read access when set. Only its presence is ever
	// exposed to callers (hasPassword), never the hash itself.
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	Collaborators []Collaborator `bson:"collaborators" json:"collaborators"`

	IsDeleted bool       `bson:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsRoot returns true if the folder is at the root level.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// HasPassword returns true if the folder is password protected.
func (f *Folder) HasPassword() bool {
	return f.PasswordHash != nil && *f.PasswordHash != ""
}

// CollaboratorRole returns the role granted to userID, if any.
func (f *Folder) CollaboratorRole(userID primitive.ObjectID) (string, bool) {
	for _, c := range f.Collaborators {
		if c.UserID == userID {
			return c.Role, true
		}
	}
	return "", false
}
