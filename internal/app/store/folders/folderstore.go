// Package folderstore provides storage for the folder hierarchy.
package folderstore

import (
	"context"
	"regexp"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mariam168/notakok/internal/domain/models"
)

// Store provides access to the folders collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new folder store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("folders"),
	}
}

// CreateInput contains the input for creating a folder.
type CreateInput struct {
	Name         string
	OwnerID      primitive.ObjectID
	ParentID     *primitive.ObjectID
	PasswordHash *string
}

// Create creates a new folder.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Folder, error) {
	now := time.Now()
	folder := models.Folder{
		ID:            primitive.NewObjectID(),
		OwnerID:       input.OwnerID,
		Name:          input.Name,
		NameCI:        text.Fold(input.Name),
		ParentID:      input.ParentID,
		PasswordHash:  input.PasswordHash,
		Collaborators: []models.Collaborator{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := s.c.InsertOne(ctx, folder); err != nil {
		return nil, err
	}

	return &folder, nil
}

// GetByID retrieves a folder by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateInput contains the input for updating a folder. Nil pointers and
// false Set flags leave the corresponding field unchanged.
type UpdateInput struct {
	Name *string

	// SetParent moves the folder to ParentID (nil = root) when true.
	SetParent bool
	ParentID  *primitive.ObjectID

	// SetPassword replaces the password hash when true; a nil
	// PasswordHash removes protection.
	SetPassword  bool
	PasswordHash *string
}

// Update updates a folder.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	if input.Name != nil {
		set["name"] = *input.Name
		set["name_ci"] = text.Fold(*input.Name)
	}
	if input.SetParent {
		if input.ParentID != nil {
			set["parent_folder"] = *input.ParentID
		} else {
			unset["parent_folder"] = ""
		}
	}
	if input.SetPassword {
		if input.PasswordHash != nil {
			set["password_hash"] = *input.PasswordHash
		} else {
			unset["password_hash"] = ""
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// ListOptions filters a folder listing.
type ListOptions struct {
	Deleted bool   // true lists trashed folders
	Search  string // case-insensitive substring match on name
}

// ListByParent returns folders owned by ownerID within a parent folder,
// sorted by folded name. Pass nil for parentID to list root folders.
func (s *Store) ListByParent(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, opts ListOptions) ([]models.Folder, error) {
	filter := bson.M{
		"user":          ownerID,
		"parent_folder": parentID,
		"is_deleted":    opts.Deleted,
	}
	if opts.Search != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(opts.Search), Options: "i"}
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.find(ctx, filter, findOpts)
}

// ListRootsByOwner returns the owner's non-deleted root folders.
func (s *Store) ListRootsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Folder, error) {
	filter := bson.M{"user": ownerID, "parent_folder": nil, "is_deleted": false}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
}

// ListAllByOwner returns every non-deleted folder the owner has, for flat
// navigation listings.
func (s *Store) ListAllByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Folder, error) {
	filter := bson.M{"user": ownerID, "is_deleted": false}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
}

// ListSharedWith returns non-deleted folders where userID is a
// collaborator.
func (s *Store) ListSharedWith(ctx context.Context, userID primitive.ObjectID) ([]models.Folder, error) {
	filter := bson.M{"collaborators.user": userID, "is_deleted": false}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
}

// ListChildren returns all direct children of a folder regardless of
// trash state. Share-link resolution lists shallowly with this.
func (s *Store) ListChildren(ctx context.Context, folderID primitive.ObjectID) ([]models.Folder, error) {
	filter := bson.M{"parent_folder": folderID}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
}

// ChildIDs returns the ids of all direct children of a folder, in or out
// of the trash. Cascades use this to walk the subtree.
func (s *Store) ChildIDs(ctx context.Context, folderID primitive.ObjectID) ([]primitive.ObjectID, error) {
	proj := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.c.Find(ctx, bson.M{"parent_folder": folderID}, proj)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// SetDeleted moves a folder in or out of the trash. The filter matches
// only folders not already in the target state, so repeating a cascade
// does not touch deleted_at again.
func (s *Store) SetDeleted(ctx context.Context, id primitive.ObjectID, deleted bool) error {
	filter := bson.M{"_id": id, "is_deleted": bson.M{"$ne": deleted}}

	var update bson.M
	if deleted {
		update = bson.M{"$set": bson.M{
			"is_deleted": true,
			"deleted_at": time.Now(),
			"updated_at": time.Now(),
		}}
	} else {
		update = bson.M{
			"$set":   bson.M{"is_deleted": false, "updated_at": time.Now()},
			"$unset": bson.M{"deleted_at": ""},
		}
	}

	_, err := s.c.UpdateOne(ctx, filter, update)
	return err
}

// AddCollaborator atomically appends a collaborator unless the user is
// already one. Returns false if no change was made.
func (s *Store) AddCollaborator(ctx context.Context, folderID primitive.ObjectID, collab models.Collaborator) (bool, error) {
	filter := bson.M{
		"_id":                folderID,
		"collaborators.user": bson.M{"$ne": collab.UserID},
	}
	update := bson.M{
		"$push": bson.M{"collaborators": collab},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// RemoveCollaborator removes a collaborator entry. Returns false if the
// user was not a collaborator.
func (s *Store) RemoveCollaborator(ctx context.Context, folderID, userID primitive.ObjectID) (bool, error) {
	update := bson.M{
		"$pull": bson.M{"collaborators": bson.M{"user": userID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": folderID}, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// CountByOwner returns the number of non-deleted folders the owner has.
func (s *Store) CountByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user": ownerID, "is_deleted": false})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Folder, error) {
	cursor, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}
