// Package mediastore provides storage for uploaded media metadata.
package mediastore

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

// Store provides access to the media collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new media store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("media"),
	}
}

// CreateInput contains the input for one uploaded file's metadata.
type CreateInput struct {
	OwnerID     primitive.ObjectID
	Filename    string
	DisplayName string
	Path        string
	MimeType    string
	Size        int64
	FolderID    *primitive.ObjectID
}

// Create records a single uploaded file.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Media, error) {
	item := newMedia(input, time.Now())
	if _, err := s.c.InsertOne(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateMany records a batch of uploaded files in one insert.
func (s *Store) CreateMany(ctx context.Context, inputs []CreateInput) ([]models.Media, error) {
	now := time.Now()
	items := make([]models.Media, len(inputs))
	docs := make([]any, len(inputs))
	for i, input := range inputs {
		items[i] = newMedia(input, now)
		docs[i] = items[i]
	}

	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return items, nil
}

func newMedia(input CreateInput, now time.Time) models.Media {
	return models.Media{
		ID:            primitive.NewObjectID(),
		OwnerID:       input.OwnerID,
		Filename:      input.Filename,
		DisplayName:   input.DisplayName,
		DisplayNameCI: text.Fold(input.DisplayName),
		Path:          input.Path,
		MimeType:      input.MimeType,
		Type:          models.MediaTypeForMIME(input.MimeType),
		Size:          input.Size,
		FolderID:      input.FolderID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// GetByID retrieves a media item by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Media, error) {
	var item models.Media
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListOptions filters a media listing.
type ListOptions struct {
	Deleted       bool     // true lists trashed items
	Search        string   // case-insensitive substring match on display name
	Types         []string // restrict to these coarse types
	FavoritesOnly bool
}

// ListByFolder returns media owned by ownerID within a folder, sorted by
// folded display name. Pass nil for folderID to list root-level items.
func (s *Store) ListByFolder(ctx context.Context, ownerID primitive.ObjectID, folderID *primitive.ObjectID, opts ListOptions) ([]models.Media, error) {
	filter := bson.M{
		"user":       ownerID,
		"folder":     folderID,
		"is_deleted": opts.Deleted,
	}
	if opts.Search != "" {
		filter["display_name"] = primitive.Regex{Pattern: regexp.QuoteMeta(opts.Search), Options: "i"}
	}
	if len(opts.Types) == 1 {
		filter["type"] = opts.Types[0]
	} else if len(opts.Types) > 1 {
		filter["type"] = bson.M{"$in": opts.Types}
	}
	if opts.FavoritesOnly {
		filter["is_favorite"] = true
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "display_name_ci", Value: 1}})
	return s.find(ctx, filter, findOpts)
}

// ListInFolder returns all media directly inside a folder regardless of
// owner or trash state. Share-link resolution lists shallowly with this.
func (s *Store) ListInFolder(ctx context.Context, folderID primitive.ObjectID) ([]models.Media, error) {
	filter := bson.M{"folder": folderID}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "display_name_ci", Value: 1}}))
}

// UpdateInput contains the input for updating a media item.
type UpdateInput struct {
	DisplayName *string

	// SetFolder moves the item to FolderID (nil = root) when true.
	SetFolder bool
	FolderID  *primitive.ObjectID

	IsFavorite *bool
}

// Update updates a media item.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	if input.DisplayName != nil {
		set["display_name"] = *input.DisplayName
		set["display_name_ci"] = text.Fold(*input.DisplayName)
	}
	if input.SetFolder {
		if input.FolderID != nil {
			set["folder"] = *input.FolderID
		} else {
			unset["folder"] = ""
		}
	}
	if input.IsFavorite != nil {
		set["is_favorite"] = *input.IsFavorite
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// SetDeleted moves a media item in or out of the trash. Matching only
// items not already in the target state keeps deleted_at stable across
// repeated cascades.
func (s *Store) SetDeleted(ctx context.Context, id primitive.ObjectID, deleted bool) error {
	filter := bson.M{"_id": id, "is_deleted": bson.M{"$ne": deleted}}
	_, err := s.c.UpdateOne(ctx, filter, deletedUpdate(deleted))
	return err
}

// SetDeletedByFolder moves every media item directly inside a folder in
// or out of the trash. Used by folder cascades.
func (s *Store) SetDeletedByFolder(ctx context.Context, folderID primitive.ObjectID, deleted bool) (int64, error) {
	filter := bson.M{"folder": folderID, "is_deleted": bson.M{"$ne": deleted}}
	res, err := s.c.UpdateMany(ctx, filter, deletedUpdate(deleted))
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func deletedUpdate(deleted bool) bson.M {
	now := time.Now()
	if deleted {
		return bson.M{"$set": bson.M{
			"is_deleted": true,
			"deleted_at": now,
			"updated_at": now,
		}}
	}
	return bson.M{
		"$set":   bson.M{"is_deleted": false, "updated_at": now},
		"$unset": bson.M{"deleted_at": ""},
	}
}

// Delete permanently removes a media record.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Stats summarizes a user's live (non-deleted) media.
type Stats struct {
	TotalFiles   int64 `bson:"total_files" json:"totalFiles"`
	TotalStorage int64 `bson:"total_storage" json:"totalStorage"`
	Favorites    int64 `bson:"favorites" json:"favorites"`
}

// StatsByOwner aggregates file count, storage use and favorite count for
// one owner.
func (s *Store) StatsByOwner(ctx context.Context, ownerID primitive.ObjectID) (*Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": ownerID, "is_deleted": false}}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"total_files":   bson.M{"$sum": 1},
			"total_storage": bson.M{"$sum": "$size"},
			"favorites":     bson.M{"$sum": bson.M{"$cond": bson.A{"$is_favorite", 1, 0}}},
		}}},
	}

	cursor, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []Stats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Stats{}, nil
	}
	return &results[0], nil
}

// RecentByOwner returns the owner's most recently touched live media.
func (s *Store) RecentByOwner(ctx context.Context, ownerID primitive.ObjectID, limit int64) ([]models.Media, error) {
	filter := bson.M{"user": ownerID, "is_deleted": false}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(limit)
	return s.find(ctx, filter, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Media, error) {
	cursor, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.Media
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
