// Package share implements anonymous share links: owners mint a link
// for one folder or media item, optionally gated by a password and an
// expiry, and anyone holding the access key can resolve it without an
// account.
package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	folderstore "github.com/mariam168/notakok/internal/app/store/folders"
	mediastore "github.com/mariam168/notakok/internal/app/store/media"
	sharelinkstore "github.com/mariam168/notakok/internal/app/store/sharelinks"
	"github.com/mariam168/notakok/internal/app/system/access"
	"github.com/mariam168/notakok/internal/app/system/authutil"
	"github.com/mariam168/notakok/internal/domain/models"
)

// Engine mints and resolves share links.
type Engine struct {
	links   *sharelinkstore.Store
	folders *folderstore.Store
	media   *mediastore.Store
	logger  *zap.Logger
}

// New creates an Engine.
func New(links *sharelinkstore.Store, folders *folderstore.Store, media *mediastore.Store, logger *zap.Logger) *Engine {
	return &Engine{
		links:   links,
		folders: folders,
		media:   media,
		logger:  logger,
	}
}

// CreateInput is the input for Create.
type CreateInput struct {
	ItemID    primitive.ObjectID
	ItemType  string
	OwnerID   primitive.ObjectID
	Password  string
	ExpiresAt *time.Time
}

// Create mints a share link. Only the item's owner may share it; a
// missing item and someone else's item are indistinguishable.
func (e *Engine) Create(ctx context.Context, input CreateInput) (*models.ShareLink, error) {
	switch input.ItemType {
	case models.ShareItemFolder, models.ShareItemMedia:
	default:
		return nil, fmt.Errorf("%w: item type must be folder or media", access.ErrValidation)
	}

	if err := e.checkOwnership(ctx, input.ItemID, input.ItemType, input.OwnerID); err != nil {
		return nil, err
	}

	var passwordHash *string
	if input.Password != "" {
		if err := authutil.ValidateGatePassword(input.Password); err != nil {
			return nil, fmt.Errorf("%w: %s", access.ErrValidation, err.Error())
		}
		hash, err := authutil.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing share password: %w", err)
		}
		passwordHash = &hash
	}

	if input.ExpiresAt != nil && input.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: expiry must be in the future", access.ErrValidation)
	}

	link, err := e.links.Create(ctx, sharelinkstore.CreateInput{
		ItemID:       input.ItemID,
		ItemType:     input.ItemType,
		OwnerID:      input.OwnerID,
		PasswordHash: passwordHash,
		ExpiresAt:    input.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("creating share link: %w", err)
	}

	e.logger.Info("share link created",
		zap.String("item_type", input.ItemType),
		zap.String("item_id", input.ItemID.Hex()),
		zap.String("owner_id", input.OwnerID.Hex()))
	return link, nil
}

func (e *Engine) checkOwnership(ctx context.Context, itemID primitive.ObjectID, itemType string, ownerID primitive.ObjectID) error {
	switch itemType {
	case models.ShareItemFolder:
		folder, err := e.folders.GetByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return access.ErrNotFound
			}
			return fmt.Errorf("loading folder: %w", err)
		}
		if folder.OwnerID != ownerID {
			return access.ErrNotFound
		}
	case models.ShareItemMedia:
		item, err := e.media.GetByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return access.ErrNotFound
			}
			return fmt.Errorf("loading media: %w", err)
		}
		if item.OwnerID != ownerID {
			return access.ErrNotFound
		}
	}
	return nil
}

// Content is what a resolved link exposes. A folder link carries the
// folder plus a shallow listing of its direct children; a media link
// carries the single item.
type Content struct {
	Type    string          `json:"type"`
	Folder  *models.Folder  `json:"folder,omitempty"`
	Folders []models.Folder `json:"folders,omitempty"`
	Media   []models.Media  `json:"media,omitempty"`
	Item    *models.Media   `json:"item,omitempty"`
}

// Resolve serves a share link to an anonymous caller. Expired links are
// indistinguishable from absent ones. Password-gated links demand the
// plaintext on every resolve; there is no proof token for strangers.
func (e *Engine) Resolve(ctx context.Context, accessKey, password string) (*Content, error) {
	link, err := e.links.GetByAccessKey(ctx, accessKey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, access.ErrNotFound
		}
		return nil, fmt.Errorf("loading share link: %w", err)
	}

	if link.Expired(time.Now()) {
		return nil, access.ErrNotFound
	}

	if link.HasPassword() {
		if password == "" {
			return nil, access.ErrPasswordRequired
		}
		if !authutil.CheckPassword(password, *link.PasswordHash) {
			return nil, access.ErrInvalidPassword
		}
	}

	switch link.ItemType {
	case models.ShareItemFolder:
		return e.resolveFolder(ctx, link)
	case models.ShareItemMedia:
		return e.resolveMedia(ctx, link)
	default:
		return nil, access.ErrNotFound
	}
}

func (e *Engine) resolveFolder(ctx context.Context, link *models.ShareLink) (*Content, error) {
	folder, err := e.folders.GetByID(ctx, link.ItemID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, access.ErrNotFound
		}
		return nil, fmt.Errorf("loading shared folder: %w", err)
	}

	children, err := e.folders.ListChildren(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("listing shared folder children: %w", err)
	}
	items, err := e.media.ListInFolder(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("listing shared folder media: %w", err)
	}

	return &Content{
		Type:    models.ShareItemFolder,
		Folder:  folder,
		Folders: children,
		Media:   items,
	}, nil
}

func (e *Engine) resolveMedia(ctx context.Context, link *models.ShareLink) (*Content, error) {
	item, err := e.media.GetByID(ctx, link.ItemID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, access.ErrNotFound
		}
		return nil, fmt.Errorf("loading shared media: %w", err)
	}

	return &Content{
		Type: models.ShareItemMedia,
		Item: item,
	}, nil
}

// List returns the caller's share links.
func (e *Engine) List(ctx context.Context, ownerID primitive.ObjectID) ([]models.ShareLink, error) {
	return e.links.ListByOwner(ctx, ownerID)
}

// Revoke deletes a share link the caller owns.
func (e *Engine) Revoke(ctx context.Context, id, ownerID primitive.ObjectID) error {
	ok, err := e.links.Delete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting share link: %w", err)
	}
	if !ok {
		return access.ErrNotFound
	}
	return nil
}
