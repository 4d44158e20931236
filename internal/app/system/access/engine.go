// Package access implements the hierarchy and access engine: folder
// resolution, password gates, listing, trash cascades and collaborator
// management. Every entry point takes the calling user's id and enforces
// the ownership and collaborator rules itself; handlers only translate
// HTTP to engine calls.
package access

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	folderstore "github.com/mariam168/notakok/internal/app/store/folders"
	mediastore "github.com/mariam168/notakok/internal/app/store/media"
	userstore "github.com/mariam168/notakok/internal/app/store/users"
	"github.com/mariam168/notakok/internal/app/system/authutil"
	"github.com/mariam168/notakok/internal/app/system/inputval"
	"github.com/mariam168/notakok/internal/app/system/proof"
	"github.com/mariam168/notakok/internal/domain/models"
)

// Engine evaluates access to the folder hierarchy and applies mutations
// that must respect it.
type Engine struct {
	folders *folderstore.Store
	media   *mediastore.Store
	users   *userstore.Store
	proofs  *proof.Issuer
	logger  *zap.Logger
}

// New creates an Engine.
func New(folders *folderstore.Store, media *mediastore.Store, users *userstore.Store, proofs *proof.Issuer, logger *zap.Logger) *Engine {
	return &Engine{
		folders: folders,
		media:   media,
		users:   users,
		proofs:  proofs,
		logger:  logger,
	}
}

// Grant is the outcome of resolving a folder for a user.
type Grant struct {
	Role Role

	// EffectiveOwnerID is whose content a listing shows: the caller at
	// the root, otherwise the folder's owner.
	EffectiveOwnerID primitive.ObjectID

	// Folder is nil when the grant is for the root level.
	Folder *models.Folder
}

// Resolve determines the caller's role on a folder. Pass nil for the
// root level, where every user is owner of their own space.
//
// A folder that does not exist and a folder the caller has no
// relationship to are indistinguishable: both return ErrNotFound.
func (e *Engine) Resolve(ctx context.Context, folderID *primitive.ObjectID, userID primitive.ObjectID) (*Grant, error) {
	if folderID == nil {
		return &Grant{Role: RoleOwner, EffectiveOwnerID: userID}, nil
	}

	folder, err := e.folders.GetByID(ctx, *folderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading folder: %w", err)
	}

	if folder.OwnerID == userID {
		return &Grant{Role: RoleOwner, EffectiveOwnerID: folder.OwnerID, Folder: folder}, nil
	}

	if roleStr, ok := folder.CollaboratorRole(userID); ok {
		role, _ := RoleFromString(roleStr)
		return &Grant{Role: role, EffectiveOwnerID: folder.OwnerID, Folder: folder}, nil
	}

	return nil, ErrNotFound
}

// GatePassword checks a protected folder's password gate. Either the
// plaintext password or a previously issued proof token satisfies it.
// Unprotected folders always pass.
func (e *Engine) GatePassword(folder *models.Folder, password, proofToken string) error {
	if folder == nil || !folder.HasPassword() {
		return nil
	}
	if proofToken != "" && e.proofs.Verify(proofToken, folder.ID) == nil {
		return nil
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if !authutil.CheckPassword(password, *folder.PasswordHash) {
		return ErrInvalidPassword
	}
	return nil
}

// CreateFolderInput is the input for CreateFolder.
type CreateFolderInput struct {
	Name     string
	ParentID *primitive.ObjectID
	Password string
	UserID   primitive.ObjectID
}

// CreateFolder creates a folder. Nested folders require write access on
// the parent and inherit the parent owner, so a collaborator creating a
// folder inside a shared tree extends that tree rather than starting
// their own.
func (e *Engine) CreateFolder(ctx context.Context, input CreateFolderInput) (*models.Folder, error) {
	name := inputval.CleanName(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", ErrValidation)
	}

	ownerID := input.UserID
	if input.ParentID != nil {
		grant, err := e.Resolve(ctx, input.ParentID, input.UserID)
		if err != nil {
			return nil, err
		}
		if !grant.Role.CanWrite() {
			return nil, ErrAccessDenied
		}
		ownerID = grant.Folder.OwnerID
	}

	var passwordHash *string
	if input.Password != "" {
		if err := authutil.ValidateGatePassword(input.Password); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		hash, err := authutil.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing folder password: %w", err)
		}
		passwordHash = &hash
	}

	folder, err := e.folders.Create(ctx, folderstore.CreateInput{
		Name:         name,
		OwnerID:      ownerID,
		ParentID:     input.ParentID,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	e.logger.Info("folder created",
		zap.String("folder_id", folder.ID.Hex()),
		zap.String("owner_id", ownerID.Hex()))
	return folder, nil
}

// UpdateFolderInput is the input for UpdateFolder. Nil pointers leave
// the field unchanged; for NewPassword an empty string removes the
// password entirely.
type UpdateFolderInput struct {
	Name *string

	// MoveParent moves the folder under NewParentID (nil = root).
	MoveParent  bool
	NewParentID *primitive.ObjectID

	// CurrentPassword must verify before any change to a protected
	// folder.
	CurrentPassword string

	NewPassword *string
}

// UpdateFolder renames, moves or re-keys a folder.
func (e *Engine) UpdateFolder(ctx context.Context, folderID, userID primitive.ObjectID, input UpdateFolderInput) error {
	grant, err := e.Resolve(ctx, &folderID, userID)
	if err != nil {
		return err
	}
	if !grant.Role.CanWrite() {
		return ErrAccessDenied
	}
	folder := grant.Folder

	if folder.HasPassword() {
		if input.CurrentPassword == "" {
			return ErrPasswordRequired
		}
		if !authutil.CheckPassword(input.CurrentPassword, *folder.PasswordHash) {
			return ErrInvalidPassword
		}
	}

	update := folderstore.UpdateInput{}

	if input.Name != nil {
		name := inputval.CleanName(*input.Name)
		if name == "" {
			return fmt.Errorf("%w: folder name is required", ErrValidation)
		}
		update.Name = &name
	}

	if input.MoveParent {
		if err := e.checkMove(ctx, folder, input.NewParentID, userID); err != nil {
			return err
		}
		update.SetParent = true
		update.ParentID = input.NewParentID
	}

	if input.NewPassword != nil {
		update.SetPassword = true
		if *input.NewPassword != "" {
			if err := authutil.ValidateGatePassword(*input.NewPassword); err != nil {
				return fmt.Errorf("%w: %s", ErrValidation, err.Error())
			}
			hash, err := authutil.HashPassword(*input.NewPassword)
			if err != nil {
				return fmt.Errorf("hashing folder password: %w", err)
			}
			update.PasswordHash = &hash
		}
	}

	if err := e.folders.Update(ctx, folder.ID, update); err != nil {
		return fmt.Errorf("updating folder: %w", err)
	}
	return nil
}

// checkMove validates a destination for a folder move: write access,
// same owner, and no cycle through the folder's own subtree.
func (e *Engine) checkMove(ctx context.Context, folder *models.Folder, newParentID *primitive.ObjectID, userID primitive.ObjectID) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == folder.ID {
		return fmt.Errorf("%w: cannot move a folder into itself", ErrValidation)
	}

	grant, err := e.Resolve(ctx, newParentID, userID)
	if err != nil {
		return err
	}
	if !grant.Role.CanWrite() {
		return ErrAccessDenied
	}
	if grant.Folder.OwnerID != folder.OwnerID {
		return fmt.Errorf("%w: cannot move a folder to a different owner's space", ErrValidation)
	}

	// Walk the destination's ancestor chain; finding the folder there
	// means the destination is inside its own subtree. Revisiting a
	// node means the chain already loops, so the destination is not a
	// safe place to attach anything.
	seen := map[primitive.ObjectID]bool{}
	current := grant.Folder
	for {
		if current.ID == folder.ID {
			return fmt.Errorf("%w: cannot move a folder into its own subtree", ErrValidation)
		}
		if seen[current.ID] {
			return fmt.Errorf("%w: destination folder hierarchy contains a cycle", ErrValidation)
		}
		if current.ParentID == nil {
			return nil
		}
		seen[current.ID] = true

		parent, err := e.folders.GetByID(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil
			}
			return fmt.Errorf("walking ancestors: %w", err)
		}
		current = parent
	}
}

// ResolveMedia loads a media item if the caller may modify it: the
// owner always can, and so can an editor on the containing folder.
// Anyone else gets ErrNotFound.
func (e *Engine) ResolveMedia(ctx context.Context, mediaID, userID primitive.ObjectID) (*models.Media, error) {
	item, err := e.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading media: %w", err)
	}

	if item.OwnerID == userID {
		return item, nil
	}

	if item.FolderID != nil {
		folder, err := e.folders.GetByID(ctx, *item.FolderID)
		if err == nil {
			if roleStr, ok := folder.CollaboratorRole(userID); ok {
				if role, _ := RoleFromString(roleStr); role.CanWrite() {
					return item, nil
				}
			}
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("loading containing folder: %w", err)
		}
	}

	return nil, ErrNotFound
}

// ResolveMediaRead loads a media item for read access. Any collaborator
// role on the containing folder is enough, so viewers can stream and
// download files they cannot modify.
func (e *Engine) ResolveMediaRead(ctx context.Context, mediaID, userID primitive.ObjectID) (*models.Media, error) {
	item, err := e.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading media: %w", err)
	}

	if item.OwnerID == userID {
		return item, nil
	}

	if item.FolderID != nil {
		if _, err := e.Resolve(ctx, item.FolderID, userID); err == nil {
			return item, nil
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	return nil, ErrNotFound
}
