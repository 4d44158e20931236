package access

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	folderstore "github.com/mariam168/notakok/internal/app/store/folders"
	mediastore "github.com/mariam168/notakok/internal/app/store/media"
	"github.com/mariam168/notakok/internal/domain/models"
)

// Views.
const (
	ViewDrive = "drive"
	ViewTrash = "trash"
)

// ListInput describes one listing request.
type ListInput struct {
	FolderID *primitive.ObjectID // nil = root
	UserID   primitive.ObjectID

	// Password and Proof feed the password gate on protected folders.
	Password string
	Proof    string

	Search     string
	TypeFilter string // all, favorites, document, or a single media type
	View       string // drive (default) or trash
}

// FolderEntry is a folder in a listing. Only the presence of a password
// is exposed.
type FolderEntry struct {
	models.Folder
	HasPassword bool `json:"hasPassword"`
}

// Listing is the content of one folder for one user.
type Listing struct {
	Folders []FolderEntry  `json:"folders"`
	Media   []models.Media `json:"media"`
	Role    Role           `json:"userRole"`
	Current *models.Folder `json:"currentFolder"`

	// Proof is set when a plaintext password just verified, letting the
	// client replay it instead of the password.
	Proof string `json:"proof,omitempty"`
}

// ListContent resolves access, applies the password gate, and returns
// the folder's content partitioned by view.
//
// The drive view lists live items, the trash view deleted ones, always
// scoped to the same parent. Type filters other than "all" list media
// only: a folder has no type, so it can never match one.
func (e *Engine) ListContent(ctx context.Context, input ListInput) (*Listing, error) {
	grant, err := e.Resolve(ctx, input.FolderID, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := e.GatePassword(grant.Folder, input.Password, input.Proof); err != nil {
		return nil, err
	}

	result := &Listing{
		Folders: []FolderEntry{},
		Media:   []models.Media{},
		Role:    grant.Role,
		Current: grant.Folder,
	}

	// Hand back a proof token once a plaintext password has verified.
	if grant.Folder != nil && grant.Folder.HasPassword() && input.Password != "" {
		token, err := e.proofs.Issue(grant.Folder.ID)
		if err != nil {
			return nil, fmt.Errorf("issuing proof token: %w", err)
		}
		result.Proof = token
	}

	deleted := input.View == ViewTrash

	mediaOpts := mediastore.ListOptions{
		Deleted: deleted,
		Search:  input.Search,
	}
	listFolders := true

	switch input.TypeFilter {
	case "", "all":
	case "favorites":
		mediaOpts.FavoritesOnly = true
		listFolders = false
	case models.MediaTypeDocument:
		mediaOpts.Types = models.DocumentClassTypes
		listFolders = false
	default:
		mediaOpts.Types = []string{input.TypeFilter}
		listFolders = false
	}

	if listFolders {
		folders, err := e.folders.ListByParent(ctx, grant.EffectiveOwnerID, input.FolderID, folderstore.ListOptions{
			Deleted: deleted,
			Search:  input.Search,
		})
		if err != nil {
			return nil, fmt.Errorf("listing folders: %w", err)
		}
		for _, f := range folders {
			result.Folders = append(result.Folders, FolderEntry{Folder: f, HasPassword: f.HasPassword()})
		}
	}

	media, err := e.media.ListByFolder(ctx, grant.EffectiveOwnerID, input.FolderID, mediaOpts)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	result.Media = media

	return result, nil
}

// Sidebar holds the navigation roots for one user.
type Sidebar struct {
	MyFolders    []models.Folder `json:"myFolders"`
	SharedWithMe []models.Folder `json:"sharedWithMe"`
}

// GetSidebar returns the caller's root folders and the folders shared
// with them.
func (e *Engine) GetSidebar(ctx context.Context, userID primitive.ObjectID) (*Sidebar, error) {
	mine, err := e.folders.ListRootsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing root folders: %w", err)
	}
	shared, err := e.folders.ListSharedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing shared folders: %w", err)
	}

	if mine == nil {
		mine = []models.Folder{}
	}
	if shared == nil {
		shared = []models.Folder{}
	}
	return &Sidebar{MyFolders: mine, SharedWithMe: shared}, nil
}

// ListNavFolders returns a flat, deduplicated list of every folder the
// caller can reach: their own plus those shared with them.
func (e *Engine) ListNavFolders(ctx context.Context, userID primitive.ObjectID) ([]models.Folder, error) {
	mine, err := e.folders.ListAllByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing own folders: %w", err)
	}
	shared, err := e.folders.ListSharedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing shared folders: %w", err)
	}

	seen := make(map[primitive.ObjectID]bool, len(mine))
	all := make([]models.Folder, 0, len(mine)+len(shared))
	for _, f := range mine {
		seen[f.ID] = true
		all = append(all, f)
	}
	for _, f := range shared {
		if !seen[f.ID] {
			seen[f.ID] = true
			all = append(all, f)
		}
	}
	return all, nil
}
