package access

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mariam168/notakok/internal/domain/models"
)

// CollaboratorInfo is a collaborator entry with account details filled
// in for display.
type CollaboratorInfo struct {
	UserID   primitive.ObjectID `json:"user_id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Role     string             `json:"role"`
}

// AddCollaborator grants a user, looked up by email, a role on a
// folder. Only the folder's owner may share it; an editor trying gets
// ErrAccessDenied. Adding yourself or an existing collaborator is
// ErrConflict. Returns the updated collaborator list.
func (e *Engine) AddCollaborator(ctx context.Context, folderID, callerID primitive.ObjectID, email, role string) ([]CollaboratorInfo, error) {
	folder, err := e.ownedFolder(ctx, folderID, callerID)
	if err != nil {
		return nil, err
	}

	if _, ok := RoleFromString(role); !ok {
		return nil, fmt.Errorf("%w: role must be %s or %s", ErrValidation,
			models.CollaboratorRoleViewer, models.CollaboratorRoleEditor)
	}

	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: no account with that email", ErrNotFound)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user.ID == callerID {
		return nil, fmt.Errorf("%w: you cannot add yourself as a collaborator", ErrConflict)
	}

	added, err := e.folders.AddCollaborator(ctx, folder.ID, models.Collaborator{
		UserID: user.ID,
		Role:   role,
	})
	if err != nil {
		return nil, fmt.Errorf("adding collaborator: %w", err)
	}
	if !added {
		return nil, fmt.Errorf("%w: user is already a collaborator", ErrConflict)
	}

	return e.collaboratorList(ctx, folder.ID)
}

// RemoveCollaborator revokes a user's access to a folder. Owner-only,
// like AddCollaborator. Returns the updated collaborator list.
func (e *Engine) RemoveCollaborator(ctx context.Context, folderID, callerID, collaboratorID primitive.ObjectID) ([]CollaboratorInfo, error) {
	folder, err := e.ownedFolder(ctx, folderID, callerID)
	if err != nil {
		return nil, err
	}

	removed, err := e.folders.RemoveCollaborator(ctx, folder.ID, collaboratorID)
	if err != nil {
		return nil, fmt.Errorf("removing collaborator: %w", err)
	}
	if !removed {
		return nil, fmt.Errorf("%w: user is not a collaborator", ErrNotFound)
	}

	return e.collaboratorList(ctx, folder.ID)
}

// ownedFolder loads a folder the caller must own. Collaborators get
// ErrAccessDenied; strangers get ErrNotFound.
func (e *Engine) ownedFolder(ctx context.Context, folderID, callerID primitive.ObjectID) (*models.Folder, error) {
	grant, err := e.Resolve(ctx, &folderID, callerID)
	if err != nil {
		return nil, err
	}
	if grant.Role != RoleOwner {
		return nil, ErrAccessDenied
	}
	return grant.Folder, nil
}

// collaboratorList re-reads the folder and resolves account details for
// each collaborator entry.
func (e *Engine) collaboratorList(ctx context.Context, folderID primitive.ObjectID) ([]CollaboratorInfo, error) {
	folder, err := e.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("reloading folder: %w", err)
	}

	ids := make([]primitive.ObjectID, len(folder.Collaborators))
	for i, c := range folder.Collaborators {
		ids[i] = c.UserID
	}

	users, err := e.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading collaborator accounts: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	list := make([]CollaboratorInfo, 0, len(folder.Collaborators))
	for _, c := range folder.Collaborators {
		info := CollaboratorInfo{UserID: c.UserID, Role: c.Role}
		if u, ok := byID[c.UserID]; ok {
			info.Username = u.Username
			info.Email = u.Email
		}
		list = append(list, info)
	}
	return list, nil
}
