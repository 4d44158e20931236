// Package contentapi provides the folder hierarchy endpoints: listing
// folder content with search and type filters, folder CRUD, trash and
// restore cascades, and collaborator management.
package contentapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mariam168/notakok/internal/app/system/access"
	"github.com/mariam168/notakok/internal/app/system/auth"
	"github.com/mariam168/notakok/internal/app/system/inputval"
	"github.com/mariam168/notakok/internal/app/system/jsonutil"
	"github.com/mariam168/notakok/internal/app/system/proof"
)

// rootFolderID is the path segment standing in for the root level,
// which has no folder document.
const rootFolderID = "root"

// Handler handles folder hierarchy requests.
type Handler struct {
	engine *access.Engine
	logger *zap.Logger
}

// NewHandler creates a contentapi handler.
func NewHandler(engine *access.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// parseFolderID reads the folderID path parameter. The literal "root"
// maps to nil. Returns false after writing an error response when the
// id is malformed.
func parseFolderID(w http.ResponseWriter, r *http.Request) (*primitive.ObjectID, bool) {
	raw := chi.URLParam(r, "folderID")
	if raw == rootFolderID {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		jsonutil.BadRequest(w, "invalid folder id")
		return nil, false
	}
	return &id, true
}

// parseObjectID reads an ObjectID path parameter by name.
func parseObjectID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		jsonutil.BadRequest(w, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ContentHandler handles GET /folders/{folderID}.
//
// Query parameters: view (drive|trash), search, type (all, favorites,
// document, or a media type), password. A proof token from an earlier
// password check can be replayed in the X-Folder-Proof header.
func (h *Handler) ContentHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	folderID, ok := parseFolderID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	listing, err := h.engine.ListContent(r.Context(), access.ListInput{
		FolderID:   folderID,
		UserID:     user.ID,
		Password:   q.Get("password"),
		Proof:      r.Header.Get(proof.Header),
		Search:     q.Get("search"),
		TypeFilter: q.Get("type"),
		View:       q.Get("view"),
	})
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	jsonutil.OK(w, listing)
}

// SidebarHandler handles GET /sidebar.
func (h *Handler) SidebarHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	sidebar, err := h.engine.GetSidebar(r.Context(), user.ID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, sidebar)
}

// NavFoldersHandler handles GET /folders/all: the flat list of every
// folder the caller can reach, for move targets and navigation trees.
func (h *Handler) NavFoldersHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	folders, err := h.engine.ListNavFolders(r.Context(), user.ID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, map[string]any{"folders": folders})
}

type createFolderInput struct {
	Name     string `json:"name" validate:"required,max=200" label:"Folder name"`
	ParentID string `json:"parentId"`
	Password string `json:"password"`
}

// CreateFolderHandler handles POST /folders.
func (h *Handler) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	var in createFolderInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if result := inputval.Validate(in); result.HasErrors() {
		jsonutil.BadRequest(w, result.First())
		return
	}

	var parentID *primitive.ObjectID
	if in.ParentID != "" && in.ParentID != rootFolderID {
		id, err := primitive.ObjectIDFromHex(in.ParentID)
		if err != nil {
			jsonutil.BadRequest(w, "invalid parent folder id")
			return
		}
		parentID = &id
	}

	folder, err := h.engine.CreateFolder(r.Context(), access.CreateFolderInput{
		Name:     in.Name,
		ParentID: parentID,
		Password: in.Password,
		UserID:   user.ID,
	})
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	jsonutil.Created(w, map[string]any{"folder": folder})
}

type updateFolderInput struct {
	Name *string `json:"name"`

	// ParentID moves the folder; "root" moves it to the top level.
	ParentID *string `json:"parentId"`

	CurrentPassword string  `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

// UpdateFolderHandler handles PUT /folders/{folderID}: rename, move, or
// change the password gate. Protected folders demand the current
// password first.
func (h *Handler) UpdateFolderHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	folderID, ok := parseObjectID(w, r, "folderID")
	if !ok {
		return
	}

	var in updateFolderInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	input := access.UpdateFolderInput{
		Name:            in.Name,
		CurrentPassword: in.CurrentPassword,
		NewPassword:     in.NewPassword,
	}
	if in.ParentID != nil {
		input.MoveParent = true
		if *in.ParentID != "" && *in.ParentID != rootFolderID {
			id, err := primitive.ObjectIDFromHex(*in.ParentID)
			if err != nil {
				jsonutil.BadRequest(w, "invalid parent folder id")
				return
			}
			input.NewParentID = &id
		}
	}

	if err := h.engine.UpdateFolder(r.Context(), folderID, user.ID, input); err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	jsonutil.OK(w, map[string]string{"message": "folder updated"})
}

// DeleteFolderHandler handles POST /folders/{folderID}/delete: the
// folder and its whole subtree move to the trash.
func (h *Handler) DeleteFolderHandler(w http.ResponseWriter, r *http.Request) {
	h.cascade(w, r, true, "folder moved to trash")
}

// RestoreFolderHandler handles POST /folders/{folderID}/restore.
func (h *Handler) RestoreFolderHandler(w http.ResponseWriter, r *http.Request) {
	h.cascade(w, r, false, "folder restored")
}

func (h *Handler) cascade(w http.ResponseWriter, r *http.Request, deleted bool, message string) {
	user, _ := auth.CurrentUser(r)
	folderID, ok := parseObjectID(w, r, "folderID")
	if !ok {
		return
	}

	if err := h.engine.CascadeSetDeleted(r.Context(), folderID, user.ID, deleted); err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, map[string]string{"message": message})
}

type addCollaboratorInput struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
	Role  string `json:"role" validate:"required,collabrole" label:"Role"`
}

// AddCollaboratorHandler handles POST /folders/{folderID}/collaborators.
func (h *Handler) AddCollaboratorHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	folderID, ok := parseObjectID(w, r, "folderID")
	if !ok {
		return
	}

	var in addCollaboratorInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if result := inputval.Validate(in); result.HasErrors() {
		jsonutil.BadRequest(w, result.First())
		return
	}

	list, err := h.engine.AddCollaborator(r.Context(), folderID, user.ID, in.Email, in.Role)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	jsonutil.OK(w, map[string]any{"collaborators": list})
}

// RemoveCollaboratorHandler handles
// DELETE /folders/{folderID}/collaborators/{userID}.
func (h *Handler) RemoveCollaboratorHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	folderID, ok := parseObjectID(w, r, "folderID")
	if !ok {
		return
	}
	collaboratorID, ok := parseObjectID(w, r, "userID")
	if !ok {
		return
	}

	list, err := h.engine.RemoveCollaborator(r.Context(), folderID, user.ID, collaboratorID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	jsonutil.OK(w, map[string]any{"collaborators": list})
}
