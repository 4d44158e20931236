// Package mediaapi provides the media endpoints: multipart upload,
// rename and move, favorites, trash and restore, permanent deletion,
// and streaming view/download from file storage.
package mediaapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	mediastore "github.com/mariam168/notakok/internal/app/store/media"
	"github.com/mariam168/notakok/internal/app/system/access"
	"github.com/mariam168/notakok/internal/app/system/auth"
	"github.com/mariam168/notakok/internal/app/system/inputval"
	"github.com/mariam168/notakok/internal/app/system/jsonutil"
)

const maxUploadSize = 32 << 20 // 32MB

// rootFolderID is the path/body sentinel for the root level.
const rootFolderID = "root"

// Handler handles media requests.
type Handler struct {
	engine *access.Engine
	media  *mediastore.Store
	files  storage.Store
	logger *zap.Logger
}

// NewHandler creates a mediaapi handler.
func NewHandler(engine *access.Engine, media *mediastore.Store, files storage.Store, logger *zap.Logger) *Handler {
	return &Handler{
		engine: engine,
		media:  media,
		files:  files,
		logger: logger,
	}
}

func parseMediaID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "mediaID"))
	if err != nil {
		jsonutil.BadRequest(w, "invalid media id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// UploadHandler handles POST /upload: a multipart form with one or
// more parts named "mediaFiles" plus optional folderId and groupName
// fields. Uploading into a folder requires write access on it, and the
// stored items belong to the folder's owner so shared trees stay
// coherent. When groupName is set it replaces the original filenames:
// a single upload becomes "group.ext", a batch becomes "group (1).ext",
// "group (2).ext" and so on.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := auth.CurrentUser(r)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonutil.BadRequest(w, "upload too large (max 32MB)")
		return
	}

	var folderID *primitive.ObjectID
	if raw := r.FormValue("folderId"); raw != "" && raw != rootFolderID {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.BadRequest(w, "invalid folder id")
			return
		}
		folderID = &id
	}

	grant, err := h.engine.Resolve(ctx, folderID, user.ID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}
	if !grant.Role.CanWrite() {
		jsonutil.EngineError(w, r, h.logger, access.ErrAccessDenied)
		return
	}

	headers := r.MultipartForm.File["mediaFiles"]
	if len(headers) == 0 {
		jsonutil.BadRequest(w, "no files uploaded")
		return
	}

	taken, err := h.takenDisplayNames(r, grant.EffectiveOwnerID, folderID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	groupName := inputval.CleanName(r.FormValue("groupName"))

	inputs := make([]mediastore.CreateInput, 0, len(headers))
	stored := make([]string, 0, len(headers))
	for i, header := range headers {
		name := inputval.CleanName(header.Filename)
		if groupName != "" {
			ext := filepath.Ext(header.Filename)
			if len(headers) > 1 {
				name = fmt.Sprintf("%s (%d)%s", groupName, i+1, ext)
			} else {
				name = groupName + ext
			}
		}
		input, err := h.storeUpload(r, header, nextDisplayName(taken, name), grant.EffectiveOwnerID, folderID)
		if err != nil {
			h.cleanupStored(r, stored)
			h.logger.Error("upload failed",
				zap.String("filename", header.Filename),
				zap.Error(err))
			jsonutil.InternalError(w, "failed to store upload")
			return
		}
		inputs = append(inputs, input)
		stored = append(stored, input.Path)
	}

	items, err := h.media.CreateMany(ctx, inputs)
	if err != nil {
		h.cleanupStored(r, stored)
		h.logger.Error("recording uploads failed", zap.Error(err))
		jsonutil.InternalError(w, "failed to record uploads")
		return
	}

	jsonutil.Created(w, map[string]any{"media": items})
}

// storeUpload writes one uploaded part to file storage and returns the
// metadata record to insert. The stored filename is a fresh UUID; the
// user-facing name is decided by the caller.
func (h *Handler) storeUpload(r *http.Request, header *multipart.FileHeader, displayName string, ownerID primitive.ObjectID, folderID *primitive.ObjectID) (mediastore.CreateInput, error) {
	part, err := header.Open()
	if err != nil {
		return mediastore.CreateInput{}, fmt.Errorf("opening part: %w", err)
	}
	defer part.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	now := time.Now().UTC()
	storedName := uuid.New().String() + filepath.Ext(header.Filename)
	path := fmt.Sprintf("uploads/%04d/%02d/%s", now.Year(), int(now.Month()), storedName)

	opts := &storage.PutOptions{ContentType: mimeType}
	if err := h.files.Put(r.Context(), path, part, opts); err != nil {
		return mediastore.CreateInput{}, fmt.Errorf("writing %s: %w", path, err)
	}

	return mediastore.CreateInput{
		OwnerID:     ownerID,
		Filename:    storedName,
		DisplayName: displayName,
		Path:        path,
		MimeType:    mimeType,
		Size:        header.Size,
		FolderID:    folderID,
	}, nil
}

// takenDisplayNames collects the folded display names already live in
// the target folder, so new uploads can be grouped as "name (N).ext".
func (h *Handler) takenDisplayNames(r *http.Request, ownerID primitive.ObjectID, folderID *primitive.ObjectID) (map[string]bool, error) {
	existing, err := h.media.ListByFolder(r.Context(), ownerID, folderID, mediastore.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing folder media: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, item := range existing {
		taken[text.Fold(item.DisplayName)] = true
	}
	return taken, nil
}

// nextDisplayName returns name if free, otherwise "base (N).ext" with
// the smallest free N, and marks the result as taken.
func nextDisplayName(taken map[string]bool, name string) string {
	candidate := name
	if taken[text.Fold(candidate)] {
		ext := filepath.Ext(name)
		base := name[:len(name)-len(ext)]
		for n := 1; ; n++ {
			candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
			if !taken[text.Fold(candidate)] {
				break
			}
		}
	}
	taken[text.Fold(candidate)] = true
	return candidate
}

func (h *Handler) cleanupStored(r *http.Request, paths []string) {
	for _, path := range paths {
		if err := h.files.Delete(r.Context(), path); err != nil {
			h.logger.Warn("failed to remove stored file",
				zap.String("path", path),
				zap.Error(err))
		}
	}
}

type updateMediaInput struct {
	Filename *string `json:"filename"`

	// FolderID moves the item; "root" moves it to the top level.
	FolderID *string `json:"folderId"`
}

// UpdateMediaHandler handles PUT /{mediaID}: rename and/or move. Moves
// must keep the item inside its owner's drive.
func (h *Handler) UpdateMediaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := auth.CurrentUser(r)
	mediaID, ok := parseMediaID(w, r)
	if !ok {
		return
	}

	var in updateMediaInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	item, err := h.engine.ResolveMedia(ctx, mediaID, user.ID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	var input mediastore.UpdateInput

	if in.Filename != nil {
		name := inputval.CleanName(*in.Filename)
		if name == "" {
			jsonutil.BadRequest(w, "filename cannot be empty")
			return
		}
		input.DisplayName = &name
	}

	if in.FolderID != nil {
		input.SetFolder = true
		if *in.FolderID != "" && *in.FolderID != rootFolderID {
			id, err := primitive.ObjectIDFromHex(*in.FolderID)
			if err != nil {
				jsonutil.BadRequest(w, "invalid folder id")
				return
			}
			input.FolderID = &id
		}

		grant, err := h.engine.Resolve(ctx, input.FolderID, user.ID)
		if err != nil {
			jsonutil.EngineError(w, r, h.logger, err)
			return
		}
		if !grant.Role.CanWrite() || grant.EffectiveOwnerID != item.OwnerID {
			jsonutil.EngineError(w, r, h.logger, access.ErrAccessDenied)
			return
		}
	}

	if err := h.media.Update(ctx, mediaID, input); err != nil {
		h.logger.Error("updating media failed", zap.Error(err))
		jsonutil.InternalError(w, "failed to update media")
		return
	}

	jsonutil.OK(w, map[string]string{"message": "media updated"})
}

// FavoriteHandler handles PUT /{mediaID}/favorite: toggles the
// favorite flag and returns the new state.
func (h *Handler) FavoriteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := auth.CurrentUser(r)
	mediaID, ok := parseMediaID(w, r)
	if !ok {
		return
	}

	item, err := h.engine.ResolveMedia(ctx, mediaID, user.ID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	flag := !item.IsFavorite
	if err := h.media.Update(ctx, mediaID, mediastore.UpdateInput{IsFavorite: &flag}); err != nil {
		h.logger.Error("toggling favorite failed", zap.Error(err))
		jsonutil.InternalError(w, "failed to update media")
		return
	}

	jsonutil.OK(w, map[string]any{"isFavorite": flag})
}

// TrashHandler handles DELETE /{mediaID}: the item moves to the trash
// and stays recoverable.
func (h *Handler) TrashHandler(w http.ResponseWriter, r *http.Request) {
	h.setDeleted(w, r, true, "media moved to trash")
}

// RestoreHandler handles POST /{mediaID}/restore.
func (h *Handler) RestoreHandler(w http.ResponseWriter, r *http.Request) {
	h.setDeleted(w, r, false, "media restored")
}

func (h *Handler) setDeleted(w http.ResponseWriter, r *http.Request, deleted bool, message string) {
	ctx := r.Context()
	user, _ := auth.CurrentUser(r)
	mediaID, ok := parseMediaID(w, r)
	if !ok {
		return
	}

	if _, err := h.engine.ResolveMedia(ctx, mediaID, user.ID); err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	if err := h.media.SetDeleted(ctx, mediaID, deleted); err != nil {
		h.logger.Error("updating trash state failed", zap.Error(err))
		jsonutil.InternalError(w, "failed to update media")
		return
	}

	jsonutil.OK(w, map[string]string{"message": message})
}

// PermanentDeleteHandler handles DELETE /{mediaID}/permanent: the
// record and the stored file are both removed. A storage failure is
// logged but does not keep the record alive.
func (h *Handler) PermanentDeleteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := auth.CurrentUser(r)
	mediaID, ok := parseMediaID(w, r)
	if !ok {
		return
	}

	item, err := h.engine.ResolveMedia(ctx, mediaID, user.ID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	if err := h.files.Delete(ctx, item.Path); err != nil {
		h.logger.Warn("failed to delete file from storage",
			zap.String("path", item.Path),
			zap.Error(err))
	}

	if err := h.media.Delete(ctx, mediaID); err != nil {
		h.logger.Error("deleting media record failed", zap.Error(err))
		jsonutil.InternalError(w, "failed to delete media")
		return
	}

	jsonutil.OK(w, map[string]string{"message": "media permanently deleted"})
}

// ViewHandler handles GET /{mediaID}/view: streams the file for inline
// display.
func (h *Handler) ViewHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "inline")
}

// DownloadHandler handles GET /{mediaID}/download.
func (h *Handler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "attachment")
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, disposition string) {
	ctx := r.Context()
	user, _ := auth.CurrentUser(r)
	mediaID, ok := parseMediaID(w, r)
	if !ok {
		return
	}

	item, err := h.engine.ResolveMediaRead(ctx, mediaID, user.ID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	reader, err := h.files.Get(ctx, item.Path)
	if err != nil {
		h.logger.Error("failed to read file from storage",
			zap.String("path", item.Path),
			zap.Error(err))
		jsonutil.NotFound(w, "file not found")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", item.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, item.DisplayName))

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream file",
			zap.String("path", item.Path),
			zap.Error(err))
	}
}
