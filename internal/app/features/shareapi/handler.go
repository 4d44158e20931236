// Package shareapi provides the share-link endpoints: owners mint,
// list and revoke links, and anonymous visitors resolve them by access
// key.
package shareapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mariam168/notakok/internal/app/system/auth"
	"github.com/mariam168/notakok/internal/app/system/inputval"
	"github.com/mariam168/notakok/internal/app/system/jsonutil"
	"github.com/mariam168/notakok/internal/app/system/share"
)

// Handler handles share-link requests.
type Handler struct {
	engine *share.Engine
	logger *zap.Logger
}

// NewHandler creates a shareapi handler.
func NewHandler(engine *share.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

type createShareInput struct {
	ItemID    string     `json:"itemId" validate:"required" label:"Item id"`
	ItemType  string     `json:"itemType" validate:"required" label:"Item type"`
	Password  string     `json:"password"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// CreateHandler handles POST /share: mints a link for a folder or media
// item the caller owns.
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	var in createShareInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if result := inputval.Validate(in); result.HasErrors() {
		jsonutil.BadRequest(w, result.First())
		return
	}

	itemID, err := primitive.ObjectIDFromHex(in.ItemID)
	if err != nil {
		jsonutil.BadRequest(w, "invalid item id")
		return
	}

	link, err := h.engine.Create(r.Context(), share.CreateInput{
		ItemID:    itemID,
		ItemType:  in.ItemType,
		OwnerID:   user.ID,
		Password:  in.Password,
		ExpiresAt: in.ExpiresAt,
	})
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	jsonutil.Created(w, map[string]any{"link": link})
}

// ListHandler handles GET /share: every link the caller has minted.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	links, err := h.engine.List(r.Context(), user.ID)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, map[string]any{"links": links})
}

// RevokeHandler handles DELETE /share/{key}, where key is the link id.
func (h *Handler) RevokeHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	linkID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "key"))
	if err != nil {
		jsonutil.BadRequest(w, "invalid link id")
		return
	}

	if err := h.engine.Revoke(r.Context(), linkID, user.ID); err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, map[string]string{"message": "share link revoked"})
}

type resolveShareInput struct {
	Password string `json:"password"`
}

// ResolveHandler handles POST /share/{key}, where key is the access
// key: the anonymous entry point. The body is optional; password-gated
// links read the password from it.
func (h *Handler) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	var in resolveShareInput
	if err := jsonutil.Decode(r, &in); err != nil && !errors.Is(err, io.EOF) {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	content, err := h.engine.Resolve(r.Context(), chi.URLParam(r, "key"), in.Password)
	if err != nil {
		jsonutil.EngineError(w, r, h.logger, err)
		return
	}

	jsonutil.OK(w, content)
}
