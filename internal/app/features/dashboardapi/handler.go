// Package dashboardapi provides the dashboard endpoint: storage usage,
// item counts and the caller's most recent uploads.
package dashboardapi

import (
	"net/http"

	"go.uber.org/zap"

	folderstore "github.com/mariam168/notakok/internal/app/store/folders"
	mediastore "github.com/mariam168/notakok/internal/app/store/media"
	"github.com/mariam168/notakok/internal/app/system/auth"
	"github.com/mariam168/notakok/internal/app/system/jsonutil"
)

// recentLimit caps the recent-uploads list.
const recentLimit = 5

// Handler handles dashboard requests.
type Handler struct {
	folders *folderstore.Store
	media   *mediastore.Store
	logger  *zap.Logger
}

// NewHandler creates a dashboardapi handler.
func NewHandler(folders *folderstore.Store, media *mediastore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		folders: folders,
		media:   media,
		logger:  logger,
	}
}

// StatsHandler handles GET /stats. Counts cover live items only;
// the trash weighs nothing here.
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := auth.CurrentUser(r)

	stats, err := h.media.StatsByOwner(ctx, user.ID)
	if err != nil {
		h.logger.Error("aggregating media stats failed", zap.Error(err))
		jsonutil.InternalError(w, "failed to load dashboard")
		return
	}

	folderCount, err := h.folders.CountByOwner(ctx, user.ID)
	if err != nil {
		h.logger.Error("counting folders failed", zap.Error(err))
		jsonutil.InternalError(w, "failed to load dashboard")
		return
	}

	recent, err := h.media.RecentByOwner(ctx, user.ID, recentLimit)
	if err != nil {
		h.logger.Error("listing recent media failed", zap.Error(err))
		jsonutil.InternalError(w, "failed to load dashboard")
		return
	}

	jsonutil.OK(w, map[string]any{
		"stats": map[string]any{
			"totalFiles":   stats.TotalFiles,
			"totalStorage": stats.TotalStorage,
			"favorites":    stats.Favorites,
			"totalFolders": folderCount,
		},
		"recent": recent,
	})
}
