package mediaapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mariam168/notakok/internal/app/system/auth"
)

// Routes returns a router with the media endpoints. All of them require
// an authenticated user.
//
// When mounted at /api/content/media:
//   - POST   /api/content/media/upload
//   - PUT    /api/content/media/{mediaID}
//   - PUT    /api/content/media/{mediaID}/favorite
//   - DELETE /api/content/media/{mediaID}
//   - POST   /api/content/media/{mediaID}/restore
//   - DELETE /api/content/media/{mediaID}/permanent
//   - GET    /api/content/media/{mediaID}/view
//   - GET    /api/content/media/{mediaID}/download
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireUser)

	r.Post("/upload", h.UploadHandler)
	r.Put("/{mediaID}", h.UpdateMediaHandler)
	r.Put("/{mediaID}/favorite", h.FavoriteHandler)
	r.Delete("/{mediaID}", h.TrashHandler)
	r.Post("/{mediaID}/restore", h.RestoreHandler)
	r.Delete("/{mediaID}/permanent", h.PermanentDeleteHandler)
	r.Get("/{mediaID}/view", h.ViewHandler)
	r.Get("/{mediaID}/download", h.DownloadHandler)

	return r
}
