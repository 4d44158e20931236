package contentapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mariam168/notakok/internal/app/system/auth"
)

// Routes returns a router with the folder hierarchy endpoints. All of
// them require an authenticated user.
//
// When mounted at /api/content:
//   - GET    /api/content/sidebar
//   - GET    /api/content/folders/all
//   - GET    /api/content/folders/{folderID}  (folderID "root" = top level)
//   - POST   /api/content/folders
//   - PUT    /api/content/folders/{folderID}
//   - POST   /api/content/folders/{folderID}/delete
//   - POST   /api/content/folders/{folderID}/restore
//   - POST   /api/content/folders/{folderID}/collaborators
//   - DELETE /api/content/folders/{folderID}/collaborators/{userID}
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireUser)

	r.Get("/sidebar", h.SidebarHandler)

	r.Route("/folders", func(fr chi.Router) {
		fr.Get("/all", h.NavFoldersHandler)
		fr.Get("/{folderID}", h.ContentHandler)
		fr.Post("/", h.CreateFolderHandler)
		fr.Put("/{folderID}", h.UpdateFolderHandler)
		fr.Post("/{folderID}/delete", h.DeleteFolderHandler)
		fr.Post("/{folderID}/restore", h.RestoreFolderHandler)
		fr.Post("/{folderID}/collaborators", h.AddCollaboratorHandler)
		fr.Delete("/{folderID}/collaborators/{userID}", h.RemoveCollaboratorHandler)
	})

	return r
}
