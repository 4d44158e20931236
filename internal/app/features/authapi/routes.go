package authapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mariam168/notakok/internal/app/system/auth"
)

// Routes returns a router with the account endpoints.
//
// When mounted at /api/auth:
//   - POST /api/auth/register
//   - GET  /api/auth/verify-email?token=
//   - POST /api/auth/login
//   - POST /api/auth/forgot-password
//   - POST /api/auth/reset-password?token=
//   - GET  /api/auth/me (requires a bearer token)
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/register", h.RegisterHandler)
	r.Get("/verify-email", h.VerifyEmailHandler)
	r.Post("/login", h.LoginHandler)
	r.Post("/forgot-password", h.ForgotPasswordHandler)
	r.Post("/reset-password", h.ResetPasswordHandler)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireUser)
		pr.Get("/me", h.MeHandler)
	})

	return r
}
