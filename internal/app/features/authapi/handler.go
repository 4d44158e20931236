// Package authapi provides the account endpoints: registration with
// email verification, login, password recovery and the current-user
// lookup.
package authapi

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/mariam168/notakok/internal/app/store/users"
	"github.com/mariam168/notakok/internal/app/system/auth"
	"github.com/mariam168/notakok/internal/app/system/authutil"
	"github.com/mariam168/notakok/internal/app/system/inputval"
	"github.com/mariam168/notakok/internal/app/system/jsonutil"
	"github.com/mariam168/notakok/internal/app/system/mailer"
)

// resetTokenTTL is how long a password reset link stays valid.
const resetTokenTTL = 60 * time.Minute

// Handler handles account requests.
type Handler struct {
	users   *userstore.Store
	tokens  *auth.Manager
	mail    *mailer.Mailer
	baseURL string
	logger  *zap.Logger
}

// NewHandler creates an authapi handler. The mailer may be nil when
// outbound email is not configured; verification and reset links are
// then only logged.
func NewHandler(users *userstore.Store, tokens *auth.Manager, mail *mailer.Mailer, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		users:   users,
		tokens:  tokens,
		mail:    mail,
		baseURL: baseURL,
		logger:  logger,
	}
}

type registerInput struct {
	Username string `json:"username" validate:"required,min=2,max=50" label:"Username"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// RegisterHandler handles POST /register. The account starts unverified
// and a verification link is emailed to the address.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if result := inputval.Validate(in); result.HasErrors() {
		jsonutil.BadRequest(w, result.First())
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	exists, err := h.users.EmailExists(r.Context(), in.Email)
	if err != nil {
		h.logger.Error("email lookup failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}
	if exists {
		jsonutil.Conflict(w, "an account with this email already exists")
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.logger.Error("password hash failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}

	verifyToken, err := randomToken()
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}

	user, err := h.users.Create(r.Context(), userstore.CreateInput{
		Username:          inputval.CleanName(in.Username),
		Email:             in.Email,
		PasswordHash:      hash,
		VerificationToken: &verifyToken,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			jsonutil.Conflict(w, "an account with this email already exists")
			return
		}
		h.logger.Error("user create failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}

	h.sendVerificationEmail(user.Email, user.Username, verifyToken)

	jsonutil.Created(w, map[string]any{
		"message": "account created; check your email to verify your address",
		"user":    user,
	})
}

// VerifyEmailHandler handles GET /verify-email?token=.
func (h *Handler) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		jsonutil.BadRequest(w, "missing verification token")
		return
	}

	user, err := h.users.GetByVerificationToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "invalid or already used verification link")
			return
		}
		h.logger.Error("verification lookup failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}

	if err := h.users.MarkVerified(r.Context(), user.ID); err != nil {
		h.logger.Error("mark verified failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}

	h.logger.Info("email verified", zap.String("user_id", user.ID.Hex()))
	jsonutil.OK(w, map[string]string{"message": "email verified; you can now log in"})
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// LoginHandler handles POST /login and returns a bearer token.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if result := inputval.Validate(in); result.HasErrors() {
		jsonutil.BadRequest(w, result.First())
		return
	}

	user, err := h.users.GetByEmail(r.Context(), in.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.Unauthorized(w, "invalid email or password")
			return
		}
		h.logger.Error("login lookup failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}

	if !authutil.CheckPassword(in.Password, user.PasswordHash) {
		jsonutil.Unauthorized(w, "invalid email or password")
		return
	}
	if !user.IsVerified {
		jsonutil.Forbidden(w, "email address not verified")
		return
	}

	token, err := h.tokens.IssueToken(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}

	h.logger.Info("user logged in", zap.String("user_id", user.ID.Hex()))
	jsonutil.OK(w, map[string]any{
		"token": token,
		"user":  user,
	})
}

type forgotPasswordInput struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
}

// ForgotPasswordHandler handles POST /forgot-password. The response is
// identical whether or not the address has an account, so the endpoint
// cannot be used to probe for registered emails.
func (h *Handler) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var in forgotPasswordInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if result := inputval.Validate(in); result.HasErrors() {
		jsonutil.BadRequest(w, result.First())
		return
	}

	user, err := h.users.GetByEmail(r.Context(), in.Email)
	if err == nil {
		resetToken, tokenErr := randomToken()
		if tokenErr == nil {
			expires := time.Now().Add(resetTokenTTL)
			if setErr := h.users.SetResetToken(r.Context(), user.ID, resetToken, expires); setErr == nil {
				h.sendResetEmail(user.Email, resetToken)
			} else {
				h.logger.Error("set reset token failed", zap.Error(setErr))
			}
		}
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.logger.Error("forgot-password lookup failed", zap.Error(err))
	}

	jsonutil.OK(w, map[string]string{
		"message": "if that address has an account, a reset link is on its way",
	})
}

type resetPasswordInput struct {
	Password string `json:"password" validate:"required" label:"Password"`
}

// ResetPasswordHandler handles POST /reset-password?token=.
func (h *Handler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		jsonutil.BadRequest(w, "missing reset token")
		return
	}

	var in resetPasswordInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	user, err := h.users.GetByValidResetToken(r.Context(), token, time.Now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "invalid or expired reset link")
			return
		}
		h.logger.Error("reset token lookup failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.logger.Error("password hash failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		h.logger.Error("password update failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
		return
	}

	h.logger.Info("password reset", zap.String("user_id", user.ID.Hex()))
	jsonutil.OK(w, map[string]string{"message": "password updated; you can now log in"})
}

// MeHandler handles GET /me for the authenticated user.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "authentication required")
		return
	}
	jsonutil.OK(w, map[string]any{"user": user})
}

func (h *Handler) sendVerificationEmail(to, username, token string) {
	verifyURL := h.baseURL + "/api/auth/verify-email?token=" + token
	if h.mail == nil {
		h.logger.Info("mailer not configured; verification link",
			zap.String("email", to),
			zap.String("url", verifyURL))
		return
	}

	go func() {
		text, html := mailer.VerificationEmail(mailer.VerificationEmailData{
			AppName:   h.mail.FromName(),
			Username:  username,
			VerifyURL: verifyURL,
		})
		if err := h.mail.Send(mailer.Email{
			To:       to,
			Subject:  "Verify your email address",
			TextBody: text,
			HTMLBody: html,
		}); err != nil {
			h.logger.Error("verification email failed", zap.String("email", to), zap.Error(err))
		}
	}()
}

func (h *Handler) sendResetEmail(to, token string) {
	resetURL := h.baseURL + "/reset-password?token=" + token
	if h.mail == nil {
		h.logger.Info("mailer not configured; reset link",
			zap.String("email", to),
			zap.String("url", resetURL))
		return
	}

	go func() {
		text, html := mailer.PasswordResetEmail(mailer.PasswordResetEmailData{
			AppName:   h.mail.FromName(),
			ResetURL:  resetURL,
			ExpiryMin: int(resetTokenTTL / time.Minute),
		})
		if err := h.mail.Send(mailer.Email{
			To:       to,
			Subject:  "Reset your password",
			TextBody: text,
			HTMLBody: html,
		}); err != nil {
			h.logger.Error("reset email failed", zap.String("email", to), zap.Error(err))
		}
	}()
}

// randomToken returns a 64-character hex token for email links.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
