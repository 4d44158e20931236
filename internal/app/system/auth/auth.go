// Package auth provides bearer-token authentication for the JSON API.
//
// Tokens are signed JWTs carrying the user id as the subject. The
// middleware parses the Authorization header, loads the account, and
// places it in the request context for handlers to read via CurrentUser.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mariam168/notakok/internal/domain/models"
)

type contextKey int

const currentUserKey contextKey = iota

// Token errors.
var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// UserFetcher loads an account by id for the middleware. The users store
// implements this.
type UserFetcher interface {
	FetchUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ConfigError is returned when token configuration is invalid.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// Manager issues and verifies bearer tokens.
// Use NewManager to create an instance.
type Manager struct {
	secret []byte
	expiry time.Duration
	logger *zap.Logger
}

// NewManager creates a token Manager.
//
// Parameters:
//   - secret: HMAC signing key (must be ≥32 chars in production)
//   - expiry: token lifetime (e.g., 24*time.Hour)
//   - secure: if true, weak keys fail startup instead of warning
//   - logger: zap logger for auth failure logging
func NewManager(secret string, expiry time.Duration, secure bool, logger *zap.Logger) (*Manager, error) {
	if secret == "" {
		return nil, &ConfigError{Message: "jwt secret is empty; provide ≥32 random chars"}
	}

	isWeak := len(secret) < 32 || isDefaultKey(secret)
	if secure && isWeak {
		return nil, &ConfigError{
			Message: "jwt secret is too weak for production; provide ≥32 random chars (not the default dev key)",
		}
	}
	if isWeak {
		logger.Warn("jwt secret is weak; 32+ random chars required in production",
			zap.Int("length", len(secret)),
			zap.Bool("is_default", isDefaultKey(secret)))
	}

	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	return &Manager{
		secret: []byte(secret),
		expiry: expiry,
		logger: logger,
	}, nil
}

// IssueToken signs a token for the given user id.
func (m *Manager) IssueToken(userID primitive.ObjectID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken verifies a token and returns the user id it was issued for.
func (m *Manager) ParseToken(tokenStr string) (primitive.ObjectID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return primitive.NilObjectID, ErrInvalidToken
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}
	return id, nil
}

// Middleware parses the Authorization header and, when a valid token is
// present, loads the account and attaches it to the request context.
// Requests without a token pass through unauthenticated; use RequireUser
// on routes that need an account.
func (m *Manager) Middleware(fetcher UserFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := m.ParseToken(tokenStr)
			if err != nil {
				m.logger.Debug("rejected bearer token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			user, err := fetcher.FetchUser(r.Context(), userID)
			if err != nil {
				// Token was valid but the account is gone.
				m.logger.Debug("token user not found",
					zap.String("path", r.URL.Path),
					zap.String("user_id", userID.Hex()))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, withUser(r, user))
		})
	}
}

// RequireUser ensures there is an authenticated user in context.
// API callers without one get a plain 401 JSON error.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the authenticated user from the request context.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user into the request context for testing.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return withUser(r, u)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// isDefaultKey checks if the secret appears to be a default/placeholder value.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	patterns := []string{
		"dev-only",
		"change-me",
		"placeholder",
		"default",
		"example",
		"insecure",
		"test-key",
		"secret123",
		"password",
	}
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
