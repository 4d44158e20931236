package authapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/mariam168/notakok/internal/app/store/users"
	"github.com/mariam168/notakok/internal/app/system/auth"
	"github.com/mariam168/notakok/internal/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *userstore.Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)

	tokens, err := auth.NewManager("unit-test-signing-key-0123456789abcdef", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	h := NewHandler(users, tokens, nil, "http://localhost:8080", zap.NewNop())

	r := chi.NewRouter()
	r.Use(tokens.Middleware(users))
	r.Mount("/", Routes(h))
	return r, users, db
}

func postJSON(t *testing.T, router http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, router http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	router, users, _ := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	w := postJSON(t, router, "/register", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "sekret99",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	// Login is refused until the email is verified.
	w = postJSON(t, router, "/login", map[string]string{
		"email": "ana@example.com", "password": "sekret99",
	}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("unverified login status = %d, want 403", w.Code)
	}

	user, err := users.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if user.VerificationToken == nil {
		t.Fatal("registration should store a verification token")
	}

	w = get(t, router, "/verify-email?token="+*user.VerificationToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body = %s", w.Code, w.Body.String())
	}

	// The link is single use.
	w = get(t, router, "/verify-email?token="+*user.VerificationToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("reused verification link status = %d, want 404", w.Code)
	}

	w = postJSON(t, router, "/login", map[string]string{
		"email": "ANA@example.com", "password": "sekret99",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}

	var loginResp struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.Token == "" || loginResp.User.Username != "ana" {
		t.Fatalf("login response = %s", w.Body.String())
	}

	// The bearer token works on /me.
	w = get(t, router, "/me", map[string]string{"Authorization": "Bearer " + loginResp.Token})
	if w.Code != http.StatusOK {
		t.Fatalf("/me status = %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password_hash")) {
		t.Error("/me must not expose the password hash")
	}

	// Without a token /me is 401.
	w = get(t, router, "/me", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /me status = %d, want 401", w.Code)
	}
}

func TestRegister_Rules(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// Weak password.
	w := postJSON(t, router, "/register", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "123",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("weak password status = %d, want 400", w.Code)
	}

	// Bad email.
	w = postJSON(t, router, "/register", map[string]string{
		"username": "ana", "email": "not-an-email", "password": "sekret99",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad email status = %d, want 400", w.Code)
	}

	// Duplicate email conflicts, case-insensitively.
	w = postJSON(t, router, "/register", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "sekret99",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}
	w = postJSON(t, router, "/register", map[string]string{
		"username": "ana2", "email": "ANA@Example.com", "password": "sekret99",
	}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", w.Code)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := postJSON(t, router, "/login", map[string]string{
		"email": "nobody@example.com", "password": "sekret99",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want 401", w.Code)
	}

	postJSON(t, router, "/register", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "sekret99",
	}, nil)
	w = postJSON(t, router, "/login", map[string]string{
		"email": "ana@example.com", "password": "wrongpass",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", w.Code)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	router, users, db := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.CreateUser(t, db, "ana", "ana@example.com")

	// Unknown addresses get the same response as known ones.
	w := postJSON(t, router, "/forgot-password", map[string]string{"email": "nobody@example.com"}, nil)
	if w.Code != http.StatusOK {
		t.Errorf("unknown forgot status = %d, want 200", w.Code)
	}

	w = postJSON(t, router, "/forgot-password", map[string]string{"email": "ana@example.com"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("forgot status = %d", w.Code)
	}

	stored, err := users.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if stored.ResetPasswordToken == nil {
		t.Fatal("forgot-password should store a reset token")
	}

	w = postJSON(t, router, "/reset-password?token="+*stored.ResetPasswordToken, map[string]string{"password": "newpass77"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d, body = %s", w.Code, w.Body.String())
	}

	// The token is consumed.
	w = postJSON(t, router, "/reset-password?token="+*stored.ResetPasswordToken, map[string]string{"password": "another88"}, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("reused reset token status = %d, want 404", w.Code)
	}

	// The new password logs in; the old one no longer does.
	w = postJSON(t, router, "/login", map[string]string{"email": "ana@example.com", "password": "newpass77"}, nil)
	if w.Code != http.StatusOK {
		t.Errorf("login with new password status = %d", w.Code)
	}
	w = postJSON(t, router, "/login", map[string]string{"email": "ana@example.com", "password": "testpass123"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("login with old password status = %d, want 401", w.Code)
	}
}
