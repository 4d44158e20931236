package jsonutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mariam168/notakok/internal/app/system/access"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]string{"message": "hello"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"message":"hello"}` {
		t.Errorf("body = %q", body)
	}
}

func TestJSON_NilData(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, nil)
	if rec.Body.Len() != 0 {
		t.Errorf("body should be empty, got %q", rec.Body.String())
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "resource not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json unmarshal error: %v", err)
	}
	if got["error"] != "resource not found" {
		t.Errorf("error = %q", got["error"])
	}
}

func TestPasswordGate(t *testing.T) {
	rec := httptest.NewRecorder()
	PasswordGate(rec, http.StatusForbidden, "password required")

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	var got struct {
		Error            string `json:"error"`
		RequiresPassword bool   `json:"requiresPassword"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json unmarshal error: %v", err)
	}
	if !got.RequiresPassword {
		t.Error("requiresPassword should be true")
	}
}

func TestEngineError(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		wantStatus       int
		requiresPassword bool
	}{
		{"not found", access.ErrNotFound, http.StatusNotFound, false},
		{"access denied", access.ErrAccessDenied, http.StatusForbidden, false},
		{"password required", access.ErrPasswordRequired, http.StatusForbidden, true},
		{"invalid password", access.ErrInvalidPassword, http.StatusUnauthorized, true},
		{"conflict", access.ErrConflict, http.StatusConflict, false},
		{"validation", fmt.Errorf("%w: name is required", access.ErrValidation), http.StatusBadRequest, false},
		{"wrapped not found", fmt.Errorf("resolving parent: %w", access.ErrNotFound), http.StatusNotFound, false},
		{"unexpected", fmt.Errorf("connection reset"), http.StatusInternalServerError, false},
	}

	logger := zap.NewNop()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/content/folders/root", nil)
			EngineError(rec, req, logger, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var got map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("json unmarshal error: %v", err)
			}
			_, hasFlag := got["requiresPassword"]
			if hasFlag != tt.requiresPassword {
				t.Errorf("requiresPassword present = %v, want %v", hasFlag, tt.requiresPassword)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type input struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Vacation","role":"editor"}`))
	var in input
	if err := Decode(req, &in); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if in.Name != "Vacation" || in.Role != "editor" {
		t.Errorf("decoded = %+v", in)
	}

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{invalid}`))
	if err := Decode(bad, &in); err == nil {
		t.Error("Decode() should fail on malformed JSON")
	}
}
