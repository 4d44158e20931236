package inputval

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	type input struct {
		Name  string `json:"name" validate:"required,max=200" label:"Folder name"`
		Email string `json:"email" validate:"required,email" label:"Email address"`
		Role  string `json:"role" validate:"required,collabrole" label:"Role"`
	}

	good := input{Name: "Vacation", Email: "ana@example.com", Role: "editor"}
	if result := Validate(good); result.HasErrors() {
		t.Errorf("Validate() unexpected errors: %s", result.All())
	}

	missing := input{Email: "ana@example.com", Role: "viewer"}
	result := Validate(missing)
	if !result.HasErrors() {
		t.Fatal("Validate() should report missing name")
	}
	if !strings.Contains(result.First(), "Folder name") {
		t.Errorf("First() = %q, want label in message", result.First())
	}

	badRole := input{Name: "Vacation", Email: "ana@example.com", Role: "owner"}
	result = Validate(badRole)
	if !result.HasErrors() {
		t.Fatal("Validate() should reject role outside the enum")
	}
	if !strings.Contains(result.First(), "viewer") {
		t.Errorf("First() = %q, want allowed roles listed", result.First())
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Vacation", "Vacation"},
		{"  Vacation  ", "Vacation"},
		{"<script>alert(1)</script>Photos", "Photos"},
		{"<b>Bold</b> name", "Bold name"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanName(tt.in); got != tt.want {
			t.Errorf("CleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b+c@sub.example.org"}
	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = false, want true", e)
		}
	}
	invalid := []string{"", "no-at-sign", "@example.com", "user@", "Name <user@example.com>"}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = true, want false", e)
		}
	}
}

func TestIsValidCollaboratorRole(t *testing.T) {
	for _, role := range []string{"viewer", "editor", "Editor", " viewer "} {
		if !IsValidCollaboratorRole(role) {
			t.Errorf("IsValidCollaboratorRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"", "owner", "admin"} {
		if IsValidCollaboratorRole(role) {
			t.Errorf("IsValidCollaboratorRole(%q) = true, want false", role)
		}
	}
}

func TestIsValidObjectID(t *testing.T) {
	if !IsValidObjectID("655f1f77bcf86cd799439011") {
		t.Error("IsValidObjectID rejected a valid hex id")
	}
	for _, s := range []string{"", "not-hex", "655f1f77"} {
		if IsValidObjectID(s) {
			t.Errorf("IsValidObjectID(%q) = true, want false", s)
		}
	}
}
