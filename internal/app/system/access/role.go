package access

import (
	"strings"

	"github.com/mariam168/notakok/internal/domain/models"
)

// Role is the effective privilege a user holds on a folder.
type Role uint8

const (
	RoleViewer Role = iota
	RoleEditor
	RoleOwner
)

// CanWrite reports whether the role permits mutating operations
// (create, rename, move, trash, restore, upload).
func (r Role) CanWrite() bool {
	return r >= RoleEditor
}

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleEditor:
		return models.CollaboratorRoleEditor
	default:
		return models.CollaboratorRoleViewer
	}
}

// MarshalJSON renders the role as its string form.
func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// RoleFromString maps a stored collaborator role to a Role. Owner is
// never stored as a collaborator role, so only viewer and editor parse.
func RoleFromString(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.CollaboratorRoleViewer:
		return RoleViewer, true
	case models.CollaboratorRoleEditor:
		return RoleEditor, true
	}
	return RoleViewer, false
}
