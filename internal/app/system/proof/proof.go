// Package proof issues short-lived tokens proving a caller has already
// passed a folder's password gate.
//
// After a plaintext password verifies, the handler returns a proof token;
// clients replay it in the X-Folder-Proof header instead of re-sending
// the password with every request. Tokens are bound to one folder id and
// expire after the configured window.
package proof

import (
	"errors"
	"time"

	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Header is the request header clients use to replay a proof token.
const Header = "X-Folder-Proof"

// tokenName keys the securecookie codec; it is not an actual cookie.
const tokenName = "folder_proof"

// Token errors.
var (
	ErrInvalidProof = errors.New("invalid or expired proof token")
)

// payload is what gets signed into the token.
type payload struct {
	FolderID string `json:"f"`
}

// Issuer signs and verifies folder proof tokens.
type Issuer struct {
	codec *securecookie.SecureCookie
}

// NewIssuer creates an Issuer. The key signs tokens; maxAge bounds how
// long a verified password stays usable without re-entry.
func NewIssuer(key string, maxAge time.Duration) *Issuer {
	if maxAge <= 0 {
		maxAge = 15 * time.Minute
	}
	codec := securecookie.New([]byte(key), nil)
	codec.MaxAge(int(maxAge.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Issuer{codec: codec}
}

// Issue returns a proof token for the given folder.
func (i *Issuer) Issue(folderID primitive.ObjectID) (string, error) {
	return i.codec.Encode(tokenName, payload{FolderID: folderID.Hex()})
}

// Verify checks that token is a valid, unexpired proof for folderID.
func (i *Issuer) Verify(token string, folderID primitive.ObjectID) error {
	if token == "" {
		return ErrInvalidProof
	}
	var p payload
	if err := i.codec.Decode(tokenName, token, &p); err != nil {
		return ErrInvalidProof
	}
	if p.FolderID != folderID.Hex() {
		return ErrInvalidProof
	}
	return nil
}
