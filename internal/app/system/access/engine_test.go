package access

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	folderstore "github.com/mariam168/notakok/internal/app/store/folders"
	mediastore "github.com/mariam168/notakok/internal/app/store/media"
	userstore "github.com/mariam168/notakok/internal/app/store/users"
	"github.com/mariam168/notakok/internal/app/system/authutil"
	"github.com/mariam168/notakok/internal/app/system/proof"
	"github.com/mariam168/notakok/internal/domain/models"
	"github.com/mariam168/notakok/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	proofs := proof.NewIssuer("engine-test-proof-signing-key-ok", 15*time.Minute)
	engine := New(folderstore.New(db), mediastore.New(db), userstore.New(db), proofs, zap.NewNop())
	return engine, db
}

func strptr(s string) *string { return &s }

func TestResolve_Root(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	grant, err := engine.Resolve(ctx, nil, userID)
	if err != nil {
		t.Fatalf("Resolve(root) error = %v", err)
	}
	if grant.Role != RoleOwner {
		t.Errorf("Role = %v, want owner", grant.Role)
	}
	if grant.EffectiveOwnerID != userID {
		t.Error("EffectiveOwnerID at root should be the caller")
	}
	if grant.Folder != nil {
		t.Error("Folder should be nil at root")
	}
}

func TestResolve_RoleLaws(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, db, "ana", "ana@example.com")
	editor := testutil.CreateUser(t, db, "bob", "bob@example.com")
	viewer := testutil.CreateUser(t, db, "cara", "cara@example.com")
	stranger := testutil.CreateUser(t, db, "dave", "dave@example.com")

	folder, err := engine.CreateFolder(ctx, CreateFolderInput{Name: "Vacation", UserID: owner.ID})
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if _, err := engine.AddCollaborator(ctx, folder.ID, owner.ID, editor.Email, models.CollaboratorRoleEditor); err != nil {
		t.Fatalf("AddCollaborator(editor) error = %v", err)
	}
	if _, err := engine.AddCollaborator(ctx, folder.ID, owner.ID, viewer.Email, models.CollaboratorRoleViewer); err != nil {
		t.Fatalf("AddCollaborator(viewer) error = %v", err)
	}

	tests := []struct {
		name     string
		userID   primitive.ObjectID
		wantRole Role
		wantErr  error
	}{
		{"owner", owner.ID, RoleOwner, nil},
		{"editor", editor.ID, RoleEditor, nil},
		{"viewer", viewer.ID, RoleViewer, nil},
		{"stranger", stranger.ID, 0, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grant, err := engine.Resolve(ctx, &folder.ID, tt.userID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if grant.Role != tt.wantRole {
				t.Errorf("Role = %v, want %v", grant.Role, tt.wantRole)
			}
			if grant.EffectiveOwnerID != owner.ID {
				t.Error("EffectiveOwnerID should be the folder owner")
			}
		})
	}

	// A missing folder and an inaccessible folder are indistinguishable.
	missing := primitive.NewObjectID()
	if _, err := engine.Resolve(ctx, &missing, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGatePassword(t *testing.T) {
	engine, _ := newTestEngine(t)

	hash, _ := authutil.HashPassword("sekret99")
	protected := &models.Folder{ID: primitive.NewObjectID(), PasswordHash: &hash}
	open := &models.Folder{ID: primitive.NewObjectID()}

	if err := engine.GatePassword(open, "", ""); err != nil {
		t.Errorf("unprotected folder should pass, got %v", err)
	}
	if err := engine.GatePassword(nil, "", ""); err != nil {
		t.Errorf("root should pass, got %v", err)
	}
	if err := engine.GatePassword(protected, "", ""); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("missing password = %v, want ErrPasswordRequired", err)
	}
	if err := engine.GatePassword(protected, "wrong", ""); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("wrong password = %v, want ErrInvalidPassword", err)
	}
	if err := engine.GatePassword(protected, "sekret99", ""); err != nil {
		t.Errorf("correct password = %v, want nil", err)
	}

	// Proof token substitutes for the plaintext, but only for its folder.
	token, err := engine.proofs.Issue(protected.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := engine.GatePassword(protected, "", token); err != nil {
		t.Errorf("valid proof = %v, want nil", err)
	}
	other := &models.Folder{ID: primitive.NewObjectID(), PasswordHash: &hash}
	if err := engine.GatePassword(other, "", token); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("proof for another folder = %v, want ErrPasswordRequired", err)
	}
}

func TestCreateFolder_InheritsParentOwner(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, db, "ana", "ana@example.com")
	editor := testutil.CreateUser(t, db, "bob", "bob@example.com")
	viewer := testutil.CreateUser(t, db, "cara", "cara@example.com")

	parent, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "Shared", UserID: owner.ID})
	engine.AddCollaborator(ctx, parent.ID, owner.ID, editor.Email, models.CollaboratorRoleEditor)
	engine.AddCollaborator(ctx, parent.ID, owner.ID, viewer.Email, models.CollaboratorRoleViewer)

	// An editor creating inside a shared folder extends the owner's tree.
	child, err := engine.CreateFolder(ctx, CreateFolderInput{Name: "Drafts", ParentID: &parent.ID, UserID: editor.ID})
	if err != nil {
		t.Fatalf("CreateFolder() as editor error = %v", err)
	}
	if child.OwnerID != owner.ID {
		t.Errorf("child OwnerID = %s, want parent owner %s", child.OwnerID.Hex(), owner.ID.Hex())
	}

	// Viewers cannot create.
	if _, err := engine.CreateFolder(ctx, CreateFolderInput{Name: "Nope", ParentID: &parent.ID, UserID: viewer.ID}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("CreateFolder() as viewer error = %v, want ErrAccessDenied", err)
	}

	// Empty names are rejected.
	if _, err := engine.CreateFolder(ctx, CreateFolderInput{Name: "  ", UserID: owner.ID}); !errors.Is(err, ErrValidation) {
		t.Errorf("CreateFolder(blank) error = %v, want ErrValidation", err)
	}
}

func TestUpdateFolder_PasswordGateAndChange(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, db, "ana", "ana@example.com")
	folder, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "Locked", Password: "sekret99", UserID: owner.ID})

	// Any change to a protected folder needs the current password.
	err := engine.UpdateFolder(ctx, folder.ID, owner.ID, UpdateFolderInput{Name: strptr("Renamed")})
	if !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("UpdateFolder() without password = %v, want ErrPasswordRequired", err)
	}
	err = engine.UpdateFolder(ctx, folder.ID, owner.ID, UpdateFolderInput{Name: strptr("Renamed"), CurrentPassword: "wrong"})
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("UpdateFolder() wrong password = %v, want ErrInvalidPassword", err)
	}

	// Rename with the right password, then remove the password.
	err = engine.UpdateFolder(ctx, folder.ID, owner.ID, UpdateFolderInput{
		Name:            strptr("Renamed"),
		CurrentPassword: "sekret99",
		NewPassword:     strptr(""),
	})
	if err != nil {
		t.Fatalf("UpdateFolder() error = %v", err)
	}

	grant, err := engine.Resolve(ctx, &folder.ID, owner.ID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if grant.Folder.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", grant.Folder.Name)
	}
	if grant.Folder.HasPassword() {
		t.Error("password should be removed")
	}
}

func TestFolderPasswords_NoAccountPolicy(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, db, "ana", "ana@example.com")

	// Folder gates take any non-empty password; the minimum length and
	// blocklist rules apply to account passwords only.
	folder, err := engine.CreateFolder(ctx, CreateFolderInput{Name: "Vacation", Password: "p1", UserID: owner.ID})
	if err != nil {
		t.Fatalf("CreateFolder(short password) error = %v", err)
	}

	grant, err := engine.Resolve(ctx, &folder.ID, owner.ID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := engine.GatePassword(grant.Folder, "p1", ""); err != nil {
		t.Errorf("gate with correct password = %v, want nil", err)
	}
	if err := engine.GatePassword(grant.Folder, "p2", ""); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("gate with wrong password = %v, want ErrInvalidPassword", err)
	}

	// Re-keying is just as lenient.
	err = engine.UpdateFolder(ctx, folder.ID, owner.ID, UpdateFolderInput{
		CurrentPassword: "p1",
		NewPassword:     strptr("p2"),
	})
	if err != nil {
		t.Fatalf("UpdateFolder(short new password) error = %v", err)
	}

	// Only passwords past the bcrypt limit are rejected.
	long := strings.Repeat("x", 73)
	if _, err := engine.CreateFolder(ctx, CreateFolderInput{Name: "Overlong", Password: long, UserID: owner.ID}); !errors.Is(err, ErrValidation) {
		t.Errorf("CreateFolder(overlong password) = %v, want ErrValidation", err)
	}
	err = engine.UpdateFolder(ctx, folder.ID, owner.ID, UpdateFolderInput{
		CurrentPassword: "p2",
		NewPassword:     strptr(long),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("UpdateFolder(overlong password) = %v, want ErrValidation", err)
	}
}

func TestUpdateFolder_MoveRejectsCycles(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, db, "ana", "ana@example.com")
	a, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "A", UserID: owner.ID})
	b, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "B", ParentID: &a.ID, UserID: owner.ID})
	c, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "C", ParentID: &b.ID, UserID: owner.ID})

	// A into its own grandchild C: cycle.
	err := engine.UpdateFolder(ctx, a.ID, owner.ID, UpdateFolderInput{MoveParent: true, NewParentID: &c.ID})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("move into subtree = %v, want ErrValidation", err)
	}

	// A into itself.
	err = engine.UpdateFolder(ctx, a.ID, owner.ID, UpdateFolderInput{MoveParent: true, NewParentID: &a.ID})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("move into itself = %v, want ErrValidation", err)
	}

	// C to the root: fine.
	if err := engine.UpdateFolder(ctx, c.ID, owner.ID, UpdateFolderInput{MoveParent: true}); err != nil {
		t.Fatalf("move to root error = %v", err)
	}
	grant, _ := engine.Resolve(ctx, &c.ID, owner.ID)
	if grant.Folder.ParentID != nil {
		t.Error("C should now be a root folder")
	}

	// Cross-owner moves are rejected.
	other := testutil.CreateUser(t, db, "eve", "eve@example.com")
	theirs, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "Theirs", UserID: other.ID})
	err = engine.UpdateFolder(ctx, c.ID, owner.ID, UpdateFolderInput{MoveParent: true, NewParentID: &theirs.ID})
	if !errors.Is(err, ErrNotFound) {
		// owner has no relationship to the destination at all
		t.Fatalf("cross-owner move = %v, want ErrNotFound", err)
	}
}

func TestUpdateFolder_MoveRejectsCorruptAncestry(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, db, "ana", "ana@example.com")
	a, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "A", UserID: owner.ID})
	b, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "B", ParentID: &a.ID, UserID: owner.ID})

	// Forge a looped parent chain (A -> B -> A) straight through the
	// store, as a bad migration or manual edit could.
	if err := folderstore.New(db).Update(ctx, a.ID, folderstore.UpdateInput{SetParent: true, ParentID: &b.ID}); err != nil {
		t.Fatalf("forging loop: %v", err)
	}

	c, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "C", UserID: owner.ID})
	err := engine.UpdateFolder(ctx, c.ID, owner.ID, UpdateFolderInput{MoveParent: true, NewParentID: &a.ID})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("move under looped ancestry = %v, want ErrValidation", err)
	}
}

func TestResolveMedia(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, db, "ana", "ana@example.com")
	editor := testutil.CreateUser(t, db, "bob", "bob@example.com")
	viewer := testutil.CreateUser(t, db, "cara", "cara@example.com")

	folder, _ := engine.CreateFolder(ctx, CreateFolderInput{Name: "Pics", UserID: owner.ID})
	engine.AddCollaborator(ctx, folder.ID, owner.ID, editor.Email, models.CollaboratorRoleEditor)
	engine.AddCollaborator(ctx, folder.ID, owner.ID, viewer.Email, models.CollaboratorRoleViewer)

	media := mediastore.New(db)
	item, err := media.Create(ctx, mediastore.CreateInput{
		OwnerID:     owner.ID,
		Filename:    "abc.jpg",
		DisplayName: "beach.jpg",
		Path:        "uploads/abc.jpg",
		MimeType:    "image/jpeg",
		Size:        1024,
		FolderID:    &folder.ID,
	})
	if err != nil {
		t.Fatalf("media Create() error = %v", err)
	}

	if _, err := engine.ResolveMedia(ctx, item.ID, owner.ID); err != nil {
		t.Errorf("owner ResolveMedia() error = %v", err)
	}
	if _, err := engine.ResolveMedia(ctx, item.ID, editor.ID); err != nil {
		t.Errorf("editor ResolveMedia() error = %v", err)
	}
	if _, err := engine.ResolveMedia(ctx, item.ID, viewer.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("viewer ResolveMedia() = %v, want ErrNotFound", err)
	}
	if _, err := engine.ResolveMedia(ctx, primitive.NewObjectID(), owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing ResolveMedia() = %v, want ErrNotFound", err)
	}
}
