package shareapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	folderstore "github.com/mariam168/notakok/internal/app/store/folders"
	mediastore "github.com/mariam168/notakok/internal/app/store/media"
	sharelinkstore "github.com/mariam168/notakok/internal/app/store/sharelinks"
	"github.com/mariam168/notakok/internal/app/system/auth"
	"github.com/mariam168/notakok/internal/app/system/share"
	"github.com/mariam168/notakok/internal/domain/models"
	"github.com/mariam168/notakok/internal/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	engine := share.New(sharelinkstore.New(db), folderstore.New(db), mediastore.New(db), zap.NewNop())
	return Routes(NewHandler(engine, zap.NewNop())), db
}

func do(t *testing.T, router http.Handler, user *models.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = auth.WithTestUser(req, user)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedFolder(t *testing.T, db *mongo.Database, ownerID primitive.ObjectID) *models.Folder {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	folder, err := folderstore.New(db).Create(ctx, folderstore.CreateInput{Name: "Album", OwnerID: ownerID})
	if err != nil {
		t.Fatalf("creating folder: %v", err)
	}
	return folder
}

type linkResp struct {
	Link struct {
		ID        string `json:"id"`
		AccessKey string `json:"access_key"`
	} `json:"link"`
}

func createLink(t *testing.T, router http.Handler, user *models.User, body map[string]any) linkResp {
	t.Helper()
	w := do(t, router, user, http.MethodPost, "/", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create link status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp linkResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode link response: %v", err)
	}
	return resp
}

func TestShareLifecycle(t *testing.T) {
	router, db := newTestRouter(t)
	ana := testutil.CreateUser(t, db, "ana", "ana@example.com")
	folder := seedFolder(t, db, ana.ID)

	resp := createLink(t, router, ana, map[string]any{
		"itemId": folder.ID.Hex(), "itemType": "folder",
	})
	if resp.Link.AccessKey == "" {
		t.Fatal("created link should carry an access key")
	}

	// Anonymous resolution needs no auth and no body.
	w := do(t, router, nil, http.MethodPost, "/"+resp.Link.AccessKey, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve status = %d, body = %s", w.Code, w.Body.String())
	}
	if cors := w.Header().Get("Access-Control-Allow-Origin"); cors != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", cors)
	}
	var content struct {
		Type   string `json:"type"`
		Folder struct {
			Name string `json:"name"`
		} `json:"folder"`
	}
	json.Unmarshal(w.Body.Bytes(), &content)
	if content.Type != "folder" || content.Folder.Name != "Album" {
		t.Errorf("resolved content = %s", w.Body.String())
	}

	// The owner sees the link in their list.
	w = do(t, router, ana, http.MethodGet, "/", nil)
	var list struct {
		Links []json.RawMessage `json:"links"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Links) != 1 {
		t.Errorf("listed %d links, want 1", len(list.Links))
	}

	// Revoking kills the capability.
	w = do(t, router, ana, http.MethodDelete, "/"+resp.Link.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("revoke status = %d", w.Code)
	}
	w = do(t, router, nil, http.MethodPost, "/"+resp.Link.AccessKey, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("resolve after revoke status = %d, want 404", w.Code)
	}
}

func TestShare_PasswordGate(t *testing.T) {
	router, db := newTestRouter(t)
	ana := testutil.CreateUser(t, db, "ana", "ana@example.com")
	folder := seedFolder(t, db, ana.ID)

	resp := createLink(t, router, ana, map[string]any{
		"itemId": folder.ID.Hex(), "itemType": "folder", "password": "sekret99",
	})

	w := do(t, router, nil, http.MethodPost, "/"+resp.Link.AccessKey, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("gated resolve status = %d, want 403", w.Code)
	}
	var gate struct {
		RequiresPassword bool `json:"requiresPassword"`
	}
	json.Unmarshal(w.Body.Bytes(), &gate)
	if !gate.RequiresPassword {
		t.Error("response should flag requiresPassword")
	}

	w = do(t, router, nil, http.MethodPost, "/"+resp.Link.AccessKey, map[string]string{"password": "wrong999"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", w.Code)
	}

	w = do(t, router, nil, http.MethodPost, "/"+resp.Link.AccessKey, map[string]string{"password": "sekret99"})
	if w.Code != http.StatusOK {
		t.Errorf("correct password status = %d", w.Code)
	}
}

func TestShare_Rules(t *testing.T) {
	router, db := newTestRouter(t)
	ana := testutil.CreateUser(t, db, "ana", "ana@example.com")
	bob := testutil.CreateUser(t, db, "bob", "bob@example.com")
	folder := seedFolder(t, db, ana.ID)

	// Management endpoints demand auth.
	w := do(t, router, nil, http.MethodGet, "/", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list status = %d, want 401", w.Code)
	}

	// Sharing someone else's folder reads as absent.
	w = do(t, router, bob, http.MethodPost, "/", map[string]any{
		"itemId": folder.ID.Hex(), "itemType": "folder",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign share status = %d, want 404", w.Code)
	}

	// Bad item types are rejected.
	w = do(t, router, ana, http.MethodPost, "/", map[string]any{
		"itemId": folder.ID.Hex(), "itemType": "drive",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad item type status = %d, want 400", w.Code)
	}

	// Revocation is owner scoped.
	resp := createLink(t, router, ana, map[string]any{
		"itemId": folder.ID.Hex(), "itemType": "folder",
	})
	w = do(t, router, bob, http.MethodDelete, "/"+resp.Link.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign revoke status = %d, want 404", w.Code)
	}
}

func TestShare_Preflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/somekey9876", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("preflight should carry CORS headers")
	}
}
