package dashboardapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	folderstore "github.com/mariam168/notakok/internal/app/store/folders"
	mediastore "github.com/mariam168/notakok/internal/app/store/media"
	"github.com/mariam168/notakok/internal/app/system/auth"
	"github.com/mariam168/notakok/internal/domain/models"
	"github.com/mariam168/notakok/internal/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := NewHandler(folderstore.New(db), mediastore.New(db), zap.NewNop())
	return Routes(h), db
}

func getDashboard(t *testing.T, router http.Handler, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	if user != nil {
		req = auth.WithTestUser(req, user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type dashboardResp struct {
	Stats struct {
		TotalFiles   int64 `json:"totalFiles"`
		TotalStorage int64 `json:"totalStorage"`
		Favorites    int64 `json:"favorites"`
		TotalFolders int64 `json:"totalFolders"`
	} `json:"stats"`
	Recent []struct {
		DisplayName string `json:"display_name"`
	} `json:"recent"`
}

func TestDashboard_RequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := getDashboard(t, router, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous dashboard status = %d, want 401", w.Code)
	}
}

func TestDashboard_EmptyAccount(t *testing.T) {
	router, db := newTestRouter(t)
	user := testutil.CreateUser(t, db, "ana", "ana@example.com")

	w := getDashboard(t, router, user)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", w.Code)
	}

	var resp dashboardResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Stats.TotalFiles != 0 || resp.Stats.TotalStorage != 0 || resp.Stats.TotalFolders != 0 {
		t.Errorf("fresh account stats = %+v, want zeroes", resp.Stats)
	}
	if len(resp.Recent) != 0 {
		t.Errorf("fresh account recent = %d items, want 0", len(resp.Recent))
	}
}

func TestDashboard_CountsLiveItemsOnly(t *testing.T) {
	router, db := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ana := testutil.CreateUser(t, db, "ana", "ana@example.com")
	bob := testutil.CreateUser(t, db, "bob", "bob@example.com")

	folders := folderstore.New(db)
	media := mediastore.New(db)

	if _, err := folders.Create(ctx, folderstore.CreateInput{Name: "Docs", OwnerID: ana.ID}); err != nil {
		t.Fatalf("creating folder: %v", err)
	}

	seed := func(owner primitive.ObjectID, name string, size int64) *models.Media {
		item, err := media.Create(ctx, mediastore.CreateInput{
			OwnerID: owner, Filename: name, DisplayName: name,
			Path: "uploads/" + name, MimeType: "image/png", Size: size,
		})
		if err != nil {
			t.Fatalf("creating media: %v", err)
		}
		return item
	}

	seed(ana.ID, "a.png", 100)
	trashed := seed(ana.ID, "b.png", 200)
	seed(bob.ID, "c.png", 400)

	fav := true
	if err := media.Update(ctx, trashed.ID, mediastore.UpdateInput{IsFavorite: &fav}); err != nil {
		t.Fatalf("favoriting: %v", err)
	}
	if err := media.SetDeleted(ctx, trashed.ID, true); err != nil {
		t.Fatalf("trashing: %v", err)
	}

	var resp dashboardResp
	w := getDashboard(t, router, ana)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	// Only ana's live item counts; the trashed favorite and bob's file
	// are both invisible.
	if resp.Stats.TotalFiles != 1 || resp.Stats.TotalStorage != 100 {
		t.Errorf("stats = %+v, want 1 file of 100 bytes", resp.Stats)
	}
	if resp.Stats.Favorites != 0 {
		t.Errorf("favorites = %d, want 0", resp.Stats.Favorites)
	}
	if resp.Stats.TotalFolders != 1 {
		t.Errorf("folders = %d, want 1", resp.Stats.TotalFolders)
	}
	if len(resp.Recent) != 1 || resp.Recent[0].DisplayName != "a.png" {
		t.Errorf("recent = %+v", resp.Recent)
	}
}
