package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shevett/claimit/internal/auth"
	"github.com/shevett/claimit/internal/cache"
	"github.com/shevett/claimit/internal/marketplace"
	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository/memory"
	"github.com/shevett/claimit/internal/storage"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type noopNotifier struct{}

func (noopNotifier) ItemPosted(models.Item, models.User, []models.Community) {}
func (noopNotifier) ItemClaimed(models.Item, models.Claim)                   {}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := memory.NewDB()
	users := memory.NewUserStore(db)
	store := storage.NewMemory()
	logger := zap.NewNop()

	svc := marketplace.NewService(
		memory.NewItemStore(db),
		memory.NewClaimStore(db),
		memory.NewCommunityStore(db),
		users,
		store,
		cache.NewMemory(),
		time.Minute,
		noopNotifier{},
		logger,
	)

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Auth:      NewAuthHandler(auth.NewDevProvider(), users, testSecret, time.Hour, logger),
		User:      NewUserHandler(users, svc, logger),
		Item:      NewItemHandler(svc, logger),
		Claim:     NewClaimHandler(svc, logger),
		Community: NewCommunityHandler(svc, logger),
		Image:     NewImageHandler(store, logger),
	}, testSecret)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, name string) string {
	t.Helper()
	code := fmt.Sprintf("dev:ext-%s:%s@example.com:%s", name, name, name)
	w := do(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{"code": code})
	if w.Code != http.StatusOK {
		t.Fatalf("login for %s: status %d body %s", name, w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return resp.Token
}

func postItem(t *testing.T, r *gin.Engine, token, title string) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/v1/items", token, map[string]any{
		"title":       title,
		"description": "a " + title,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("posting %s: status %d body %s", title, w.Code, w.Body.String())
	}
	var item models.Item
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decoding item: %v", err)
	}
	return item.ID.String()
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestLoginRejectsBadCode(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{"code": "bogus"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d body %s", w.Code, w.Body.String())
	}
}

func TestMutationsRequireToken(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/v1/items", "", map[string]any{
		"title": "t", "description": "d",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("post without token: expected 401, got %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/v1/items", "not-a-valid-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("post with garbage token: expected 401, got %d", w.Code)
	}
}

func TestAnonymousCanBrowse(t *testing.T) {
	r := newTestRouter(t)
	owner := login(t, r, "owner")
	itemID := postItem(t, r, owner, "couch")

	w := do(t, r, http.MethodGet, "/v1/items", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous list: status %d", w.Code)
	}
	var views []models.ItemView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(views) != 1 || views[0].Item.ID.String() != itemID {
		t.Errorf("expected the posted item in the listing, got %+v", views)
	}

	w = do(t, r, http.MethodGet, "/v1/items/"+itemID, "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("anonymous get: status %d", w.Code)
	}
}

func TestClaimFlowOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	owner := login(t, r, "owner")
	claimant := login(t, r, "claimant")
	itemID := postItem(t, r, owner, "table")

	// Owner claiming their own item conflicts.
	if w := do(t, r, http.MethodPost, "/v1/items/"+itemID+"/claims", owner, nil); w.Code != http.StatusConflict {
		t.Errorf("owner claim: expected 409, got %d", w.Code)
	}

	if w := do(t, r, http.MethodPost, "/v1/items/"+itemID+"/claims", claimant, nil); w.Code != http.StatusCreated {
		t.Fatalf("claim: expected 201, got %d body %s", w.Code, w.Body.String())
	}
	if w := do(t, r, http.MethodPost, "/v1/items/"+itemID+"/claims", claimant, nil); w.Code != http.StatusConflict {
		t.Errorf("double claim: expected 409, got %d", w.Code)
	}

	// The waitlist is readable by anyone who can see the item.
	w := do(t, r, http.MethodGet, "/v1/items/"+itemID+"/claims", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list claims: status %d", w.Code)
	}
	var claims []models.Claim
	if err := json.Unmarshal(w.Body.Bytes(), &claims); err != nil {
		t.Fatalf("decoding claims: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("expected 1 claim, got %d", len(claims))
	}

	// The claimant's dashboard shows the item at position 1.
	w = do(t, r, http.MethodGet, "/v1/users/me/claims", claimant, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("my claims: status %d", w.Code)
	}
	var mine []models.ItemView
	if err := json.Unmarshal(w.Body.Bytes(), &mine); err != nil {
		t.Fatalf("decoding my claims: %v", err)
	}
	if len(mine) != 1 || mine[0].ViewerPosition != 1 {
		t.Errorf("expected position 1, got %+v", mine)
	}

	if w := do(t, r, http.MethodDelete, "/v1/items/"+itemID+"/claims", claimant, nil); w.Code != http.StatusNoContent {
		t.Errorf("withdraw: expected 204, got %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/v1/items/"+itemID+"/claims", claimant, nil); w.Code != http.StatusConflict {
		t.Errorf("second withdraw: expected 409, got %d", w.Code)
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	r := newTestRouter(t)
	owner := login(t, r, "owner")
	stranger := login(t, r, "stranger")
	itemID := postItem(t, r, owner, "bike")

	if w := do(t, r, http.MethodPost, "/v1/items/"+itemID+"/gone", stranger, nil); w.Code != http.StatusForbidden {
		t.Errorf("stranger gone: expected 403, got %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/v1/items/"+itemID+"/gone", owner, nil); w.Code != http.StatusNoContent {
		t.Errorf("gone: expected 204, got %d", w.Code)
	}

	// Gone items drop out of the default listing.
	w := do(t, r, http.MethodGet, "/v1/items", "", nil)
	var views []models.ItemView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("expected gone item hidden, got %+v", views)
	}

	if w := do(t, r, http.MethodPost, "/v1/items/"+itemID+"/relist", owner, nil); w.Code != http.StatusNoContent {
		t.Errorf("relist: expected 204, got %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/v1/items/"+itemID, owner, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/v1/items/"+itemID, owner, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", w.Code)
	}
}

func TestPreferencesEndpoint(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "prefuser")

	w := do(t, r, http.MethodPatch, "/v1/users/me/preferences", token, map[string]any{
		"show_gone_items":           true,
		"email_notifications":       false,
		"new_listing_notifications": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch prefs: status %d body %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/v1/users/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get me: status %d", w.Code)
	}
	var me models.User
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decoding user: %v", err)
	}
	if !me.Prefs.ShowGoneItems || me.Prefs.EmailNotifications || !me.Prefs.NewListingNotifications {
		t.Errorf("prefs not persisted: %+v", me.Prefs)
	}
}

func TestCommunityEndpoints(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "founder")

	w := do(t, r, http.MethodPost, "/v1/communities", token, map[string]any{
		"short_name": "oak-ave",
		"full_name":  "Oak Avenue",
		"private":    true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create community: status %d body %s", w.Code, w.Body.String())
	}
	var community models.Community
	if err := json.Unmarshal(w.Body.Bytes(), &community); err != nil {
		t.Fatalf("decoding community: %v", err)
	}

	w = do(t, r, http.MethodGet, "/v1/communities", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list communities: status %d", w.Code)
	}
	var list []models.Community
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	// The seeded default plus the new one.
	if len(list) != 2 {
		t.Errorf("expected 2 communities, got %d", len(list))
	}

	member := login(t, r, "member")
	path := fmt.Sprintf("/v1/communities/%d/join", community.ID)
	if w := do(t, r, http.MethodPost, path, member, nil); w.Code != http.StatusNoContent {
		t.Errorf("join: expected 204, got %d", w.Code)
	}
	path = fmt.Sprintf("/v1/communities/%d/leave", community.ID)
	if w := do(t, r, http.MethodPost, path, member, nil); w.Code != http.StatusNoContent {
		t.Errorf("leave: expected 204, got %d", w.Code)
	}
}
