package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"clipstream/internal/auth"
	"clipstream/internal/models"
	"clipstream/internal/observability/metrics"
	"clipstream/internal/storage"
)

func newTestHandler(t *testing.T) (*Handler, storage.Repository) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	store, err := storage.NewJSONRepository(path)
	if err != nil {
		t.Fatalf("NewJSONRepository error: %v", err)
	}
	codec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}
	handler := NewHandler(store, auth.NewSessionManager(codec, store))
	handler.Metrics = metrics.New()
	return handler, store
}

func createTestUser(t *testing.T, store storage.Repository, username string) models.User {
	t.Helper()
	user, err := store.CreateUser(storage.CreateUserParams{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return user
}

func authedRequest(method, target string, body []byte, user models.User) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(ContextWithUser(req.Context(), user.Scrubbed()))
}

func jsonBody(t *testing.T, payload interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return body
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %s not found", name)
	return nil
}

func publishTestVideo(t *testing.T, handler *Handler, owner models.User, title, privacy string) models.Video {
	t.Helper()
	body := jsonBody(t, publishVideoRequest{
		Title:    title,
		Privacy:  privacy,
		VideoURL: "https://cdn.example.com/" + title + ".mp4",
	})
	req := authedRequest(http.MethodPost, "/api/videos", body, owner)
	rec := httptest.NewRecorder()
	handler.Videos(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("publish %s: expected status 201, got %d (%s)", title, rec.Code, rec.Body.String())
	}
	var video models.Video
	decodeBody(t, rec, &video)
	return video
}

func TestUserResourceScrubsCredentials(t *testing.T) {
	handler, store := newTestHandler(t)
	user := createTestUser(t, store, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/users/"+user.ID, nil)
	rec := httptest.NewRecorder()
	handler.UserByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("passwordHash")) {
		t.Fatal("response leaked password hash")
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("refreshToken")) {
		t.Fatal("response leaked refresh token")
	}
}

func TestUserResourceMeAliasRequiresAuth(t *testing.T) {
	handler, store := newTestHandler(t)
	user := createTestUser(t, store, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	handler.UserByID(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without auth, got %d", rec.Code)
	}

	req = authedRequest(http.MethodGet, "/api/users/me", nil, user)
	rec = httptest.NewRecorder()
	handler.UserByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got models.User
	decodeBody(t, rec, &got)
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}
}

func TestUpdateProfileRejectsOtherAccounts(t *testing.T) {
	handler, store := newTestHandler(t)
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	bio := "hello"
	body := jsonBody(t, updateProfileRequest{Bio: &bio})
	req := authedRequest(http.MethodPatch, "/api/users/"+alice.ID, body, bob)
	rec := httptest.NewRecorder()
	handler.UserByID(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}

	req = authedRequest(http.MethodPatch, "/api/users/"+alice.ID, body, alice)
	rec = httptest.NewRecorder()
	handler.UserByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var got models.User
	decodeBody(t, rec, &got)
	if got.Bio != "hello" {
		t.Fatalf("expected updated bio, got %q", got.Bio)
	}
}

func TestDeleteAccountClearsCookies(t *testing.T) {
	handler, store := newTestHandler(t)
	alice := createTestUser(t, store, "alice")

	req := authedRequest(http.MethodDelete, "/api/users/"+alice.ID, nil, alice)
	rec := httptest.NewRecorder()
	handler.UserByID(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if _, exists := store.GetUser(alice.ID); exists {
		t.Fatal("expected account to be removed")
	}
	cookie := findCookie(t, rec.Result().Cookies(), "accessToken")
	if cookie.MaxAge != -1 {
		t.Fatalf("expected cleared access cookie, got MaxAge %d", cookie.MaxAge)
	}
}

func TestHealthReportsComponents(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload struct {
		Status     string `json:"status"`
		Components []struct {
			Component string `json:"component"`
			Status    string `json:"status"`
		} `json:"components"`
	}
	decodeBody(t, rec, &payload)
	if payload.Status != "ok" {
		t.Fatalf("expected ok status, got %q", payload.Status)
	}
	if len(payload.Components) == 0 || payload.Components[0].Component != "datastore" {
		t.Fatalf("expected datastore component, got %+v", payload.Components)
	}
}
