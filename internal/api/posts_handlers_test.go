package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"clipstream/internal/models"
)

func TestCommunityPostLifecycle(t *testing.T) {
	handler, store := newTestHandler(t)
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	body := jsonBody(t, postRequest{Content: "new video on friday"})
	req := authedRequest(http.MethodPost, "/api/posts", body, alice)
	rec := httptest.NewRecorder()
	handler.Posts(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected status 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var post models.CommunityPost
	decodeBody(t, rec, &post)
	if post.AuthorID != alice.ID {
		t.Fatalf("expected author %s, got %s", alice.ID, post.AuthorID)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/posts/"+post.ID, nil)
	rec = httptest.NewRecorder()
	handler.PostByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("read: expected status 200, got %d", rec.Code)
	}

	body = jsonBody(t, postRequest{Content: "moved to saturday"})
	req = authedRequest(http.MethodPatch, "/api/posts/"+post.ID, body, bob)
	rec = httptest.NewRecorder()
	handler.PostByID(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("edit by non author: expected status 403, got %d", rec.Code)
	}

	req = authedRequest(http.MethodPatch, "/api/posts/"+post.ID, body, alice)
	rec = httptest.NewRecorder()
	handler.PostByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: expected status 200, got %d", rec.Code)
	}
	var updated models.CommunityPost
	decodeBody(t, rec, &updated)
	if updated.Content != "moved to saturday" {
		t.Fatalf("expected updated content, got %q", updated.Content)
	}

	req = authedRequest(http.MethodPost, "/api/posts/"+post.ID+"/likes", nil, bob)
	rec = httptest.NewRecorder()
	handler.PostByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("like: expected status 200, got %d", rec.Code)
	}
	var likePayload map[string]interface{}
	decodeBody(t, rec, &likePayload)
	if likePayload["liked"] != true {
		t.Fatalf("expected post liked, got %v", likePayload)
	}

	req = authedRequest(http.MethodDelete, "/api/posts/"+post.ID, nil, alice)
	rec = httptest.NewRecorder()
	handler.PostByID(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", rec.Code)
	}
	if _, exists := store.GetPost(post.ID); exists {
		t.Fatal("expected post removed")
	}
}

func TestDashboardAggregatesChannelStats(t *testing.T) {
	handler, store := newTestHandler(t)
	creator := createTestUser(t, store, "creator")
	fan := createTestUser(t, store, "fan")

	public := publishTestVideo(t, handler, creator, "public clip", models.PrivacyPublic)
	publishTestVideo(t, handler, creator, "draft clip", models.PrivacyPrivate)

	if err := store.AddVideoViews(public.ID, 7); err != nil {
		t.Fatalf("AddVideoViews: %v", err)
	}
	if _, err := store.ToggleLike(fan.ID, models.LikeTargetVideo, public.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if _, err := store.ToggleSubscription(fan.ID, creator.ID); err != nil {
		t.Fatalf("ToggleSubscription: %v", err)
	}

	req := authedRequest(http.MethodGet, "/api/dashboard", nil, creator)
	rec := httptest.NewRecorder()
	handler.Dashboard(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp dashboardResponse
	decodeBody(t, rec, &resp)
	if resp.Stats.Videos != 2 {
		t.Fatalf("expected 2 videos, got %d", resp.Stats.Videos)
	}
	if resp.Stats.Views != 7 {
		t.Fatalf("expected 7 views, got %d", resp.Stats.Views)
	}
	if resp.Stats.Likes != 1 {
		t.Fatalf("expected 1 like, got %d", resp.Stats.Likes)
	}
	if resp.Stats.Subscribers != 1 {
		t.Fatalf("expected 1 subscriber, got %d", resp.Stats.Subscribers)
	}
	if len(resp.Videos) != 2 {
		t.Fatalf("expected hidden videos in dashboard list, got %d", len(resp.Videos))
	}
}

func TestDashboardRequiresAuth(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.Dashboard(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
