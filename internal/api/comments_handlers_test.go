package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"clipstream/internal/models"
)

func TestVideoCommentsCreateAndList(t *testing.T) {
	handler, store := newTestHandler(t)
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	video := publishTestVideo(t, handler, alice, "clip", models.PrivacyPublic)

	body := jsonBody(t, commentRequest{Content: "great clip"})
	req := authedRequest(http.MethodPost, "/api/videos/"+video.ID+"/comments", body, bob)
	rec := httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var comment models.Comment
	decodeBody(t, rec, &comment)
	if comment.AuthorID != bob.ID || comment.VideoID != video.ID {
		t.Fatalf("unexpected comment: %+v", comment)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/videos/"+video.ID+"/comments", nil)
	rec = httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var list commentListResponse
	decodeBody(t, rec, &list)
	if list.Total != 1 || len(list.Comments) != 1 {
		t.Fatalf("expected one comment, got %+v", list)
	}
}

func TestCommentsOnMissingVideoReturnNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/videos/missing/comments", nil)
	rec := httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestCommentEditRestrictedToAuthor(t *testing.T) {
	handler, store := newTestHandler(t)
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	video := publishTestVideo(t, handler, alice, "clip", models.PrivacyPublic)
	comment, err := store.CreateComment(video.ID, bob.ID, "first take")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	body := jsonBody(t, commentRequest{Content: "edited"})
	req := authedRequest(http.MethodPatch, "/api/comments/"+comment.ID, body, alice)
	rec := httptest.NewRecorder()
	handler.CommentByID(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non author: expected status 403, got %d", rec.Code)
	}

	req = authedRequest(http.MethodPatch, "/api/comments/"+comment.ID, body, bob)
	rec = httptest.NewRecorder()
	handler.CommentByID(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("author: expected status 200, got %d", rec.Code)
	}
	var updated models.Comment
	decodeBody(t, rec, &updated)
	if updated.Content != "edited" {
		t.Fatalf("expected edited content, got %q", updated.Content)
	}

	req = authedRequest(http.MethodDelete, "/api/comments/"+comment.ID, nil, bob)
	rec = httptest.NewRecorder()
	handler.CommentByID(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", rec.Code)
	}
	if _, exists := store.GetComment(comment.ID); exists {
		t.Fatal("expected comment removed")
	}
}

func TestLikeToggleOnVideosAndComments(t *testing.T) {
	handler, store := newTestHandler(t)
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	video := publishTestVideo(t, handler, alice, "clip", models.PrivacyPublic)
	comment, err := store.CreateComment(video.ID, alice.ID, "first")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	toggle := func(target string) map[string]interface{} {
		req := authedRequest(http.MethodPost, target, nil, bob)
		rec := httptest.NewRecorder()
		switch {
		case target == "/api/videos/"+video.ID+"/likes":
			handler.VideoByID(rec, req)
		default:
			handler.CommentByID(rec, req)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle %s: expected status 200, got %d (%s)", target, rec.Code, rec.Body.String())
		}
		var payload map[string]interface{}
		decodeBody(t, rec, &payload)
		return payload
	}

	payload := toggle("/api/videos/" + video.ID + "/likes")
	if payload["liked"] != true || payload["likes"].(float64) != 1 {
		t.Fatalf("expected first toggle to like, got %v", payload)
	}
	payload = toggle("/api/videos/" + video.ID + "/likes")
	if payload["liked"] != false || payload["likes"].(float64) != 0 {
		t.Fatalf("expected second toggle to unlike, got %v", payload)
	}

	payload = toggle("/api/comments/" + comment.ID + "/likes")
	if payload["liked"] != true {
		t.Fatalf("expected comment like, got %v", payload)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/comments/"+comment.ID+"/likes", nil)
	rec := httptest.NewRecorder()
	handler.CommentByID(rec, req)
	var counts map[string]int
	decodeBody(t, rec, &counts)
	if counts["likes"] != 1 {
		t.Fatalf("expected one comment like, got %v", counts)
	}
}

func TestLikeToggleRequiresAuth(t *testing.T) {
	handler, store := newTestHandler(t)
	alice := createTestUser(t, store, "alice")
	video := publishTestVideo(t, handler, alice, "clip", models.PrivacyPublic)

	req := httptest.NewRequest(http.MethodPost, "/api/videos/"+video.ID+"/likes", nil)
	rec := httptest.NewRecorder()
	handler.VideoByID(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
