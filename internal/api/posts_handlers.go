package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"clipstream/internal/models"
)

type postRequest struct {
	Content string `json:"content"`
}

// Posts serves POST /api/posts: publishing a community post.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, "POST")
		return
	}
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	post, err := h.Store.CreatePost(actor.ID, req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// PostByID serves /api/posts/{id} and its likes subresource.
func (h *Handler) PostByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, errors.New("post id is required"))
		return
	}
	postID := parts[0]

	if len(parts) > 1 {
		if parts[1] == "likes" {
			h.likeResource(w, r, models.LikeTargetPost, postID)
			return
		}
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown post resource %s", parts[1]))
		return
	}

	switch r.Method {
	case http.MethodGet:
		post, exists := h.Store.GetPost(postID)
		if !exists {
			writeError(w, http.StatusNotFound, fmt.Errorf("post %s not found", postID))
			return
		}
		writeJSON(w, http.StatusOK, post)
	case http.MethodPatch:
		post, ok := h.requireOwnPost(w, r, postID)
		if !ok {
			return
		}
		var req postRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := h.Store.UpdatePost(post.ID, req.Content)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		post, ok := h.requireOwnPost(w, r, postID)
		if !ok {
			return
		}
		if err := h.Store.DeletePost(post.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.methodNotAllowed(w, r, "GET, PATCH, DELETE")
	}
}

func (h *Handler) requireOwnPost(w http.ResponseWriter, r *http.Request, postID string) (models.CommunityPost, bool) {
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return models.CommunityPost{}, false
	}
	post, exists := h.Store.GetPost(postID)
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Errorf("post %s not found", postID))
		return models.CommunityPost{}, false
	}
	if post.AuthorID != actor.ID {
		writeError(w, http.StatusForbidden, errors.New("not the post author"))
		return models.CommunityPost{}, false
	}
	return post, true
}
