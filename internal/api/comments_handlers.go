package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"clipstream/internal/models"
)

type commentRequest struct {
	Content string `json:"content"`
}

type commentListResponse struct {
	Comments []models.Comment `json:"comments"`
	Total    int              `json:"total"`
}

func (h *Handler) videoComments(w http.ResponseWriter, r *http.Request, videoID string) {
	switch r.Method {
	case http.MethodGet:
		if _, exists := h.Store.GetVideo(videoID); !exists {
			writeError(w, http.StatusNotFound, fmt.Errorf("video %s not found", videoID))
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
		comments, total := h.Store.ListComments(videoID, page, pageSize)
		writeJSON(w, http.StatusOK, commentListResponse{Comments: comments, Total: total})
	case http.MethodPost:
		actor, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		comment, err := h.Store.CreateComment(videoID, actor.ID, req.Content)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	default:
		h.methodNotAllowed(w, r, "GET, POST")
	}
}

func (h *Handler) videoLikes(w http.ResponseWriter, r *http.Request, videoID string) {
	h.likeResource(w, r, models.LikeTargetVideo, videoID)
}

// likeResource serves GET (count) and POST (toggle) for a like target.
func (h *Handler) likeResource(w http.ResponseWriter, r *http.Request, kind, targetID string) {
	switch r.Method {
	case http.MethodGet:
		count := h.Store.CountLikes(kind, targetID)
		writeJSON(w, http.StatusOK, map[string]int{"likes": count})
	case http.MethodPost:
		actor, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		liked, err := h.Store.ToggleLike(actor.ID, kind, targetID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"liked": liked,
			"likes": h.Store.CountLikes(kind, targetID),
		})
	default:
		h.methodNotAllowed(w, r, "GET, POST")
	}
}

// CommentByID serves /api/comments/{id} and its likes subresource.
func (h *Handler) CommentByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/comments/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, errors.New("comment id is required"))
		return
	}
	commentID := parts[0]

	if len(parts) > 1 {
		if parts[1] == "likes" {
			h.likeResource(w, r, models.LikeTargetComment, commentID)
			return
		}
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown comment resource %s", parts[1]))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		comment, ok := h.requireOwnComment(w, r, commentID)
		if !ok {
			return
		}
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := h.Store.UpdateComment(comment.ID, req.Content)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		comment, ok := h.requireOwnComment(w, r, commentID)
		if !ok {
			return
		}
		if err := h.Store.DeleteComment(comment.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.methodNotAllowed(w, r, "PATCH, DELETE")
	}
}

func (h *Handler) requireOwnComment(w http.ResponseWriter, r *http.Request, commentID string) (models.Comment, bool) {
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return models.Comment{}, false
	}
	comment, exists := h.Store.GetComment(commentID)
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Errorf("comment %s not found", commentID))
		return models.Comment{}, false
	}
	if comment.AuthorID != actor.ID {
		writeError(w, http.StatusForbidden, errors.New("not the comment author"))
		return models.Comment{}, false
	}
	return comment, true
}
