package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

type updateProfileRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
}

// UserByID serves /api/users/{id} and its subresources. The {id} segment
// accepts the literal "me" for the authenticated account.
func (h *Handler) UserByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/users/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, errors.New("user id is required"))
		return
	}

	userID := parts[0]
	if userID == "me" {
		user, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		userID = user.ID
	}

	if len(parts) == 1 {
		h.userResource(w, r, userID)
		return
	}

	switch parts[1] {
	case "avatar":
		h.userImageUpload(w, r, userID, "avatars/", func(url string) storage.UserUpdate {
			return storage.UserUpdate{AvatarURL: &url}
		})
	case "cover":
		h.userImageUpload(w, r, userID, "covers/", func(url string) storage.UserUpdate {
			return storage.UserUpdate{CoverURL: &url}
		})
	case "likes":
		h.userLikedVideos(w, r, userID)
	case "subscriptions":
		h.userSubscriptions(w, r, userID)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown user resource %s", parts[1]))
	}
}

func (h *Handler) userResource(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		user, exists := h.Store.GetUser(userID)
		if !exists {
			writeError(w, http.StatusNotFound, fmt.Errorf("user %s not found", userID))
			return
		}
		writeJSON(w, http.StatusOK, user.Scrubbed())
	case http.MethodPatch:
		actor, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		if actor.ID != userID {
			writeError(w, http.StatusForbidden, errors.New("cannot modify another account"))
			return
		}
		var req updateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		user, err := h.Store.UpdateUser(userID, storage.UserUpdate{
			FullName: req.FullName,
			Email:    req.Email,
			Bio:      req.Bio,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user.Scrubbed())
	case http.MethodDelete:
		actor, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		if actor.ID != userID {
			writeError(w, http.StatusForbidden, errors.New("cannot delete another account"))
			return
		}
		if err := h.Store.DeleteUser(userID); err != nil {
			writeDomainError(w, err)
			return
		}
		h.ClearAuthCookies(w, r)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.methodNotAllowed(w, r, "GET, PATCH, DELETE")
	}
}

func (h *Handler) userImageUpload(w http.ResponseWriter, r *http.Request, userID, keyPrefix string, update func(url string) storage.UserUpdate) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, "POST")
		return
	}
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if actor.ID != userID {
		writeError(w, http.StatusForbidden, errors.New("cannot modify another account"))
		return
	}

	ref, err := h.storeUploadedFile(r, "file", keyPrefix)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	user, err := h.Store.UpdateUser(userID, update(ref.URL))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Scrubbed())
}

func (h *Handler) userLikedVideos(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, "GET")
		return
	}
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if actor.ID != userID {
		writeError(w, http.StatusForbidden, errors.New("liked videos are private"))
		return
	}
	videos := h.Store.ListLikedVideos(userID)
	writeJSON(w, http.StatusOK, map[string][]models.Video{"videos": videos})
}

func (h *Handler) userSubscriptions(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, "GET")
		return
	}
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if actor.ID != userID {
		writeError(w, http.StatusForbidden, errors.New("subscriptions are private"))
		return
	}
	channels := h.Store.ListSubscribedChannels(userID)
	scrubbed := make([]models.User, 0, len(channels))
	for _, channel := range channels {
		scrubbed = append(scrubbed, channel.Scrubbed())
	}
	writeJSON(w, http.StatusOK, map[string][]models.User{"channels": scrubbed})
}
