package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

// ChannelByID serves /api/channels/{id} subresources. A channel is an
// account viewed from the outside: its videos, posts, and subscriber graph.
func (h *Handler) ChannelByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/channels/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, errors.New("channel id is required"))
		return
	}
	channelID := parts[0]
	if _, exists := h.Store.GetUser(channelID); !exists {
		writeError(w, http.StatusNotFound, fmt.Errorf("channel %s not found", channelID))
		return
	}

	if len(parts) == 1 {
		writeError(w, http.StatusNotFound, errors.New("channel resource is required"))
		return
	}

	switch parts[1] {
	case "subscription":
		h.channelSubscription(w, r, channelID)
	case "subscribers":
		h.channelSubscribers(w, r, channelID)
	case "videos":
		h.channelVideos(w, r, channelID)
	case "posts":
		h.channelPosts(w, r, channelID)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown channel resource %s", parts[1]))
	}
}

func (h *Handler) channelSubscription(w http.ResponseWriter, r *http.Request, channelID string) {
	switch r.Method {
	case http.MethodGet:
		actor, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{
			"subscribed": h.Store.IsSubscribed(actor.ID, channelID),
		})
	case http.MethodPost:
		actor, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		subscribed, err := h.Store.ToggleSubscription(actor.ID, channelID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"subscribed":  subscribed,
			"subscribers": h.Store.CountSubscribers(channelID),
		})
	default:
		h.methodNotAllowed(w, r, "GET, POST")
	}
}

func (h *Handler) channelSubscribers(w http.ResponseWriter, r *http.Request, channelID string) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, "GET")
		return
	}
	subscribers := h.Store.ListSubscribers(channelID)
	scrubbed := make([]models.User, 0, len(subscribers))
	for _, subscriber := range subscribers {
		scrubbed = append(scrubbed, subscriber.Scrubbed())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscribers": scrubbed,
		"total":       h.Store.CountSubscribers(channelID),
	})
}

func (h *Handler) channelVideos(w http.ResponseWriter, r *http.Request, channelID string) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, "GET")
		return
	}
	actor, authenticated := UserFromContext(r.Context())
	includeHidden := authenticated && actor.ID == channelID

	videos := h.Store.ListChannelVideos(storage.ChannelVideoFilter{
		ChannelID:     channelID,
		IncludeHidden: includeHidden,
	})
	writeJSON(w, http.StatusOK, map[string][]models.Video{"videos": videos})
}

func (h *Handler) channelPosts(w http.ResponseWriter, r *http.Request, channelID string) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, "GET")
		return
	}
	posts := h.Store.ListPosts(channelID)
	writeJSON(w, http.StatusOK, map[string][]models.CommunityPost{"posts": posts})
}
