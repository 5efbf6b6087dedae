package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type playlistVideoRequest struct {
	VideoID string `json:"videoId"`
}

// Playlists serves /api/playlists: the caller's playlists and creation.
func (h *Handler) Playlists(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		playlists := h.Store.ListPlaylists(actor.ID)
		writeJSON(w, http.StatusOK, map[string][]models.Playlist{"playlists": playlists})
	case http.MethodPost:
		var req playlistRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		playlist, err := h.Store.CreatePlaylist(actor.ID, req.Name, req.Description)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, playlist)
	default:
		h.methodNotAllowed(w, r, "GET, POST")
	}
}

// PlaylistByID serves /api/playlists/{id} and its videos subresource.
func (h *Handler) PlaylistByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/playlists/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, errors.New("playlist id is required"))
		return
	}
	playlistID := parts[0]

	if len(parts) > 1 {
		if parts[1] == "videos" {
			h.playlistVideos(w, r, playlistID, parts[2:])
			return
		}
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown playlist resource %s", parts[1]))
		return
	}

	switch r.Method {
	case http.MethodGet:
		playlist, exists := h.Store.GetPlaylist(playlistID)
		if !exists {
			writeError(w, http.StatusNotFound, fmt.Errorf("playlist %s not found", playlistID))
			return
		}
		writeJSON(w, http.StatusOK, playlist)
	case http.MethodPatch:
		playlist, ok := h.requireOwnPlaylist(w, r, playlistID)
		if !ok {
			return
		}
		var req updatePlaylistRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := h.Store.UpdatePlaylist(playlist.ID, storage.PlaylistUpdate{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		playlist, ok := h.requireOwnPlaylist(w, r, playlistID)
		if !ok {
			return
		}
		if err := h.Store.DeletePlaylist(playlist.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.methodNotAllowed(w, r, "GET, PATCH, DELETE")
	}
}

// playlistVideos handles POST /api/playlists/{id}/videos and
// DELETE /api/playlists/{id}/videos/{videoId}.
func (h *Handler) playlistVideos(w http.ResponseWriter, r *http.Request, playlistID string, rest []string) {
	playlist, ok := h.requireOwnPlaylist(w, r, playlistID)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req playlistVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := h.Store.AddPlaylistVideo(playlist.ID, req.VideoID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if len(rest) == 0 || rest[0] == "" {
			writeError(w, http.StatusBadRequest, errors.New("video id is required"))
			return
		}
		updated, err := h.Store.RemovePlaylistVideo(playlist.ID, rest[0])
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		h.methodNotAllowed(w, r, "POST, DELETE")
	}
}

func (h *Handler) requireOwnPlaylist(w http.ResponseWriter, r *http.Request, playlistID string) (models.Playlist, bool) {
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return models.Playlist{}, false
	}
	playlist, exists := h.Store.GetPlaylist(playlistID)
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Errorf("playlist %s not found", playlistID))
		return models.Playlist{}, false
	}
	if playlist.OwnerID != actor.ID {
		writeError(w, http.StatusForbidden, errors.New("not the playlist owner"))
		return models.Playlist{}, false
	}
	return playlist, true
}
