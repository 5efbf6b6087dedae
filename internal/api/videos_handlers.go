package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"clipstream/internal/models"
	"clipstream/internal/observability/logging"
	"clipstream/internal/storage"
)

type publishVideoRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	Privacy      string   `json:"privacy"`
	VideoURL     string   `json:"videoUrl"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Duration     float64  `json:"duration"`
}

type updateVideoRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Privacy     *string   `json:"privacy"`
}

type videoListResponse struct {
	Videos   []models.Video `json:"videos"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// Videos serves /api/videos: the public catalog listing and video publishing.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listVideos(w, r)
	case http.MethodPost:
		h.publishVideo(w, r)
	default:
		h.methodNotAllowed(w, r, "GET, POST")
	}
}

func (h *Handler) listVideos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))

	params := storage.ListVideosParams{
		Query:         strings.TrimSpace(query.Get("q")),
		OwnerID:       strings.TrimSpace(query.Get("owner")),
		SortBy:        strings.TrimSpace(query.Get("sort")),
		SortAscending: strings.EqualFold(query.Get("order"), "asc"),
		Page:          page,
		PageSize:      pageSize,
	}

	videos, total := h.Store.ListVideos(params)
	if params.Page < 1 {
		params.Page = 1
	}
	writeJSON(w, http.StatusOK, videoListResponse{
		Videos:   videos,
		Total:    total,
		Page:     params.Page,
		PageSize: len(videos),
	})
}

func (h *Handler) publishVideo(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}

	params := storage.CreateVideoParams{OwnerID: actor.ID}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		videoRef, err := h.storeUploadedFile(r, "video", "videos/")
		if err != nil {
			writeDomainError(w, err)
			return
		}
		params.VideoURL = videoRef.URL
		params.VideoKey = videoRef.Key

		if r.MultipartForm != nil && len(r.MultipartForm.File["thumbnail"]) > 0 {
			thumbRef, err := h.storeUploadedFile(r, "thumbnail", "thumbnails/")
			if err != nil {
				writeDomainError(w, err)
				return
			}
			params.ThumbnailURL = thumbRef.URL
			params.ThumbnailKey = thumbRef.Key
		}

		params.Title = r.FormValue("title")
		params.Description = r.FormValue("description")
		params.Privacy = r.FormValue("privacy")
		if tags := strings.TrimSpace(r.FormValue("tags")); tags != "" {
			params.Tags = strings.Split(tags, ",")
		}
		if duration := r.FormValue("duration"); duration != "" {
			params.Duration, _ = strconv.ParseFloat(duration, 64)
		}
	} else {
		var req publishVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		params.Title = req.Title
		params.Description = req.Description
		params.Tags = req.Tags
		params.Privacy = req.Privacy
		params.VideoURL = req.VideoURL
		params.ThumbnailURL = req.ThumbnailURL
		params.Duration = req.Duration
	}

	video, err := h.Store.CreateVideo(params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics().ObserveVideoEvent("publish")
	writeJSON(w, http.StatusCreated, video)
}

// VideoByID serves /api/videos/{id} and its subresources.
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, errors.New("video id is required"))
		return
	}
	videoID := parts[0]

	if len(parts) == 1 {
		h.videoResource(w, r, videoID)
		return
	}

	switch parts[1] {
	case "comments":
		h.videoComments(w, r, videoID)
	case "likes":
		h.videoLikes(w, r, videoID)
	case "thumbnail":
		h.videoThumbnail(w, r, videoID)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown video resource %s", parts[1]))
	}
}

// videoVisibleTo reports whether the actor may see the video. Private videos
// answer 404 to everyone but the owner so their existence does not leak.
func videoVisibleTo(video models.Video, actor models.User, authenticated bool) bool {
	if video.Privacy != models.PrivacyPrivate {
		return true
	}
	return authenticated && actor.ID == video.OwnerID
}

func (h *Handler) videoResource(w http.ResponseWriter, r *http.Request, videoID string) {
	switch r.Method {
	case http.MethodGet:
		video, exists := h.Store.GetVideo(videoID)
		actor, authenticated := UserFromContext(r.Context())
		if !exists || !videoVisibleTo(video, actor, authenticated) {
			writeError(w, http.StatusNotFound, fmt.Errorf("video %s not found", videoID))
			return
		}
		if h.Views != nil {
			ctx := logging.ContextWithVideoID(r.Context(), videoID)
			if err := h.Views.Record(ctx, videoID); err != nil {
				logging.WithContext(ctx, slog.Default()).Warn("view not recorded", "error", err)
			}
		}
		writeJSON(w, http.StatusOK, video)
	case http.MethodPatch:
		video, ok := h.requireOwnedVideo(w, r, videoID)
		if !ok {
			return
		}
		var req updateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := h.Store.UpdateVideo(video.ID, storage.VideoUpdate{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			Privacy:     req.Privacy,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		video, ok := h.requireOwnedVideo(w, r, videoID)
		if !ok {
			return
		}
		removed, err := h.Store.DeleteVideo(video.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		for _, key := range []string{removed.VideoKey, removed.ThumbnailKey} {
			if err := h.deleteStoredObject(r, key); err != nil {
				slog.Warn("stored media not deleted", "videoId", removed.ID, "key", key, "error", err)
			}
		}
		h.metrics().ObserveVideoEvent("delete")
		w.WriteHeader(http.StatusNoContent)
	default:
		h.methodNotAllowed(w, r, "GET, PATCH, DELETE")
	}
}

func (h *Handler) requireOwnedVideo(w http.ResponseWriter, r *http.Request, videoID string) (models.Video, bool) {
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return models.Video{}, false
	}
	video, exists := h.Store.GetVideo(videoID)
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Errorf("video %s not found", videoID))
		return models.Video{}, false
	}
	if video.OwnerID != actor.ID {
		writeError(w, http.StatusForbidden, errors.New("not the video owner"))
		return models.Video{}, false
	}
	return video, true
}

func (h *Handler) videoThumbnail(w http.ResponseWriter, r *http.Request, videoID string) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, "POST")
		return
	}
	video, ok := h.requireOwnedVideo(w, r, videoID)
	if !ok {
		return
	}

	ref, err := h.storeUploadedFile(r, "thumbnail", "thumbnails/")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	previousKey := video.ThumbnailKey
	updated, err := h.Store.UpdateVideo(video.ID, storage.VideoUpdate{
		ThumbnailURL: &ref.URL,
		ThumbnailKey: &ref.Key,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.deleteStoredObject(r, previousKey); err != nil {
		slog.Warn("previous thumbnail not deleted", "videoId", video.ID, "key", previousKey, "error", err)
	}
	h.metrics().ObserveVideoEvent("thumbnail_update")
	writeJSON(w, http.StatusOK, updated)
}
