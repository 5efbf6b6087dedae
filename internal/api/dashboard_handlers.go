package api

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

type dashboardResponse struct {
	Stats  models.ChannelStats `json:"stats"`
	Videos []models.Video      `json:"videos"`
}

// Dashboard serves GET /api/dashboard: the caller's channel statistics and
// full video list, hidden videos included. The four aggregates are
// independent repository scans, so they run concurrently.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, "GET")
		return
	}
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}

	stats := models.ChannelStats{ChannelID: actor.ID}
	var videos []models.Video

	group, _ := errgroup.WithContext(r.Context())
	group.Go(func() error {
		stats.Videos = h.Store.CountVideos(actor.ID)
		return nil
	})
	group.Go(func() error {
		stats.Views = h.Store.SumVideoViews(actor.ID)
		return nil
	})
	group.Go(func() error {
		stats.Likes = h.Store.CountVideoLikes(actor.ID)
		return nil
	})
	group.Go(func() error {
		stats.Subscribers = h.Store.CountSubscribers(actor.ID)
		return nil
	})
	group.Go(func() error {
		videos = h.Store.ListChannelVideos(storage.ChannelVideoFilter{
			ChannelID:     actor.ID,
			IncludeHidden: true,
		})
		return nil
	})
	_ = group.Wait()

	writeJSON(w, http.StatusOK, dashboardResponse{Stats: stats, Videos: videos})
}
