package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"clipstream/internal/models"
)

// Video operations

func (s *Storage) CreateVideo(params CreateVideoParams) (models.Video, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return models.Video{}, errors.New("title is required")
	}
	if len(title) > MaxVideoTitleLength {
		return models.Video{}, fmt.Errorf("title cannot exceed %d characters", MaxVideoTitleLength)
	}
	if strings.TrimSpace(params.VideoURL) == "" {
		return models.Video{}, errors.New("videoUrl is required")
	}
	privacy := strings.ToLower(strings.TrimSpace(params.Privacy))
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	if !models.ValidPrivacy(privacy) {
		return models.Video{}, fmt.Errorf("unknown privacy %q", params.Privacy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[params.OwnerID]; !ok {
		return models.Video{}, fmt.Errorf("user %s: %w", params.OwnerID, ErrNotFound)
	}

	id, err := generateID()
	if err != nil {
		return models.Video{}, err
	}

	now := time.Now().UTC()
	video := models.Video{
		ID:           id,
		OwnerID:      params.OwnerID,
		Title:        title,
		Description:  strings.TrimSpace(params.Description),
		VideoURL:     strings.TrimSpace(params.VideoURL),
		VideoKey:     params.VideoKey,
		ThumbnailURL: strings.TrimSpace(params.ThumbnailURL),
		ThumbnailKey: params.ThumbnailKey,
		Tags:         normalizeTags(params.Tags),
		Duration:     params.Duration,
		Privacy:      privacy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		delete(s.data.Videos, id)
		return models.Video{}, err
	}

	return video, nil
}

func (s *Storage) GetVideo(id string) (models.Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.data.Videos[id]
	return video, ok
}

// ListVideos filters, sorts, and pages the catalog. The returned total counts
// matches before paging so callers can report page numbers.
func (s *Storage) ListVideos(params ListVideosParams) ([]models.Video, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(params.Query))
	videos := make([]models.Video, 0, len(s.data.Videos))
	for _, video := range s.data.Videos {
		if params.OwnerID != "" && video.OwnerID != params.OwnerID {
			continue
		}
		if !params.IncludeHidden && video.Privacy != models.PrivacyPublic {
			continue
		}
		if query != "" && !videoMatchesQuery(video, query) {
			continue
		}
		videos = append(videos, video)
	}

	sortVideos(videos, params.SortBy, params.SortAscending)
	total := len(videos)

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(videos) {
		return []models.Video{}, total
	}
	end := start + pageSize
	if end > len(videos) {
		end = len(videos)
	}
	return videos[start:end], total
}

func videoMatchesQuery(video models.Video, query string) bool {
	if strings.Contains(strings.ToLower(video.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(video.Description), query) {
		return true
	}
	for _, tag := range video.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func sortVideos(videos []models.Video, sortBy string, ascending bool) {
	less := func(i, j int) bool {
		return videos[i].CreatedAt.Before(videos[j].CreatedAt)
	}
	switch sortBy {
	case VideoSortViews:
		less = func(i, j int) bool { return videos[i].Views < videos[j].Views }
	case VideoSortTitle:
		less = func(i, j int) bool {
			return strings.ToLower(videos[i].Title) < strings.ToLower(videos[j].Title)
		}
	}
	if ascending {
		sort.SliceStable(videos, less)
		return
	}
	sort.SliceStable(videos, func(i, j int) bool { return less(j, i) })
}

func (s *Storage) UpdateVideo(id string, update VideoUpdate) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	video, ok := updatedData.Videos[id]
	if !ok {
		return models.Video{}, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Video{}, errors.New("title cannot be empty")
		}
		if len(title) > MaxVideoTitleLength {
			return models.Video{}, fmt.Errorf("title cannot exceed %d characters", MaxVideoTitleLength)
		}
		video.Title = title
	}
	if update.Description != nil {
		video.Description = strings.TrimSpace(*update.Description)
	}
	if update.Tags != nil {
		video.Tags = normalizeTags(*update.Tags)
	}
	if update.Privacy != nil {
		privacy := strings.ToLower(strings.TrimSpace(*update.Privacy))
		if !models.ValidPrivacy(privacy) {
			return models.Video{}, fmt.Errorf("unknown privacy %q", *update.Privacy)
		}
		video.Privacy = privacy
	}
	if update.ThumbnailURL != nil {
		video.ThumbnailURL = strings.TrimSpace(*update.ThumbnailURL)
	}
	if update.ThumbnailKey != nil {
		video.ThumbnailKey = *update.ThumbnailKey
	}

	video.UpdatedAt = time.Now().UTC()
	updatedData.Videos[id] = video
	if err := s.persistDataset(updatedData); err != nil {
		return models.Video{}, err
	}

	s.data = updatedData

	return video, nil
}

// DeleteVideo removes the video along with its comments, likes, and playlist
// references. It returns the removed record so callers can clean up stored
// objects.
func (s *Storage) DeleteVideo(id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	video, ok := updatedData.Videos[id]
	if !ok {
		return models.Video{}, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}

	delete(updatedData.Videos, id)

	for commentID, comment := range updatedData.Comments {
		if comment.VideoID == id {
			delete(updatedData.Comments, commentID)
			for likeID, like := range updatedData.Likes {
				if like.TargetKind == models.LikeTargetComment && like.TargetID == commentID {
					delete(updatedData.Likes, likeID)
				}
			}
		}
	}
	for likeID, like := range updatedData.Likes {
		if like.TargetKind == models.LikeTargetVideo && like.TargetID == id {
			delete(updatedData.Likes, likeID)
		}
	}
	for playlistID, playlist := range updatedData.Playlists {
		filtered := make([]string, 0, len(playlist.VideoIDs))
		for _, videoID := range playlist.VideoIDs {
			if videoID == id {
				continue
			}
			filtered = append(filtered, videoID)
		}
		if len(filtered) != len(playlist.VideoIDs) {
			playlist.VideoIDs = filtered
			playlist.UpdatedAt = time.Now().UTC()
			updatedData.Playlists[playlistID] = playlist
		}
	}

	if err := s.persistDataset(updatedData); err != nil {
		return models.Video{}, err
	}

	s.data = updatedData

	return video, nil
}

// AddVideoViews folds a view-counter delta into the stored total.
func (s *Storage) AddVideoViews(id string, delta int64) error {
	if delta <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return fmt.Errorf("video %s: %w", id, ErrNotFound)
	}

	previous := video.Views
	video.Views += delta
	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		video.Views = previous
		s.data.Videos[id] = video
		return err
	}
	return nil
}

func normalizeTags(input []string) []string {
	if len(input) == 0 {
		return nil
	}
	tags := make([]string, 0, len(input))
	seen := make(map[string]struct{})
	for _, tag := range input {
		trimmed := strings.ToLower(strings.TrimSpace(tag))
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		tags = append(tags, trimmed)
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
