package storage

import (
	"sort"

	"clipstream/internal/models"
)

// Dashboard aggregation helpers

// CountVideos returns the number of videos owned by the channel.
func (s *Storage) CountVideos(channelID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, video := range s.data.Videos {
		if video.OwnerID == channelID {
			count++
		}
	}
	return count
}

// SumVideoViews totals the persisted view counters across a channel's
// videos.
func (s *Storage) SumVideoViews(channelID string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, video := range s.data.Videos {
		if video.OwnerID == channelID {
			total += video.Views
		}
	}
	return total
}

// CountVideoLikes counts likes received across a channel's videos.
func (s *Storage) CountVideoLikes(channelID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make(map[string]struct{})
	for id, video := range s.data.Videos {
		if video.OwnerID == channelID {
			owned[id] = struct{}{}
		}
	}

	count := 0
	for _, like := range s.data.Likes {
		if like.TargetKind != models.LikeTargetVideo {
			continue
		}
		if _, ok := owned[like.TargetID]; ok {
			count++
		}
	}
	return count
}

// ListChannelVideos returns a channel's videos newest-first, including
// private and unlisted ones when the filter asks for them.
func (s *Storage) ListChannelVideos(filter ChannelVideoFilter) []models.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]models.Video, 0)
	for _, video := range s.data.Videos {
		if video.OwnerID != filter.ChannelID {
			continue
		}
		if !filter.IncludeHidden && video.Privacy != models.PrivacyPublic {
			continue
		}
		videos = append(videos, video)
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})
	return videos
}
