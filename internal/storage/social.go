package storage

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"clipstream/internal/models"
)

// Like and subscription operations

func (s *Storage) likeTargetExistsLocked(kind, targetID string) bool {
	switch kind {
	case models.LikeTargetVideo:
		_, ok := s.data.Videos[targetID]
		return ok
	case models.LikeTargetComment:
		_, ok := s.data.Comments[targetID]
		return ok
	case models.LikeTargetPost:
		_, ok := s.data.Posts[targetID]
		return ok
	default:
		return false
	}
}

// ToggleLike flips a user's like on the target and reports whether the like
// now exists.
func (s *Storage) ToggleLike(userID, kind, targetID string) (bool, error) {
	switch kind {
	case models.LikeTargetVideo, models.LikeTargetComment, models.LikeTargetPost:
	default:
		return false, fmt.Errorf("unknown like target %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[userID]; !ok {
		return false, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if !s.likeTargetExistsLocked(kind, targetID) {
		return false, fmt.Errorf("%s %s: %w", kind, targetID, ErrNotFound)
	}

	updatedData := cloneDataset(s.data)

	for likeID, like := range updatedData.Likes {
		if like.UserID == userID && like.TargetKind == kind && like.TargetID == targetID {
			delete(updatedData.Likes, likeID)
			if err := s.persistDataset(updatedData); err != nil {
				return false, err
			}
			s.data = updatedData
			return false, nil
		}
	}

	id, err := generateID()
	if err != nil {
		return false, err
	}
	updatedData.Likes[id] = models.Like{
		ID:         id,
		UserID:     userID,
		TargetKind: kind,
		TargetID:   targetID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.persistDataset(updatedData); err != nil {
		return false, err
	}
	s.data = updatedData
	return true, nil
}

func (s *Storage) CountLikes(kind, targetID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, like := range s.data.Likes {
		if like.TargetKind == kind && like.TargetID == targetID {
			count++
		}
	}
	return count
}

// ListLikedVideos returns the videos a user has liked, most recent like
// first. Videos deleted since the like was recorded are skipped.
func (s *Storage) ListLikedVideos(userID string) []models.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	likes := make([]models.Like, 0)
	for _, like := range s.data.Likes {
		if like.UserID == userID && like.TargetKind == models.LikeTargetVideo {
			likes = append(likes, like)
		}
	}
	sort.Slice(likes, func(i, j int) bool {
		return likes[i].CreatedAt.After(likes[j].CreatedAt)
	})

	videos := make([]models.Video, 0, len(likes))
	for _, like := range likes {
		if video, ok := s.data.Videos[like.TargetID]; ok {
			videos = append(videos, video)
		}
	}
	return videos
}

// ToggleSubscription flips a subscription to the channel and reports whether
// it now exists. Subscribing to yourself is rejected.
func (s *Storage) ToggleSubscription(subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, errors.New("cannot subscribe to your own channel")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[subscriberID]; !ok {
		return false, fmt.Errorf("user %s: %w", subscriberID, ErrNotFound)
	}
	if _, ok := s.data.Users[channelID]; !ok {
		return false, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}

	updatedData := cloneDataset(s.data)

	for subID, sub := range updatedData.Subscriptions {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			delete(updatedData.Subscriptions, subID)
			if err := s.persistDataset(updatedData); err != nil {
				return false, err
			}
			s.data = updatedData
			return false, nil
		}
	}

	id, err := generateID()
	if err != nil {
		return false, err
	}
	updatedData.Subscriptions[id] = models.Subscription{
		ID:           id,
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.persistDataset(updatedData); err != nil {
		return false, err
	}
	s.data = updatedData
	return true, nil
}

func (s *Storage) CountSubscribers(channelID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.data.Subscriptions {
		if sub.ChannelID == channelID {
			count++
		}
	}
	return count
}

// ListSubscribers returns the accounts subscribed to the channel.
func (s *Storage) ListSubscribers(channelID string) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]models.Subscription, 0)
	for _, sub := range s.data.Subscriptions {
		if sub.ChannelID == channelID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].CreatedAt.Before(subs[j].CreatedAt)
	})

	users := make([]models.User, 0, len(subs))
	for _, sub := range subs {
		if user, ok := s.data.Users[sub.SubscriberID]; ok {
			users = append(users, user)
		}
	}
	return users
}

// ListSubscribedChannels returns the channels a user subscribes to.
func (s *Storage) ListSubscribedChannels(subscriberID string) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]models.Subscription, 0)
	for _, sub := range s.data.Subscriptions {
		if sub.SubscriberID == subscriberID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].CreatedAt.Before(subs[j].CreatedAt)
	})

	channels := make([]models.User, 0, len(subs))
	for _, sub := range subs {
		if user, ok := s.data.Users[sub.ChannelID]; ok {
			channels = append(channels, user)
		}
	}
	return channels
}

// IsSubscribed reports whether subscriberID currently follows channelID.
func (s *Storage) IsSubscribed(subscriberID, channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.data.Subscriptions {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return true
		}
	}
	return false
}
