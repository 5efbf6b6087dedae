package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"clipstream/internal/models"
)

// User operations

func (s *Storage) CreateUser(params CreateUserParams) (models.User, error) {
	username := strings.ToLower(strings.TrimSpace(params.Username))
	if username == "" {
		return models.User{}, errors.New("username is required")
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return models.User{}, errors.New("email is required")
	}
	fullName := strings.TrimSpace(params.FullName)
	if fullName == "" {
		return models.User{}, errors.New("fullName is required")
	}
	if len(params.Password) < 8 {
		return models.User{}, errors.New("password must be at least 8 characters")
	}

	hashed, err := hashPassword(params.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.data.Users {
		if user.Username == username {
			return models.User{}, fmt.Errorf("username %s already in use", username)
		}
		if user.Email == email {
			return models.User{}, fmt.Errorf("email %s already in use", email)
		}
	}

	id, err := generateID()
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		FullName:     fullName,
		AvatarURL:    strings.TrimSpace(params.AvatarURL),
		CoverURL:     strings.TrimSpace(params.CoverURL),
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.data.Users[id] = user
	if err := s.persist(); err != nil {
		delete(s.data.Users, id)
		return models.User{}, err
	}

	return user, nil
}

func (s *Storage) GetUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data.Users[id]
	return user, ok
}

// FindUserByLogin looks up a user by username or email, both matched after
// lowercasing.
func (s *Storage) FindUserByLogin(loginKey string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	normalized := strings.ToLower(strings.TrimSpace(loginKey))
	for _, user := range s.data.Users {
		if user.Username == normalized || user.Email == normalized {
			return user, true
		}
	}
	return models.User{}, false
}

func (s *Storage) ListUsers() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.data.Users))
	for _, user := range s.data.Users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}

// UpdateUser mutates profile metadata while enforcing uniqueness constraints.
func (s *Storage) UpdateUser(id string, update UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	user, ok := updatedData.Users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return models.User{}, errors.New("fullName cannot be empty")
		}
		user.FullName = name
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email == "" {
			return models.User{}, errors.New("email cannot be empty")
		}
		for existingID, existing := range updatedData.Users {
			if existingID == user.ID {
				continue
			}
			if existing.Email == email {
				return models.User{}, fmt.Errorf("email %s already in use", email)
			}
		}
		user.Email = email
	}

	if update.Bio != nil {
		user.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}
	if update.CoverURL != nil {
		user.CoverURL = strings.TrimSpace(*update.CoverURL)
	}

	user.UpdatedAt = time.Now().UTC()
	updatedData.Users[id] = user
	if err := s.persistDataset(updatedData); err != nil {
		return models.User{}, err
	}

	s.data = updatedData

	return user, nil
}

// DeleteUser removes the account and everything it authored: videos,
// comments, likes, subscriptions in either direction, playlists, and posts.
func (s *Storage) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	if _, ok := updatedData.Users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	delete(updatedData.Users, id)

	for videoID, video := range updatedData.Videos {
		if video.OwnerID == id {
			delete(updatedData.Videos, videoID)
		}
	}
	for commentID, comment := range updatedData.Comments {
		if comment.AuthorID == id {
			delete(updatedData.Comments, commentID)
		}
	}
	for likeID, like := range updatedData.Likes {
		if like.UserID == id {
			delete(updatedData.Likes, likeID)
		}
	}
	for subID, sub := range updatedData.Subscriptions {
		if sub.SubscriberID == id || sub.ChannelID == id {
			delete(updatedData.Subscriptions, subID)
		}
	}
	for playlistID, playlist := range updatedData.Playlists {
		if playlist.OwnerID == id {
			delete(updatedData.Playlists, playlistID)
		}
	}
	for postID, post := range updatedData.Posts {
		if post.AuthorID == id {
			delete(updatedData.Posts, postID)
		}
	}

	if err := s.persistDataset(updatedData); err != nil {
		return err
	}

	s.data = updatedData

	return nil
}
