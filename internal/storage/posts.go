package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"clipstream/internal/models"
)

// Community post operations

func (s *Storage) CreatePost(authorID, content string) (models.CommunityPost, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.CommunityPost{}, errors.New("content is required")
	}
	if len(content) > MaxPostLength {
		return models.CommunityPost{}, fmt.Errorf("content cannot exceed %d characters", MaxPostLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[authorID]; !ok {
		return models.CommunityPost{}, fmt.Errorf("user %s: %w", authorID, ErrNotFound)
	}

	id, err := generateID()
	if err != nil {
		return models.CommunityPost{}, err
	}

	now := time.Now().UTC()
	post := models.CommunityPost{
		ID:        id,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.data.Posts[id] = post
	if err := s.persist(); err != nil {
		delete(s.data.Posts, id)
		return models.CommunityPost{}, err
	}

	return post, nil
}

func (s *Storage) GetPost(id string) (models.CommunityPost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.data.Posts[id]
	return post, ok
}

// ListPosts returns an author's posts newest-first.
func (s *Storage) ListPosts(authorID string) []models.CommunityPost {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]models.CommunityPost, 0)
	for _, post := range s.data.Posts {
		if post.AuthorID == authorID {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (s *Storage) UpdatePost(id, content string) (models.CommunityPost, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.CommunityPost{}, errors.New("content is required")
	}
	if len(content) > MaxPostLength {
		return models.CommunityPost{}, fmt.Errorf("content cannot exceed %d characters", MaxPostLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	post, ok := updatedData.Posts[id]
	if !ok {
		return models.CommunityPost{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}

	post.Content = content
	post.UpdatedAt = time.Now().UTC()
	updatedData.Posts[id] = post

	if err := s.persistDataset(updatedData); err != nil {
		return models.CommunityPost{}, err
	}

	s.data = updatedData

	return post, nil
}

// DeletePost removes the post and any likes pointing at it.
func (s *Storage) DeletePost(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	if _, ok := updatedData.Posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}

	delete(updatedData.Posts, id)
	for likeID, like := range updatedData.Likes {
		if like.TargetKind == models.LikeTargetPost && like.TargetID == id {
			delete(updatedData.Likes, likeID)
		}
	}

	if err := s.persistDataset(updatedData); err != nil {
		return err
	}

	s.data = updatedData

	return nil
}
