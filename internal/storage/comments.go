package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"clipstream/internal/models"
)

// Comment operations

func (s *Storage) CreateComment(videoID, authorID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, errors.New("content is required")
	}
	if len(content) > MaxCommentLength {
		return models.Comment{}, fmt.Errorf("content cannot exceed %d characters", MaxCommentLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Videos[videoID]; !ok {
		return models.Comment{}, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}
	if _, ok := s.data.Users[authorID]; !ok {
		return models.Comment{}, fmt.Errorf("user %s: %w", authorID, ErrNotFound)
	}

	id, err := generateID()
	if err != nil {
		return models.Comment{}, err
	}

	now := time.Now().UTC()
	comment := models.Comment{
		ID:        id,
		VideoID:   videoID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.data.Comments[id] = comment
	if err := s.persist(); err != nil {
		delete(s.data.Comments, id)
		return models.Comment{}, err
	}

	return comment, nil
}

func (s *Storage) GetComment(id string) (models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comment, ok := s.data.Comments[id]
	return comment, ok
}

// ListComments returns a video's comments newest-first along with the
// pre-paging total.
func (s *Storage) ListComments(videoID string, page, pageSize int) ([]models.Comment, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]models.Comment, 0)
	for _, comment := range s.data.Comments {
		if comment.VideoID == videoID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	total := len(comments)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(comments) {
		return []models.Comment{}, total
	}
	end := start + pageSize
	if end > len(comments) {
		end = len(comments)
	}
	return comments[start:end], total
}

func (s *Storage) UpdateComment(id, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, errors.New("content is required")
	}
	if len(content) > MaxCommentLength {
		return models.Comment{}, fmt.Errorf("content cannot exceed %d characters", MaxCommentLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	comment, ok := updatedData.Comments[id]
	if !ok {
		return models.Comment{}, fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}

	comment.Content = content
	comment.UpdatedAt = time.Now().UTC()
	updatedData.Comments[id] = comment

	if err := s.persistDataset(updatedData); err != nil {
		return models.Comment{}, err
	}

	s.data = updatedData

	return comment, nil
}

// DeleteComment removes the comment and any likes pointing at it.
func (s *Storage) DeleteComment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	if _, ok := updatedData.Comments[id]; !ok {
		return fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}

	delete(updatedData.Comments, id)
	for likeID, like := range updatedData.Likes {
		if like.TargetKind == models.LikeTargetComment && like.TargetID == id {
			delete(updatedData.Likes, likeID)
		}
	}

	if err := s.persistDataset(updatedData); err != nil {
		return err
	}

	s.data = updatedData

	return nil
}
