package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"clipstream/internal/models"
)

// Playlist operations

func (s *Storage) CreatePlaylist(ownerID, name, description string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, errors.New("name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[ownerID]; !ok {
		return models.Playlist{}, fmt.Errorf("user %s: %w", ownerID, ErrNotFound)
	}

	id, err := generateID()
	if err != nil {
		return models.Playlist{}, err
	}

	now := time.Now().UTC()
	playlist := models.Playlist{
		ID:          id,
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(description),
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.data.Playlists[id] = playlist
	if err := s.persist(); err != nil {
		delete(s.data.Playlists, id)
		return models.Playlist{}, err
	}

	return playlist, nil
}

func (s *Storage) GetPlaylist(id string) (models.Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playlist, ok := s.data.Playlists[id]
	return playlist, ok
}

func (s *Storage) ListPlaylists(ownerID string) []models.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlists := make([]models.Playlist, 0)
	for _, playlist := range s.data.Playlists {
		if playlist.OwnerID == ownerID {
			playlists = append(playlists, playlist)
		}
	}
	sort.Slice(playlists, func(i, j int) bool {
		return playlists[i].CreatedAt.Before(playlists[j].CreatedAt)
	})
	return playlists
}

func (s *Storage) UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	playlist, ok := updatedData.Playlists[id]
	if !ok {
		return models.Playlist{}, fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return models.Playlist{}, errors.New("name cannot be empty")
		}
		playlist.Name = name
	}
	if update.Description != nil {
		playlist.Description = strings.TrimSpace(*update.Description)
	}

	playlist.UpdatedAt = time.Now().UTC()
	updatedData.Playlists[id] = playlist

	if err := s.persistDataset(updatedData); err != nil {
		return models.Playlist{}, err
	}

	s.data = updatedData

	return playlist, nil
}

func (s *Storage) DeletePlaylist(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	if _, ok := updatedData.Playlists[id]; !ok {
		return fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}

	delete(updatedData.Playlists, id)

	if err := s.persistDataset(updatedData); err != nil {
		return err
	}

	s.data = updatedData

	return nil
}

// AddPlaylistVideo appends the video unless it is already present.
func (s *Storage) AddPlaylistVideo(playlistID, videoID string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	playlist, ok := updatedData.Playlists[playlistID]
	if !ok {
		return models.Playlist{}, fmt.Errorf("playlist %s: %w", playlistID, ErrNotFound)
	}
	if _, ok := updatedData.Videos[videoID]; !ok {
		return models.Playlist{}, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}
	for _, existing := range playlist.VideoIDs {
		if existing == videoID {
			return playlist, nil
		}
	}

	playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	playlist.UpdatedAt = time.Now().UTC()
	updatedData.Playlists[playlistID] = playlist

	if err := s.persistDataset(updatedData); err != nil {
		return models.Playlist{}, err
	}

	s.data = updatedData

	return playlist, nil
}

// RemovePlaylistVideo drops the video from the playlist when present.
func (s *Storage) RemovePlaylistVideo(playlistID, videoID string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedData := cloneDataset(s.data)

	playlist, ok := updatedData.Playlists[playlistID]
	if !ok {
		return models.Playlist{}, fmt.Errorf("playlist %s: %w", playlistID, ErrNotFound)
	}

	filtered := make([]string, 0, len(playlist.VideoIDs))
	for _, existing := range playlist.VideoIDs {
		if existing == videoID {
			continue
		}
		filtered = append(filtered, existing)
	}
	if len(filtered) == len(playlist.VideoIDs) {
		return playlist, nil
	}

	playlist.VideoIDs = filtered
	playlist.UpdatedAt = time.Now().UTC()
	updatedData.Playlists[playlistID] = playlist

	if err := s.persistDataset(updatedData); err != nil {
		return models.Playlist{}, err
	}

	s.data = updatedData

	return playlist, nil
}
