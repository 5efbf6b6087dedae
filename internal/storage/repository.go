package storage

import (
	"context"

	"clipstream/internal/models"
)

// Repository exposes the datastore operations required by API handlers and
// the session manager.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(params CreateUserParams) (models.User, error)
	GetUser(id string) (models.User, bool)
	FindUserByLogin(loginKey string) (models.User, bool)
	ListUsers() []models.User
	UpdateUser(id string, update UserUpdate) (models.User, error)
	DeleteUser(id string) error

	AuthenticateUser(loginKey, password string) (models.User, error)
	VerifyUserPassword(id, password string) error
	SetUserPassword(id, password string) (models.User, error)
	SetRefreshToken(id, token string) error
	RotateRefreshToken(id, presented, next string) error

	CreateVideo(params CreateVideoParams) (models.Video, error)
	GetVideo(id string) (models.Video, bool)
	ListVideos(params ListVideosParams) ([]models.Video, int)
	UpdateVideo(id string, update VideoUpdate) (models.Video, error)
	DeleteVideo(id string) (models.Video, error)
	AddVideoViews(id string, delta int64) error

	CreateComment(videoID, authorID, content string) (models.Comment, error)
	GetComment(id string) (models.Comment, bool)
	ListComments(videoID string, page, pageSize int) ([]models.Comment, int)
	UpdateComment(id, content string) (models.Comment, error)
	DeleteComment(id string) error

	ToggleLike(userID, kind, targetID string) (bool, error)
	CountLikes(kind, targetID string) int
	ListLikedVideos(userID string) []models.Video

	ToggleSubscription(subscriberID, channelID string) (bool, error)
	IsSubscribed(subscriberID, channelID string) bool
	CountSubscribers(channelID string) int
	ListSubscribers(channelID string) []models.User
	ListSubscribedChannels(subscriberID string) []models.User

	CreatePlaylist(ownerID, name, description string) (models.Playlist, error)
	GetPlaylist(id string) (models.Playlist, bool)
	ListPlaylists(ownerID string) []models.Playlist
	UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error)
	DeletePlaylist(id string) error
	AddPlaylistVideo(playlistID, videoID string) (models.Playlist, error)
	RemovePlaylistVideo(playlistID, videoID string) (models.Playlist, error)

	CreatePost(authorID, content string) (models.CommunityPost, error)
	GetPost(id string) (models.CommunityPost, bool)
	ListPosts(authorID string) []models.CommunityPost
	UpdatePost(id, content string) (models.CommunityPost, error)
	DeletePost(id string) error

	CountVideos(channelID string) int
	SumVideoViews(channelID string) int64
	CountVideoLikes(channelID string) int
	ListChannelVideos(filter ChannelVideoFilter) []models.Video
}

var _ Repository = (*Storage)(nil)
