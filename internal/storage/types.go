package storage

import (
	"errors"

	"clipstream/internal/models"
)

const (
	passwordHashSaltLength = 16
	passwordHashKeyLength  = 32
	passwordHashIterations = 120000

	// MaxCommentLength defines the maximum number of characters allowed for a
	// comment body.
	MaxCommentLength = 2000
	// MaxPostLength defines the maximum number of characters allowed for a
	// community post body.
	MaxPostLength = 4000
	// MaxVideoTitleLength defines the maximum number of characters allowed
	// for a video title.
	MaxVideoTitleLength = 200
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound wraps entity lookups that come up empty. Callers match it
	// with errors.Is.
	ErrNotFound = errors.New("not found")

	// ErrRefreshMismatch reports a failed refresh-token compare-and-swap: the
	// presented token does not equal the stored one.
	ErrRefreshMismatch = errors.New("refresh token mismatch")
)

// CreateUserParams captures the attributes that can be set when registering
// an account.
type CreateUserParams struct {
	Username  string
	Email     string
	FullName  string
	Password  string
	AvatarURL string
	CoverURL  string
}

// UserUpdate represents the profile fields that can be modified for an
// existing account.
type UserUpdate struct {
	FullName  *string
	Email     *string
	Bio       *string
	AvatarURL *string
	CoverURL  *string
}

// CreateVideoParams captures the attributes recorded when a video is
// published.
type CreateVideoParams struct {
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	VideoKey     string
	ThumbnailURL string
	ThumbnailKey string
	Tags         []string
	Duration     float64
	Privacy      string
}

// VideoUpdate represents the fields that can be modified on a video.
type VideoUpdate struct {
	Title        *string
	Description  *string
	Tags         *[]string
	Privacy      *string
	ThumbnailURL *string
	ThumbnailKey *string
}

// VideoSort names the supported list orderings.
const (
	VideoSortCreated = "createdAt"
	VideoSortViews   = "views"
	VideoSortTitle   = "title"
)

// ListVideosParams filters and pages the video catalog. Private and unlisted
// videos stay out of listings unless IncludeHidden is set.
type ListVideosParams struct {
	Query         string
	OwnerID       string
	SortBy        string
	SortAscending bool
	Page          int
	PageSize      int
	IncludeHidden bool
}

// PlaylistUpdate represents the fields that can be modified on a playlist.
type PlaylistUpdate struct {
	Name        *string
	Description *string
}

// ChannelVideoFilter selects which of a channel's videos the dashboard
// returns.
type ChannelVideoFilter struct {
	ChannelID     string
	IncludeHidden bool
}

type dataset struct {
	Users         map[string]models.User          `json:"users"`
	Videos        map[string]models.Video         `json:"videos"`
	Comments      map[string]models.Comment       `json:"comments"`
	Likes         map[string]models.Like          `json:"likes"`
	Subscriptions map[string]models.Subscription  `json:"subscriptions"`
	Playlists     map[string]models.Playlist      `json:"playlists"`
	Posts         map[string]models.CommunityPost `json:"posts"`
}
