package models

import (
	"strings"
	"time"
)

// User is an account on the platform. PasswordHash and RefreshToken never
// leave the storage layer through API responses.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CoverURL     string    `json:"coverUrl,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Scrubbed returns a copy safe to attach to request context and hand to API
// encoders: credential material is cleared.
func (u User) Scrubbed() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}

// Privacy states for a video.
const (
	PrivacyPublic   = "public"
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
)

// ValidPrivacy reports whether the value names a known privacy state.
func ValidPrivacy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case PrivacyPublic, PrivacyPrivate, PrivacyUnlisted:
		return true
	default:
		return false
	}
}

type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoUrl"`
	VideoKey     string    `json:"-"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	ThumbnailKey string    `json:"-"`
	Tags         []string  `json:"tags"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	Privacy      string    `json:"privacy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Like target kinds.
const (
	LikeTargetVideo   = "video"
	LikeTargetComment = "comment"
	LikeTargetPost    = "post"
)

type Like struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	TargetKind string    `json:"targetKind"`
	TargetID   string    `json:"targetId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Subscription records a user following a channel (another user's account).
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	VideoIDs    []string  `json:"videoIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CommunityPost struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChannelStats aggregates the dashboard numbers for a channel.
type ChannelStats struct {
	ChannelID   string `json:"channelId"`
	Videos      int    `json:"videos"`
	Views       int64  `json:"views"`
	Likes       int    `json:"likes"`
	Subscribers int    `json:"subscribers"`
}
