package storage

import (
	"errors"
	"testing"

	"clipstream/internal/models"
)

func TestToggleLike(t *testing.T) {
	store := newTestStorage(t)
	ownerID := createTestUser(t, store, "alice")
	viewerID := createTestUser(t, store, "bob")
	video := createTestVideo(t, store, ownerID, "clip", models.PrivacyPublic)

	liked, err := store.ToggleLike(viewerID, models.LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if !liked || store.CountLikes(models.LikeTargetVideo, video.ID) != 1 {
		t.Fatal("expected like recorded")
	}

	liked, err = store.ToggleLike(viewerID, models.LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("second ToggleLike: %v", err)
	}
	if liked || store.CountLikes(models.LikeTargetVideo, video.ID) != 0 {
		t.Fatal("expected like removed on second toggle")
	}

	if _, err := store.ToggleLike(viewerID, "channel", video.ID); err == nil {
		t.Fatal("expected unknown target kind error")
	}
	if _, err := store.ToggleLike(viewerID, models.LikeTargetVideo, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListLikedVideos(t *testing.T) {
	store := newTestStorage(t)
	ownerID := createTestUser(t, store, "alice")
	viewerID := createTestUser(t, store, "bob")

	first := createTestVideo(t, store, ownerID, "first", models.PrivacyPublic)
	second := createTestVideo(t, store, ownerID, "second", models.PrivacyPublic)
	if _, err := store.ToggleLike(viewerID, models.LikeTargetVideo, first.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if _, err := store.ToggleLike(viewerID, models.LikeTargetVideo, second.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	liked := store.ListLikedVideos(viewerID)
	if len(liked) != 2 {
		t.Fatalf("expected two liked videos, got %d", len(liked))
	}

	// Deleted videos drop out of the liked list.
	if _, err := store.DeleteVideo(first.ID); err != nil {
		t.Fatalf("DeleteVideo: %v", err)
	}
	liked = store.ListLikedVideos(viewerID)
	if len(liked) != 1 || liked[0].ID != second.ID {
		t.Fatalf("unexpected liked list: %+v", liked)
	}
}

func TestToggleSubscription(t *testing.T) {
	store := newTestStorage(t)
	channelID := createTestUser(t, store, "creator")
	fanID := createTestUser(t, store, "fan")

	subscribed, err := store.ToggleSubscription(fanID, channelID)
	if err != nil {
		t.Fatalf("ToggleSubscription: %v", err)
	}
	if !subscribed || !store.IsSubscribed(fanID, channelID) {
		t.Fatal("expected subscription recorded")
	}
	if store.CountSubscribers(channelID) != 1 {
		t.Fatal("expected one subscriber")
	}

	subscribers := store.ListSubscribers(channelID)
	if len(subscribers) != 1 || subscribers[0].ID != fanID {
		t.Fatalf("unexpected subscribers: %+v", subscribers)
	}
	channels := store.ListSubscribedChannels(fanID)
	if len(channels) != 1 || channels[0].ID != channelID {
		t.Fatalf("unexpected channels: %+v", channels)
	}

	subscribed, err = store.ToggleSubscription(fanID, channelID)
	if err != nil {
		t.Fatalf("second ToggleSubscription: %v", err)
	}
	if subscribed || store.IsSubscribed(fanID, channelID) {
		t.Fatal("expected subscription removed on second toggle")
	}

	if _, err := store.ToggleSubscription(fanID, fanID); err == nil {
		t.Fatal("expected self-subscription error")
	}
	if _, err := store.ToggleSubscription(fanID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	store := newTestStorage(t)
	ownerID := createTestUser(t, store, "alice")
	video := createTestVideo(t, store, ownerID, "clip", models.PrivacyPublic)

	playlist, err := store.CreatePlaylist(ownerID, "watch later", "queue")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if _, err := store.CreatePlaylist(ownerID, " ", ""); err == nil {
		t.Fatal("expected missing name error")
	}

	playlist, err = store.AddPlaylistVideo(playlist.ID, video.ID)
	if err != nil {
		t.Fatalf("AddPlaylistVideo: %v", err)
	}
	// Adding twice keeps a single entry.
	playlist, err = store.AddPlaylistVideo(playlist.ID, video.ID)
	if err != nil {
		t.Fatalf("second AddPlaylistVideo: %v", err)
	}
	if len(playlist.VideoIDs) != 1 {
		t.Fatalf("expected one entry, got %v", playlist.VideoIDs)
	}
	if _, err := store.AddPlaylistVideo(playlist.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	name := "renamed"
	playlist, err = store.UpdatePlaylist(playlist.ID, PlaylistUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdatePlaylist: %v", err)
	}
	if playlist.Name != "renamed" {
		t.Fatalf("unexpected name %q", playlist.Name)
	}

	playlist, err = store.RemovePlaylistVideo(playlist.ID, video.ID)
	if err != nil {
		t.Fatalf("RemovePlaylistVideo: %v", err)
	}
	if len(playlist.VideoIDs) != 0 {
		t.Fatalf("expected empty playlist, got %v", playlist.VideoIDs)
	}

	lists := store.ListPlaylists(ownerID)
	if len(lists) != 1 {
		t.Fatalf("expected one playlist, got %d", len(lists))
	}

	if err := store.DeletePlaylist(playlist.ID); err != nil {
		t.Fatalf("DeletePlaylist: %v", err)
	}
	if err := store.DeletePlaylist(playlist.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCommunityPostLifecycle(t *testing.T) {
	store := newTestStorage(t)
	authorID := createTestUser(t, store, "alice")

	post, err := store.CreatePost(authorID, "hello world")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if _, err := store.CreatePost(authorID, "  "); err == nil {
		t.Fatal("expected empty content error")
	}

	updated, err := store.UpdatePost(post.ID, "edited")
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if updated.Content != "edited" {
		t.Fatalf("unexpected content %q", updated.Content)
	}

	posts := store.ListPosts(authorID)
	if len(posts) != 1 {
		t.Fatalf("expected one post, got %d", len(posts))
	}

	if _, err := store.ToggleLike(authorID, models.LikeTargetPost, post.ID); err != nil {
		t.Fatalf("ToggleLike post: %v", err)
	}
	if err := store.DeletePost(post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if store.CountLikes(models.LikeTargetPost, post.ID) != 0 {
		t.Fatal("expected post likes removed")
	}
}

func TestCommentLifecycle(t *testing.T) {
	store := newTestStorage(t)
	ownerID := createTestUser(t, store, "alice")
	viewerID := createTestUser(t, store, "bob")
	video := createTestVideo(t, store, ownerID, "clip", models.PrivacyPublic)

	comment, err := store.CreateComment(video.ID, viewerID, "great video")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if _, err := store.CreateComment("missing", viewerID, "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	updated, err := store.UpdateComment(comment.ID, "even better")
	if err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	if updated.Content != "even better" {
		t.Fatalf("unexpected content %q", updated.Content)
	}

	for i := 0; i < 3; i++ {
		if _, err := store.CreateComment(video.ID, ownerID, "reply"); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}
	comments, total := store.ListComments(video.ID, 1, 2)
	if total != 4 || len(comments) != 2 {
		t.Fatalf("unexpected page: %d items (total %d)", len(comments), total)
	}

	if err := store.DeleteComment(comment.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if err := store.DeleteComment(comment.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDashboardAggregates(t *testing.T) {
	store := newTestStorage(t)
	channelID := createTestUser(t, store, "creator")
	fanID := createTestUser(t, store, "fan")

	public := createTestVideo(t, store, channelID, "public", models.PrivacyPublic)
	createTestVideo(t, store, channelID, "private", models.PrivacyPrivate)
	if err := store.AddVideoViews(public.ID, 12); err != nil {
		t.Fatalf("AddVideoViews: %v", err)
	}
	if _, err := store.ToggleLike(fanID, models.LikeTargetVideo, public.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if _, err := store.ToggleSubscription(fanID, channelID); err != nil {
		t.Fatalf("ToggleSubscription: %v", err)
	}

	if got := store.CountVideos(channelID); got != 2 {
		t.Fatalf("CountVideos = %d", got)
	}
	if got := store.SumVideoViews(channelID); got != 12 {
		t.Fatalf("SumVideoViews = %d", got)
	}
	if got := store.CountVideoLikes(channelID); got != 1 {
		t.Fatalf("CountVideoLikes = %d", got)
	}
	if got := store.CountSubscribers(channelID); got != 1 {
		t.Fatalf("CountSubscribers = %d", got)
	}

	all := store.ListChannelVideos(ChannelVideoFilter{ChannelID: channelID, IncludeHidden: true})
	if len(all) != 2 {
		t.Fatalf("expected both videos, got %d", len(all))
	}
	publicOnly := store.ListChannelVideos(ChannelVideoFilter{ChannelID: channelID})
	if len(publicOnly) != 1 || publicOnly[0].ID != public.ID {
		t.Fatalf("unexpected public list: %+v", publicOnly)
	}
}
