package auth

import (
	"errors"
	"testing"
	"time"

	"clipstream/internal/models"
)

var errBadCredentials = errors.New("invalid credentials")

// fakeCredentialStore implements CredentialStore over a single account.
type fakeCredentialStore struct {
	user         models.User
	password     string
	refreshToken string

	setRefreshErr error
	rotateErr     error
}

func (s *fakeCredentialStore) AuthenticateUser(loginKey, password string) (models.User, error) {
	if (loginKey != s.user.Username && loginKey != s.user.Email) || password != s.password {
		return models.User{}, errBadCredentials
	}
	return s.user, nil
}

func (s *fakeCredentialStore) GetUser(id string) (models.User, bool) {
	if id != s.user.ID {
		return models.User{}, false
	}
	return s.user, true
}

func (s *fakeCredentialStore) VerifyUserPassword(id, password string) error {
	if id != s.user.ID || password != s.password {
		return errBadCredentials
	}
	return nil
}

func (s *fakeCredentialStore) SetUserPassword(id, password string) (models.User, error) {
	s.password = password
	return s.user, nil
}

func (s *fakeCredentialStore) SetRefreshToken(id, token string) error {
	if s.setRefreshErr != nil {
		return s.setRefreshErr
	}
	s.refreshToken = token
	return nil
}

func (s *fakeCredentialStore) RotateRefreshToken(id, presented, next string) error {
	if s.rotateErr != nil {
		return s.rotateErr
	}
	if s.refreshToken != presented {
		return errors.New("refresh token mismatch")
	}
	s.refreshToken = next
	return nil
}

func newTestSession(t *testing.T) (*SessionManager, *fakeCredentialStore) {
	t.Helper()
	codec := newTestCodec(t)
	store := &fakeCredentialStore{
		user:     models.User{ID: "user-1", Username: "alice", Email: "alice@example.com"},
		password: "secret",
	}
	return NewSessionManager(codec, store), store
}

func TestLoginPersistsRefreshToken(t *testing.T) {
	manager, store := newTestSession(t)
	pair, user, err := manager.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens minted")
	}
	if store.refreshToken != pair.RefreshToken {
		t.Fatalf("stored refresh %q does not match issued %q", store.refreshToken, pair.RefreshToken)
	}
	if user.PasswordHash != "" || user.RefreshToken != "" {
		t.Fatalf("credential material leaked: %+v", user)
	}
	if _, _, err := manager.Login("alice@example.com", "secret"); err != nil {
		t.Fatalf("Login by email: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	manager, _ := newTestSession(t)
	if _, _, err := manager.Login("alice", "wrong"); !errors.Is(err, errBadCredentials) {
		t.Fatalf("expected credentials error, got %v", err)
	}
	if _, _, err := manager.Login("nobody", "secret"); !errors.Is(err, errBadCredentials) {
		t.Fatalf("expected credentials error for unknown account, got %v", err)
	}
}

func TestRefreshRotatesStoredToken(t *testing.T) {
	manager, store := newTestSession(t)
	first, _, err := manager.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	second, _, err := manager.Refresh(first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.AccessToken == first.AccessToken || second.RefreshToken == first.RefreshToken {
		t.Fatal("expected rotation to mint fresh tokens")
	}
	if store.refreshToken != second.RefreshToken {
		t.Fatalf("stored refresh %q does not match rotated %q", store.refreshToken, second.RefreshToken)
	}
}

func TestRefreshIsSingleUse(t *testing.T) {
	manager, _ := newTestSession(t)
	first, _, err := manager.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := manager.Refresh(first.RefreshToken); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if _, _, err := manager.Refresh(first.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized replaying a rotated token, got %v", err)
	}
}

func TestRefreshRejectsForgedAndExpiredTokens(t *testing.T) {
	current := time.Now()
	codec, err := NewTokenCodec(TokenCodecConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Now:           func() time.Time { return current },
	})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	store := &fakeCredentialStore{
		user:     models.User{ID: "user-1", Username: "alice", Email: "alice@example.com"},
		password: "secret",
	}
	manager := NewSessionManager(codec, store)

	if _, _, err := manager.Refresh("not-a-token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for garbage token, got %v", err)
	}

	pair, _, err := manager.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	// An access token must never pass the refresh gate.
	if _, _, err := manager.Refresh(pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for access token, got %v", err)
	}
	current = current.Add(2 * time.Hour)
	if _, _, err := manager.Refresh(pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
	if store.refreshToken != pair.RefreshToken {
		t.Fatal("failed refresh must not mutate the stored token")
	}
}

func TestAuthenticateResolvesAccessToken(t *testing.T) {
	manager, _ := newTestSession(t)
	pair, _, err := manager.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	user, err := manager.Authenticate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash != "" || user.RefreshToken != "" {
		t.Fatalf("credential material leaked: %+v", user)
	}
	if _, err := manager.Authenticate(pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for refresh token, got %v", err)
	}
	if _, err := manager.Authenticate(""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}
}

func TestLogoutClearsStoredToken(t *testing.T) {
	manager, store := newTestSession(t)
	pair, _, err := manager.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := manager.Logout("user-1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if store.refreshToken != "" {
		t.Fatalf("expected stored token cleared, got %q", store.refreshToken)
	}
	if _, _, err := manager.Refresh(pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
	// Logging out twice is harmless.
	if err := manager.Logout("user-1"); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestChangePasswordInvalidatesSessions(t *testing.T) {
	manager, store := newTestSession(t)
	pair, _, err := manager.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := manager.ChangePassword("user-1", "wrong", "next-secret"); !errors.Is(err, errBadCredentials) {
		t.Fatalf("expected credentials error, got %v", err)
	}
	if err := manager.ChangePassword("user-1", "secret", "next-secret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if store.refreshToken != "" {
		t.Fatal("expected stored refresh token cleared after password change")
	}
	if _, _, err := manager.Refresh(pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after password change, got %v", err)
	}
	if _, _, err := manager.Login("alice", "next-secret"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}
