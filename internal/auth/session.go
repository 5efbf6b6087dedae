package auth

import (
	"errors"
	"fmt"
	"time"

	"clipstream/internal/models"
)

// ErrUnauthenticated is returned when a request carries no usable access
// token.
var ErrUnauthenticated = errors.New("authentication required")

// ErrUnauthorized is returned when a refresh attempt fails for any reason:
// bad signature, expiry, unknown account, or a stored-token mismatch.
var ErrUnauthorized = errors.New("refresh token rejected")

// CredentialStore is the slice of the datastore the session manager needs.
type CredentialStore interface {
	AuthenticateUser(loginKey, password string) (models.User, error)
	GetUser(id string) (models.User, bool)
	VerifyUserPassword(id, password string) error
	SetUserPassword(id, password string) (models.User, error)
	SetRefreshToken(id, token string) error
	RotateRefreshToken(id, presented, next string) error
}

// TokenPair carries a freshly minted access/refresh pair with the expiries
// handlers need for cookie attributes.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SessionManager coordinates the credential lifecycle against a backing
// store: password login, refresh rotation, logout, and password changes.
type SessionManager struct {
	codec *TokenCodec
	store CredentialStore
}

func NewSessionManager(codec *TokenCodec, store CredentialStore) *SessionManager {
	return &SessionManager{codec: codec, store: store}
}

// Login verifies the password for the username or email in loginKey, mints a
// token pair, and persists the refresh token on the account. Unknown accounts
// and wrong passwords are indistinguishable to the caller.
func (m *SessionManager) Login(loginKey, password string) (TokenPair, models.User, error) {
	user, err := m.store.AuthenticateUser(loginKey, password)
	if err != nil {
		return TokenPair{}, models.User{}, err
	}
	pair, err := m.issuePair(user)
	if err != nil {
		return TokenPair{}, models.User{}, err
	}
	if err := m.store.SetRefreshToken(user.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, models.User{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return pair, user.Scrubbed(), nil
}

// Refresh exchanges a presented refresh token for a new pair. The presented
// token must verify under the refresh secret AND match the value stored on
// the account; rotation is a compare-and-swap, so a given token is usable at
// most once. Every failure surfaces as ErrUnauthorized with no state change.
func (m *SessionManager) Refresh(presented string) (TokenPair, models.User, error) {
	claims, err := m.codec.VerifyRefresh(presented)
	if err != nil {
		return TokenPair{}, models.User{}, ErrUnauthorized
	}
	user, ok := m.store.GetUser(claims.UserID)
	if !ok {
		return TokenPair{}, models.User{}, ErrUnauthorized
	}
	pair, err := m.issuePair(user)
	if err != nil {
		return TokenPair{}, models.User{}, ErrUnauthorized
	}
	if err := m.store.RotateRefreshToken(user.ID, presented, pair.RefreshToken); err != nil {
		return TokenPair{}, models.User{}, ErrUnauthorized
	}
	return pair, user.Scrubbed(), nil
}

// Authenticate resolves an access token to the account it names. It never
// mutates state and never consults the stored refresh token.
func (m *SessionManager) Authenticate(token string) (models.User, error) {
	claims, err := m.codec.VerifyAccess(token)
	if err != nil {
		return models.User{}, ErrUnauthenticated
	}
	user, ok := m.store.GetUser(claims.UserID)
	if !ok {
		return models.User{}, ErrUnauthenticated
	}
	return user.Scrubbed(), nil
}

// Logout clears the stored refresh token so no outstanding refresh token can
// be exchanged again. Idempotent.
func (m *SessionManager) Logout(userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.SetRefreshToken(userID, "")
}

// ChangePassword verifies the current password, stores the new hash, and
// clears the stored refresh token so existing sessions must log in again.
func (m *SessionManager) ChangePassword(userID, current, next string) error {
	if err := m.store.VerifyUserPassword(userID, current); err != nil {
		return err
	}
	if _, err := m.store.SetUserPassword(userID, next); err != nil {
		return err
	}
	return m.store.SetRefreshToken(userID, "")
}

func (m *SessionManager) issuePair(user models.User) (TokenPair, error) {
	now := m.codec.now()
	access, err := m.codec.IssueAccess(user.ID, user.Username)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.codec.IssueRefresh(user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(m.codec.accessTTL),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(m.codec.refreshTTL),
	}, nil
}
