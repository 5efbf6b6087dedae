package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token classes carried in the "cls" claim. Access tokens authenticate
// requests; refresh tokens mint new pairs. A token of one class is never
// accepted where the other is expected.
const (
	TokenClassAccess  = "access"
	TokenClassRefresh = "refresh"
)

// ErrInvalidToken is returned whenever a token fails verification. Expired,
// tampered, wrong-class, and malformed tokens are indistinguishable to
// callers.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the signed contents of both token classes.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"username,omitempty"`
	Class    string `json:"cls"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the access/refresh token pair. The two
// classes use separate secrets and lifetimes so compromising one does not
// compromise the other.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// TokenCodecConfig configures NewTokenCodec. Zero TTLs fall back to the
// defaults below.
type TokenCodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" {
		return nil, errors.New("auth: access secret is required")
	}
	if strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, errors.New("auth: refresh secret is required")
	}
	codec := &TokenCodec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           cfg.Now,
	}
	if codec.accessTTL <= 0 {
		codec.accessTTL = defaultAccessTTL
	}
	if codec.refreshTTL <= 0 {
		codec.refreshTTL = defaultRefreshTTL
	}
	if codec.now == nil {
		codec.now = time.Now
	}
	return codec, nil
}

// AccessTTL reports the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs a short-lived access token for the user.
func (c *TokenCodec) IssueAccess(userID, username string) (string, error) {
	return c.issue(TokenClassAccess, userID, username, c.accessSecret, c.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the user. Refresh tokens
// carry only the user ID.
func (c *TokenCodec) IssueRefresh(userID string) (string, error) {
	return c.issue(TokenClassRefresh, userID, "", c.refreshSecret, c.refreshTTL)
}

func (c *TokenCodec) issue(class, userID, username string, secret []byte, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("auth: user id is required")
	}
	jti, err := generateTokenID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	now := c.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Class:    class,
		RegisteredClaims: jwt.RegisteredClaims{
			// Random jti keeps two tokens minted in the same second distinct.
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", class, err)
	}
	return signed, nil
}

// VerifyAccess checks the signature, expiry, and class of an access token and
// returns its claims.
func (c *TokenCodec) VerifyAccess(token string) (*Claims, error) {
	return c.verify(token, TokenClassAccess, c.accessSecret)
}

// VerifyRefresh checks the signature, expiry, and class of a refresh token
// and returns its claims.
func (c *TokenCodec) VerifyRefresh(token string) (*Claims, error) {
	return c.verify(token, TokenClassRefresh, c.refreshSecret)
}

func (c *TokenCodec) verify(token, class string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Class != class || strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateTokenID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
