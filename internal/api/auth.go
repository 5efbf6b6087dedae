package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"clipstream/internal/auth"
	"clipstream/internal/models"
)

type contextKey string

const userContextKey contextKey = "authenticatedUser"

// ContextWithUser stores the authenticated user in the provided context.
func ContextWithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from context if present.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// AuthenticateRequest resolves the access token carried on the request into
// an account. It never mutates session state; an expired access token is the
// client's cue to call the refresh endpoint.
func (h *Handler) AuthenticateRequest(r *http.Request) (models.User, error) {
	token := ExtractToken(r)
	if token == "" {
		return models.User{}, auth.ErrUnauthenticated
	}
	return h.Sessions.Authenticate(token)
}

func (h *Handler) requireAuthenticatedUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return models.User{}, false
	}
	return user, true
}

// ExtractToken returns the access token from the accessToken cookie, falling
// back to the Authorization header. The cookie wins when both are present.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

// ExtractRefreshToken returns the refresh token from the refreshToken cookie
// or, as a fallback for non-browser clients, the request body decoded by the
// caller.
func extractRefreshCookie(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
