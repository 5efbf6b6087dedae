package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"clipstream/internal/auth"
	"clipstream/internal/models"
	"clipstream/internal/storage"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type authResponse struct {
	User             models.User `json:"user"`
	AccessToken      string      `json:"accessToken"`
	AccessExpiresAt  string      `json:"accessExpiresAt"`
	RefreshToken     string      `json:"refreshToken"`
	RefreshExpiresAt string      `json:"refreshExpiresAt"`
}

func newAuthResponse(user models.User, pair auth.TokenPair) authResponse {
	return authResponse{
		User:             user.Scrubbed(),
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt.UTC().Format(time.RFC3339Nano),
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt.UTC().Format(time.RFC3339Nano),
	}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, "POST")
		return
	}
	if !h.AllowSelfSignup {
		writeError(w, http.StatusForbidden, errors.New("public self-signup is disabled"))
		return
	}

	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.Store.CreateUser(storage.CreateUserParams{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		slog.Error("signup create user failed", "username", req.Username, "error", err)
		writeError(w, http.StatusBadRequest, errors.New("unable to create account"))
		return
	}

	pair, user, err := h.Sessions.Login(user.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.metrics().ObserveAuthEvent("signup")
	h.setAuthCookies(w, r, pair)
	writeJSON(w, http.StatusCreated, newAuthResponse(user, pair))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, "POST")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pair, user, err := h.Sessions.Login(req.Login, req.Password)
	if err != nil {
		h.metrics().ObserveAuthEvent("login_failed")
		writeError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	h.metrics().ObserveAuthEvent("login")
	h.setAuthCookies(w, r, pair)
	writeJSON(w, http.StatusOK, newAuthResponse(user, pair))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, "POST")
		return
	}

	presented := extractRefreshCookie(r)
	if presented == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}
	if presented == "" {
		writeError(w, http.StatusUnauthorized, errors.New("missing refresh token"))
		return
	}

	pair, user, err := h.Sessions.Refresh(presented)
	if err != nil {
		h.metrics().ObserveAuthEvent("refresh_rejected")
		h.ClearAuthCookies(w, r)
		writeError(w, http.StatusUnauthorized, errors.New("invalid refresh token"))
		return
	}

	h.metrics().ObserveAuthEvent("refresh")
	h.setAuthCookies(w, r, pair)
	writeJSON(w, http.StatusOK, newAuthResponse(user, pair))
}

// Logout clears the stored refresh token and both cookies. It succeeds even
// when the caller no longer holds a valid access token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, "POST")
		return
	}

	if user, err := h.AuthenticateRequest(r); err == nil {
		if err := h.Sessions.Logout(user.ID); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	h.metrics().ObserveAuthEvent("logout")
	h.ClearAuthCookies(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the account resolved from the access token on the request.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, "GET")
		return
	}

	user, err := h.AuthenticateRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.New("invalid or expired session"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.User{"user": user})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, "POST, PUT")
		return
	}

	user, err := h.AuthenticateRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("password must be at least 8 characters"))
		return
	}

	if err := h.Sessions.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}

	// Every session is invalid now, including the caller's.
	h.metrics().ObserveAuthEvent("password_change")
	h.ClearAuthCookies(w, r)
	w.WriteHeader(http.StatusNoContent)
}
