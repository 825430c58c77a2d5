package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ridermarket/internal/logger"
	"github.com/ridermarket/internal/middleware"
	"github.com/ridermarket/internal/model"
	"github.com/ridermarket/internal/repository"
	"github.com/ridermarket/internal/storage"
)

type AuthHandler struct {
	users      *repository.UserRepository
	sessions   storage.SessionStore
	sessionTTL time.Duration
}

func NewAuthHandler(users *repository.UserRepository, sessions storage.SessionStore, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, sessionTTL: sessionTTL}
}

type loginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login signs a user in by email, creating the account on first login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = strings.SplitN(req.Email, "@", 2)[0]
		}
		user = &model.User{
			ID:        uuid.New().String(),
			Name:      name,
			Email:     req.Email,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.users.Create(r.Context(), user); err != nil {
			logger.Errorf("login create user email=%s: %v", req.Email, err)
			writeError(w, http.StatusInternalServerError, "failed to create user")
			return
		}
	} else if err != nil {
		logger.Errorf("login lookup email=%s: %v", req.Email, err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token := uuid.New().String()
	if err := h.sessions.SetSession(r.Context(), token, user.ID, h.sessionTTL); err != nil {
		logger.Errorf("login set session user=%s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout drops the presented session token. Always 200; logging out with
// a dead token is not an error worth surfacing.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Session-Token")
	if token != "" {
		if err := h.sessions.DeleteSession(r.Context(), token); err != nil {
			logger.Errorf("logout delete session: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me returns the authenticated user's record.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := h.users.GetByID(r.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		logger.Errorf("me user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateMeRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateMe changes the caller's display name and avatar.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req updateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.users.UpdateProfile(r.Context(), userID, req.Name, req.AvatarURL); err != nil {
		logger.Errorf("update profile user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		logger.Errorf("update profile reload user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUser returns the public view of any user (no email, no activity).
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.users.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		logger.Errorf("user get id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user.ToPublic())
}
