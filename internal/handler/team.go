package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ridermarket/internal/fileserver"
	"github.com/ridermarket/internal/logger"
	"github.com/ridermarket/internal/middleware"
	"github.com/ridermarket/internal/model"
	"github.com/ridermarket/internal/repository"
)

type TeamHandler struct {
	teams *repository.TeamRepository
	files *fileserver.Service
}

func NewTeamHandler(teams *repository.TeamRepository, files *fileserver.Service) *TeamHandler {
	return &TeamHandler{teams: teams, files: files}
}

// UpsertMe creates or updates the caller's team. One team per owner.
func (h *TeamHandler) UpsertMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var t model.Team
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	t.OwnerID = userID

	existing, err := h.teams.GetByOwner(r.Context(), userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		t.ID = uuid.New().String()
		t.CreatedAt = time.Now().UTC()
		if err := h.teams.Create(r.Context(), &t); err != nil {
			logger.Errorf("team create owner=%s: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "failed to create team")
			return
		}
		writeJSON(w, http.StatusCreated, t)
	case err != nil:
		logger.Errorf("team lookup owner=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to save team")
	default:
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
		t.LogoURL = existing.LogoURL
		if err := h.teams.Update(r.Context(), &t); err != nil {
			logger.Errorf("team update id=%s: %v", t.ID, err)
			writeError(w, http.StatusInternalServerError, "failed to save team")
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	teams, err := h.teams.List(r.Context(), limit)
	if err != nil {
		logger.Errorf("team list: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load teams")
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.teams.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "team not found")
		return
	}
	if err != nil {
		logger.Errorf("team get id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load team")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UploadLogo accepts a multipart "file" field, stores the image and saves
// its URL on the caller's team.
func (h *TeamHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	team, err := h.teams.GetByOwner(r.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "create your team first")
		return
	}
	if err != nil {
		logger.Errorf("logo team lookup owner=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load team")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.files.MaxUploadSize)
	if err := r.ParseMultipartForm(h.files.MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	url, err := h.files.SaveLogo(r.Context(), team.ID, header.Filename, file)
	switch {
	case errors.Is(err, fileserver.ErrNotImage):
		writeError(w, http.StatusBadRequest, "only png, jpg, gif or webp images are accepted")
		return
	case errors.Is(err, fileserver.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	case err != nil:
		logger.Errorf("logo save team=%s: %v", team.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to store logo")
		return
	}

	if err := h.teams.SetLogoURL(r.Context(), team.ID, url); err != nil {
		logger.Errorf("logo url save team=%s: %v", team.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to save logo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// ServeFile streams a stored logo.
func (h *TeamHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	h.files.Serve(w, r, chi.URLParam(r, "name"))
}
