package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ridermarket/internal/logger"
	"github.com/ridermarket/internal/middleware"
	"github.com/ridermarket/internal/model"
	"github.com/ridermarket/internal/repository"
)

type RiderHandler struct {
	riders *repository.RiderRepository
}

func NewRiderHandler(riders *repository.RiderRepository) *RiderHandler {
	return &RiderHandler{riders: riders}
}

// UpsertMe replaces the caller's rider profile with the submitted one.
func (h *RiderHandler) UpsertMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var p model.RiderProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.UserID = userID
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if p.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}
	if p.MainCategory == "" {
		writeError(w, http.StatusBadRequest, "main_category is required")
		return
	}
	if p.SearchStatus == "" {
		p.SearchStatus = "open"
	}

	if err := h.riders.Upsert(r.Context(), &p); err != nil {
		logger.Errorf("rider upsert user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *RiderHandler) List(w http.ResponseWriter, r *http.Request) {
	f := repository.RiderFilter{
		Category:     r.URL.Query().Get("category"),
		Nation:       r.URL.Query().Get("nation"),
		SearchStatus: r.URL.Query().Get("status"),
	}
	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}

	riders, err := h.riders.List(r.Context(), f, limit)
	if err != nil {
		logger.Errorf("rider list: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load riders")
		return
	}
	writeJSON(w, http.StatusOK, riders)
}

func (h *RiderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.riders.GetByUserID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "rider not found")
		return
	}
	if err != nil {
		logger.Errorf("rider get id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load rider")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
