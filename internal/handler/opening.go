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
)

type OpeningHandler struct {
	openings *repository.OpeningRepository
	teams    *repository.TeamRepository
	contacts *repository.ContactRepository
}

func NewOpeningHandler(openings *repository.OpeningRepository, teams *repository.TeamRepository, contacts *repository.ContactRepository) *OpeningHandler {
	return &OpeningHandler{openings: openings, teams: teams, contacts: contacts}
}

// composeTitle builds a default listing title from league and category
// when the owner left the title blank.
func composeTitle(league, category string) string {
	parts := []string{}
	if league != "" {
		parts = append(parts, league)
	}
	if category != "" {
		parts = append(parts, "Cat "+category)
	}
	if len(parts) == 0 {
		return "Rider wanted"
	}
	return strings.Join(parts, " ") + " rider wanted"
}

// Create publishes an opening for the caller's team.
func (h *OpeningHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	team, err := h.teams.GetByOwner(r.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "create your team first")
		return
	}
	if err != nil {
		logger.Errorf("opening create team lookup owner=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to create opening")
		return
	}

	var o model.Opening
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	o.ID = uuid.New().String()
	o.TeamID = team.ID
	o.CreatedAt = time.Now().UTC()
	o.Title = strings.TrimSpace(o.Title)
	if o.Title == "" {
		o.Title = composeTitle(o.League, o.Category)
	}

	if err := h.openings.Create(r.Context(), &o); err != nil {
		logger.Errorf("opening create team=%s: %v", team.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to create opening")
		return
	}
	o.Team = team
	writeJSON(w, http.StatusCreated, o)
}

func (h *OpeningHandler) List(w http.ResponseWriter, r *http.Request) {
	f := repository.OpeningFilter{
		League:   r.URL.Query().Get("league"),
		Category: r.URL.Query().Get("category"),
		TeamID:   r.URL.Query().Get("teamId"),
	}
	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}

	openings, err := h.openings.List(r.Context(), f, limit)
	if err != nil {
		logger.Errorf("opening list: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load openings")
		return
	}
	writeJSON(w, http.StatusOK, openings)
}

func (h *OpeningHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.openings.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "opening not found")
		return
	}
	if err != nil {
		logger.Errorf("opening get id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load opening")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// loadOwned loads an opening and verifies the caller owns its team.
func (h *OpeningHandler) loadOwned(w http.ResponseWriter, r *http.Request) *model.Opening {
	id := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	o, err := h.openings.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "opening not found")
		return nil
	}
	if err != nil {
		logger.Errorf("opening load id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load opening")
		return nil
	}
	if o.Team == nil || o.Team.OwnerID != userID {
		writeError(w, http.StatusForbidden, "only the team owner can manage openings")
		return nil
	}
	return o
}

func (h *OpeningHandler) Update(w http.ResponseWriter, r *http.Request) {
	o := h.loadOwned(w, r)
	if o == nil {
		return
	}

	var in model.Opening
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.ID = o.ID
	in.TeamID = o.TeamID
	in.CreatedAt = o.CreatedAt
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		in.Title = composeTitle(in.League, in.Category)
	}

	if err := h.openings.Update(r.Context(), &in); err != nil {
		logger.Errorf("opening update id=%s: %v", o.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to update opening")
		return
	}
	in.Team = o.Team
	writeJSON(w, http.StatusOK, in)
}

func (h *OpeningHandler) Delete(w http.ResponseWriter, r *http.Request) {
	o := h.loadOwned(w, r)
	if o == nil {
		return
	}
	if err := h.openings.Delete(r.Context(), o.ID); err != nil {
		logger.Errorf("opening delete id=%s: %v", o.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to delete opening")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type applyRequest struct {
	Message string `json:"message"`
}

// Apply creates an application thread from the caller to the opening's
// team: addressed to the team owner, status pending.
func (h *OpeningHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	o, err := h.openings.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "opening not found")
		return
	}
	if err != nil {
		logger.Errorf("apply opening id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load opening")
		return
	}
	if o.Team != nil && o.Team.OwnerID == userID {
		writeError(w, http.StatusBadRequest, "cannot apply to your own team")
		return
	}

	var req applyRequest
	if r.Body != nil {
		// Body is optional; a bare POST applies without an intro message.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	c := &model.ContactRequest{
		ID:         uuid.New().String(),
		FromUserID: userID,
		TeamID:     o.TeamID,
		OpeningID:  &o.ID,
		Status:     model.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if o.Team != nil {
		owner := o.Team.OwnerID
		c.ToUserID = &owner
		c.TeamOwnerID = owner
		c.TeamName = o.Team.Name
	}
	if msg := strings.TrimSpace(req.Message); msg != "" {
		c.Message = &msg
	}

	if err := h.contacts.Create(r.Context(), c); err != nil {
		logger.Errorf("apply create contact opening=%s user=%s: %v", id, userID, err)
		writeError(w, http.StatusInternalServerError, "failed to apply")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
