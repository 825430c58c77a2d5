package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ridermarket/internal/conversation"
	"github.com/ridermarket/internal/logger"
	"github.com/ridermarket/internal/middleware"
	"github.com/ridermarket/internal/model"
	"github.com/ridermarket/internal/repository"
)

// contactReader is the read side of the contact repository the handler
// needs directly (everything else goes through the conversation service).
type contactReader interface {
	GetByID(ctx context.Context, id string) (*model.ContactRequest, error)
}

type ConversationHandler struct {
	svc      *conversation.Service
	contacts contactReader
}

func NewConversationHandler(svc *conversation.Service, contacts contactReader) *ConversationHandler {
	return &ConversationHandler{svc: svc, contacts: contacts}
}

// GetSnapshot serves one poll tick: the message list plus derived
// presence. Anonymous callers are allowed.
func (h *ConversationHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	callerID := middleware.GetUserID(r.Context())

	snap, err := h.svc.Retrieve(r.Context(), id, callerID)
	if errors.Is(err, conversation.ErrForbidden) {
		writeError(w, http.StatusForbidden, "not a participant")
		return
	}
	if err != nil {
		logger.Errorf("conversation snapshot id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetConversation returns the full application record, participants only.
// Unlike the snapshot, an unknown id here is a 404.
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	callerID := middleware.GetUserID(r.Context())

	contact, err := h.contacts.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		logger.Errorf("conversation get id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	if !contact.IsParticipant(callerID) {
		writeError(w, http.StatusForbidden, "not a participant")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus lets the team owner accept or decline the application.
func (h *ConversationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	callerID := middleware.GetUserID(r.Context())

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	contact, err := h.svc.UpdateStatus(r.Context(), id, callerID, req.Status)
	switch {
	case errors.Is(err, conversation.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "status must be pending, accepted or declined")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, conversation.ErrForbidden):
		writeError(w, http.StatusForbidden, "only the team owner can decide")
	case err != nil:
		logger.Errorf("conversation status id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to update status")
	default:
		writeJSON(w, http.StatusOK, contact)
	}
}
