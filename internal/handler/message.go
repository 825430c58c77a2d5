package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ridermarket/internal/conversation"
	"github.com/ridermarket/internal/logger"
	"github.com/ridermarket/internal/middleware"
	"github.com/ridermarket/internal/repository"
)

type MessageHandler struct {
	svc *conversation.Service
}

func NewMessageHandler(svc *conversation.Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type createMessageRequest struct {
	ContactRequestID string `json:"contactRequestId"`
	Text             string `json:"text"`
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ContactRequestID == "" {
		writeError(w, http.StatusBadRequest, "contactRequestId is required")
		return
	}

	m, err := h.svc.Send(r.Context(), req.ContactRequestID, userID, req.Text)
	switch {
	case errors.Is(err, conversation.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "text is required")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, conversation.ErrForbidden):
		writeError(w, http.StatusForbidden, "not a participant")
	case err != nil:
		logger.Errorf("message create contact=%s: %v", req.ContactRequestID, err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
	default:
		writeJSON(w, http.StatusCreated, m)
	}
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	m, err := h.svc.GetMessage(r.Context(), id, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "message not found")
	case errors.Is(err, conversation.ErrForbidden):
		writeError(w, http.StatusForbidden, "not a participant")
	case err != nil:
		logger.Errorf("message get id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load message")
	default:
		writeJSON(w, http.StatusOK, m)
	}
}

type editMessageRequest struct {
	Text string `json:"text"`
}

func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	var req editMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.svc.EditMessage(r.Context(), id, userID, req.Text)
	switch {
	case errors.Is(err, conversation.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "text is required")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "message not found")
	case errors.Is(err, conversation.ErrForbidden):
		writeError(w, http.StatusForbidden, "only the sender can edit")
	case err != nil:
		logger.Errorf("message update id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to update message")
	default:
		writeJSON(w, http.StatusOK, m)
	}
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	err := h.svc.DeleteMessage(r.Context(), id, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "message not found")
	case errors.Is(err, conversation.ErrForbidden):
		writeError(w, http.StatusForbidden, "only the sender or the team owner can delete")
	case err != nil:
		logger.Errorf("message delete id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete message")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type typingSignalRequest struct {
	ContactRequestID string `json:"contactRequestId"`
}

// Typing records a composing signal for the thread. Always 200 once the
// input parses; the effect is best-effort.
func (h *MessageHandler) Typing(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req typingSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ContactRequestID == "" {
		writeError(w, http.StatusBadRequest, "contactRequestId is required")
		return
	}

	h.svc.Typing(r.Context(), req.ContactRequestID, userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
