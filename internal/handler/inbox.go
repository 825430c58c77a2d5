package handler

import (
	"net/http"

	"github.com/ridermarket/internal/logger"
	"github.com/ridermarket/internal/middleware"
	"github.com/ridermarket/internal/repository"
)

type InboxHandler struct {
	contacts *repository.ContactRepository
}

func NewInboxHandler(contacts *repository.ContactRepository) *InboxHandler {
	return &InboxHandler{contacts: contacts}
}

// List returns every conversation the caller is part of, newest first.
func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	contacts, err := h.contacts.ListForUser(r.Context(), userID)
	if err != nil {
		logger.Errorf("inbox list user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load inbox")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// PendingCount returns the number of open applications awaiting the
// caller's decision. Drives the navigation badge.
func (h *InboxHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	count, err := h.contacts.PendingCountForUser(r.Context(), userID)
	if err != nil {
		logger.Errorf("inbox pending-count user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to count applications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
