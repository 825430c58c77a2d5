// Package conversation implements the application chat thread: snapshot
// retrieval with bundled side effects, message send, typing signals, and
// the team owner's status decision.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ridermarket/internal/model"
	"github.com/ridermarket/internal/repository"
)

var (
	// ErrForbidden: the caller is not the applicant, the addressee, or the
	// team owner of the thread.
	ErrForbidden = errors.New("not a participant")
	// ErrEmptyText: message text is empty after trimming.
	ErrEmptyText = errors.New("empty message text")
	// ErrInvalidStatus: status is not pending, accepted, or declined.
	ErrInvalidStatus = errors.New("invalid status")
)

// ContactStore is the slice of the contact repository the service needs.
type ContactStore interface {
	GetByID(ctx context.Context, id string) (*model.ContactRequest, error)
	UpdateStatus(ctx context.Context, id string, status model.ContactStatus) error
}

// MessageStore is the slice of the message repository the service needs.
type MessageStore interface {
	Create(ctx context.Context, m *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	ListByContact(ctx context.Context, contactRequestID string) ([]model.Message, error)
	MarkSeen(ctx context.Context, contactRequestID, readerID string, at time.Time) error
	LastSeenFromSender(ctx context.Context, contactRequestID, senderID string) (string, error)
	UpdateText(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
}

// Presence derives liveness signals; all its writes are advisory.
type Presence interface {
	TouchActivity(ctx context.Context, userID string)
	IsOnline(ctx context.Context, userID string) bool
	RecordTyping(ctx context.Context, contactRequestID, userID string)
	IsTyping(ctx context.Context, contactRequestID, userID string) bool
}

// AdvisoryLog receives errors from best-effort side effects (mark-seen).
// Wired to logger.Errorf in production; injectable so tests can assert
// nothing leaks to the caller.
type AdvisoryLog func(format string, v ...any)

type ThreadMessage struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
}

// Snapshot is one full poll result. The client replaces its entire view
// state with it; nothing is merged.
type Snapshot struct {
	Messages          []ThreadMessage `json:"messages"`
	OtherOnline       bool            `json:"otherOnline"`
	OtherIsTyping     bool            `json:"otherIsTyping"`
	LastSeenByOtherID *string         `json:"lastSeenByOtherId"`
}

type Service struct {
	contacts ContactStore
	messages MessageStore
	presence Presence
	advisory AdvisoryLog
}

func NewService(contacts ContactStore, messages MessageStore, presence Presence, advisory AdvisoryLog) *Service {
	if advisory == nil {
		advisory = func(string, ...any) {}
	}
	return &Service{contacts: contacts, messages: messages, presence: presence, advisory: advisory}
}

// Retrieve serves the current thread snapshot for one poll tick. callerID
// may be empty (anonymous): the message list is still served but no
// activity is touched, nothing is marked seen, and no personal seen marker
// is derived. The steps run in a fixed order with no transaction; each one
// is idempotent, so a message landing mid-sequence is picked up by the next
// tick at the latest.
func (s *Service) Retrieve(ctx context.Context, contactRequestID, callerID string) (*Snapshot, error) {
	if callerID != "" {
		s.presence.TouchActivity(ctx, callerID)
	}

	msgs, err := s.messages.ListByContact(ctx, contactRequestID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Messages: make([]ThreadMessage, 0, len(msgs))}
	for _, m := range msgs {
		snap.Messages = append(snap.Messages, ThreadMessage{
			ID:         m.ID,
			Text:       m.Text,
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
		})
	}

	contact, err := s.contacts.GetByID(ctx, contactRequestID)
	if errors.Is(err, repository.ErrNotFound) {
		// Unknown thread: empty-safe, not a failure.
		return snap, nil
	}
	if err != nil {
		return nil, err
	}

	if callerID != "" && !contact.IsParticipant(callerID) {
		return nil, ErrForbidden
	}

	if callerID != "" {
		// Seen means retrieved. Conditional on seen_at IS NULL in the store,
		// so repeated polls never move an existing marker.
		if err := s.messages.MarkSeen(ctx, contactRequestID, callerID, time.Now().UTC()); err != nil {
			s.advisory("conversation mark-seen contact=%s: %v", contactRequestID, err)
		}
	}

	otherID := resolveOther(contact, callerID)
	snap.OtherOnline = s.presence.IsOnline(ctx, otherID)

	if callerID != "" {
		id, err := s.messages.LastSeenFromSender(ctx, contactRequestID, callerID)
		if err != nil {
			s.advisory("conversation last-seen contact=%s: %v", contactRequestID, err)
		} else if id != "" {
			snap.LastSeenByOtherID = &id
		}
	}

	snap.OtherIsTyping = s.presence.IsTyping(ctx, contactRequestID, otherID)
	return snap, nil
}

// resolveOther picks the counterpart for the caller. The thread has up to
// three sides (applicant, addressee, team owner); when the caller is not
// classifiable, fall back applicant, then addressee, then owner.
func resolveOther(c *model.ContactRequest, callerID string) string {
	if callerID != "" {
		if callerID == c.FromUserID {
			if c.ToUserID != nil && *c.ToUserID != "" {
				return *c.ToUserID
			}
			return c.TeamOwnerID
		}
		if (c.ToUserID != nil && *c.ToUserID == callerID) || callerID == c.TeamOwnerID {
			return c.FromUserID
		}
	}
	if c.FromUserID != "" {
		return c.FromUserID
	}
	if c.ToUserID != nil && *c.ToUserID != "" {
		return *c.ToUserID
	}
	return c.TeamOwnerID
}

// Send appends one message. The new message starts unseen; the seen marker
// is set only by the other side's next Retrieve.
func (s *Service) Send(ctx context.Context, contactRequestID, senderID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	contact, err := s.contacts.GetByID(ctx, contactRequestID)
	if err != nil {
		return nil, err
	}
	if !contact.IsParticipant(senderID) {
		return nil, ErrForbidden
	}

	m := &model.Message{
		ID:               uuid.New().String(),
		ContactRequestID: contactRequestID,
		SenderID:         senderID,
		Text:             text,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Typing records a composing signal. Deliberately no participant check
// (matches the existing product behavior; the signal leaks nothing but a
// boolean and expires within seconds).
func (s *Service) Typing(ctx context.Context, contactRequestID, userID string) {
	s.presence.RecordTyping(ctx, contactRequestID, userID)
}

// UpdateStatus lets the team owner decide on the application. Input is
// case-insensitive and stored lowercase.
func (s *Service) UpdateStatus(ctx context.Context, contactRequestID, callerID, status string) (*model.ContactRequest, error) {
	normalized := model.ContactStatus(strings.ToLower(strings.TrimSpace(status)))
	if !model.ValidStatus(normalized) {
		return nil, ErrInvalidStatus
	}

	contact, err := s.contacts.GetByID(ctx, contactRequestID)
	if err != nil {
		return nil, err
	}
	if contact.TeamOwnerID != callerID {
		return nil, ErrForbidden
	}

	if err := s.contacts.UpdateStatus(ctx, contactRequestID, normalized); err != nil {
		return nil, err
	}
	contact.Status = normalized
	return contact, nil
}

// GetMessage returns one message, participants only.
func (s *Service) GetMessage(ctx context.Context, messageID, callerID string) (*model.Message, error) {
	m, contact, err := s.loadMessageThread(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !contact.IsParticipant(callerID) {
		return nil, ErrForbidden
	}
	return m, nil
}

// EditMessage replaces a message's text. Sender only.
func (s *Service) EditMessage(ctx context.Context, messageID, callerID, text string) (*model.Message, error) {
	m, contact, err := s.loadMessageThread(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !contact.IsParticipant(callerID) || m.SenderID != callerID {
		return nil, ErrForbidden
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := s.messages.UpdateText(ctx, messageID, text); err != nil {
		return nil, err
	}
	m.Text = text
	return m, nil
}

// DeleteMessage removes a message. Sender or the team owner of the thread.
func (s *Service) DeleteMessage(ctx context.Context, messageID, callerID string) error {
	m, contact, err := s.loadMessageThread(ctx, messageID)
	if err != nil {
		return err
	}
	if !contact.IsParticipant(callerID) {
		return ErrForbidden
	}
	if m.SenderID != callerID && contact.TeamOwnerID != callerID {
		return ErrForbidden
	}
	return s.messages.Delete(ctx, messageID)
}

func (s *Service) loadMessageThread(ctx context.Context, messageID string) (*model.Message, *model.ContactRequest, error) {
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	contact, err := s.contacts.GetByID(ctx, m.ContactRequestID)
	if err != nil {
		return nil, nil, err
	}
	return m, contact, nil
}
