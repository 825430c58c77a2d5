// Package presence derives short-lived liveness signals (online, typing)
// from heartbeat timestamps. Everything here is advisory: writes are
// best-effort and failures never propagate to the caller, because no
// authorization or data-integrity decision depends on presence.
package presence

import (
	"context"
	"time"

	"github.com/ridermarket/internal/logger"
)

// OnlineWindow is how recent a user's last activity must be to count as
// online. The boundary is exclusive: exactly 30s ago is offline.
const OnlineWindow = 30 * time.Second

// TypingWindow is how long a typing signal stays valid. The boundary is
// inclusive: a signal exactly 5s old still counts.
const TypingWindow = 5 * time.Second

// ActivityStore reads and writes the per-user heartbeat timestamp.
type ActivityStore interface {
	TouchActivity(ctx context.Context, userID string, at time.Time) error
	LastActiveAt(ctx context.Context, userID string) (*time.Time, error)
}

// TypingStore reads and writes the per-(thread, user) typing timestamp.
type TypingStore interface {
	Upsert(ctx context.Context, contactRequestID, userID string, at time.Time) error
	UpdatedAt(ctx context.Context, contactRequestID, userID string) (*time.Time, error)
}

type Service struct {
	activity ActivityStore
	typing   TypingStore
}

func NewService(activity ActivityStore, typing TypingStore) *Service {
	return &Service{activity: activity, typing: typing}
}

// TouchActivity stamps the user's heartbeat. Errors are logged and swallowed.
func (s *Service) TouchActivity(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if err := s.activity.TouchActivity(ctx, userID, time.Now().UTC()); err != nil {
		logger.Errorf("presence touch user=%s: %v", userID, err)
	}
}

// IsOnline reports whether the user was active within OnlineWindow.
// Unknown users and store errors read as offline.
func (s *Service) IsOnline(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	last, err := s.activity.LastActiveAt(ctx, userID)
	if err != nil {
		logger.Errorf("presence last-active user=%s: %v", userID, err)
		return false
	}
	if last == nil {
		return false
	}
	return time.Since(*last) < OnlineWindow
}

// RecordTyping upserts the typing row for the pair. Errors are logged and
// swallowed.
func (s *Service) RecordTyping(ctx context.Context, contactRequestID, userID string) {
	if contactRequestID == "" || userID == "" {
		return
	}
	if err := s.typing.Upsert(ctx, contactRequestID, userID, time.Now().UTC()); err != nil {
		logger.Errorf("presence typing contact=%s user=%s: %v", contactRequestID, userID, err)
	}
}

// IsTyping reports whether the user signalled typing in this thread within
// TypingWindow. Store errors read as not typing.
func (s *Service) IsTyping(ctx context.Context, contactRequestID, userID string) bool {
	if contactRequestID == "" || userID == "" {
		return false
	}
	at, err := s.typing.UpdatedAt(ctx, contactRequestID, userID)
	if err != nil {
		logger.Errorf("presence typing-read contact=%s user=%s: %v", contactRequestID, userID, err)
		return false
	}
	if at == nil {
		return false
	}
	return time.Since(*at) <= TypingWindow
}
