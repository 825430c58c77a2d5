package chatclient

import (
	"context"
	"sync"
	"time"
)

// TypingDebounce is how long the input must stay quiet before a typing
// signal is sent.
const TypingDebounce = 300 * time.Millisecond

// TypingNotifier debounces keystroke events on the trailing edge: every
// keystroke re-arms the timer, and the signal fires only once the user
// pauses for the full window. Continuous typing sends nothing. This is a
// pause detector, not a rate cap; server-side expiry handles the rest.
type TypingNotifier struct {
	notify   func(ctx context.Context) error
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewTypingNotifier(debounce time.Duration, notify func(ctx context.Context) error) *TypingNotifier {
	if debounce <= 0 {
		debounce = TypingDebounce
	}
	return &TypingNotifier{notify: notify, debounce: debounce}
}

// Keystroke reports one input event and re-arms the pause timer.
func (n *TypingNotifier) Keystroke(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
	}
	// Fire and forget: a lost signal only delays the indicator one window.
	n.timer = time.AfterFunc(n.debounce, func() {
		_ = n.notify(ctx)
	})
}

// Stop cancels any pending signal. Called when the input is cleared or the
// thread view goes away.
func (n *TypingNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
