package chatclient

import (
	"context"
	"time"

	"github.com/ridermarket/internal/conversation"
)

// DefaultPollInterval is the pause between snapshot polls.
const DefaultPollInterval = 3 * time.Second

// SnapshotFunc fetches the current thread snapshot.
type SnapshotFunc func(ctx context.Context) (*conversation.Snapshot, error)

// Poller drives a thread view by polling. Ticks are strictly sequential:
// the next request starts only after the previous one finished, so a slow
// server stretches the cadence instead of stacking requests. Every
// successful snapshot replaces the whole view; nothing is merged.
type Poller struct {
	interval time.Duration
	fetch    SnapshotFunc
	apply    func(*conversation.Snapshot)
	onError  func(error)
}

// NewPoller wires a poller. apply receives each successful snapshot;
// onError may be nil, in which case fetch errors are skipped and the loop
// keeps its cadence.
func NewPoller(interval time.Duration, fetch SnapshotFunc, apply func(*conversation.Snapshot), onError func(error)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Poller{interval: interval, fetch: fetch, apply: apply, onError: onError}
}

// Run polls until ctx is cancelled. The first fetch happens immediately.
// A snapshot that arrives after cancellation is discarded, never applied,
// so a stale thread cannot overwrite whatever view replaced it.
func (p *Poller) Run(ctx context.Context) {
	for {
		snap, err := p.fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			p.onError(err)
		} else {
			p.apply(snap)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}
	}
}
