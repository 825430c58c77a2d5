package chatclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ridermarket/internal/conversation"
)

func TestSnapshotFetch(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Session-Token")
		seen := "m1"
		json.NewEncoder(w).Encode(conversation.Snapshot{
			Messages:          []conversation.ThreadMessage{{ID: "m1", Text: "hi", SenderID: "u1"}},
			OtherOnline:       true,
			LastSeenByOtherID: &seen,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-123")
	snap, err := c.Snapshot(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if gotPath != "/api/conversations/c1/messages" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotToken != "tok-123" {
		t.Fatalf("token header = %q", gotToken)
	}
	if len(snap.Messages) != 1 || !snap.OtherOnline || snap.LastSeenByOtherID == nil {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestSendFailureReturnsNoMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	m, err := c.Send(context.Background(), "c1", "hello")
	if err == nil {
		t.Fatal("expected an error on 403")
	}
	if m != nil {
		t.Fatal("no message may be returned on failure")
	}
}

func TestSendPostsBody(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"m1","text":"hello"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	m, err := c.Send(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.ContactRequestID != "c1" || got.Text != "hello" {
		t.Fatalf("request body = %+v", got)
	}
	if m.ID != "m1" {
		t.Fatalf("message id = %q", m.ID)
	}
}

func TestPollerSequentialTicks(t *testing.T) {
	var inFlight, maxInFlight, applied int32
	fetch := func(ctx context.Context) (*conversation.Snapshot, error) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, n)
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return &conversation.Snapshot{}, nil
	}
	apply := func(*conversation.Snapshot) { atomic.AddInt32(&applied, 1) }

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	NewPoller(time.Millisecond, fetch, apply, nil).Run(ctx)

	if atomic.LoadInt32(&maxInFlight) != 1 {
		t.Fatalf("max in-flight = %d, want 1", maxInFlight)
	}
	if atomic.LoadInt32(&applied) < 2 {
		t.Fatalf("applied %d snapshots, want several", applied)
	}
}

func TestPollerDiscardsPostCancellationSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(ctx context.Context) (*conversation.Snapshot, error) {
		cancel()
		// Snapshot "arrives" after the view switched away.
		return &conversation.Snapshot{OtherOnline: true}, nil
	}
	applied := false
	NewPoller(time.Millisecond, fetch, func(*conversation.Snapshot) { applied = true }, nil).Run(ctx)

	if applied {
		t.Fatal("snapshot arriving after cancellation must be discarded")
	}
}

func TestPollerKeepsCadenceOnError(t *testing.T) {
	var calls, errs int32
	fetch := func(ctx context.Context) (*conversation.Snapshot, error) {
		atomic.AddInt32(&calls, 1)
		return nil, context.DeadlineExceeded
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	NewPoller(time.Millisecond, fetch, func(*conversation.Snapshot) {
		t.Error("apply must not run on fetch error")
	}, func(error) { atomic.AddInt32(&errs, 1) }).Run(ctx)

	if atomic.LoadInt32(&calls) < 2 {
		t.Fatalf("poller stopped after %d calls, want to keep polling", calls)
	}
	if atomic.LoadInt32(&errs) != atomic.LoadInt32(&calls) {
		t.Fatalf("errs = %d, calls = %d", errs, calls)
	}
}

func TestTypingNotifierFiresOnPauseOnly(t *testing.T) {
	var sent int32
	n := NewTypingNotifier(100*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&sent, 1)
		return nil
	})
	ctx := context.Background()

	// Continuous typing with sub-window gaps: each keystroke re-arms the
	// timer, so nothing is sent while the user keeps going.
	for i := 0; i < 5; i++ {
		n.Keystroke(ctx)
		time.Sleep(30 * time.Millisecond)
	}
	if got := atomic.LoadInt32(&sent); got != 0 {
		t.Fatalf("sent %d signal(s) during continuous typing, want 0 until a pause", got)
	}

	// A full pause fires exactly one signal.
	time.Sleep(150 * time.Millisecond)
	if got := atomic.LoadInt32(&sent); got != 1 {
		t.Fatalf("sent %d signal(s) after the pause, want 1", got)
	}

	// A second burst and pause fires once more.
	n.Keystroke(ctx)
	time.Sleep(150 * time.Millisecond)
	if got := atomic.LoadInt32(&sent); got != 2 {
		t.Fatalf("sent %d signals total, want 2", got)
	}
}

func TestTypingNotifierStopCancelsPending(t *testing.T) {
	var sent int32
	n := NewTypingNotifier(50*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&sent, 1)
		return nil
	})

	n.Keystroke(context.Background())
	n.Stop()
	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&sent); got != 0 {
		t.Fatalf("sent %d signal(s) after Stop, want 0", got)
	}
}
