package presence

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeActivity struct {
	last    map[string]*time.Time
	touched []string
	failAll bool
}

func (f *fakeActivity) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	if f.failAll {
		return errors.New("db down")
	}
	f.touched = append(f.touched, userID)
	return nil
}

func (f *fakeActivity) LastActiveAt(ctx context.Context, userID string) (*time.Time, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	return f.last[userID], nil
}

type fakeTyping struct {
	rows    map[string]*time.Time
	failAll bool
}

func key(contactID, userID string) string { return contactID + "/" + userID }

func (f *fakeTyping) Upsert(ctx context.Context, contactID, userID string, at time.Time) error {
	if f.failAll {
		return errors.New("db down")
	}
	if f.rows == nil {
		f.rows = make(map[string]*time.Time)
	}
	f.rows[key(contactID, userID)] = &at
	return nil
}

func (f *fakeTyping) UpdatedAt(ctx context.Context, contactID, userID string) (*time.Time, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	return f.rows[key(contactID, userID)], nil
}

func agoPtr(d time.Duration) *time.Time {
	t := time.Now().Add(-d)
	return &t
}

func TestIsOnlineWindow(t *testing.T) {
	act := &fakeActivity{last: map[string]*time.Time{
		"fresh": agoPtr(29 * time.Second),
		"stale": agoPtr(31 * time.Second),
		"never": nil,
	}}
	s := NewService(act, &fakeTyping{})
	ctx := context.Background()

	if !s.IsOnline(ctx, "fresh") {
		t.Fatal("active 29s ago should be online")
	}
	if s.IsOnline(ctx, "stale") {
		t.Fatal("active 31s ago should be offline")
	}
	if s.IsOnline(ctx, "never") {
		t.Fatal("user without activity should be offline")
	}
	if s.IsOnline(ctx, "") {
		t.Fatal("empty user id should be offline")
	}
}

func TestIsTypingWindow(t *testing.T) {
	typ := &fakeTyping{rows: map[string]*time.Time{
		key("c1", "u1"): agoPtr(4 * time.Second),
		key("c1", "u2"): agoPtr(6 * time.Second),
	}}
	s := NewService(&fakeActivity{}, typ)
	ctx := context.Background()

	if !s.IsTyping(ctx, "c1", "u1") {
		t.Fatal("signal 4s ago should count as typing")
	}
	if s.IsTyping(ctx, "c1", "u2") {
		t.Fatal("signal 6s ago should not count as typing")
	}
	if s.IsTyping(ctx, "c1", "u3") {
		t.Fatal("no signal should not count as typing")
	}
}

func TestRecordTypingUpsert(t *testing.T) {
	typ := &fakeTyping{}
	s := NewService(&fakeActivity{}, typ)
	ctx := context.Background()

	s.RecordTyping(ctx, "c1", "u1")
	if !s.IsTyping(ctx, "c1", "u1") {
		t.Fatal("a fresh signal should count as typing")
	}
	// Second signal overwrites the same row, no history.
	s.RecordTyping(ctx, "c1", "u1")
	if len(typ.rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(typ.rows))
	}
}

func TestAdvisoryFailuresAreSwallowed(t *testing.T) {
	s := NewService(&fakeActivity{failAll: true}, &fakeTyping{failAll: true})
	ctx := context.Background()

	// None of these may panic or surface the error.
	s.TouchActivity(ctx, "u1")
	s.RecordTyping(ctx, "c1", "u1")
	if s.IsOnline(ctx, "u1") {
		t.Fatal("store failure should read as offline")
	}
	if s.IsTyping(ctx, "c1", "u1") {
		t.Fatal("store failure should read as not typing")
	}
}

func TestTouchActivityRecordsHeartbeat(t *testing.T) {
	act := &fakeActivity{last: map[string]*time.Time{}}
	s := NewService(act, &fakeTyping{})

	s.TouchActivity(context.Background(), "u1")
	if len(act.touched) != 1 || act.touched[0] != "u1" {
		t.Fatalf("expected one touch for u1, got %v", act.touched)
	}
	s.TouchActivity(context.Background(), "")
	if len(act.touched) != 1 {
		t.Fatal("empty user id must not be touched")
	}
}
