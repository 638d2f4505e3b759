package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestUpsertUser_FirstIdentityWins(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	if err := r.UpsertUser(ctx, User{ID: 1, Username: "alice"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := r.UpsertUser(ctx, User{ID: 1, Username: "renamed"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var username string
	if err := r.db.QueryRow(`SELECT username FROM users WHERE user_id = 1`).Scan(&username); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if username != "alice" {
		t.Errorf("username = %q, want first-recorded %q", username, "alice")
	}
}

func TestLastContact(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	if ts, err := r.LastContact(ctx, 42); err != nil || !ts.IsZero() {
		t.Fatalf("unknown user: ts=%v err=%v, want zero time", ts, err)
	}

	first := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	second := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	for _, ts := range []time.Time{first, second} {
		err := r.RecordExchange(ctx, Exchange{
			User: User{ID: 42}, Question: "q", Answer: "a", Timestamp: ts,
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := r.LastContact(ctx, 42)
	if err != nil {
		t.Fatalf("last contact: %v", err)
	}
	if !got.Equal(second) {
		t.Errorf("last contact = %v, want %v", got, second)
	}
}

func TestStats(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	now := time.Now()

	exchanges := []Exchange{
		{User: User{ID: 1}, Question: "q1", Answer: "a1", ExecutionTime: 1.0, Timestamp: now},
		{User: User{ID: 1}, Question: "q2", Answer: "a2", ExecutionTime: 3.0, Timestamp: now},
		{User: User{ID: 2}, Question: "q3", Answer: "err", Error: true, Timestamp: now},
		// Outside the window, must be excluded.
		{User: User{ID: 3}, Question: "old", Answer: "old", Timestamp: now.Add(-48 * time.Hour)},
	}
	for _, e := range exchanges {
		if err := r.RecordExchange(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	s, err := r.Stats(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Exchanges != 3 || s.DistinctUsers != 2 || s.Errors != 1 {
		t.Errorf("stats = %+v", s)
	}
}
