package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "pistream_history.db"))
	if err != nil {
		t.Fatalf("Failed to open history store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	first := Run{
		ID:          "session-1",
		RunID:       "run-a",
		OutputPath:  "/data/pi",
		StartedAt:   base,
		StartDigits: 0,
	}
	if err := s.RecordStart(ctx, first); err != nil {
		t.Fatalf("Failed to record session start: %v", err)
	}
	if err := s.RecordProgress(ctx, "session-1", 50000); err != nil {
		t.Fatalf("Failed to record progress: %v", err)
	}
	if err := s.RecordEnd(ctx, "session-1", 123456, OutcomeStopped); err != nil {
		t.Fatalf("Failed to record session end: %v", err)
	}

	second := Run{
		ID:          "session-2",
		RunID:       "run-a",
		OutputPath:  "/data/pi",
		StartedAt:   base.Add(time.Hour),
		StartDigits: 123456,
	}
	if err := s.RecordStart(ctx, second); err != nil {
		t.Fatalf("Failed to record second session: %v", err)
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(runs))
	}

	// Newest first.
	if runs[0].ID != "session-2" {
		t.Errorf("Expected session-2 first, got %s", runs[0].ID)
	}
	if runs[0].Outcome != OutcomeRunning {
		t.Errorf("Expected open session to be running, got %s", runs[0].Outcome)
	}
	if !runs[0].EndedAt.IsZero() {
		t.Errorf("Expected open session to have no end time, got %v", runs[0].EndedAt)
	}
	if runs[0].StartDigits != 123456 || runs[0].EndDigits != 123456 {
		t.Errorf("Expected fresh session digits 123456/123456, got %d/%d",
			runs[0].StartDigits, runs[0].EndDigits)
	}

	closed := runs[1]
	if closed.ID != "session-1" || closed.RunID != "run-a" {
		t.Errorf("Unexpected session row: %+v", closed)
	}
	if !closed.StartedAt.Equal(base) {
		t.Errorf("Expected start time %v, got %v", base, closed.StartedAt)
	}
	if closed.EndedAt.IsZero() {
		t.Error("Expected closed session to have an end time")
	}
	if closed.EndDigits != 123456 {
		t.Errorf("Expected end digits 123456, got %d", closed.EndDigits)
	}
	if closed.Outcome != OutcomeStopped {
		t.Errorf("Expected outcome stopped, got %s", closed.Outcome)
	}
}

func TestStoreSweepsStaleSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	// A session that died without closing its row.
	stale := Run{ID: "stale", RunID: "run-a", OutputPath: "/data/pi", StartedAt: base}
	if err := s.RecordStart(ctx, stale); err != nil {
		t.Fatalf("Failed to record stale session: %v", err)
	}

	// A concurrent stream on a different directory stays untouched.
	other := Run{ID: "other", RunID: "run-b", OutputPath: "/data/pi2", StartedAt: base}
	if err := s.RecordStart(ctx, other); err != nil {
		t.Fatalf("Failed to record other session: %v", err)
	}

	fresh := Run{ID: "fresh", RunID: "run-a", OutputPath: "/data/pi", StartedAt: base.Add(time.Minute)}
	if err := s.RecordStart(ctx, fresh); err != nil {
		t.Fatalf("Failed to record fresh session: %v", err)
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}

	outcomes := make(map[string]Outcome, len(runs))
	for _, run := range runs {
		outcomes[run.ID] = run.Outcome
	}
	if outcomes["stale"] != OutcomeInterrupted {
		t.Errorf("Expected stale session to be swept to interrupted, got %s", outcomes["stale"])
	}
	if outcomes["other"] != OutcomeRunning {
		t.Errorf("Expected other directory's session to stay running, got %s", outcomes["other"])
	}
	if outcomes["fresh"] != OutcomeRunning {
		t.Errorf("Expected fresh session to be running, got %s", outcomes["fresh"])
	}
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pistream_history.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open history store: %v", err)
	}
	run := Run{
		ID:         "session-1",
		RunID:      "run-a",
		OutputPath: "/data/pi",
		StartedAt:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
	if err := s.RecordStart(ctx, run); err != nil {
		t.Fatalf("Failed to record session: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen history store: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list sessions after reopen: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "session-1" {
		t.Errorf("Expected persisted session to survive reopen, got %+v", runs)
	}
}

func TestStoreRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	ids := []string{"a", "b", "c", "d", "e"}
	for i, id := range ids {
		run := Run{ID: id, RunID: "run", OutputPath: "/data/" + id, StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.RecordStart(ctx, run); err != nil {
			t.Fatalf("Failed to record session %s: %v", id, err)
		}
	}

	runs, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(runs))
	}
	if runs[0].ID != "e" || runs[2].ID != "c" {
		t.Errorf("Expected newest three sessions e..c, got %s..%s", runs[0].ID, runs[2].ID)
	}
}

func TestRecorderNilSafety(t *testing.T) {
	ctx := context.Background()

	// A nil recorder is how history gets disabled; every method must be
	// a safe no-op.
	var r *Recorder
	r.Start(ctx, Run{ID: "x"})
	r.Progress(ctx, "x", 1)
	r.End(ctx, "x", 1, OutcomeStopped)
	r.Close()

	NewRecorder(nil).Start(ctx, Run{ID: "x"})
}

func TestRecorderSwallowsFailures(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Closing the store underneath the recorder makes every write fail;
	// the recorder must absorb that without panicking or returning.
	s.Close()

	r := NewRecorder(s)
	r.Start(ctx, Run{ID: "x", RunID: "run", OutputPath: "/data/pi", StartedAt: time.Now()})
	r.Progress(ctx, "x", 10)
	r.End(ctx, "x", 10, OutcomeFatal)
}
