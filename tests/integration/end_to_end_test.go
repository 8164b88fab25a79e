package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"pistream/pkg/config"
	"pistream/pkg/history"
	"pistream/pkg/logger"
)

const piPrefix = "14159265358979323846264338327950288419716939937510"

func TestMain(m *testing.M) {
	// Keep stream logging out of the test output.
	logger.Initialize(&config.LoggingConfig{Level: "error"})
	os.Exit(m.Run())
}

// TestTornTailIsCutOnResume covers the crash shape checkpoints exist for:
// digits on disk that no checkpoint claims. The resumed stream must cut
// the unclaimed tail and regenerate it, ending up byte-identical to a
// stream that was never interrupted.
func TestTornTailIsCutOnResume(t *testing.T) {
	helper := NewTestHelper(t)
	cfg := helper.CreateTestConfig()

	first := helper.StreamUntil(cfg, 300)
	claimed := first.Progress().Durable

	// Fake the torn tail: a crash between flush and checkpoint leaves
	// extra digits past the last checkpoint.
	f, err := os.OpenFile(cfg.DigitsPath(), os.O_APPEND|os.O_WRONLY, 0644)
	helper.AssertNoError(err)
	_, err = f.WriteString("9999999999")
	helper.AssertNoError(err)
	helper.AssertNoError(f.Close())

	second := helper.StreamUntil(cfg, claimed+200)
	if got := second.Progress().StartDigits; got != claimed {
		t.Errorf("Resume started at %d digits, want the checkpointed %d", got, claimed)
	}
	resumed := helper.ReadDigits(cfg.DigitsPath())

	// Control: the same stretch in one uninterrupted run.
	control := NewTestHelper(t)
	ccfg := control.CreateTestConfig()
	control.StreamUntil(ccfg, uint64(len(resumed)))
	want := control.ReadDigits(ccfg.DigitsPath())

	if !strings.HasPrefix(want, resumed) {
		t.Error("Digits after a torn-tail resume diverge from an uninterrupted stream")
	}
}

// TestMarathonAcrossSessions stops and resumes the same stream twice and
// checks the combined output, the run identity, and the session ledger.
func TestMarathonAcrossSessions(t *testing.T) {
	helper := NewTestHelper(t)
	cfg := helper.CreateTestConfig()
	cfg.History.Enabled = true

	var marks []uint64
	var runID string
	for i, target := range []uint64{150, 300, 450} {
		s := helper.StreamUntil(cfg, target)
		p := s.Progress()
		if i == 0 {
			runID = p.RunID
		} else if p.RunID != runID {
			t.Errorf("Session %d changed run id to %s, want %s", i+1, p.RunID, runID)
		}
		marks = append(marks, p.Digits)
	}

	resumed := helper.ReadDigits(cfg.DigitsPath())
	helper.AssertEqual(marks[2], uint64(len(resumed)))
	helper.AssertEqual(piPrefix, resumed[:50])

	// Control: the same stretch in one uninterrupted run.
	control := NewTestHelper(t)
	ccfg := control.CreateTestConfig()
	control.StreamUntil(ccfg, uint64(len(resumed)))
	want := control.ReadDigits(ccfg.DigitsPath())

	if want[:len(resumed)] != resumed {
		t.Error("Digits across three sessions diverge from an uninterrupted stream")
	}

	// The ledger holds one clean row per session, all on the same run.
	store, err := history.Open(cfg.HistoryPath())
	helper.AssertNoError(err)
	defer store.Close()

	runs, err := store.Recent(context.Background(), 10)
	helper.AssertNoError(err)
	if len(runs) != 3 {
		t.Fatalf("Expected 3 ledger rows, got %d", len(runs))
	}

	starts := make(map[uint64]bool)
	for _, run := range runs {
		helper.AssertEqual(history.OutcomeStopped, run.Outcome)
		helper.AssertEqual(runID, run.RunID)
		if run.EndedAt.IsZero() {
			t.Errorf("Session %s has no end time", run.ID)
		}
		starts[run.StartDigits] = true
	}
	for _, want := range []uint64{0, marks[0], marks[1]} {
		if !starts[want] {
			t.Errorf("No session started at %d digits", want)
		}
	}
}

// TestResumeKeepsFileLineWidth pins the layout rule: the width the file
// was born with wins over whatever the configuration says at resume.
func TestResumeKeepsFileLineWidth(t *testing.T) {
	helper := NewTestHelper(t)

	cfg := helper.CreateTestConfig()
	cfg.Output.LineWidth = 10
	helper.StreamUntil(cfg, 120)

	// Operator edits the width between sessions.
	recfg := helper.CreateTestConfig()
	recfg.Output.LineWidth = 25
	helper.StreamUntil(recfg, 300)

	raw, err := os.ReadFile(cfg.DigitsPath())
	helper.AssertNoError(err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	for i, line := range lines[:len(lines)-1] {
		if len(line) != 10 {
			t.Fatalf("Line %d has width %d, want the original 10", i, len(line))
		}
	}
	helper.AssertEqual(piPrefix, helper.ReadDigits(cfg.DigitsPath())[:50])
}

// TestStaleSessionMarkedInterrupted checks the ledger sweep: a session
// row left open by a crash flips to interrupted when the next session
// starts on the same directory.
func TestStaleSessionMarkedInterrupted(t *testing.T) {
	helper := NewTestHelper(t)
	cfg := helper.CreateTestConfig()
	cfg.History.Enabled = true

	// A session that died without closing its row.
	store, err := history.Open(cfg.HistoryPath())
	helper.AssertNoError(err)
	err = store.RecordStart(context.Background(), history.Run{
		ID:         "dead-session",
		RunID:      "dead-run",
		OutputPath: cfg.Output.Directory,
		StartedAt:  time.Now().Add(-time.Hour),
	})
	helper.AssertNoError(err)
	helper.AssertNoError(store.Close())

	helper.StreamUntil(cfg, 100)

	store, err = history.Open(cfg.HistoryPath())
	helper.AssertNoError(err)
	defer store.Close()

	runs, err := store.Recent(context.Background(), 10)
	helper.AssertNoError(err)
	if len(runs) != 2 {
		t.Fatalf("Expected 2 ledger rows, got %d", len(runs))
	}

	byID := make(map[string]history.Run, len(runs))
	for _, run := range runs {
		byID[run.ID] = run
	}
	dead, ok := byID["dead-session"]
	if !ok {
		t.Fatal("The stale session row disappeared")
	}
	helper.AssertEqual(history.OutcomeInterrupted, dead.Outcome)

	for id, run := range byID {
		if id != "dead-session" {
			helper.AssertEqual(history.OutcomeStopped, run.Outcome)
		}
	}
}
