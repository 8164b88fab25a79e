package output

import (
	"os"
	"path/filepath"
	"testing"

	errs "pistream/pkg/errors"
)

func TestWriterAppendAndFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_digits.txt")

	w, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.Append([]byte("14159")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append([]byte("2653")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Nothing is durable before Flush.
	if got := w.Written(); got != 9 {
		t.Errorf("Expected 9 written digits, got %d", got)
	}
	if got := w.Durable(); got != 0 {
		t.Errorf("Expected 0 durable digits before flush, got %d", got)
	}

	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := w.Durable(); got != 9 {
		t.Errorf("Expected 9 durable digits after flush, got %d", got)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "14159\n2653" {
		t.Errorf("Unexpected file content: %q", content)
	}
}

func TestWriterLineWrapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_digits.txt")

	w, err := NewWriter(path, 3)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.Append([]byte("1415926535")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	// A newline lands right after each completed line, including the
	// last one when it fills exactly.
	if string(content) != "141\n592\n653\n5" {
		t.Errorf("Unexpected file content: %q", content)
	}
	if got := w.Bytes(); got != int64(len(content)) {
		t.Errorf("Bytes() = %d, want %d", got, len(content))
	}
}

func TestWriterRejectsNonDigits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_digits.txt")

	w, err := NewWriter(path, 50)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	err = w.Append([]byte("12a4"))
	if err == nil {
		t.Fatal("Expected an error for non-digit input")
	}
	if !errs.IsType(err, errs.ErrorTypeInvariant) {
		t.Errorf("Expected an invariant error, got %v", err)
	}
}

func TestWriterResumeContinuesMidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_digits.txt")

	w, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Append([]byte("141592653589")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening derives the cursor from the file size.
	w2, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter (reopen): %v", err)
	}
	defer w2.Close()

	if !w2.Aligned() {
		t.Error("Expected a cleanly closed file to be aligned")
	}
	if got := w2.Written(); got != 12 {
		t.Errorf("Expected 12 digits at reopen, got %d", got)
	}

	// The next line break belongs after digit 15.
	if err := w2.Append([]byte("793")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w2.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "14159\n26535\n89793\n" {
		t.Errorf("Unexpected file content: %q", content)
	}
}

func TestWriterRealign(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_digits.txt")

	w, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.Append([]byte("141592653589")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// Cut the file back to seven digits, as a resume from an older
	// checkpoint would.
	if err := w.Realign(7); err != nil {
		t.Fatalf("Realign: %v", err)
	}
	if got := w.Written(); got != 7 {
		t.Errorf("Expected 7 digits after realign, got %d", got)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "14159\n26" {
		t.Errorf("Unexpected file content after realign: %q", content)
	}

	// Appending continues from the realigned cursor.
	if err := w.Append([]byte("535")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	content, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "14159\n26535\n" {
		t.Errorf("Unexpected file content after continue: %q", content)
	}
}

func TestWriterRealignToZeroDropsPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_digits.txt")

	w, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.Append([]byte("14159")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Realign before the pending digits ever reach the OS.
	if err := w.Realign(0); err != nil {
		t.Fatalf("Realign: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(content) != 0 {
		t.Errorf("Expected an empty file, got %q", content)
	}
	if got := w.Written(); got != 0 {
		t.Errorf("Expected 0 digits, got %d", got)
	}
}

func TestWriterRewindCutsPartialTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_digits.txt")

	w, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.Append([]byte("1415926")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Simulate a flush that died after the OS accepted three bytes: the
	// tail is on disk but nothing is durable.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.Write([]byte("141")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()
	w.tainted = true

	if err := w.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(content) != 0 {
		t.Errorf("Expected the partial tail to be cut, got %q", content)
	}

	// The buffered digits were not lost; the retried flush sends them all.
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	content, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "14159\n26" {
		t.Errorf("Unexpected file content after retry: %q", content)
	}
	if got := w.Durable(); got != 7 {
		t.Errorf("Expected 7 durable digits, got %d", got)
	}
}

func TestWriterFlushCutsTailItself(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_digits.txt")

	w, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.Append([]byte("14159265")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.Write([]byte("14159\n2")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()
	w.tainted = true

	// Flush rewinds on its own before resending.
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "14159\n265" {
		t.Errorf("Unexpected file content: %q", content)
	}
}

func TestWriterDetectsMisalignedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_digits.txt")

	// Five digit bytes at width five: the trailing newline is missing,
	// so this size sits on no digit boundary.
	if err := os.WriteFile(path, []byte("14159"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if w.Aligned() {
		t.Error("Expected a misaligned file to be detected")
	}
	if got := w.Written(); got != 4 {
		t.Errorf("Expected the cursor floored to 4, got %d", got)
	}
}

func TestWriterCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run", "pi_digits.txt")

	w, err := NewWriter(path, 50)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("Expected the directory to exist: %v", err)
	}
}

func TestCursorMath(t *testing.T) {
	tests := []struct {
		digits uint64
		width  int
		bytes  int64
	}{
		{0, 50, 0},
		{1, 50, 1},
		{49, 50, 49},
		{50, 50, 51},
		{51, 50, 52},
		{100, 50, 102},
		{7, 5, 8},
		{10, 5, 12},
	}

	for _, test := range tests {
		if got := BytesForDigits(test.digits, test.width); got != test.bytes {
			t.Errorf("BytesForDigits(%d, %d) = %d, want %d", test.digits, test.width, got, test.bytes)
		}
		digits, exact := DigitsForBytes(test.bytes, test.width)
		if digits != test.digits || !exact {
			t.Errorf("DigitsForBytes(%d, %d) = (%d, %v), want (%d, true)",
				test.bytes, test.width, digits, exact, test.digits)
		}
	}

	// Sizes ending in a full line with no newline are impossible and
	// floor to the previous boundary.
	digits, exact := DigitsForBytes(5, 5)
	if exact || digits != 4 {
		t.Errorf("DigitsForBytes(5, 5) = (%d, %v), want (4, false)", digits, exact)
	}
	digits, exact = DigitsForBytes(11, 5)
	if exact || digits != 9 {
		t.Errorf("DigitsForBytes(11, 5) = (%d, %v), want (9, false)", digits, exact)
	}
}

func TestCursorConsistency(t *testing.T) {
	c := CursorForDigits("pi_digits.txt", 123, 50)
	if c.BytesWritten != 125 || c.LineColumn != 23 {
		t.Errorf("CursorForDigits(123, 50) = %+v, want 125 bytes at column 23", c)
	}
	if !c.Consistent(123) {
		t.Error("Expected a computed cursor to be consistent with its digit count")
	}
	if c.Consistent(124) {
		t.Error("Expected cursor to be inconsistent with a different digit count")
	}

	c.BytesWritten++
	if c.Consistent(123) {
		t.Error("Expected a shifted cursor to be inconsistent")
	}

	zero := Cursor{}
	if zero.Consistent(0) {
		t.Error("Expected a zero-width cursor to be inconsistent")
	}
}

func TestWriterCursorTracksDurable(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "pi_digits.txt"), 5)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	if err := w.Append([]byte("1415926")); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	// The cursor covers only flushed digits.
	if c := w.Cursor(); c.BytesWritten != 0 {
		t.Errorf("Expected cursor at 0 before flush, got %+v", c)
	}

	if err := w.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}
	c := w.Cursor()
	if c.File != "pi_digits.txt" {
		t.Errorf("Expected cursor file pi_digits.txt, got %s", c.File)
	}
	if c.BytesWritten != 8 || c.LineColumn != 2 || c.LineWidth != 5 {
		t.Errorf("Expected cursor 8 bytes at column 2 width 5, got %+v", c)
	}
	if !c.Consistent(7) {
		t.Error("Expected flushed cursor to be consistent with 7 digits")
	}
}
