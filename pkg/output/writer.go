package output

import (
	"os"
	"path/filepath"
	"sync"

	errs "pistream/pkg/errors"
)

// Writer appends digits to the stream file, wrapping lines at a fixed
// width. Digits accumulate in the writer's own buffer until Flush, which
// hands them to the OS and fsyncs. The buffer survives a failed flush,
// so retrying resends the whole stretch since the durable cursor after
// cutting off whatever partial tail the failure left behind.
type Writer struct {
	path      string
	lineWidth int
	file      *os.File

	mu      sync.RWMutex
	pending []byte // formatted bytes not yet durable
	written uint64 // digits accepted, including pending
	durable uint64 // digits flushed and fsynced
	aligned bool   // file size sat on a digit boundary at open
	tainted bool   // a failed flush may have left a partial tail on disk
}

// NewWriter opens the digit file for appending, creating it and its
// directory if needed. The existing file size determines the starting
// cursor; Aligned reports whether that size sat exactly on a digit
// boundary. lineWidth must be positive.
func NewWriter(path string, lineWidth int) (*Writer, error) {
	if lineWidth <= 0 {
		return nil, errs.Newf(errs.ErrorTypeInvariant, "output.open", "line width must be positive, got %d", lineWidth)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeWriteIO, "output.open", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeWriteIO, "output.open", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.ErrorTypeWriteIO, "output.open", err)
	}

	digits, exact := DigitsForBytes(info.Size(), lineWidth)
	return &Writer{
		path:      path,
		lineWidth: lineWidth,
		file:      f,
		written:   digits,
		durable:   digits,
		aligned:   exact,
	}, nil
}

// Append buffers digits for the stream. Only ASCII digits are accepted;
// newlines are inserted automatically after every completed line.
func (w *Writer) Append(digits []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	width := uint64(w.lineWidth)
	for _, d := range digits {
		if d < '0' || d > '9' {
			return errs.Newf(errs.ErrorTypeInvariant, "output.append", "not an ascii digit: %q", d)
		}
		w.pending = append(w.pending, d)
		w.written++
		if w.written%width == 0 {
			w.pending = append(w.pending, '\n')
		}
	}

	return nil
}

// Flush writes all buffered digits to the OS and fsyncs. A failed Flush
// may be called again; it first truncates any partial tail the failure
// left, then resends everything since the durable cursor.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if w.durable == w.written {
		return nil
	}

	if err := w.rewindLocked(); err != nil {
		return err
	}

	if _, err := w.file.Write(w.pending); err != nil {
		w.tainted = true
		return errs.Wrap(errs.ErrorTypeWriteIO, "output.flush", err)
	}
	if err := w.file.Sync(); err != nil {
		w.tainted = true
		return errs.Wrap(errs.ErrorTypeWriteIO, "output.flush", err)
	}

	w.pending = w.pending[:0]
	w.durable = w.written
	return nil
}

// Rewind truncates any partial tail a failed flush left behind, putting
// the file back exactly at the durable cursor. Buffered digits stay
// pending for the next Flush.
func (w *Writer) Rewind() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rewindLocked()
}

func (w *Writer) rewindLocked() error {
	if !w.tainted {
		return nil
	}
	if err := w.file.Truncate(BytesForDigits(w.durable, w.lineWidth)); err != nil {
		return errs.Wrap(errs.ErrorTypeWriteIO, "output.rewind", err)
	}
	w.tainted = false
	return nil
}

// Realign truncates the file to hold exactly the given digit count and
// drops anything buffered. Resuming uses this to cut the file back to its
// checkpoint; realigning to zero is a clean start.
func (w *Writer) Realign(digits uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Truncate(BytesForDigits(digits, w.lineWidth)); err != nil {
		return errs.Wrap(errs.ErrorTypeWriteIO, "output.realign", err)
	}
	if err := w.file.Sync(); err != nil {
		return errs.Wrap(errs.ErrorTypeWriteIO, "output.realign", err)
	}

	w.pending = w.pending[:0]
	w.written = digits
	w.durable = digits
	w.aligned = true
	w.tainted = false
	return nil
}

// Close flushes any remaining digits and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	flushErr := w.flushLocked()
	closeErr := w.file.Close()

	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return errs.Wrap(errs.ErrorTypeWriteIO, "output.close", closeErr)
	}
	return nil
}

// Written returns the digits accepted so far, including any still
// buffered.
func (w *Writer) Written() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.written
}

// Durable returns the digits known to have reached disk.
func (w *Writer) Durable() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.durable
}

// Cursor returns the durable position, the point a checkpoint may claim.
// Call it after Flush so that durable covers everything appended.
func (w *Writer) Cursor() Cursor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return CursorForDigits(filepath.Base(w.path), w.durable, w.lineWidth)
}

// Bytes returns the file size implied by the digits written so far.
func (w *Writer) Bytes() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return BytesForDigits(w.written, w.lineWidth)
}

// Aligned reports whether the file size at open sat exactly on a digit
// boundary.
func (w *Writer) Aligned() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.aligned
}

// Path returns the digit file location.
func (w *Writer) Path() string { return w.path }
