package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	withCause := Wrap(ErrorTypeWriteIO, "output.append", io.ErrShortWrite)
	want := "output.append: write_io: short write"
	if got := withCause.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &Error{Type: ErrorTypeLock, Op: "lockfile.acquire"}
	if got := bare.Error(); got != "lockfile.acquire: lock" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(ErrorTypeWriteIO, "output.flush", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestTypeOfThroughChain(t *testing.T) {
	inner := New(ErrorTypeCheckpointCorrupt, "checkpoint.load", "checksum mismatch")
	outer := fmt.Errorf("starting stream: %w", inner)

	if got := TypeOf(outer); got != ErrorTypeCheckpointCorrupt {
		t.Errorf("TypeOf = %q, want %q", got, ErrorTypeCheckpointCorrupt)
	}
	if !IsType(outer, ErrorTypeCheckpointCorrupt) {
		t.Error("IsType missed wrapped classification")
	}
	if got := TypeOf(stderrors.New("plain")); got != ErrorTypeUnknown {
		t.Errorf("TypeOf(plain) = %q, want %q", got, ErrorTypeUnknown)
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	err := Wrap(ErrorTypeWriteIO, "output.append", io.ErrClosedPipe)
	if !stderrors.Is(err, io.ErrClosedPipe) {
		t.Error("cause lost through Wrap")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		typ  ErrorType
		want bool
	}{
		{ErrorTypeWriteIO, true},
		{ErrorTypeCheckpointCorrupt, false},
		{ErrorTypeDiskLow, false},
		{ErrorTypeLock, false},
		{ErrorTypeInvariant, false},
		{ErrorTypeUnknown, false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.typ); got != tt.want {
			t.Errorf("IsRetryable(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}

	if !IsRetryableError(fmt.Errorf("wrapped: %w", New(ErrorTypeWriteIO, "op", "boom"))) {
		t.Error("IsRetryableError missed retryable chain")
	}
}
