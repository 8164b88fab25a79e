package stream

import (
	"pistream/pkg/checkpoint"
	"pistream/pkg/output"
	"pistream/pkg/spigot"
)

// DigitSource produces consecutive fractional digits of π and exposes
// its resumable state.
type DigitSource interface {
	Next() int
	Digits() uint64
	State() spigot.State
}

// DigitFile is the formatted stream file the digits land in.
type DigitFile interface {
	Append(digits []byte) error
	Flush() error
	Rewind() error
	Realign(digits uint64) error
	Close() error
	Written() uint64
	Durable() uint64
	Bytes() int64
	Cursor() output.Cursor
	Path() string
}

// CheckpointStore persists and recovers stream snapshots.
type CheckpointStore interface {
	Load() (*checkpoint.Checkpoint, error)
	Save(ck *checkpoint.Checkpoint) error
	Delete() error
}

// SpaceGuard gates generation on free disk space.
type SpaceGuard interface {
	Check() error
	Free() uint64
	MinFree() uint64
}
