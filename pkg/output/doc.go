// Package output owns the digit stream file.
//
// Digits arrive as raw ASCII and are wrapped at a fixed line width. The
// writer buffers everything unflushed itself rather than through bufio,
// so a failed flush can be retried without resending bytes the OS
// already accepted, and the durable cursor only advances after fsync.
//
// BytesForDigits and DigitsForBytes convert between digit counts and
// file sizes. A resumed run uses them to realign the file with its
// checkpoint: anything past the checkpointed cursor is truncated away.
package output
