// Package checkpoint provides functionality for saving and resuming stream progress.
//
// The checkpoint system allows the streamer to resume after interruptions
// such as signals, crashes, or manual stops. It tracks:
//   - The six spigot transformation terms
//   - The count of fractional digits flushed to the digit file
//   - The file cursor those digits advanced to (size, column, width)
//
// The checkpoint file lives beside the digit file it describes, so moving
// the output directory moves the whole resumable unit.
//
// Checkpoint files are saved atomically (temp file, fsync, rename) and
// carry a BLAKE2b checksum plus a format version. A file that fails any
// verification step is treated as untrusted: the caller discards it and
// starts a fresh run instead of resuming from corrupt terms.
package checkpoint
