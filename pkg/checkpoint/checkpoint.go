package checkpoint

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	errs "pistream/pkg/errors"
	"pistream/pkg/logger"
	"pistream/pkg/output"
	"pistream/pkg/spigot"
)

// FormatVersion is the checkpoint schema version this build reads and
// writes. A file carrying any other version fails verification.
const FormatVersion = 1

// Checkpoint is a durable snapshot of a streaming run: the spigot terms,
// the count of fractional digits already flushed to the digit file, and
// the file cursor those digits advanced to.
type Checkpoint struct {
	FormatVersion int           `json:"format_version"`
	RunID         string        `json:"run_id"`
	DigitCount    uint64        `json:"digit_count"`
	Terms         spigot.State  `json:"terms"`
	Cursor        output.Cursor `json:"cursor"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Checksum      string        `json:"checksum,omitempty"`
}

// checksum returns the hex BLAKE2b-256 digest of the checkpoint's JSON
// encoding with the Checksum field cleared.
func (c *Checkpoint) checksum() (string, error) {
	clone := *c
	clone.Checksum = ""
	payload, err := json.Marshal(&clone)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Verify checks that a loaded checkpoint is internally consistent. Any
// failure means the file cannot be trusted and the stream starts fresh.
func (c *Checkpoint) Verify() error {
	if c.FormatVersion != FormatVersion {
		return errs.Newf(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify",
			"unsupported format version %d", c.FormatVersion)
	}
	if c.Checksum == "" {
		return errs.New(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify", "missing checksum")
	}
	want, err := c.checksum()
	if err != nil {
		return errs.Wrap(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify", err)
	}
	if c.Checksum != want {
		return errs.New(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify", "checksum mismatch")
	}
	if c.RunID == "" {
		return errs.New(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify", "missing run id")
	}
	if c.Cursor.File == "" {
		return errs.New(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify", "missing digit file name")
	}
	if c.Cursor.LineWidth <= 0 {
		return errs.Newf(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify",
			"line width must be positive, got %d", c.Cursor.LineWidth)
	}
	if !c.Cursor.Consistent(c.DigitCount) {
		return errs.Newf(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify",
			"cursor %d bytes at column %d disagrees with %d digits of width %d",
			c.Cursor.BytesWritten, c.Cursor.LineColumn, c.DigitCount, c.Cursor.LineWidth)
	}
	if c.DigitCount != c.Terms.Digits {
		return errs.Newf(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify",
			"digit count %d disagrees with terms at %d", c.DigitCount, c.Terms.Digits)
	}
	if err := c.Terms.Validate(); err != nil {
		return errs.Wrap(errs.ErrorTypeCheckpointCorrupt, "checkpoint.verify", err)
	}
	return nil
}

// Manager handles checkpoint persistence for a single stream
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a checkpoint manager for the given file path. The
// checkpoint lives beside the digit file it describes.
func NewManager(path string) *Manager {
	return &Manager{
		path:   path,
		logger: logger.GetLogger(),
	}
}

// Load reads and verifies the checkpoint. A missing file is not an
// error: it returns (nil, nil) and the caller starts a fresh run.
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No checkpoint exists
		}
		return nil, errs.Wrap(errs.ErrorTypeCheckpointCorrupt, "checkpoint.load", err)
	}

	var ck Checkpoint
	if err := json.Unmarshal(data, &ck); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCheckpointCorrupt, "checkpoint.load", err)
	}
	if err := ck.Verify(); err != nil {
		return nil, err
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"run_id": ck.RunID,
		"digits": ck.DigitCount,
		"age":    time.Since(ck.UpdatedAt).Round(time.Second).String(),
	})

	return &ck, nil
}

// Save writes the checkpoint to disk atomically: temp file, fsync, then
// rename. The caller must flush the digit file first so that DigitCount
// never runs ahead of the digits actually on disk.
func (m *Manager) Save(ck *Checkpoint) error {
	now := time.Now().UTC()
	ck.FormatVersion = FormatVersion
	if ck.CreatedAt.IsZero() {
		ck.CreatedAt = now
	}
	ck.UpdatedAt = now

	sum, err := ck.checksum()
	if err != nil {
		return errs.Wrap(errs.ErrorTypeInvariant, "checkpoint.save", err)
	}
	ck.Checksum = sum

	data, err := json.MarshalIndent(ck, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrorTypeInvariant, "checkpoint.save", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return errs.Wrap(errs.ErrorTypeWriteIO, "checkpoint.save", err)
	}

	// Create temporary file
	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeWriteIO, "checkpoint.save", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeWriteIO, "checkpoint.save", err)
	}

	// Ensure data is on disk before the rename makes it visible
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeWriteIO, "checkpoint.save", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeWriteIO, "checkpoint.save", err)
	}

	// Atomically replace the old checkpoint file
	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeWriteIO, "checkpoint.save", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"run_id": ck.RunID,
		"digits": ck.DigitCount,
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrorTypeWriteIO, "checkpoint.delete", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Path returns the checkpoint file location.
func (m *Manager) Path() string { return m.path }
