package history

import (
	"context"

	"pistream/pkg/logger"
)

// Recorder wraps a Store with best-effort semantics: ledger failures
// are logged and swallowed so bookkeeping can never stop the digits. A
// nil Recorder records nothing, which is how the feature is disabled.
type Recorder struct {
	store  *Store
	logger logger.Logger
}

// NewRecorder creates a recorder over the store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.GetLogger(),
	}
}

// Start records a session start.
func (r *Recorder) Start(ctx context.Context, run Run) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.RecordStart(ctx, run); err != nil {
		r.logger.WarnWithFields("Failed to record session start", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Progress records the current digit high-water mark.
func (r *Recorder) Progress(ctx context.Context, id string, endDigits uint64) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.RecordProgress(ctx, id, endDigits); err != nil {
		r.logger.WarnWithFields("Failed to record session progress", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// End records how the session finished.
func (r *Recorder) End(ctx context.Context, id string, endDigits uint64, outcome Outcome) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.RecordEnd(ctx, id, endDigits, outcome); err != nil {
		r.logger.WarnWithFields("Failed to record session end", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Close releases the underlying store.
func (r *Recorder) Close() {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.WarnWithFields("Failed to close history ledger", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
