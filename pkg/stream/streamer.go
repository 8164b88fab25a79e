package stream

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pistream/internal/lockfile"
	"pistream/pkg/checkpoint"
	"pistream/pkg/config"
	"pistream/pkg/diskguard"
	"pistream/pkg/history"
	"pistream/pkg/logger"
	"pistream/pkg/output"
	"pistream/pkg/ratelimit"
	"pistream/pkg/retry"
	"pistream/pkg/spigot"
)

// State identifies where the stream is in its lifecycle.
type State int

const (
	StateStarting State = iota
	StateRunning
	StatePaused
	StateShuttingDown
	StateStopped
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateShuttingDown:
		return "shutting down"
	case StateStopped:
		return "stopped"
	case StateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Streamer drives the digit pipeline: it owns the spigot engine, the
// digit file, the checkpoint store and the free-space guard, and runs
// them as a single loop. All pause, retry and shutdown policy lives
// here; the components it coordinates never retry on their own.
type Streamer struct {
	config *config.Config
	logger logger.Logger

	engine   DigitSource
	file     DigitFile
	store    CheckpointStore
	guard    SpaceGuard
	limiter  ratelimit.Limiter
	recorder *history.Recorder

	sinks []StatusSink

	runID     string
	sessionID string
	startedAt time.Time
	fresh     bool
	ck        *checkpoint.Checkpoint

	mu          sync.RWMutex
	state       State
	startDigits uint64
	pauseReason string
	lastErr     string
	freeBytes   uint64
	rates       *rateTracker

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	runErr   error
}

// New wires a streamer from configuration. Nothing on disk is touched
// until Run.
func New(cfg *config.Config) *Streamer {
	s := &Streamer{
		config:    cfg,
		logger:    logger.GetLogger(),
		store:     checkpoint.NewManager(cfg.CheckpointPath()),
		guard:     diskguard.New(cfg.Output.Directory, cfg.Disk.MinFreeBytes),
		rates:     newRateTracker(cfg.UI.EMAAlpha),
		sessionID: uuid.NewString(),
		startedAt: time.Now(),
		state:     StateStarting,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	if cfg.Engine.MaxDigitsPerSecond > 0 {
		s.limiter = ratelimit.NewTokenBucket(cfg.Engine.MaxDigitsPerSecond, cfg.Engine.BatchSize)
	}

	return s
}

// SetFresh discards any existing checkpoint at startup so the stream
// begins again at the first digit. Call before Start.
func (s *Streamer) SetFresh(fresh bool) {
	s.fresh = fresh
}

// AddStatusSink registers an observer for progress snapshots. Call
// before Start.
func (s *Streamer) AddStatusSink(sink StatusSink) {
	s.sinks = append(s.sinks, sink)
}

// Start launches Run in its own goroutine. The outcome is available
// from Wait.
func (s *Streamer) Start(ctx context.Context) {
	go func() {
		_ = s.Run(ctx)
	}()
}

// Stop asks the stream to finish at the next batch boundary. Safe to
// call more than once, from any goroutine.
func (s *Streamer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Wait blocks until the stream has finished and returns its outcome. A
// graceful stop, including cancellation and Stop, returns nil.
func (s *Streamer) Wait() error {
	<-s.done
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runErr
}

// Run drives the stream until the context ends, Stop is called, or the
// write path fails for good. It may be called once per Streamer.
func (s *Streamer) Run(parent context.Context) (err error) {
	defer func() {
		s.mu.Lock()
		s.runErr = err
		s.mu.Unlock()
		close(s.done)
	}()

	// Fold Stop into context cancellation so every wait in the loop has
	// a single interruption path.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.setState(StateStarting, "")
	s.report()

	lock, err := lockfile.Acquire(s.config.LockPath())
	if err != nil {
		s.setState(StateFatal, "")
		s.noteError(err)
		s.report()
		return err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			s.logger.WithError(rerr).Warn("Failed to release stream lock")
		}
	}()

	if s.config.History.Enabled {
		store, herr := history.Open(s.config.HistoryPath())
		if herr != nil {
			s.logger.WithError(herr).Warn("History ledger unavailable, continuing without it")
		} else {
			s.recorder = history.NewRecorder(store)
			defer s.recorder.Close()
		}
	}

	if err := s.open(); err != nil {
		s.setState(StateFatal, "")
		s.noteError(err)
		s.report()
		return err
	}
	defer func() {
		if cerr := s.file.Close(); cerr != nil {
			s.logger.WithError(cerr).Warn("Failed to close digit file")
		}
	}()

	s.recorder.Start(ctx, history.Run{
		ID:          s.sessionID,
		RunID:       s.runID,
		OutputPath:  s.config.Output.Directory,
		StartedAt:   s.startedAt,
		StartDigits: s.startDigits,
	})

	return s.loop(ctx)
}

// open prepares the engine and the digit file, resuming from a
// checkpoint when a valid one exists.
func (s *Streamer) open() error {
	if s.fresh {
		if err := s.store.Delete(); err != nil {
			return err
		}
		s.logger.Info("Fresh start requested, previous checkpoint discarded")
	}

	ck, err := s.store.Load()
	if err != nil {
		s.logger.WithError(err).Warn("Checkpoint unreadable, starting over")
		ck = nil
	}

	if ck != nil && s.resume(ck) {
		return nil
	}
	return s.clean()
}

// resume tries to pick the stream back up at ck. It reports false when
// the digit file cannot support the checkpoint, leaving the clean start
// to the caller.
func (s *Streamer) resume(ck *checkpoint.Checkpoint) bool {
	// The checkpoint's line width wins over configuration; the file is
	// already laid out with it.
	file, err := output.NewWriter(s.config.DigitsPath(), ck.Cursor.LineWidth)
	if err != nil {
		s.logger.WithError(err).Warn("Cannot open digit file, starting over")
		return false
	}

	if file.Written() < ck.DigitCount {
		s.logger.WarnWithFields("Digit file is behind its checkpoint, starting over", map[string]interface{}{
			"file_digits":       file.Written(),
			"checkpoint_digits": ck.DigitCount,
		})
		file.Close()
		return false
	}

	engine, err := spigot.Restore(ck.Terms)
	if err != nil {
		s.logger.WithError(err).Warn("Checkpoint terms rejected, starting over")
		file.Close()
		return false
	}

	// Cut any tail past the checkpoint; those digits were never claimed.
	if err := file.Realign(ck.DigitCount); err != nil {
		s.logger.WithError(err).Warn("Cannot realign digit file, starting over")
		file.Close()
		return false
	}

	s.mu.Lock()
	s.engine = engine
	s.file = file
	s.ck = ck
	s.runID = ck.RunID
	s.startDigits = ck.DigitCount
	s.mu.Unlock()

	s.logger.InfoWithFields("Resuming stream", map[string]interface{}{
		"run_id": ck.RunID,
		"digits": ck.DigitCount,
		"file":   file.Path(),
	})
	return true
}

// clean starts a brand-new stream, discarding whatever partial output
// the directory holds.
func (s *Streamer) clean() error {
	// Drop any stale checkpoint first so a crash mid-start cannot marry
	// it to the emptied digit file.
	if err := s.store.Delete(); err != nil {
		return err
	}

	file, err := output.NewWriter(s.config.DigitsPath(), s.config.Output.LineWidth)
	if err != nil {
		return err
	}
	if file.Written() > 0 {
		s.logger.WarnWithFields("Discarding stray digit file", map[string]interface{}{
			"file":   file.Path(),
			"digits": file.Written(),
		})
	}
	if err := file.Realign(0); err != nil {
		file.Close()
		return err
	}

	runID := uuid.NewString()

	s.mu.Lock()
	s.engine = spigot.New()
	s.file = file
	s.ck = &checkpoint.Checkpoint{RunID: runID}
	s.runID = runID
	s.startDigits = 0
	s.mu.Unlock()

	s.logger.InfoWithFields("Starting new stream", map[string]interface{}{
		"run_id": runID,
		"file":   file.Path(),
	})
	return nil
}

// loop is the heart of the stream. One iteration is one batch; shutdown,
// pausing and checkpointing all happen on its boundaries.
func (s *Streamer) loop(ctx context.Context) error {
	cfg := s.config
	rcfg := s.retryConfig(ctx)

	batchSize := cfg.Engine.BatchSize
	batch := make([]byte, 0, batchSize)
	saveEvery := time.Duration(cfg.Checkpoint.Interval)
	poll := time.Duration(cfg.Disk.PollInterval)

	var sinceSave uint64
	lastSave := time.Now()
	var lastGuard time.Time

	s.setState(StateRunning, "")
	s.report()

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		default:
		}

		// Free space moves far slower than batches; sample it on the
		// poll cadence, not per batch.
		if time.Since(lastGuard) >= poll {
			s.setFree(s.guard.Free())
			lastGuard = time.Now()

			if err := s.guard.Check(); err != nil {
				if !s.pause(ctx, poll, err) {
					return s.shutdown()
				}
				lastGuard = time.Now()
				continue
			}
		}

		if s.limiter != nil {
			if err := s.limiter.WaitN(ctx, batchSize); err != nil {
				return s.shutdown()
			}
		}

		batch = batch[:0]
		for i := 0; i < batchSize; i++ {
			batch = append(batch, byte('0'+s.engine.Next()))
		}
		if err := s.file.Append(batch); err != nil {
			return s.fail(err)
		}
		sinceSave += uint64(len(batch))

		if sinceSave >= cfg.Checkpoint.IntervalDigits || time.Since(lastSave) >= saveEvery {
			if err := s.persist(ctx, rcfg); err != nil {
				return s.fail(err)
			}
			sinceSave = 0
			lastSave = time.Now()
		}

		s.observe()
		s.report()
	}
}

// pause parks the stream until the guard clears. It reports false when
// shutdown was requested while paused.
func (s *Streamer) pause(ctx context.Context, poll time.Duration, cause error) bool {
	s.setState(StatePaused, cause.Error())
	s.report()
	s.logger.WarnWithFields("Stream paused", map[string]interface{}{
		"reason": cause.Error(),
	})

	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(poll):
		}

		s.setFree(s.guard.Free())
		if err := s.guard.Check(); err == nil {
			s.setState(StateRunning, "")
			s.report()
			s.logger.Info("Disk space recovered, resuming stream")
			return true
		}
		s.report()
	}
}

// persist flushes buffered digits, then checkpoints the durable cursor.
// Flush-first keeps the checkpoint claim at or below what the file
// really holds, whatever happens in between.
func (s *Streamer) persist(ctx context.Context, rcfg *retry.Config) error {
	err := retry.Do(func() error {
		if err := s.file.Flush(); err != nil {
			return err
		}
		s.ck.DigitCount = s.file.Durable()
		s.ck.Terms = s.engine.State()
		s.ck.Cursor = s.file.Cursor()
		return s.store.Save(s.ck)
	}, rcfg)
	if err != nil {
		return err
	}

	s.clearError()
	s.recorder.Progress(ctx, s.sessionID, s.ck.DigitCount)
	return nil
}

// shutdown runs the graceful stop path. Interruption is an expected
// outcome, so shutdown returns nil even when the final save fails; the
// previous checkpoint stays authoritative in that case.
func (s *Streamer) shutdown() error {
	s.setState(StateShuttingDown, "")
	s.report()
	s.logger.Info("Stopping stream")

	// The surrounding context is already cancelled; the final save gets
	// its own so retries still run.
	if err := s.persist(context.Background(), s.retryConfig(context.Background())); err != nil {
		s.logger.WithError(err).Warn("Final checkpoint failed")
		if rerr := s.file.Rewind(); rerr != nil {
			s.logger.WithError(rerr).Warn("Could not rewind digit file")
		}
	}

	s.setState(StateStopped, "")
	s.report()
	s.recorder.End(context.Background(), s.sessionID, s.file.Durable(), history.OutcomeStopped)
	s.logger.InfoWithFields("Stream stopped", map[string]interface{}{
		"run_id": s.runID,
		"digits": s.file.Durable(),
	})
	return nil
}

// fail is the end of the line: keep whatever is already durable
// claimable, then surface cause as the stream outcome.
func (s *Streamer) fail(cause error) error {
	s.setState(StateFatal, "")
	s.noteError(cause)
	s.logger.ErrorWithFields("Stream cannot continue", map[string]interface{}{
		"error": cause.Error(),
	})

	// Best effort only. When the flush itself is beyond saving, the
	// last good checkpoint already matches the durable prefix; the file
	// just needs its partial tail cut.
	if err := s.file.Flush(); err == nil {
		s.ck.DigitCount = s.file.Durable()
		s.ck.Terms = s.engine.State()
		s.ck.Cursor = s.file.Cursor()
		if serr := s.store.Save(s.ck); serr != nil {
			s.logger.WithError(serr).Warn("Final checkpoint failed")
		}
	} else if rerr := s.file.Rewind(); rerr != nil {
		s.logger.WithError(rerr).Warn("Could not rewind digit file")
	}

	s.report()
	s.recorder.End(context.Background(), s.sessionID, s.file.Durable(), history.OutcomeFatal)
	return cause
}

// retryConfig builds the write-retry policy from configuration. The
// rewind between attempts puts the file back on the durable cursor so a
// retried flush starts from known ground.
func (s *Streamer) retryConfig(ctx context.Context) *retry.Config {
	return &retry.Config{
		MaxAttempts: s.config.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    time.Duration(s.config.Retry.BaseDelay),
			MaxDelay:     time.Duration(s.config.Retry.MaxDelay),
			Multiplier:   s.config.Retry.Multiplier,
			JitterFactor: s.config.Retry.JitterFactor,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  s.logger,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			s.noteError(err)
			if rerr := s.file.Rewind(); rerr != nil {
				s.logger.WithError(rerr).Warn("Could not rewind digit file before retry")
			}
			s.report()
		},
	}
}

// Progress returns a snapshot of the stream's counters. Safe to call
// from any goroutine.
func (s *Streamer) Progress() Progress {
	s.mu.RLock()
	p := Progress{
		State:        s.state,
		RunID:        s.runID,
		SessionID:    s.sessionID,
		StartDigits:  s.startDigits,
		StartedAt:    s.startedAt,
		InstRate:     s.rates.inst,
		AvgRate:      s.rates.avg,
		PauseReason:  s.pauseReason,
		LastError:    s.lastErr,
		FreeBytes:    s.freeBytes,
		MinFreeBytes: s.guard.MinFree(),
	}
	file := s.file
	s.mu.RUnlock()

	p.Uptime = time.Since(p.StartedAt)
	if file != nil {
		p.Digits = file.Written()
		p.Durable = file.Durable()
		p.Bytes = file.Bytes()
		p.Path = file.Path()
	}
	return p
}

// State reports where the stream currently is in its lifecycle.
func (s *Streamer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Streamer) setState(st State, reason string) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.pauseReason = reason
	s.mu.Unlock()

	if prev != st {
		s.logger.DebugWithFields("Stream state changed", map[string]interface{}{
			"from": prev.String(),
			"to":   st.String(),
		})
	}
}

func (s *Streamer) noteError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

func (s *Streamer) setFree(free uint64) {
	s.mu.Lock()
	s.freeBytes = free
	s.mu.Unlock()
}

func (s *Streamer) clearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Streamer) observe() {
	s.mu.Lock()
	s.rates.observe(time.Now(), s.engine.Digits())
	s.mu.Unlock()
}

func (s *Streamer) report() {
	if len(s.sinks) == 0 {
		return
	}
	p := s.Progress()
	for _, sink := range s.sinks {
		sink.Update(p)
	}
}
