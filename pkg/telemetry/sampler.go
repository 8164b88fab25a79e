// Package telemetry samples process and host resource usage for the
// HUD. It is presentation-side only: the digit loop never blocks on a
// probe, and every reading is best-effort with zero as the fallback.
package telemetry

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

// Stats is one resource snapshot. Fields that could not be read are
// zero; the HUD renders them as such rather than failing.
type Stats struct {
	ProcCPUPercent float64
	HostCPUPercent float64
	RSSBytes       uint64
}

// Sampler produces Stats for the current process. Process CPU is
// measured between consecutive Sample calls, so the first call
// establishes a baseline and reports zero.
type Sampler struct {
	proc     *process.Process
	lastBusy float64
	lastWall time.Time
}

// NewSampler creates a sampler bound to the current process.
func NewSampler() (*Sampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Sampler{proc: proc}, nil
}

// Sample reads current usage. Safe to call at HUD refresh rate; each
// probe is a handful of procfs reads.
func (s *Sampler) Sample() Stats {
	var stats Stats

	if mem, err := s.proc.MemoryInfo(); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}

	if times, err := s.proc.Times(); err == nil && times != nil {
		now := time.Now()
		busy := times.User + times.System
		if !s.lastWall.IsZero() {
			if wall := now.Sub(s.lastWall).Seconds(); wall > 0 {
				stats.ProcCPUPercent = (busy - s.lastBusy) / wall * 100
			}
		}
		s.lastBusy = busy
		s.lastWall = now
	}

	// Interval zero compares against the previous call instead of
	// blocking the refresh loop.
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		stats.HostCPUPercent = pcts[0]
	}

	return stats
}
