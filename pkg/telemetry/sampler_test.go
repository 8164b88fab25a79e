package telemetry

import (
	"testing"
	"time"
)

func TestSamplerBaseline(t *testing.T) {
	s, err := NewSampler()
	if err != nil {
		t.Fatalf("Failed to create sampler: %v", err)
	}

	first := s.Sample()
	if first.ProcCPUPercent != 0 {
		t.Errorf("Expected first sample to report zero process CPU, got %f", first.ProcCPUPercent)
	}
	if first.RSSBytes == 0 {
		t.Error("Expected a running process to have nonzero RSS")
	}
}

func TestSamplerDelta(t *testing.T) {
	s, err := NewSampler()
	if err != nil {
		t.Fatalf("Failed to create sampler: %v", err)
	}
	s.Sample()

	// Burn a little CPU so the delta has something to measure.
	deadline := time.Now().Add(20 * time.Millisecond)
	x := 0
	for time.Now().Before(deadline) {
		x++
	}
	_ = x

	second := s.Sample()
	if second.ProcCPUPercent < 0 {
		t.Errorf("Expected non-negative process CPU, got %f", second.ProcCPUPercent)
	}
	if second.HostCPUPercent < 0 {
		t.Errorf("Expected non-negative host CPU, got %f", second.HostCPUPercent)
	}
}
