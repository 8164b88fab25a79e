package diskguard

import (
	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"

	errs "pistream/pkg/errors"
	"pistream/pkg/logger"
)

// ProbeFunc reports the number of bytes free on the filesystem holding
// path.
type ProbeFunc func(path string) (uint64, error)

// DiskFree is the default ProbeFunc, backed by gopsutil.
func DiskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// Guard gates digit generation on free disk space in the output
// directory. A zero threshold disables the guard: Check always passes
// and the stream never pauses for space.
type Guard struct {
	path    string
	minFree uint64
	probe   ProbeFunc
	logger  logger.Logger
}

// New creates a guard over the given directory.
func New(path string, minFree uint64) *Guard {
	return &Guard{
		path:    path,
		minFree: minFree,
		probe:   DiskFree,
		logger:  logger.GetLogger(),
	}
}

// WithProbe returns a copy of the guard using the given probe in place
// of the gopsutil default.
func (g *Guard) WithProbe(probe ProbeFunc) *Guard {
	ng := *g
	ng.probe = probe
	return &ng
}

// Enabled reports whether a free-space threshold is configured.
func (g *Guard) Enabled() bool { return g.minFree > 0 }

// MinFree returns the configured threshold in bytes.
func (g *Guard) MinFree() uint64 { return g.minFree }

// Free reports the bytes currently free in the guarded directory. A
// probe failure counts as zero free bytes so that an unreadable
// filesystem pauses the stream instead of filling it.
func (g *Guard) Free() uint64 {
	free, err := g.probe(g.path)
	if err != nil {
		g.logger.WarnWithFields("Disk probe failed, treating free space as zero", map[string]interface{}{
			"path":  g.path,
			"error": err.Error(),
		})
		return 0
	}
	return free
}

// Check returns nil when generation may continue. Below the threshold it
// returns a disk_low error naming both sides of the comparison.
func (g *Guard) Check() error {
	if g.minFree == 0 {
		return nil
	}
	if free := g.Free(); free < g.minFree {
		return errs.Newf(errs.ErrorTypeDiskLow, "diskguard.check",
			"free space %s below threshold %s", humanize.IBytes(free), humanize.IBytes(g.minFree))
	}
	return nil
}
