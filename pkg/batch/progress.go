package batch

import "sync/atomic"

// Progress holds the process-wide counters for one batch invocation.
// Workers update them with atomic increments; increments are commutative so
// no lock is needed.
type Progress struct {
	discovered atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
	skipped    atomic.Int64
	bytes      atomic.Int64
}

// Snapshot is a consistent-enough read of the counters for reporting.
type Snapshot struct {
	Discovered int64
	Completed  int64
	Failed     int64
	Skipped    int64
	Bytes      int64
}

// NewProgress returns zeroed counters for a fresh invocation.
func NewProgress() *Progress { return &Progress{} }

// SetDiscovered records how many files discovery produced.
func (p *Progress) SetDiscovered(n int64) { p.discovered.Store(n) }

// JobCompleted counts one successful job and its processed bytes.
func (p *Progress) JobCompleted(bytes int64) {
	p.completed.Add(1)
	p.bytes.Add(bytes)
}

// JobFailed counts one failed job.
func (p *Progress) JobFailed() { p.failed.Add(1) }

// JobSkipped counts one skipped file.
func (p *Progress) JobSkipped() { p.skipped.Add(1) }

// Done returns how many jobs reached a terminal state.
func (p *Progress) Done() int64 {
	return p.completed.Load() + p.failed.Load() + p.skipped.Load()
}

// Snapshot reads all counters.
func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		Discovered: p.discovered.Load(),
		Completed:  p.completed.Load(),
		Failed:     p.failed.Load(),
		Skipped:    p.skipped.Load(),
		Bytes:      p.bytes.Load(),
	}
}
