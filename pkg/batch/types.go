package batch

import (
	"sort"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
)

// Job is one per-file unit of work. It is immutable once constructed and
// flows through exactly one worker.
type Job struct {
	// Index is the position in discovery order; report entries are sorted
	// by it regardless of completion order.
	Index        int
	Source       string
	Dest         string
	SourceFormat formats.Format
	TargetFormat formats.Format

	Backup         bool
	Verify         bool
	SkipPreprocess bool
}

// Options configure a batch run.
type Options struct {
	// Workers is the pool size; 0 means the host CPU core count.
	Workers int
	// Silent suppresses per-job progress lines.
	Silent bool
}

// FileError is one failed job in the aggregate report.
type FileError struct {
	Index int
	Path  string
	Err   error
}

// SkippedFile records a file left out of the run and why.
type SkippedFile struct {
	Path   string
	Reason string
}

// Report aggregates the outcome of a batch run.
type Report struct {
	Discovered int
	Converted  int
	Failed     int
	Skipped    int
	Failures   []FileError
	SkippedAs  []SkippedFile
}

// Ok reports whether every job succeeded. Zero jobs is a success.
func (r *Report) Ok() bool { return r.Failed == 0 }

func (r *Report) sortFailures() {
	sort.Slice(r.Failures, func(i, j int) bool {
		return r.Failures[i].Index < r.Failures[j].Index
	})
}
