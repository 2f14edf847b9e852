// Package batch orchestrates conversion runs across a worker pool:
// discovery order in, aggregate report out, with every job succeeding or
// failing independently.
package batch

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/convert"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/merge"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/output"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/preprocess"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/sysmon"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/verify"
)

// Processor runs independent conversion jobs over a fixed-size worker pool.
type Processor struct {
	opts     Options
	progress *Progress
	// convertFile is swappable in tests.
	convertFile func(Job) error
}

// NewProcessor returns a processor with a fresh progress state.
func NewProcessor(opts Options) *Processor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Processor{
		opts:     opts,
		progress: NewProgress(),
		convertFile: func(j Job) error {
			return convert.File(j.Source, j.Dest, convert.Options{
				Backup:         j.Backup,
				Verify:         j.Verify,
				SkipPreprocess: j.SkipPreprocess,
			})
		},
	}
}

// Progress exposes the run's counters.
func (p *Processor) Progress() *Progress { return p.progress }

type jobResult struct {
	job   Job
	err   error
	bytes int64
}

// Run processes all jobs to completion and returns the aggregate report.
// Jobs are fully independent; one failure never stops the others. On
// context cancellation no new jobs are dispatched, in-flight jobs finish,
// and completed results are still reported.
func (p *Processor) Run(ctx context.Context, jobs []Job) (*Report, error) {
	report := &Report{Discovered: len(jobs)}
	p.progress.SetDiscovered(int64(len(jobs)))
	if len(jobs) == 0 {
		return report, nil
	}

	queue := make(chan Job)
	results := make(chan jobResult, p.opts.Workers)

	// Progress emission is funneled through this single consumer so worker
	// output never interleaves.
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		total := len(jobs)
		done := 0
		for res := range results {
			done++
			if res.err != nil {
				p.progress.JobFailed()
				report.Failed++
				report.Failures = append(report.Failures, FileError{Index: res.job.Index, Path: res.job.Source, Err: res.err})
				if !p.opts.Silent {
					fmt.Println(output.JobFailed(done, total, res.job.Source, res.err))
				}
				continue
			}
			p.progress.JobCompleted(res.bytes)
			report.Converted++
			if !p.opts.Silent {
				fmt.Println(output.JobOK(done, total, res.job.Source))
			}
		}
	}()

	var g errgroup.Group
	for i := 0; i < p.opts.Workers; i++ {
		g.Go(func() error {
			for job := range queue {
				var size int64
				if fi, err := os.Stat(job.Source); err == nil {
					size = fi.Size()
				}
				err := p.convertFile(job)
				results <- jobResult{job: job, err: err, bytes: size}
			}
			return nil
		})
	}

	dispatched := 0
dispatch:
	for _, job := range jobs {
		// Checked before the select: when cancellation and a ready worker
		// race, cancellation wins.
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(jobs)-dispatched).Msg("cancellation received; finishing in-flight jobs")
			break dispatch
		}
		select {
		case <-ctx.Done():
			log.Warn().Int("remaining", len(jobs)-dispatched).Msg("cancellation received; finishing in-flight jobs")
			break dispatch
		case queue <- job:
			dispatched++
		}
	}
	close(queue)
	_ = g.Wait()
	close(results)
	<-reporterDone

	report.sortFailures()
	log.Info().Int("converted", report.Converted).Int("failed", report.Failed).Int("dispatched", dispatched).Msg("batch run finished")
	return report, nil
}

// MergeOptions configure a merge-mode run.
type MergeOptions struct {
	Policy         merge.Policy
	Backup         bool
	Verify         bool
	SkipPreprocess bool
}

// RunMerge parses all sources in discovery order, merges them into a single
// tree, and writes it to dest with the usual backup/verify wrapping. The
// merge itself is a single-threaded reduction: input order establishes
// precedence, so it must not be parallelized.
func RunMerge(ctx context.Context, sources []string, dest string, opts MergeOptions) error {
	if len(sources) == 0 {
		return fmt.Errorf("no config files to merge")
	}
	destFormat, err := formats.Detect(dest)
	if err != nil {
		return err
	}

	trees := make([]*document.Tree, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		srcFormat, err := formats.Detect(src)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src, err)
		}
		if srcFormat == formats.FormatXML && !opts.SkipPreprocess {
			if data, err = preprocess.Clean(data); err != nil {
				return fmt.Errorf("preprocessing %s: %w", src, err)
			}
		}
		tree, err := formats.Parse(data, srcFormat)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		trees = append(trees, tree)
	}

	merged, err := merge.Merge(trees, opts.Policy)
	if err != nil {
		return err
	}
	if err := sysmon.Validate(merged); err != nil {
		return fmt.Errorf("merged config failed validation: %w", err)
	}

	out, err := formats.Serialize(merged, destFormat)
	if err != nil {
		return err
	}
	if opts.Backup {
		if backupPath, err := output.Backup(dest); err != nil {
			return err
		} else if backupPath != "" {
			log.Info().Str("path", dest).Str("backup", backupPath).Msg("backed up existing destination")
		}
	}
	if err := output.Write(dest, out); err != nil {
		return err
	}
	if opts.Verify {
		if err := verify.New().Output(dest, merged, destFormat); err != nil {
			return err
		}
	}
	log.Info().Int("sources", len(sources)).Str("dest", dest).Msg("merge written")
	return nil
}
