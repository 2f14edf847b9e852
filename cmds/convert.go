package cmds

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/rs/zerolog/log"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/batch"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/convert"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/discover"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/merge"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/output"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/sysmon"
)

type ConvertCommand struct{ *gcmds.CommandDescription }

type ConvertSettings struct {
	Input             string   `glazed.parameter:"input"`
	Output            string   `glazed.parameter:"output"`
	Recursive         bool     `glazed.parameter:"recursive"`
	Batch             bool     `glazed.parameter:"batch"`
	Merge             bool     `glazed.parameter:"merge"`
	MaxSize           int      `glazed.parameter:"max-size"`
	MaxDepth          int      `glazed.parameter:"max-depth"`
	Workers           int      `glazed.parameter:"workers"`
	Verify            bool     `glazed.parameter:"verify"`
	Silent            bool     `glazed.parameter:"silent"`
	Backup            bool     `glazed.parameter:"backup"`
	IgnorePatterns    []string `glazed.parameter:"ignore"`
	SkipPreprocessing bool     `glazed.parameter:"skip-preprocessing"`
	Policy            string   `glazed.parameter:"policy"`
}

func NewConvertCommand() (*ConvertCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"convert",
		gcmds.WithShort("Convert Sysmon configs between XML and JSON, or merge many into one"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("input", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithShortFlag("i"), parameters.WithHelp("Input file or directory")),
			parameters.NewParameterDefinition("output", parameters.ParameterTypeString, parameters.WithShortFlag("o"), parameters.WithHelp("Output file or directory (default: derived from input)")),
			parameters.NewParameterDefinition("recursive", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithShortFlag("r"), parameters.WithHelp("Process directories recursively")),
			parameters.NewParameterDefinition("batch", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithShortFlag("b"), parameters.WithHelp("Process input as a directory of configs")),
			parameters.NewParameterDefinition("merge", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithShortFlag("m"), parameters.WithHelp("Merge all configs in the input directory into a single file")),
			parameters.NewParameterDefinition("max-size", parameters.ParameterTypeInteger, parameters.WithDefault(10), parameters.WithHelp("Maximum file size in MB")),
			parameters.NewParameterDefinition("max-depth", parameters.ParameterTypeInteger, parameters.WithDefault(discover.DefaultMaxDepth), parameters.WithHelp("Maximum recursion depth")),
			parameters.NewParameterDefinition("workers", parameters.ParameterTypeInteger, parameters.WithDefault(0), parameters.WithHelp("Worker count (0 = CPU cores)")),
			parameters.NewParameterDefinition("verify", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Verify output after conversion")),
			parameters.NewParameterDefinition("silent", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Suppress progress output")),
			parameters.NewParameterDefinition("backup", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Back up existing destination files before writing")),
			parameters.NewParameterDefinition("ignore", parameters.ParameterTypeStringList, parameters.WithHelp("Glob pattern to ignore, relative to the input root (repeatable)")),
			parameters.NewParameterDefinition("skip-preprocessing", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Skip whitespace/encoding normalization before parsing")),
			parameters.NewParameterDefinition("policy", parameters.ParameterTypeString, parameters.WithHelp("Merge policy YAML file (default: built-in Sysmon policy)")),
		),
		gcmds.WithLayersList(layer),
	)
	return &ConvertCommand{cd}, nil
}

func (c *ConvertCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &ConvertSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}

	info, err := os.Stat(s.Input)
	if err != nil {
		return fmt.Errorf("input path does not exist: %s", s.Input)
	}

	if s.Merge {
		return c.runMerge(ctx, s, info.IsDir())
	}
	if s.Batch || info.IsDir() {
		return c.runBatch(ctx, s, info.IsDir())
	}
	return c.runSingle(s)
}

func (c *ConvertCommand) runSingle(s *ConvertSettings) error {
	dst := s.Output
	if dst == "" {
		dst = convert.DerivedOutput(s.Input)
	}
	log.Info().Str("input", s.Input).Str("output", dst).Msg("converting")
	if err := convert.File(s.Input, dst, convert.Options{
		Backup:         s.Backup,
		Verify:         s.Verify,
		SkipPreprocess: s.SkipPreprocessing,
	}); err != nil {
		return err
	}
	if !s.Silent {
		fmt.Println(output.JobOK(1, 1, s.Input))
	}
	return nil
}

func (c *ConvertCommand) runBatch(ctx context.Context, s *ConvertSettings, isDir bool) error {
	if !isDir {
		return fmt.Errorf("batch mode requires input to be a directory")
	}
	outDir := s.Output
	if outDir == "" {
		outDir = strings.TrimSuffix(s.Input, string(os.PathSeparator)) + "_converted"
	}
	log.Info().Str("input", s.Input).Str("output", outDir).Msg("processing directory")

	res, err := discover.Discover(s.Input, discoverOptions(s))
	if err != nil {
		return err
	}
	if !s.Silent {
		for _, sk := range res.Skipped {
			fmt.Println(output.JobSkipped(sk.Path, sk.Reason))
		}
	}
	jobs := make([]batch.Job, 0, len(res.Files))
	for i, src := range res.Files {
		srcFormat, err := formats.Detect(src)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(s.Input, src)
		if err != nil {
			rel = filepath.Base(src)
		}
		dst := filepath.Join(outDir, strings.TrimSuffix(rel, srcFormat.Ext())+srcFormat.Other().Ext())
		jobs = append(jobs, batch.Job{
			Index:          i,
			Source:         src,
			Dest:           dst,
			SourceFormat:   srcFormat,
			TargetFormat:   srcFormat.Other(),
			Backup:         s.Backup,
			Verify:         s.Verify,
			SkipPreprocess: s.SkipPreprocessing,
		})
	}

	processor := batch.NewProcessor(batch.Options{Workers: s.Workers, Silent: s.Silent})
	for range res.Skipped {
		processor.Progress().JobSkipped()
	}
	report, err := processor.Run(ctx, jobs)
	if err != nil {
		return err
	}
	report.Skipped = len(res.Skipped)
	for _, sk := range res.Skipped {
		report.SkippedAs = append(report.SkippedAs, batch.SkippedFile{Path: sk.Path, Reason: sk.Reason})
	}
	printReport(report, s.Silent)
	if !report.Ok() {
		return fmt.Errorf("%d of %d files failed", report.Failed, report.Discovered)
	}
	return nil
}

func (c *ConvertCommand) runMerge(ctx context.Context, s *ConvertSettings, isDir bool) error {
	if !isDir {
		return fmt.Errorf("merge mode requires input to be a directory")
	}
	dest := s.Output
	if dest == "" {
		dest = filepath.Join(s.Input, "merged.xml")
	}
	policy := sysmon.DefaultPolicy()
	if s.Policy != "" {
		p, err := merge.LoadPolicy(s.Policy)
		if err != nil {
			return err
		}
		policy = p
	}

	res, err := discover.Discover(s.Input, discoverOptions(s))
	if err != nil {
		return err
	}
	// Leave any previous merge output out of its own inputs.
	sources := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		if sameFile(f, dest) {
			continue
		}
		sources = append(sources, f)
	}
	if len(sources) == 0 {
		log.Warn().Str("input", s.Input).Msg("no config files matched; nothing to merge")
		if !s.Silent {
			fmt.Println(output.Warnf("no config files matched under %s; nothing to merge", s.Input))
		}
		return nil
	}

	log.Info().Int("sources", len(sources)).Str("dest", dest).Msg("merging configs")
	if err := batch.RunMerge(ctx, sources, dest, batch.MergeOptions{
		Policy:         policy,
		Backup:         s.Backup,
		Verify:         s.Verify,
		SkipPreprocess: s.SkipPreprocessing,
	}); err != nil {
		return err
	}
	if !s.Silent {
		fmt.Println(output.JobOK(1, 1, dest))
	}
	return nil
}

func discoverOptions(s *ConvertSettings) discover.Options {
	return discover.Options{
		Recursive:      s.Recursive,
		MaxDepth:       s.MaxDepth,
		MaxFileSize:    int64(s.MaxSize) * 1024 * 1024,
		IgnorePatterns: s.IgnorePatterns,
	}
}

func printReport(report *batch.Report, silent bool) {
	if silent {
		return
	}
	fmt.Println()
	fmt.Print(output.Summary(report.Discovered, report.Converted, report.Skipped, report.Failed))
	for _, sk := range report.SkippedAs {
		fmt.Println(output.Detail(fmt.Sprintf("skipped %s: %s", sk.Path, sk.Reason)))
	}
	for _, f := range report.Failures {
		fmt.Println(output.Detail(fmt.Sprintf("failed %s: %v", f.Path, f.Err)))
	}
}

func sameFile(a, b string) bool {
	ra, err := filepath.Abs(a)
	if err != nil {
		return a == b
	}
	rb, err := filepath.Abs(b)
	if err != nil {
		return a == b
	}
	return ra == rb
}

var _ gcmds.BareCommand = &ConvertCommand{}
