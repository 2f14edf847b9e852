package cmds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/cmdutil"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/discover"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/preprocess"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/sysmon"
)

type ValidateCommand struct{ *gcmds.CommandDescription }

type ValidateSettings struct {
	Input             string   `glazed.parameter:"input"`
	Recursive         bool     `glazed.parameter:"recursive"`
	MaxDepth          int      `glazed.parameter:"max-depth"`
	MaxSize           int      `glazed.parameter:"max-size"`
	IgnorePatterns    []string `glazed.parameter:"ignore"`
	Only              []string `glazed.parameter:"only"`
	SkipPreprocessing bool     `glazed.parameter:"skip-preprocessing"`
}

func NewValidateCommand() (*ValidateCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	commandLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"validate",
		gcmds.WithShort("Check Sysmon configs against the structural rules"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("input", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithShortFlag("i"), parameters.WithHelp("Config file or directory")),
			parameters.NewParameterDefinition("recursive", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithShortFlag("r"), parameters.WithHelp("Validate directories recursively")),
			parameters.NewParameterDefinition("max-depth", parameters.ParameterTypeInteger, parameters.WithDefault(discover.DefaultMaxDepth), parameters.WithHelp("Maximum recursion depth")),
			parameters.NewParameterDefinition("max-size", parameters.ParameterTypeInteger, parameters.WithDefault(10), parameters.WithHelp("Maximum file size in MB")),
			parameters.NewParameterDefinition("ignore", parameters.ParameterTypeStringList, parameters.WithHelp("Glob pattern to ignore, relative to the input root (repeatable)")),
			parameters.NewParameterDefinition("only", parameters.ParameterTypeStringList, parameters.WithHelp("Only validate files with these base names; default all")),
			parameters.NewParameterDefinition("skip-preprocessing", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Skip whitespace/encoding normalization before parsing")),
		),
		gcmds.WithLayersList(glazedLayers, commandLayer),
	)
	return &ValidateCommand{cd}, nil
}

func (c *ValidateCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	s := &ValidateSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}

	res, err := discover.Discover(s.Input, discover.Options{
		Recursive:      s.Recursive,
		MaxDepth:       s.MaxDepth,
		MaxFileSize:    int64(s.MaxSize) * 1024 * 1024,
		IgnorePatterns: s.IgnorePatterns,
	})
	if err != nil {
		return err
	}

	files := cmdutil.Filter(res.Files, s.Only, filepath.Base)
	invalid := 0
	for _, path := range files {
		valid, reason, errPath := c.validateFile(path, s.SkipPreprocessing)
		if !valid {
			invalid++
		}
		row := types.NewRow(
			types.MRP("file", path),
			types.MRP("valid", valid),
			types.MRP("error", reason),
			types.MRP("path", errPath),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d configs failed validation", invalid, len(files))
	}
	return nil
}

func (c *ValidateCommand) validateFile(path string, skipPreprocess bool) (bool, string, string) {
	format, err := formats.Detect(path)
	if err != nil {
		return false, err.Error(), ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err.Error(), ""
	}
	if format == formats.FormatXML && !skipPreprocess {
		if data, err = preprocess.Clean(data); err != nil {
			return false, err.Error(), ""
		}
	}
	tree, err := formats.Parse(data, format)
	if err != nil {
		return false, err.Error(), ""
	}
	if err := sysmon.Validate(tree); err != nil {
		var verr *sysmon.ValidationError
		if errors.As(err, &verr) {
			return false, verr.Reason, verr.Path
		}
		return false, err.Error(), ""
	}
	return true, "", ""
}

var _ gcmds.GlazeCommand = &ValidateCommand{}
