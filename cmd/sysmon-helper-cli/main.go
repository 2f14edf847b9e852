package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/logging"
	"github.com/go-go-golems/glazed/pkg/cmds/middlewares"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/help"
	help_cmd "github.com/go-go-golems/glazed/pkg/help/cmd"
	"github.com/spf13/cobra"

	clay "github.com/go-go-golems/clay/pkg"

	appcmds "github.com/whit3rabbit/sysmon-helper-cli/cmds"
	appdoc "github.com/whit3rabbit/sysmon-helper-cli/pkg/doc"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/output"
)

var version = "dev"

func getMiddlewares(parsedLayers *layers.ParsedLayers, cmd *cobra.Command, args []string) ([]middlewares.Middleware, error) {
	commandSettings := &cli.CommandSettings{}
	err := parsedLayers.InitializeStruct(cli.CommandSettingsSlug, commandSettings)
	if err != nil {
		return nil, err
	}

	mw_ := []middlewares.Middleware{
		middlewares.ParseFromCobraCommand(cmd,
			parameters.WithParseStepSource("cobra"),
		),
		middlewares.GatherArguments(args,
			parameters.WithParseStepSource("arguments"),
		),
	}

	mw_ = append(mw_,
		middlewares.GatherFlagsFromViper(parameters.WithParseStepSource("viper")),
		middlewares.SetFromDefaults(parameters.WithParseStepSource("defaults")),
	)

	return mw_, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "sysmon-helper-cli",
		Short:   "Convert, merge and validate Sysmon configurations (XML/JSON)",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			err := logging.InitLoggerFromViper()
			cobra.CheckErr(err)
			output.InitConsole(false)
		},
	}

	clay.InitViper("sysmon-helper-cli", rootCmd)

	// Help system
	hs := help.NewHelpSystem()
	_ = appdoc.AddDocToHelpSystem(hs)
	help_cmd.SetupCobraRootCommand(hs, rootCmd)

	opts := []cli.CobraOption{
		cli.WithParserConfig(cli.CobraParserConfig{
			MiddlewaresFunc: getMiddlewares,
		}),
	}

	// Register commands
	if cc, err := appcmds.NewConvertCommand(); err == nil {
		cmd, err := cli.BuildCobraCommand(cc, opts...)
		cobra.CheckErr(err)
		rootCmd.AddCommand(cmd)
	} else {
		cobra.CheckErr(err)
	}

	if vc, err := appcmds.NewValidateCommand(); err == nil {
		cmd, err := cli.BuildCobraCommand(vc, opts...)
		cobra.CheckErr(err)
		rootCmd.AddCommand(cmd)
	} else {
		cobra.CheckErr(err)
	}

	if tc, err := appcmds.NewTreeCommand(); err == nil {
		cmd, err := cli.BuildCobraCommand(tc, opts...)
		cobra.CheckErr(err)
		rootCmd.AddCommand(cmd)
	} else {
		cobra.CheckErr(err)
	}

	// Let in-flight jobs finish on SIGINT/SIGTERM; no new jobs are
	// dispatched after cancellation.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}
