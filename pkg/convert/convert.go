// Package convert ties the format adapters together into one-file
// conversions: preprocess, parse, serialize, write, with optional backup and
// round-trip verification.
package convert

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/output"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/preprocess"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/verify"
)

// Options control optional steps around a single conversion.
type Options struct {
	Backup         bool
	Verify         bool
	SkipPreprocess bool
}

// DerivedOutput returns the conventional output path for src: same location,
// extension swapped to the opposite format.
func DerivedOutput(src string) string {
	f, err := formats.Detect(src)
	if err != nil {
		return src + formats.FormatJSON.Ext()
	}
	return strings.TrimSuffix(src, f.Ext()) + f.Other().Ext()
}

// File converts src into dst. Formats are detected from the file
// extensions. When requested, an existing destination is backed up before
// any write, and the written output is verified against the parsed source.
func File(src, dst string, opts Options) error {
	srcFormat, err := formats.Detect(src)
	if err != nil {
		return err
	}
	dstFormat, err := formats.Detect(dst)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if srcFormat == formats.FormatXML && !opts.SkipPreprocess {
		cleaned, err := preprocess.Clean(data)
		if err != nil {
			return fmt.Errorf("preprocessing %s: %w", src, err)
		}
		data = cleaned
	}

	tree, err := formats.Parse(data, srcFormat)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	out, err := formats.Serialize(tree, dstFormat)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	if opts.Backup {
		if backupPath, err := output.Backup(dst); err != nil {
			return err
		} else if backupPath != "" {
			log.Info().Str("path", dst).Str("backup", backupPath).Msg("backed up existing destination")
		}
	}
	if err := output.Write(dst, out); err != nil {
		return err
	}
	if opts.Verify {
		if err := verify.New().Output(dst, tree, srcFormat); err != nil {
			return err
		}
	}
	log.Debug().Str("src", src).Str("dst", dst).Str("from", string(srcFormat)).Str("to", string(dstFormat)).Msg("converted")
	return nil
}
