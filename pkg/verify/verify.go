// Package verify performs the round-trip sanity check after a conversion:
// the written output must re-parse into a tree structurally equal to the one
// parsed from the input.
package verify

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
)

// MismatchError reports the first path at which the round-tripped tree
// differs from the original.
type MismatchError struct {
	Output string
	Path   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verification mismatch for %s at %s", e.Output, e.Path)
}

// Serializer renders a tree to bytes. It matches formats.Serialize and is
// injectable so tests can exercise the mismatch path with a corrupt
// implementation.
type Serializer func(*document.Tree, formats.Format) ([]byte, error)

// Verifier checks written outputs against their source trees.
type Verifier struct {
	serialize Serializer
}

// New returns a verifier using the standard serializer.
func New() *Verifier {
	return &Verifier{serialize: formats.Serialize}
}

// NewWithSerializer returns a verifier using a custom serializer.
func NewWithSerializer(s Serializer) *Verifier {
	return &Verifier{serialize: s}
}

// Output re-parses the written file, serializes it back to the original
// format, re-parses that, and compares the result structurally against the
// tree parsed from the input. Cosmetic whitespace and attribute-order
// differences do not fail verification.
func (v *Verifier) Output(outputPath string, original *document.Tree, originalFormat formats.Format) error {
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("failed to read output for verification: %w", err)
	}
	outputFormat, err := formats.Detect(outputPath)
	if err != nil {
		return err
	}
	written, err := formats.Parse(data, outputFormat)
	if err != nil {
		return fmt.Errorf("output does not re-parse: %w", err)
	}
	back, err := v.serialize(written, originalFormat)
	if err != nil {
		return err
	}
	roundTripped, err := formats.Parse(back, originalFormat)
	if err != nil {
		return fmt.Errorf("round-tripped output does not re-parse: %w", err)
	}
	if diff := document.FirstDiff(original, roundTripped); diff != "" {
		log.Debug().Str("output", outputPath).Str("path", diff).Msg("verification mismatch")
		return &MismatchError{Output: outputPath, Path: diff}
	}
	return nil
}
