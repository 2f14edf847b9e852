package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
)

const sourceXML = `<Sysmon schemaversion="4.90">
  <EventFiltering>
    <RuleGroup name="g1" groupRelation="or">
      <ProcessCreate onmatch="include">
        <Image condition="contains">powershell</Image>
      </ProcessCreate>
    </RuleGroup>
  </EventFiltering>
</Sysmon>
`

func writeConverted(t *testing.T, tree *document.Tree, format formats.Format) string {
	t.Helper()
	data, err := formats.Serialize(tree, format)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "out"+format.Ext())
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestOutputAcceptsFaithfulConversion(t *testing.T) {
	original, err := formats.Parse([]byte(sourceXML), formats.FormatXML)
	require.NoError(t, err)

	out := writeConverted(t, original, formats.FormatJSON)
	assert.NoError(t, New().Output(out, original, formats.FormatXML))
}

func TestOutputRejectsCorruptedConversion(t *testing.T) {
	original, err := formats.Parse([]byte(sourceXML), formats.FormatXML)
	require.NoError(t, err)
	out := writeConverted(t, original, formats.FormatJSON)

	// A serializer that silently flips the onmatch attribute on the way
	// back: verification must name the exact path that changed.
	corrupt := func(tree *document.Tree, format formats.Format) ([]byte, error) {
		pc := tree.Root.Children[0].Children[0].Children[0]
		pc.SetAttr("onmatch", "exclude")
		return formats.Serialize(tree, format)
	}

	err = NewWithSerializer(corrupt).Output(out, original, formats.FormatXML)
	var merr *MismatchError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, out, merr.Output)
	assert.Equal(t, "Sysmon/EventFiltering/RuleGroup/ProcessCreate/@onmatch", merr.Path)
}

func TestOutputMissingFile(t *testing.T) {
	original, err := formats.Parse([]byte(sourceXML), formats.FormatXML)
	require.NoError(t, err)
	err = New().Output(filepath.Join(t.TempDir(), "missing.json"), original, formats.FormatXML)
	assert.Error(t, err)
}

func TestOutputUnparseableFile(t *testing.T) {
	original, err := formats.Parse([]byte(sourceXML), formats.FormatXML)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	assert.Error(t, New().Output(path, original, formats.FormatXML))
}
