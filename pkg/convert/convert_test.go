package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
)

const sourceXML = `<?xml version="1.0" encoding="UTF-8"?>
<Sysmon schemaversion="4.90">
  <EventFiltering>
    <RuleGroup name="g1" groupRelation="or">
      <ProcessCreate onmatch="include">
        <Image condition="contains">powershell</Image>
      </ProcessCreate>
    </RuleGroup>
  </EventFiltering>
</Sysmon>
`

func TestDerivedOutput(t *testing.T) {
	assert.Equal(t, "config.json", DerivedOutput("config.xml"))
	assert.Equal(t, filepath.Join("a", "b.xml"), DerivedOutput(filepath.Join("a", "b.json")))
}

func TestFileXMLToJSON(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.xml")
	dst := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(src, []byte(sourceXML), 0644))

	require.NoError(t, File(src, dst, Options{Verify: true}))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	tree, err := formats.Parse(data, formats.FormatJSON)
	require.NoError(t, err)

	original, err := formats.Parse([]byte(sourceXML), formats.FormatXML)
	require.NoError(t, err)
	assert.Empty(t, document.FirstDiff(original, tree))
}

func TestFileJSONToXML(t *testing.T) {
	dir := t.TempDir()
	original, err := formats.Parse([]byte(sourceXML), formats.FormatXML)
	require.NoError(t, err)
	asJSON, err := formats.Serialize(original, formats.FormatJSON)
	require.NoError(t, err)

	src := filepath.Join(dir, "config.json")
	dst := filepath.Join(dir, "back.xml")
	require.NoError(t, os.WriteFile(src, asJSON, 0644))

	require.NoError(t, File(src, dst, Options{Verify: true}))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	back, err := formats.Parse(data, formats.FormatXML)
	require.NoError(t, err)
	assert.Empty(t, document.FirstDiff(original, back))
}

func TestFilePreprocessesDirtyXML(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dirty.xml")
	dst := filepath.Join(dir, "dirty.json")
	dirty := "\xEF\xBB\xBF<?xml version=\"1.0\" encoding=\"UTF-16\"?>\r\n<Sysmon/>\r\n"
	require.NoError(t, os.WriteFile(src, []byte(dirty), 0644))

	require.NoError(t, File(src, dst, Options{}))
	assert.Error(t, File(src, dst, Options{SkipPreprocess: true}),
		"the raw bytes must not parse without cleanup")
}

func TestFileBackupPreservesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.xml")
	dst := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(src, []byte(sourceXML), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("previous contents"), 0644))

	require.NoError(t, File(src, dst, Options{Backup: true}))

	backup, err := os.ReadFile(dst + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "previous contents", string(backup), "backup is byte-identical to the old output")

	// A second run with an existing .bak picks the next numbered name.
	require.NoError(t, File(src, dst, Options{Backup: true}))
	_, err = os.Stat(dst + ".bak.1")
	assert.NoError(t, err)
}

func TestFileUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
	assert.ErrorIs(t, File(src, filepath.Join(dir, "out.json"), Options{}), formats.ErrUnknownFormat)
}
