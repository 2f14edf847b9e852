package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<Sysmon schemaversion="4.90">
  <EventFiltering>
    <RuleGroup name="powershell" groupRelation="or">
      <ProcessCreate onmatch="include">
        <Image condition="contains">powershell</Image>
        <CommandLine condition="contains">-enc</CommandLine>
      </ProcessCreate>
    </RuleGroup>
  </EventFiltering>
</Sysmon>
`

func sampleTree(t *testing.T) *document.Tree {
	t.Helper()
	tree, err := Parse([]byte(sampleXML), FormatXML)
	require.NoError(t, err)
	return tree
}

func TestDetect(t *testing.T) {
	cases := []struct {
		path   string
		format Format
		ok     bool
	}{
		{"config.xml", FormatXML, true},
		{"config.XML", FormatXML, true},
		{"dir/config.json", FormatJSON, true},
		{"config.yaml", "", false},
		{"config", "", false},
	}
	for _, tc := range cases {
		f, err := Detect(tc.path)
		if tc.ok {
			require.NoError(t, err, tc.path)
			assert.Equal(t, tc.format, f, tc.path)
		} else {
			assert.ErrorIs(t, err, ErrUnknownFormat, tc.path)
		}
	}
}

func TestParseXMLPreservesStructure(t *testing.T) {
	tree := sampleTree(t)
	root := tree.Root
	assert.Equal(t, "Sysmon", root.Tag)
	v, ok := root.Attr("schemaversion")
	require.True(t, ok)
	assert.Equal(t, "4.90", v)

	require.Len(t, root.Children, 1)
	ef := root.Children[0]
	require.Len(t, ef.Children, 1)
	pc := ef.Children[0].Children[0]
	assert.Equal(t, "ProcessCreate", pc.Tag)
	require.Len(t, pc.Children, 2)
	assert.Equal(t, "Image", pc.Children[0].Tag)
	assert.Equal(t, "powershell", pc.Children[0].Text)
}

func TestRoundTrip(t *testing.T) {
	original := sampleTree(t)
	for _, format := range []Format{FormatXML, FormatJSON} {
		data, err := Serialize(original, format)
		require.NoError(t, err)
		back, err := Parse(data, format)
		require.NoError(t, err)
		assert.Empty(t, document.FirstDiff(original, back), "round-trip through %s", format)
	}
}

func TestConversionChainIdempotent(t *testing.T) {
	original := sampleTree(t)

	asJSON, err := Serialize(original, FormatJSON)
	require.NoError(t, err)
	fromJSON, err := Parse(asJSON, FormatJSON)
	require.NoError(t, err)
	asXML, err := Serialize(fromJSON, FormatXML)
	require.NoError(t, err)
	backAgain, err := Parse(asXML, FormatXML)
	require.NoError(t, err)

	assert.Empty(t, document.FirstDiff(original, backAgain))
}

func TestJSONSerializationDeterministic(t *testing.T) {
	tree := sampleTree(t)
	a, err := Serialize(tree, FormatJSON)
	require.NoError(t, err)
	b, err := Serialize(tree, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("<Sysmon><unclosed>"), FormatXML)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, FormatXML, perr.Format)

	_, err = Parse([]byte(`{"tag": `), FormatJSON)
	require.ErrorAs(t, err, &perr)

	_, err = Parse([]byte(`{"attributes": {"a": "b"}}`), FormatJSON)
	require.Error(t, err, "empty tag must be rejected")
}

func TestSerializeEmptyTree(t *testing.T) {
	_, err := Serialize(nil, FormatXML)
	var serr *SerializeError
	assert.ErrorAs(t, err, &serr)
}

func TestOther(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatXML.Other())
	assert.Equal(t, FormatXML, FormatJSON.Other())
	assert.Equal(t, ".xml", FormatXML.Ext())
}
