package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanStripsBOM(t *testing.T) {
	out, err := Clean([]byte("\xEF\xBB\xBF<Sysmon/>"))
	require.NoError(t, err)
	assert.Equal(t, "<Sysmon/>", string(out))
}

func TestCleanNormalizesCRLF(t *testing.T) {
	out, err := Clean([]byte("<Sysmon>\r\n</Sysmon>\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "<Sysmon>\n</Sysmon>\n", string(out))
}

func TestCleanDropsIllegalControlCharacters(t *testing.T) {
	out, err := Clean([]byte("<Image>a\x00b\x08c</Image>\t\n"))
	require.NoError(t, err)
	assert.Equal(t, "<Image>abc</Image>\t\n", string(out))
}

func TestCleanRewritesUTF16Declaration(t *testing.T) {
	in := `<?xml version="1.0" encoding="UTF-16"?><Sysmon/>`
	out, err := Clean([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0" encoding="utf-8"?><Sysmon/>`, string(out))
}

func TestCleanRejectsInvalidUTF8(t *testing.T) {
	_, err := Clean([]byte{'<', 0xFF, 0xFE, '>'})
	assert.Error(t, err)
}

func TestCleanLeavesCleanInputAlone(t *testing.T) {
	in := "<Sysmon schemaversion=\"4.90\">\n</Sysmon>\n"
	out, err := Clean([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}
