// Package preprocess applies encoding and whitespace fix-ups to raw config
// bytes before parsing. Real-world Sysmon configs are frequently exported
// from Windows tooling with UTF-8 BOMs, CRLF line endings, stale utf-16
// declarations, and stray control characters the XML parser rejects.
package preprocess

import (
	"bytes"
	"fmt"
	"regexp"
	"unicode/utf8"
)

var utf16Decl = regexp.MustCompile(`(?i)(<\?xml[^>]*encoding=")utf-16(")`)

// Clean normalizes raw config bytes: strips a UTF-8 BOM, converts CRLF to
// LF, drops control characters that are illegal in XML 1.0, and rewrites a
// utf-16 encoding declaration to utf-8 when the bytes are already valid
// UTF-8. The input slice is not modified.
func Clean(data []byte) ([]byte, error) {
	out := bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	out = bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))

	if !utf8.Valid(out) {
		return nil, fmt.Errorf("input is not valid UTF-8")
	}

	cleaned := make([]byte, 0, len(out))
	for _, r := range string(out) {
		if illegalControl(r) {
			continue
		}
		cleaned = utf8.AppendRune(cleaned, r)
	}

	cleaned = utf16Decl.ReplaceAll(cleaned, []byte("${1}utf-8${2}"))
	return cleaned, nil
}

// illegalControl reports control characters outside the XML 1.0 Char set.
func illegalControl(r rune) bool {
	return r < 0x20 && r != '\t' && r != '\n' && r != '\r'
}
