package cmdutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterNoSelectorsReturnsAll(t *testing.T) {
	items := []string{"a.xml", "b.xml"}
	assert.Equal(t, items, Filter(items, nil, func(s string) string { return s }))
	assert.Equal(t, items, Filter(items, []string{""}, func(s string) string { return s }))
}

func TestFilterKeepsMatches(t *testing.T) {
	items := []string{"a.xml", "b.xml", "c.xml"}
	got := Filter(items, []string{"c.xml", "a.xml"}, func(s string) string { return s })
	assert.Equal(t, []string{"a.xml", "c.xml"}, got, "input order is preserved")
}

func TestSelectorSetSkipsEmpty(t *testing.T) {
	set := SelectorSet([]string{"", "x", ""})
	assert.Len(t, set, 1)
	_, ok := set["x"]
	assert.True(t, ok)
}
