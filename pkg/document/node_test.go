package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleGroup(name string, attrs ...Attr) *Node {
	n := NewElement("RuleGroup")
	n.SetAttr("name", name)
	for _, a := range attrs {
		n.SetAttr(a.Name, a.Value)
	}
	return n
}

func TestSetAttrReplacesInPlace(t *testing.T) {
	n := NewElement("ProcessCreate")
	n.SetAttr("onmatch", "include")
	n.SetAttr("condition", "is")
	n.SetAttr("onmatch", "exclude")

	require.Len(t, n.Attrs, 2)
	assert.Equal(t, "onmatch", n.Attrs[0].Name, "attribute order must be stable across updates")
	v, ok := n.Attr("onmatch")
	require.True(t, ok)
	assert.Equal(t, "exclude", v)
}

func TestEqualIgnoresAttributeOrder(t *testing.T) {
	a := NewElement("RuleGroup")
	a.SetAttr("name", "g1")
	a.SetAttr("groupRelation", "or")

	b := NewElement("RuleGroup")
	b.SetAttr("groupRelation", "or")
	b.SetAttr("name", "g1")

	assert.True(t, a.Equal(b))
}

func TestEqualIsOrderSensitiveForChildren(t *testing.T) {
	a := NewElement("EventFiltering")
	a.AppendChild(ruleGroup("g1"))
	a.AppendChild(ruleGroup("g2"))

	b := NewElement("EventFiltering")
	b.AppendChild(ruleGroup("g2"))
	b.AppendChild(ruleGroup("g1"))

	assert.False(t, a.Equal(b))
}

func TestFirstDiffNamesAttributePath(t *testing.T) {
	mk := func(onmatch string) *Tree {
		root := NewElement("Sysmon")
		ef := NewElement("EventFiltering")
		ef.AppendChild(ruleGroup("g1"))
		g2 := ruleGroup("g2")
		pc := NewElement("ProcessCreate")
		pc.SetAttr("onmatch", onmatch)
		g2.AppendChild(pc)
		ef.AppendChild(g2)
		root.AppendChild(ef)
		return &Tree{Root: root}
	}

	diff := FirstDiff(mk("include"), mk("exclude"))
	assert.Equal(t, "Sysmon/EventFiltering/RuleGroup[2]/ProcessCreate/@onmatch", diff)
}

func TestFirstDiffEqualTrees(t *testing.T) {
	a := &Tree{Root: ruleGroup("g1")}
	b := &Tree{Root: ruleGroup("g1")}
	assert.Empty(t, FirstDiff(a, b))
}

func TestFirstDiffTextIgnoresSurroundingWhitespace(t *testing.T) {
	a := NewElement("Image")
	a.Text = "powershell.exe"
	b := NewElement("Image")
	b.Text = "  powershell.exe\n"
	assert.True(t, a.Equal(b))

	b.Text = "cmd.exe"
	assert.Equal(t, "Image/#text", firstDiff(a, b, "Image"))
}

func TestCloneIsDeep(t *testing.T) {
	root := NewElement("Sysmon")
	root.SetAttr("schemaversion", "4.90")
	root.AppendChild(ruleGroup("g1"))

	clone := (&Tree{Root: root}).Clone()
	clone.Root.Children[0].SetAttr("name", "changed")
	clone.Root.SetAttr("schemaversion", "5.00")

	v, _ := root.Children[0].Attr("name")
	assert.Equal(t, "g1", v)
	v, _ = root.Attr("schemaversion")
	assert.Equal(t, "4.90", v)
}
