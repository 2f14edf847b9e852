package document

import (
	"fmt"
	"strings"
)

// Attr is a single name/value attribute on an element. Attribute order is
// preserved on the node but is not semantically significant when comparing
// trees.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of a parsed configuration document: a tag, its
// attributes in source order, its children in source order, and any character
// data directly inside it.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// Tree owns the root node of one fully parsed configuration file.
type Tree struct {
	Root *Node
}

// NewElement creates an element node with the given tag.
func NewElement(tag string) *Node {
	return &Node{Tag: tag}
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets the named attribute, replacing an existing value in place so
// attribute order stays stable.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// AppendChild appends a child element.
func (n *Node) AppendChild(c *Node) {
	n.Children = append(n.Children, c)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Tag: n.Tag, Text: n.Text}
	if len(n.Attrs) > 0 {
		out.Attrs = make([]Attr, len(n.Attrs))
		copy(out.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	return &Tree{Root: t.Root.Clone()}
}

// Equal reports structural equality: tags match, attributes are equal as
// sets of (name, value) pairs, text matches modulo surrounding whitespace,
// and children are equal element-wise in order.
func (n *Node) Equal(other *Node) bool {
	return firstDiff(n, other, pathOf(n)) == ""
}

// Equal reports structural equality of two trees.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Root.Equal(other.Root)
}

// FirstDiff returns the path of the first structural difference between two
// trees, or "" when they are equal. Paths look like
// Sysmon/EventFiltering/RuleGroup[2]/@onmatch, with [i] marking the i-th
// occurrence (1-based) of a repeated tag among its siblings.
func FirstDiff(a, b *Tree) string {
	switch {
	case a == nil && b == nil:
		return ""
	case a == nil || b == nil:
		return "/"
	}
	return firstDiff(a.Root, b.Root, pathOf(a.Root))
}

func pathOf(n *Node) string {
	if n == nil {
		return "/"
	}
	return n.Tag
}

func firstDiff(a, b *Node, path string) string {
	if a == nil || b == nil {
		if a == b {
			return ""
		}
		return path
	}
	if a.Tag != b.Tag {
		return path
	}
	if strings.TrimSpace(a.Text) != strings.TrimSpace(b.Text) {
		return path + "/#text"
	}
	if len(a.Attrs) != len(b.Attrs) {
		return path + "/@"
	}
	for _, attr := range a.Attrs {
		v, ok := b.Attr(attr.Name)
		if !ok || v != attr.Value {
			return fmt.Sprintf("%s/@%s", path, attr.Name)
		}
	}
	if len(a.Children) != len(b.Children) {
		return fmt.Sprintf("%s/*[%d]", path, min(len(a.Children), len(b.Children))+1)
	}
	counts := map[string]int{}
	for i, ca := range a.Children {
		counts[ca.Tag]++
		childPath := fmt.Sprintf("%s/%s", path, ca.Tag)
		if total := tagCount(a.Children, ca.Tag); total > 1 {
			childPath = fmt.Sprintf("%s/%s[%d]", path, ca.Tag, counts[ca.Tag])
		}
		if d := firstDiff(ca, b.Children[i], childPath); d != "" {
			return d
		}
	}
	return ""
}

func tagCount(nodes []*Node, tag string) int {
	n := 0
	for _, c := range nodes {
		if c.Tag == tag {
			n++
		}
	}
	return n
}
