package formats

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
)

// jsonNode is the object-notation shape of one element. Attribute order is
// not preserved across JSON; keys are emitted sorted for deterministic
// output.
type jsonNode struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
	Children   []*jsonNode       `json:"children,omitempty"`
}

func parseJSON(data []byte) (*document.Tree, error) {
	var root jsonNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Format: FormatJSON, Err: err}
	}
	node, err := fromJSONNode(&root)
	if err != nil {
		return nil, &ParseError{Format: FormatJSON, Err: err}
	}
	return &document.Tree{Root: node}, nil
}

func fromJSONNode(j *jsonNode) (*document.Node, error) {
	if j.Tag == "" {
		return nil, fmt.Errorf("element with empty tag")
	}
	n := document.NewElement(j.Tag)
	keys := make([]string, 0, len(j.Attributes))
	for k := range j.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.SetAttr(k, j.Attributes[k])
	}
	n.Text = j.Text
	for _, c := range j.Children {
		child, err := fromJSONNode(c)
		if err != nil {
			return nil, err
		}
		n.AppendChild(child)
	}
	return n, nil
}

func serializeJSON(t *document.Tree) ([]byte, error) {
	out, err := json.MarshalIndent(toJSONNode(t.Root), "", "  ")
	if err != nil {
		return nil, &SerializeError{Format: FormatJSON, Err: err}
	}
	return append(out, '\n'), nil
}

func toJSONNode(n *document.Node) *jsonNode {
	j := &jsonNode{Tag: n.Tag, Text: n.Text}
	if len(n.Attrs) > 0 {
		j.Attributes = make(map[string]string, len(n.Attrs))
		for _, a := range n.Attrs {
			j.Attributes[a.Name] = a.Value
		}
	}
	for _, c := range n.Children {
		j.Children = append(j.Children, toJSONNode(c))
	}
	return j
}
