package formats

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
)

func parseXML(data []byte) (*document.Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ParseError{Format: FormatXML, Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ParseError{Format: FormatXML, Err: fmt.Errorf("no root element")}
	}
	return &document.Tree{Root: fromElement(root)}, nil
}

func fromElement(el *etree.Element) *document.Node {
	n := document.NewElement(el.Tag)
	for _, a := range el.Attr {
		name := a.Key
		if a.Space != "" {
			name = a.Space + ":" + a.Key
		}
		n.SetAttr(name, a.Value)
	}
	// Indentation between child elements is cosmetic, not content.
	n.Text = strings.TrimSpace(el.Text())
	for _, child := range el.ChildElements() {
		n.AppendChild(fromElement(child))
	}
	return n
}

func serializeXML(t *document.Tree) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	toElement(&doc.Element, t.Root)
	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, &SerializeError{Format: FormatXML, Err: err}
	}
	return out, nil
}

func toElement(parent *etree.Element, n *document.Node) {
	el := parent.CreateElement(n.Tag)
	for _, a := range n.Attrs {
		el.CreateAttr(a.Name, a.Value)
	}
	if n.Text != "" {
		el.SetText(n.Text)
	}
	for _, child := range n.Children {
		toElement(el, child)
	}
}
