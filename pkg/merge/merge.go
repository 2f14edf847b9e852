// Package merge combines multiple parsed configuration trees into one under
// deterministic, policy-driven conflict resolution. Input order establishes
// precedence: later sources override earlier ones. The reduction is
// intentionally single-threaded; last-wins attribute semantics are not
// associative, so parallelizing would change results.
package merge

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
)

// StructuralError reports inputs or results that violate the merge's
// structural requirements, naming the offending path within the tree.
type StructuralError struct {
	Path   string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("merge structural error at %s: %s", e.Path, e.Reason)
}

// Merge reduces the trees into one. Ownership of the inputs transfers to
// the merge; callers must not reuse them afterwards. Trees are merged in
// slice order, so later entries win attribute conflicts.
func Merge(trees []*document.Tree, p Policy) (*document.Tree, error) {
	if len(trees) == 0 {
		return nil, &StructuralError{Path: "/", Reason: "no input documents"}
	}
	for i, t := range trees {
		if t == nil || t.Root == nil {
			return nil, &StructuralError{Path: "/", Reason: fmt.Sprintf("input %d has no root element", i+1)}
		}
	}

	result := trees[0]
	for _, t := range trees[1:] {
		if p.RequireSameRoot && t.Root.Tag != result.Root.Tag {
			return nil, &StructuralError{
				Path:   t.Root.Tag,
				Reason: fmt.Sprintf("root element mismatch: %s vs %s", result.Root.Tag, t.Root.Tag),
			}
		}
		mergeNode(result.Root, t.Root, p)
	}

	if len(p.DedupTags) > 0 {
		dedup(result.Root, p)
	}
	log.Debug().Int("sources", len(trees)).Str("root", result.Root.Tag).Msg("merge complete")
	return result, nil
}

// mergeNode folds src into dst: attributes union with src winning, text
// overwritten when src carries any, children matched by identity and merged
// recursively or appended as new siblings.
func mergeNode(dst, src *document.Node, p Policy) {
	for _, a := range src.Attrs {
		dst.SetAttr(a.Name, a.Value)
	}
	if strings.TrimSpace(src.Text) != "" {
		dst.Text = src.Text
	}
	for _, child := range src.Children {
		match := findMatch(dst.Children, child, p)
		if match == nil {
			dst.AppendChild(child)
			continue
		}
		if p.replaces(child.Tag) {
			*match = *child
			continue
		}
		mergeNode(match, child, p)
	}
}

// findMatch locates the existing sibling that is the same logical element as
// candidate: same tag, and the configured identity attribute present with
// the same value on both. Tags without a configured identity never match.
func findMatch(siblings []*document.Node, candidate *document.Node, p Policy) *document.Node {
	attr, ok := p.identityAttr(candidate.Tag)
	if !ok {
		return nil
	}
	cv, ok := candidate.Attr(attr)
	if !ok {
		return nil
	}
	for _, s := range siblings {
		if s.Tag != candidate.Tag {
			continue
		}
		if sv, ok := s.Attr(attr); ok && sv == cv {
			return s
		}
	}
	return nil
}

// dedup collapses fully identical children of dedup-listed tags, keeping the
// first occurrence.
func dedup(n *document.Node, p Policy) {
	kept := n.Children[:0]
	for _, child := range n.Children {
		if p.dedups(child.Tag) && containsEqual(kept, child) {
			continue
		}
		kept = append(kept, child)
	}
	n.Children = kept
	for _, child := range n.Children {
		dedup(child, p)
	}
}

func containsEqual(nodes []*document.Node, candidate *document.Node) bool {
	for _, s := range nodes {
		if s.Tag == candidate.Tag && s.Equal(candidate) {
			return true
		}
	}
	return false
}
