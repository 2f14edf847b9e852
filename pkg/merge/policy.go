package merge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy controls how elements from different source documents are
// reconciled.
type Policy struct {
	// IdentityAttrs maps a tag to the attribute that identifies a logical
	// element of that tag. Two elements merge only when the tag has an
	// identity attribute configured and both carry the same value for it;
	// everything else stays a distinct sibling.
	IdentityAttrs map[string]string `yaml:"identity_attrs"`

	// ReplaceTags lists tags where a later source replaces the matched
	// element wholesale instead of recursing.
	ReplaceTags []string `yaml:"replace_tags"`

	// DedupTags lists tags whose fully identical occurrences (same
	// attributes, same subtree) are collapsed to one after the merge.
	DedupTags []string `yaml:"dedup_tags"`

	// RequireSameRoot rejects inputs whose root tags differ.
	RequireSameRoot bool `yaml:"require_same_root"`
}

// LoadPolicy reads a merge policy from a YAML file.
func LoadPolicy(path string) (Policy, error) {
	var p Policy
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	return p, nil
}

func (p Policy) identityAttr(tag string) (string, bool) {
	attr, ok := p.IdentityAttrs[tag]
	return attr, ok && attr != ""
}

func (p Policy) replaces(tag string) bool {
	for _, t := range p.ReplaceTags {
		if t == tag {
			return true
		}
	}
	return false
}

func (p Policy) dedups(tag string) bool {
	for _, t := range p.DedupTags {
		if t == tag {
			return true
		}
	}
	return false
}
