// Package sysmon holds the domain rules for Sysmon configuration documents:
// which tree shapes are structurally valid, and how modular fragments are
// identified when merged.
package sysmon

import (
	"fmt"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/merge"
)

// Event filtering rule containers and the event types they wrap.
const (
	RootTag           = "Sysmon"
	EventFilteringTag = "EventFiltering"
	RuleGroupTag      = "RuleGroup"
)

// eventTypes are the Sysmon event elements that must live inside a
// RuleGroup.
var eventTypes = map[string]bool{
	"ProcessCreate":          true,
	"FileCreateTime":         true,
	"NetworkConnect":         true,
	"ProcessTerminate":       true,
	"DriverLoad":             true,
	"ImageLoad":              true,
	"CreateRemoteThread":     true,
	"RawAccessRead":          true,
	"ProcessAccess":          true,
	"FileCreate":             true,
	"RegistryEvent":          true,
	"FileCreateStreamHash":   true,
	"PipeEvent":              true,
	"WmiEvent":               true,
	"DnsQuery":               true,
	"FileDelete":             true,
	"ClipboardChange":        true,
	"ProcessTampering":       true,
	"FileDeleteDetected":     true,
	"FileBlockExecutable":    true,
	"FileBlockShredding":     true,
	"FileExecutableDetected": true,
}

// ValidationError reports a structural rule violation at a specific path in
// the tree.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid sysmon config at %s: %s", e.Path, e.Reason)
}

// Validate checks the structural rules a Sysmon configuration must satisfy:
// the root element is Sysmon, RuleGroup elements live under EventFiltering,
// event-type elements are wrapped in a RuleGroup, and an EventFiltering
// section contains at least one RuleGroup.
func Validate(t *document.Tree) error {
	if t == nil || t.Root == nil {
		return &ValidationError{Path: "/", Reason: "empty document"}
	}
	root := t.Root
	if root.Tag != RootTag {
		return &ValidationError{Path: root.Tag, Reason: fmt.Sprintf("root element must be %s", RootTag)}
	}
	for _, child := range root.Children {
		path := RootTag + "/" + child.Tag
		switch {
		case child.Tag == EventFilteringTag:
			if err := validateEventFiltering(child, path); err != nil {
				return err
			}
		case child.Tag == RuleGroupTag:
			return &ValidationError{Path: path, Reason: "RuleGroup must be wrapped in an EventFiltering element"}
		case eventTypes[child.Tag]:
			return &ValidationError{Path: path, Reason: "event filtering rules must be wrapped in an EventFiltering element"}
		}
	}
	return nil
}

func validateEventFiltering(ef *document.Node, path string) error {
	groups := 0
	for _, child := range ef.Children {
		childPath := path + "/" + child.Tag
		switch {
		case child.Tag == RuleGroupTag:
			groups++
		case eventTypes[child.Tag]:
			return &ValidationError{Path: childPath, Reason: "event type must be wrapped in a RuleGroup element"}
		}
	}
	if groups == 0 {
		return &ValidationError{Path: path, Reason: "EventFiltering requires at least one RuleGroup"}
	}
	return nil
}

// DefaultPolicy is the merge policy for Sysmon configs: rule groups and
// named rules match by their name attribute, event types match by onmatch so
// include/exclude sections from different fragments fold together, and
// duplicate rule groups collapse after the merge.
func DefaultPolicy() merge.Policy {
	p := merge.Policy{
		IdentityAttrs: map[string]string{
			RuleGroupTag: "name",
			"Rule":       "name",
		},
		DedupTags:       []string{RuleGroupTag},
		RequireSameRoot: true,
	}
	for tag := range eventTypes {
		p.IdentityAttrs[tag] = "onmatch"
	}
	return p
}
