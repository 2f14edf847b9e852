package cmds

import (
	"context"
	"fmt"
	"os"
	"strings"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"gopkg.in/yaml.v3"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/cmdutil"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/preprocess"
)

type TreeCommand struct{ *gcmds.CommandDescription }

type TreeSettings struct {
	Input    string   `glazed.parameter:"input"`
	Depth    int      `glazed.parameter:"depth"`
	Sections []string `glazed.parameter:"sections"`
}

func NewTreeCommand() (*TreeCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"tree",
		gcmds.WithShort("Print the parsed structure of a config as YAML"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("input", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithShortFlag("i"), parameters.WithHelp("Config file (XML or JSON)")),
			parameters.NewParameterDefinition("depth", parameters.ParameterTypeInteger, parameters.WithDefault(0), parameters.WithHelp("Max depth (0 = unlimited)")),
			parameters.NewParameterDefinition("sections", parameters.ParameterTypeStringList, parameters.WithHelp("Only print these top-level sections; default all")),
		),
		gcmds.WithLayersList(layer),
	)
	return &TreeCommand{cd}, nil
}

func (c *TreeCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &TreeSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}

	format, err := formats.Detect(s.Input)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(s.Input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.Input, err)
	}
	if format == formats.FormatXML {
		if data, err = preprocess.Clean(data); err != nil {
			return fmt.Errorf("preprocessing %s: %w", s.Input, err)
		}
	}
	tree, err := formats.Parse(data, format)
	if err != nil {
		return err
	}

	root := tree.Root
	root.Children = cmdutil.Filter(root.Children, s.Sections, func(n *document.Node) string { return n.Tag })

	out, err := yaml.Marshal(map[string]interface{}{root.Tag: nodeYAML(root, s.Depth, 1)})
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// nodeYAML renders a node as nested maps: attributes prefixed with '@',
// text under '#text', children as a list keyed by tag.
func nodeYAML(n *document.Node, maxDepth, depth int) interface{} {
	m := map[string]interface{}{}
	for _, a := range n.Attrs {
		m["@"+a.Name] = a.Value
	}
	if text := strings.TrimSpace(n.Text); text != "" {
		m["#text"] = text
	}
	if len(n.Children) > 0 {
		if maxDepth > 0 && depth >= maxDepth {
			m["children"] = fmt.Sprintf("(%d elided)", len(n.Children))
		} else {
			children := make([]interface{}, 0, len(n.Children))
			for _, child := range n.Children {
				children = append(children, map[string]interface{}{child.Tag: nodeYAML(child, maxDepth, depth+1)})
			}
			m["children"] = children
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

var _ gcmds.BareCommand = &TreeCommand{}
