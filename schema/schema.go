// Package schema exports element schemas in the ancillary YAML format: one
// document per element with IN/CONFIG/OUT/STATE signal groups and the
// per-function breakdown.
package schema

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// Signal is one named signal of a group.
type Signal struct {
	Name        string
	Description string
	Type        string
	ArraySize   int
	Default     string
	Units       string
}

// Function is the schema of one generated update function.
type Function struct {
	Name    string
	Inputs  []Signal
	Outputs []Signal
	State   []Signal
	Config  []Signal
}

// Element is the complete schema of one element.
type Element struct {
	Name          string
	Description   string
	ParentLibrary string

	Inputs    []Signal
	Config    []Signal
	Outputs   []Signal
	State     []Signal
	Functions []Function
}

// Write renders the schema as a YAML document.
func Write(schema *Element) (string, error) {
	root := mapping()

	meta := mapping()
	appendPair(meta, "name", strNode(schema.Name))
	appendPair(meta, "type", strNode("A"))
	appendPair(meta, "revision", intNode(0))
	appendPair(meta, "format_version", floatNode("0.0"))
	appendPair(meta, "description", quotedNode(schema.Description))
	appendPair(meta, "parent_library", quotedNode(schema.ParentLibrary))
	appendPair(meta, "category", quotedNode("element"))
	appendPair(root, "metadata", meta)

	if len(schema.Inputs) > 0 {
		appendPair(root, "IN", signalGroup("inputs_group", "", schema.Inputs))
	}
	if len(schema.Config) > 0 {
		appendPair(root, "CONFIG", signalGroup("config_group", "Configuration parameters", schema.Config))
	}
	if len(schema.Outputs) > 0 {
		appendPair(root, "OUT", signalGroup("outputs_group", "", schema.Outputs))
	}
	if len(schema.State) > 0 {
		appendPair(root, "STATE", signalGroup("state_group", "", schema.State))
	}

	if len(schema.Functions) > 0 {
		functions := mapping()
		for _, fn := range schema.Functions {
			appendPair(functions, fn.Name, functionNode(fn))
		}
		appendPair(root, "FUNCTIONS", functions)
	}

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return "---\n" + string(data), nil
}

func signalGroup(use, description string, signals []Signal) *yaml.Node {
	group := mapping()
	appendPair(group, "use", strNode(use))
	if description != "" {
		appendPair(group, "description", quotedNode(description))
	}
	sigs := mapping()
	for _, sig := range signals {
		entry := mapping()
		appendPair(entry, "description", quotedNode(sig.Description))
		appendPair(entry, "type", strNode(sig.Type))
		if sig.ArraySize > 0 {
			appendPair(entry, "array", intNode(sig.ArraySize))
		}
		if sig.Default != "" {
			appendPair(entry, "default", strNode(sig.Default))
		}
		if sig.Units != "" {
			appendPair(entry, "units", quotedNode(sig.Units))
		}
		appendPair(sigs, sig.Name, entry)
	}
	appendPair(group, "signals", sigs)
	return group
}

func functionNode(fn Function) *yaml.Node {
	node := mapping()
	groups := []struct {
		key     string
		signals []Signal
	}{
		{"IN", fn.Inputs},
		{"OUT", fn.Outputs},
		{"STATE", fn.State},
		{"CONFIG", fn.Config},
	}
	for _, group := range groups {
		if len(group.signals) == 0 {
			continue
		}
		sigs := mapping()
		for _, sig := range group.signals {
			entry := mapping()
			entry.Style = yaml.FlowStyle
			appendPair(entry, "type", strNode(sig.Type))
			if sig.Default != "" {
				appendPair(entry, "default", strNode(sig.Default))
			}
			appendPair(sigs, sig.Name, entry)
		}
		appendPair(node, group.key, sigs)
	}
	return node
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, strNode(key), value)
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

func quotedNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s, Style: yaml.SingleQuotedStyle}
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(v), Tag: "!!int"}
}

func floatNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v, Tag: "!!float"}
}
