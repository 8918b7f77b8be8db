package translator

import (
	"fmt"
	"strings"
)

// writeElement renders one element definition from its generated parts.
func writeElement(b *strings.Builder, name string, parts *Parts) {
	fmt.Fprintf(b, "element %s {\n", name)
	b.WriteString("    frequency: 1kHz;\n")
	writeSections(b, parts)
	b.WriteString("}\n")
}

// writeComponent renders one extracted component definition.
func writeComponent(b *strings.Builder, comp *Component) {
	fmt.Fprintf(b, "component %s {\n", comp.Name)
	writeSections(b, comp.Parts)
	b.WriteString("}\n")
}

func writeSections(b *strings.Builder, parts *Parts) {
	if len(parts.Inports) > 0 {
		b.WriteString("\n    input {\n")
		for _, v := range parts.Inports {
			fmt.Fprintf(b, "        %s %s;\n", v.Type, v.Name)
		}
		b.WriteString("    }\n")
	}

	if len(parts.Outports) > 0 {
		b.WriteString("\n    output {\n")
		for _, v := range parts.Outports {
			fmt.Fprintf(b, "        %s %s;\n", v.Type, v.Name)
		}
		b.WriteString("    }\n")
	}

	if len(parts.StateVars) > 0 {
		b.WriteString("\n    state {\n")
		for _, sv := range parts.StateVars {
			if sv.Type == "float" {
				fmt.Fprintf(b, "        float %s = 0.0;", sv.Name)
			} else {
				fmt.Fprintf(b, "        %s %s;", sv.Type, sv.Name)
			}
			if sv.Comment != "" {
				fmt.Fprintf(b, "  // %s", sv.Comment)
			}
			b.WriteString("\n")
		}
		b.WriteString("    }\n")
	}

	// cfg.dt is always present, so the config section always exists.
	b.WriteString("\n    config {\n")
	for _, v := range parts.ConfigVars {
		fmt.Fprintf(b, "        float %s;\n", v)
	}
	b.WriteString("        float dt = 0.001;  // sample time\n")
	b.WriteString("    }\n")

	b.WriteString("\n    update {\n")
	b.WriteString(parts.OperationCode)
	b.WriteString("    }\n")
}
