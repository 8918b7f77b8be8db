package translator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/da0x/oc/ir"
)

// emitBlock writes the statement(s) for one block, preceded by the
// "// <Type>: <Name>" marker the reverse lifter anchors on.
func (t *translator) emitBlock(ctx *blockContext, code *strings.Builder) {
	blk := ctx.blk

	if blk.IsSubsystem() {
		t.emitSubsystem(ctx, code)
		return
	}

	fmt.Fprintf(code, "%s// %s: %s\n", indent, blk.Type, blk.Name)

	switch blk.Type {
	case ir.Gain:
		gain := ctx.param("Gain", "1.0f")
		fmt.Fprintf(code, "%sauto %s = %s * %s;\n", indent, ctx.outVar, ctx.input(0), gain)

	case ir.Sum:
		spec, ok := blk.Param("Inputs")
		if !ok {
			spec = "++"
		}
		fmt.Fprintf(code, "%sauto %s = ", indent, ctx.outVar)
		first := true
		idx := 0
		for _, c := range spec {
			if c != '+' && c != '-' {
				continue
			}
			if !first {
				code.WriteString(" ")
			}
			if c == '-' {
				code.WriteString("- ")
			} else if !first {
				code.WriteString("+ ")
			}
			code.WriteString(ctx.input(idx))
			idx++
			first = false
		}
		code.WriteString(";\n")

	case ir.Product:
		spec, ok := blk.Param("Inputs")
		if !ok {
			spec = "**"
		}
		if !strings.ContainsRune(spec, '*') && strings.ContainsRune(spec, '/') {
			t.addWarning(fmt.Errorf("block %s: product Inputs spec %q has no multiply", blk.Name, spec))
		}
		fmt.Fprintf(code, "%sauto %s = ", indent, ctx.outVar)
		first := true
		idx := 0
		for _, c := range spec {
			if c != '*' && c != '/' {
				continue
			}
			if !first {
				if c == '*' {
					code.WriteString(" * ")
				} else {
					code.WriteString(" / ")
				}
			}
			code.WriteString(ctx.input(idx))
			idx++
			first = false
		}
		if idx == 0 {
			fmt.Fprintf(code, "%s * %s", ctx.input(0), ctx.input(1))
		}
		code.WriteString(";\n")

	case ir.Saturate:
		upper := ctx.param("UpperLimit", "1.0f")
		lower := ctx.param("LowerLimit", "-1.0f")
		fmt.Fprintf(code, "%sauto %s = std::clamp(%s, %s, %s);\n",
			indent, ctx.outVar, ctx.input(0), lower, upper)

	case ir.MinMax:
		fn, _ := blk.Param("Function")
		name := "std::min"
		if fn == "max" || fn == "Max" {
			name = "std::max"
		}
		fmt.Fprintf(code, "%sauto %s = %s(%s, %s);\n",
			indent, ctx.outVar, name, ctx.input(0), ctx.input(1))

	case ir.Abs:
		fmt.Fprintf(code, "%sauto %s = std::abs(%s);\n", indent, ctx.outVar, ctx.input(0))

	case ir.Constant:
		value := ctx.param("Value", "0.0f")
		fmt.Fprintf(code, "%sauto %s = %s;\n", indent, ctx.outVar, value)

	case ir.UnitDelay, ir.Memory:
		// The output already reads from the state variable; only the
		// next-step update is emitted here.
		fmt.Fprintf(code, "%s%s = %s;  // update for next step\n", indent, ctx.stateVar, ctx.input(0))

	case ir.Integrator, ir.DiscreteIntegrator:
		fmt.Fprintf(code, "%s%s += %s * cfg.dt;\n", indent, ctx.stateVar, ctx.input(0))

	case ir.RelationalOperator:
		op, ok := blk.Param("Operator")
		if !ok {
			op = "=="
		}
		if op == "~=" {
			op = "!="
		}
		fmt.Fprintf(code, "%sauto %s = (%s %s %s) ? 1.0f : 0.0f;\n",
			indent, ctx.outVar, ctx.input(0), op, ctx.input(1))

	case ir.Logic:
		op, ok := blk.Param("Operator")
		if !ok {
			op = "AND"
		}
		if op == "NOT" {
			fmt.Fprintf(code, "%sauto %s = (%s == 0.0f) ? 1.0f : 0.0f;\n",
				indent, ctx.outVar, ctx.input(0))
		} else {
			logicOp := "&&"
			switch op {
			case "OR":
				logicOp = "||"
			case "XOR":
				logicOp = "!="
			}
			fmt.Fprintf(code, "%sauto %s = ((%s != 0.0f) %s (%s != 0.0f)) ? 1.0f : 0.0f;\n",
				indent, ctx.outVar, ctx.input(0), logicOp, ctx.input(1))
		}

	case ir.Switch:
		threshold := ctx.param("Threshold", "0.0f")
		criteria, _ := blk.Param("Criteria")
		var cond string
		switch {
		case strings.Contains(criteria, ">="):
			cond = ctx.input(1) + " >= " + threshold
		case strings.Contains(criteria, ">"):
			cond = ctx.input(1) + " > " + threshold
		case strings.Contains(criteria, "!=") || strings.Contains(criteria, "~="):
			cond = ctx.input(1) + " != " + threshold
		default:
			cond = ctx.input(1) + " != 0.0f"
		}
		fmt.Fprintf(code, "%sauto %s = (%s) ? %s : %s;\n",
			indent, ctx.outVar, cond, ctx.input(0), ctx.input(2))

	case ir.Trigonometry:
		fn, ok := blk.Param("Operator")
		if !ok {
			fn = "sin"
		}
		if fn == "atan2" {
			fmt.Fprintf(code, "%sauto %s = std::atan2(%s, %s);\n",
				indent, ctx.outVar, ctx.input(0), ctx.input(1))
		} else {
			fmt.Fprintf(code, "%sauto %s = std::%s(%s);\n", indent, ctx.outVar, fn, ctx.input(0))
		}

	case ir.Math:
		fn, ok := blk.Param("Operator")
		if !ok {
			fn = "sqrt"
		}
		switch fn {
		case "sqrt", "exp", "log", "log10":
			fmt.Fprintf(code, "%sauto %s = std::%s(%s);\n", indent, ctx.outVar, fn, ctx.input(0))
		case "square":
			fmt.Fprintf(code, "%sauto %s = %s * %s;\n", indent, ctx.outVar, ctx.input(0), ctx.input(0))
		case "pow":
			fmt.Fprintf(code, "%sauto %s = std::pow(%s, %s);\n",
				indent, ctx.outVar, ctx.input(0), ctx.input(1))
		default:
			fmt.Fprintf(code, "%sauto %s = %s; // TODO: Math/%s\n", indent, ctx.outVar, ctx.input(0), fn)
			t.addWarning(fmt.Errorf("block %s: unsupported Math operator %q", blk.Name, fn))
		}

	case ir.TransferFcn:
		t.emitTransferFcn(ctx, code)

	case ir.Derivative:
		fmt.Fprintf(code, "%sauto %s = %s; // TODO: Derivative needs previous value\n",
			indent, ctx.outVar, ctx.input(0))

	case ir.Demux:
		// Comment-only: each output slot shares the scalar input.
		for p := 1; p <= blk.PortOut; p++ {
			ctx.signals[blk.SID+"#out:"+strconv.Itoa(p)] =
				fmt.Sprintf("%s /* demux %d */", ctx.input(0), p)
		}

	case ir.Mux:
		// Narrow by design: a Mux forwards its first input only.
		fmt.Fprintf(code, "%sauto %s = %s; // Mux\n", indent, ctx.outVar, ctx.input(0))

	default:
		fmt.Fprintf(code, "%sauto %s = %s; // TODO: %s\n", indent, ctx.outVar, ctx.input(0), blk.Type)
		t.addWarning(fmt.Errorf("system %s: unknown block type %s (%s), emitted pass-through",
			ctx.sys.ID, blk.Type, blk.Name))
	}
}

// emitSubsystem dispatches on the configured subsystem handling mode.
func (t *translator) emitSubsystem(ctx *blockContext, code *strings.Builder) {
	blk := ctx.blk
	subsys := (*ir.System)(nil)
	if blk.SubsystemRef != "" {
		subsys = t.model.System(blk.SubsystemRef)
	}
	if subsys == nil {
		fmt.Fprintf(code, "%s// SubSystem: %s (not found)\n", indent, blk.Name)
		fmt.Fprintf(code, "%sauto %s = %s;\n", indent, ctx.outVar, ctx.input(0))
		t.addWarning(fmt.Errorf("system %s: subsystem %s references unknown system %q",
			ctx.sys.ID, blk.Name, blk.SubsystemRef))
		return
	}
	if t.config.ExtractSubsystems {
		t.emitComponentCall(ctx, subsys, code)
	} else {
		t.emitSubsystemInline(ctx, subsys, code)
	}
}

// emitSubsystemInline copies the child system's blocks into the parent scope
// under the block's variable prefix.
func (t *translator) emitSubsystemInline(ctx *blockContext, subsys *ir.System, code *strings.Builder) {
	blk := ctx.blk
	fmt.Fprintf(code, "%s// --- Subsystem: %s ---\n", indent, blk.Name)

	subSignals := make(map[string]string, len(ctx.signals))
	for k, v := range ctx.signals {
		subSignals[k] = v
	}
	for i, inp := range subsys.Inports() {
		key := inp.SID + "#out:1"
		if i < len(ctx.inputKeys) && ctx.inputKeys[i] != "" {
			subSignals[key] = ctx.input(i)
		} else {
			subSignals[key] = "0.0f /* missing subsystem input */"
		}
	}

	t.generateSystemCode(subsys, ctx.varPrefix, subSignals, code, ctx.depth+1)

	for i, outp := range subsys.Outports() {
		value := "0.0f /* unmapped outport */"
		if src, ok := t.outportSource(subsys, outp, subSignals); ok {
			value = src
		}
		alias := fmt.Sprintf("%s_out%d", ctx.varPrefix, i+1)
		fmt.Fprintf(code, "%sauto %s = %s;\n", indent, alias, value)
		ctx.signals[blk.SID+"#out:"+strconv.Itoa(i+1)] = alias
	}

	fmt.Fprintf(code, "%s// --- End: %s ---\n", indent, blk.Name)
}

// componentName returns (and reserves) the component name for a child
// system. One component is emitted per child system, generated on first use.
func (t *translator) componentName(blk *ir.Block, subsys *ir.System) string {
	if name, ok := t.componentNames[subsys.ID]; ok {
		return name
	}
	name := ir.SanitizeName(blk.Name)
	if subsys.Name != "" {
		name = ir.SanitizeName(subsys.Name)
	}
	t.componentNames[subsys.ID] = name

	// Generate the component body with a fresh translator that shares the
	// component registry, so nested extractions land depth-first.
	sub := newTranslator(t.model, t.config)
	sub.components = t.components
	sub.componentNames = t.componentNames
	parts := sub.generateParts(subsys, "")
	t.warnings = append(t.warnings, sub.warnings...)
	t.components = append(sub.components, &Component{Name: name, SystemID: subsys.ID, Parts: parts})
	return name
}

// emitComponentCall emits the three-line call pattern plus one output
// extraction per child outport.
func (t *translator) emitComponentCall(ctx *blockContext, subsys *ir.System, code *strings.Builder) {
	blk := ctx.blk
	compName := t.componentName(blk, subsys)

	fmt.Fprintf(code, "%s// Component call: %s\n", indent, blk.Name)

	inports := subsys.Inports()
	var fields []string
	for i, inp := range inports {
		fields = append(fields, fmt.Sprintf(".%s = %s", ir.SanitizeName(inp.Name), ctx.input(i)))
	}
	fmt.Fprintf(code, "%s%s_input %s_in{%s};\n", indent, compName, ctx.varPrefix, strings.Join(fields, ", "))
	fmt.Fprintf(code, "%s%s_output %s_out{};\n", indent, compName, ctx.varPrefix)
	fmt.Fprintf(code, "%s%s_update(%s_in, %s_config{}, state.%s, %s_out);\n",
		indent, compName, ctx.varPrefix, compName, ctx.varPrefix, ctx.varPrefix)

	for i, outp := range subsys.Outports() {
		alias := fmt.Sprintf("%s_out%d", ctx.varPrefix, i+1)
		fmt.Fprintf(code, "%sauto %s = %s_out.%s;\n",
			indent, alias, ctx.varPrefix, ir.SanitizeName(outp.Name))
		ctx.signals[blk.SID+"#out:"+strconv.Itoa(i+1)] = alias
	}
}

// formatFloat renders a coefficient as a float literal.
func formatFloat(v float64) string {
	return fmt.Sprintf("%.6ff", v)
}

// formatParamValue maps a MATLAB-flavored parameter value to its emitted
// form: known constants are replaced, and a bare identifier becomes a config
// reference.
func formatParamValue(value string) string {
	if value == "" {
		return "0.0f"
	}
	result := replaceWord(value, "pi", "3.14159265358979f")
	result = replaceWord(result, "inf", "std::numeric_limits<float>::infinity()")
	result = replaceWord(result, "eps", "std::numeric_limits<float>::epsilon()")

	if isIdentifier(result) {
		return "cfg." + result
	}
	return result
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// replaceWord substitutes whole-word occurrences of from within s.
func replaceWord(s, from, to string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		j := strings.Index(s[i:], from)
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		j += i
		end := j + len(from)
		startOK := j == 0 || !isWordByte(s[j-1])
		endOK := end >= len(s) || !isWordByte(s[end])
		b.WriteString(s[i:j])
		if startOK && endOK {
			b.WriteString(to)
		} else {
			b.WriteString(from)
		}
		i = end
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
