// Package translator walks the block IR and emits OC text: one element per
// top-level subsystem, with nested subsystems either inlined into the parent
// scope or extracted as reusable components.
package translator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/da0x/oc/ir"
	"github.com/da0x/oc/ir/analyzer"
)

// Config contains configuration settings for code generation.
type Config struct {
	// ExtractSubsystems emits nested subsystems as reusable components
	// instead of inlining their blocks into the parent scope.
	ExtractSubsystems bool
	// MaxInlineDepth bounds recursion into nested subsystems.
	MaxInlineDepth int
}

// DefaultConfig returns the default code generation settings.
func DefaultConfig() *Config {
	return &Config{MaxInlineDepth: 10}
}

// VarDecl is a named, typed variable of a section.
type VarDecl struct {
	Name string
	Type string
}

// StateVar is one entry of the emitted state section.
type StateVar struct {
	Name    string
	Type    string // "float", or "<component>_state" for extracted calls
	Comment string
}

// Parts holds the generated pieces of one element or component, reusable by
// the different output formats.
type Parts struct {
	Inports    []VarDecl
	Outports   []VarDecl
	StateVars  []StateVar
	ConfigVars []string
	// OperationCode is the full update body, comment-tagged per block.
	OperationCode string
	// Components lists extracted components in depth-first order, children
	// before the element that calls them. Empty when inlining.
	Components []*Component
}

// Component is an extracted reusable unit with its own generated parts.
type Component struct {
	Name     string
	SystemID string
	Parts    *Parts
}

// Translate emits the OC definition of the given system inside the named
// namespace. It returns the OC text and any accumulated warnings.
func Translate(model *ir.Model, sys *ir.System, namespace string, config *Config) (string, []error) {
	t := newTranslator(model, config)
	parts := t.generateParts(sys, "")

	var b strings.Builder
	fmt.Fprintf(&b, "namespace %s {\n\n", namespace)
	for _, comp := range parts.Components {
		writeComponent(&b, comp)
		b.WriteString("\n")
	}
	writeElement(&b, elementName(sys), parts)
	b.WriteString("\n")
	fmt.Fprintf(&b, "} // namespace %s\n", namespace)
	return b.String(), t.warnings
}

// GenerateParts produces the structured pieces of one system without
// rendering them to OC text. It is shared with the YAML schema converter.
func GenerateParts(model *ir.Model, sys *ir.System, config *Config) (*Parts, []error) {
	t := newTranslator(model, config)
	parts := t.generateParts(sys, "")
	return parts, t.warnings
}

func elementName(sys *ir.System) string {
	if sys.Name != "" {
		return ir.SanitizeName(sys.Name)
	}
	return ir.SanitizeName(sys.ID)
}

const indent = "        "

type translator struct {
	model  *ir.Model
	config *Config

	stateVars  []StateVar
	configVars map[string]bool

	components     []*Component
	componentNames map[string]string // child system id -> component name

	warnings []error
}

func newTranslator(model *ir.Model, config *Config) *translator {
	if config == nil {
		config = DefaultConfig()
	}
	return &translator{
		model:          model,
		config:         config,
		configVars:     make(map[string]bool),
		componentNames: make(map[string]string),
	}
}

func (t *translator) addWarning(err error) {
	t.warnings = append(t.warnings, err)
}

func (t *translator) generateParts(sys *ir.System, prefix string) *Parts {
	t.stateVars = nil
	t.configVars = make(map[string]bool)

	t.collectVariables(sys, prefix, 0)

	parts := &Parts{}
	for _, inp := range sys.Inports() {
		parts.Inports = append(parts.Inports, VarDecl{Name: ir.SanitizeName(inp.Name), Type: "float"})
	}
	for _, outp := range sys.Outports() {
		parts.Outports = append(parts.Outports, VarDecl{Name: ir.SanitizeName(outp.Name), Type: "float"})
	}
	parts.StateVars = t.stateVars
	parts.ConfigVars = sortedKeys(t.configVars)

	var code strings.Builder
	signals := make(map[string]string)
	for _, inp := range sys.Inports() {
		signals[inp.SID+"#out:1"] = "in." + ir.SanitizeName(inp.Name)
	}

	t.generateSystemCode(sys, prefix, signals, &code, 0)

	// Trailing output assignments, in Outport order.
	code.WriteString("\n" + indent + "// Outputs\n")
	for _, outp := range sys.Outports() {
		if src, ok := t.outportSource(sys, outp, signals); ok {
			fmt.Fprintf(&code, "%sout.%s = %s;\n", indent, ir.SanitizeName(outp.Name), src)
		}
	}

	parts.OperationCode = code.String()
	parts.Components = t.components
	return parts
}

// outportSource finds the signal feeding the given Outport block.
func (t *translator) outportSource(sys *ir.System, outp *ir.Block, signals map[string]string) (string, bool) {
	for i := range sys.Connections {
		conn := &sys.Connections[i]
		for _, dstSpec := range conn.Destinations() {
			dst, err := ir.ParseEndpoint(dstSpec)
			if err != nil || dst.BlockSID != outp.SID {
				continue
			}
			src, err := conn.SourceEndpoint()
			if err != nil {
				continue
			}
			key := src.BlockSID + "#out:" + strconv.Itoa(src.PortIndex)
			if v, ok := signals[key]; ok {
				return v, true
			}
		}
	}
	t.addWarning(fmt.Errorf("system %s: outport %s has no resolved source", sys.ID, outp.Name))
	return "", false
}

// collectVariables walks the system (and nested subsystems) gathering state
// and config variables for the topmost emitted sections.
func (t *translator) collectVariables(sys *ir.System, prefix string, depth int) {
	if depth > t.config.MaxInlineDepth {
		return
	}
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		varPrefix := joinPrefix(prefix, ir.SanitizeName(blk.Name))

		if blk.IsStateful() {
			t.stateVars = append(t.stateVars, StateVar{
				Name:    varPrefix + "_state",
				Type:    "float",
				Comment: blk.Type + " in " + prefixOrRoot(prefix),
			})
		}

		if blk.Type == ir.TransferFcn {
			tf := parseTransferFunction(blk)
			for i := 0; i < tf.Order; i++ {
				t.stateVars = append(t.stateVars, StateVar{
					Name:    fmt.Sprintf("%s_tf_x%d", varPrefix, i),
					Type:    "float",
					Comment: fmt.Sprintf("TransferFcn state %d in %s", i, prefixOrRoot(prefix)),
				})
				t.stateVars = append(t.stateVars, StateVar{
					Name:    fmt.Sprintf("%s_tf_u%d", varPrefix, i),
					Type:    "float",
					Comment: fmt.Sprintf("TransferFcn input history %d", i),
				})
			}
		}

		t.collectConfigFromBlock(blk)

		if blk.IsSubsystem() && blk.SubsystemRef != "" {
			subsys := t.model.System(blk.SubsystemRef)
			if subsys == nil {
				continue
			}
			if t.config.ExtractSubsystems {
				compName := t.componentName(blk, subsys)
				t.stateVars = append(t.stateVars, StateVar{
					Name:    varPrefix,
					Type:    compName + "_state",
					Comment: "component state",
				})
			} else {
				t.collectVariables(subsys, varPrefix, depth+1)
			}
		}
	}
}

// configParamNames lists the recognized block parameters whose free
// identifiers become config variables.
var configParamNames = []string{
	"Gain", "UpperLimit", "LowerLimit", "Value", "InitialCondition",
	"Threshold", "Numerator", "Denominator",
}

func (t *translator) collectConfigFromBlock(blk *ir.Block) {
	for _, pname := range configParamNames {
		if v, ok := blk.Param(pname); ok {
			extractConfigVars(v, t.configVars)
		}
	}
	for _, mp := range blk.MaskParameters {
		extractConfigVars(mp.Value, t.configVars)
	}
}

// matlabBuiltins are never collected as config variables.
var matlabBuiltins = map[string]bool{
	"sqrt": true, "exp": true, "log": true, "log10": true,
	"sin": true, "cos": true, "tan": true, "asin": true, "acos": true, "atan": true,
	"sinh": true, "cosh": true, "tanh": true,
	"abs": true, "floor": true, "ceil": true, "round": true, "mod": true, "sign": true,
	"max": true, "min": true,
	"pi": true, "inf": true, "nan": true, "eps": true,
	"true": true, "false": true,
}

// extractConfigVars adds every free identifier of the expression to vars.
func extractConfigVars(expr string, vars map[string]bool) {
	var current strings.Builder
	flush := func() {
		name := current.String()
		current.Reset()
		if name == "" {
			return
		}
		if c := name[0]; (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return
		}
		if !matlabBuiltins[name] {
			vars[name] = true
		}
	}
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			current.WriteByte(c)
		} else {
			flush()
		}
	}
	flush()
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinPrefix(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

func prefixOrRoot(prefix string) string {
	if prefix == "" {
		return "root"
	}
	return prefix
}

// generateSystemCode emits the update-body statements for one system,
// recording the value name of every block output in signals.
func (t *translator) generateSystemCode(sys *ir.System, prefix string, signals map[string]string, code *strings.Builder, depth int) {
	if depth > t.config.MaxInlineDepth {
		code.WriteString(indent + "// Max inline depth reached\n")
		t.addWarning(fmt.Errorf("system %s: max inline depth %d exceeded", sys.ID, t.config.MaxInlineDepth))
		return
	}

	stateVarBySID := make(map[string]string)
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		if blk.IsStateful() {
			varPrefix := joinPrefix(prefix, ir.SanitizeName(blk.Name))
			stateVarBySID[blk.SID] = "state." + varPrefix + "_state"
		}
	}

	// Pre-assign the value name of every block output so that forward
	// references through state blocks resolve.
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		if blk.IsInport() || blk.IsOutport() {
			continue
		}
		varPrefix := joinPrefix(prefix, ir.SanitizeName(blk.Name))

		if blk.IsSubsystem() {
			for p := 1; p <= blk.PortOut; p++ {
				signals[blk.SID+"#out:"+strconv.Itoa(p)] = varPrefix + "_out" + strconv.Itoa(p)
			}
			continue
		}
		for p := 1; p <= blk.PortOut; p++ {
			key := blk.SID + "#out:" + strconv.Itoa(p)
			if sv, ok := stateVarBySID[blk.SID]; ok {
				signals[key] = sv
			} else if blk.PortOut > 1 {
				signals[key] = varPrefix + "_" + strconv.Itoa(p)
			} else {
				signals[key] = varPrefix
			}
		}
	}

	// Record, per destination block, the source key of each input port.
	inputKeys := make(map[string][]string)
	for i := range sys.Connections {
		conn := &sys.Connections[i]
		src, err := conn.SourceEndpoint()
		if err != nil {
			t.addWarning(fmt.Errorf("system %s: %v", sys.ID, err))
			continue
		}
		srcKey := src.BlockSID + "#out:" + strconv.Itoa(src.PortIndex)
		for _, dstSpec := range conn.Destinations() {
			dst, err := ir.ParseEndpoint(dstSpec)
			if err != nil {
				t.addWarning(fmt.Errorf("system %s: %v", sys.ID, err))
				continue
			}
			keys := inputKeys[dst.BlockSID]
			for len(keys) < dst.PortIndex {
				keys = append(keys, "")
			}
			keys[dst.PortIndex-1] = srcKey
			inputKeys[dst.BlockSID] = keys
		}
	}

	sched, errs := analyzer.BuildSchedule(sys)
	for _, err := range errs {
		t.addWarning(err)
	}

	for _, sid := range sched.Order {
		blk := sys.FindBlockBySID(sid)
		if blk == nil || blk.IsInport() || blk.IsOutport() {
			continue
		}
		varPrefix := joinPrefix(prefix, ir.SanitizeName(blk.Name))
		ctx := &blockContext{
			sys:       sys,
			blk:       blk,
			inputKeys: inputKeys[sid],
			outVar:    signals[sid+"#out:1"],
			varPrefix: varPrefix,
			stateVar:  stateVarBySID[sid],
			signals:   signals,
			depth:     depth,
		}
		t.emitBlock(ctx, code)
	}
}

// blockContext bundles everything block emission needs.
type blockContext struct {
	sys       *ir.System
	blk       *ir.Block
	inputKeys []string
	outVar    string
	varPrefix string
	stateVar  string
	signals   map[string]string
	depth     int
}

// input resolves the value expression feeding input port idx (0-based).
func (ctx *blockContext) input(idx int) string {
	if idx < len(ctx.inputKeys) && ctx.inputKeys[idx] != "" {
		if v, ok := ctx.signals[ctx.inputKeys[idx]]; ok {
			return v
		}
	}
	return fmt.Sprintf("0.0f /* missing input %d */", idx+1)
}

// param returns the formatted value of the named parameter, or def.
func (ctx *blockContext) param(name, def string) string {
	if v, ok := ctx.blk.Param(name); ok {
		return formatParamValue(v)
	}
	return def
}
