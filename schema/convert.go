package schema

import (
	"strconv"
	"strings"

	"github.com/da0x/oc/ir"
	"github.com/da0x/oc/translator"
)

// Convert projects one system into an element schema. Workspace variables
// referenced by block and mask parameters become CONFIG signals; stateful
// blocks contribute STATE signals; the generated function breakdown comes
// from the code generator in extraction mode.
func Convert(model *ir.Model, sys *ir.System, libraryName string) (*Element, []error) {
	schema := &Element{
		Name:          elementName(sys),
		ParentLibrary: libraryName,
		Description:   "Imported from Simulink subsystem " + sys.ID,
	}

	for _, inp := range sys.Inports() {
		schema.Inputs = append(schema.Inputs, portSignal(inp, "Input port "))
	}
	for _, outp := range sys.Outports() {
		schema.Outputs = append(schema.Outputs, portSignal(outp, "Output port "))
	}

	seen := make(map[string]bool)
	collectConfigAndState(model, sys, schema, seen, 0)

	config := translator.DefaultConfig()
	config.ExtractSubsystems = true
	parts, errs := translator.GenerateParts(model, sys, config)

	for _, comp := range parts.Components {
		schema.Functions = append(schema.Functions, partsFunction(comp.Name, comp.Parts))
	}
	schema.Functions = append(schema.Functions, partsFunction(schema.Name, parts))

	return schema, errs
}

func elementName(sys *ir.System) string {
	if sys.Name != "" {
		return ir.SanitizeName(sys.Name)
	}
	return ir.SanitizeName(sys.ID)
}

// portSignal reads an Inport/Outport block, recognizing array names like
// "speed[4]".
func portSignal(blk *ir.Block, descPrefix string) Signal {
	sig := Signal{
		Name:        ir.SanitizeName(blk.Name),
		Description: descPrefix + blk.Name,
		Type:        "float",
		Default:     "0.0f",
	}
	if open := strings.Index(blk.Name, "["); open >= 0 {
		if end := strings.Index(blk.Name[open:], "]"); end > 0 {
			if n, err := strconv.Atoi(blk.Name[open+1 : open+end]); err == nil {
				sig.ArraySize = n
				sig.Name = ir.SanitizeName(blk.Name[:open])
			}
		}
	}
	return sig
}

func partsFunction(name string, parts *translator.Parts) Function {
	fn := Function{Name: name}
	for _, v := range parts.Inports {
		fn.Inputs = append(fn.Inputs, Signal{Name: v.Name, Type: v.Type, Default: "0.0f"})
	}
	for _, v := range parts.Outports {
		fn.Outputs = append(fn.Outputs, Signal{Name: v.Name, Type: v.Type, Default: "0.0f"})
	}
	for _, sv := range parts.StateVars {
		sig := Signal{Name: sv.Name, Description: sv.Comment, Type: sv.Type}
		if sv.Type == "float" {
			sig.Default = "0.0f"
		}
		fn.State = append(fn.State, sig)
	}
	for _, v := range parts.ConfigVars {
		fn.Config = append(fn.Config, Signal{Name: v, Type: "float", Default: "0.0f"})
	}
	fn.Config = append(fn.Config, Signal{Name: "dt", Type: "float", Default: "0.001"})
	return fn
}

// schemaParamNames lists the block parameters scanned for workspace
// variables.
var schemaParamNames = []string{
	"Gain", "UpperLimit", "LowerLimit", "Value", "InitialCondition",
	"SampleTime", "Threshold", "OnSwitchValue", "OffSwitchValue",
}

func collectConfigAndState(model *ir.Model, sys *ir.System, schema *Element, seen map[string]bool, depth int) {
	if depth > 10 {
		return
	}

	for i := range sys.Blocks {
		blk := &sys.Blocks[i]

		for _, mp := range blk.MaskParameters {
			if seen[mp.Name] {
				continue
			}
			seen[mp.Name] = true
			desc := mp.Prompt
			if desc == "" {
				desc = mp.Name
			}
			def := mp.Value
			if def == "" {
				def = "0.0f"
			}
			schema.Config = append(schema.Config, Signal{
				Name:        mp.Name,
				Description: desc,
				Type:        "float",
				Default:     def,
			})
		}

		for _, pname := range schemaParamNames {
			val, ok := blk.Param(pname)
			if !ok || val == "" {
				continue
			}
			for _, v := range workspaceVars(val) {
				if seen[v] {
					continue
				}
				seen[v] = true
				schema.Config = append(schema.Config, Signal{
					Name:        v,
					Description: "Workspace variable used in " + blk.Name + "." + pname,
					Type:        "float",
					Default:     "0.0f",
				})
			}
		}
		for _, mp := range blk.MaskParameters {
			for _, v := range workspaceVars(mp.Value) {
				if seen[v] {
					continue
				}
				seen[v] = true
				schema.Config = append(schema.Config, Signal{
					Name:        v,
					Description: "Workspace variable used in " + blk.Name + "." + mp.Name,
					Type:        "float",
					Default:     "0.0f",
				})
			}
		}

		if blk.IsStateful() {
			stateName := ir.SanitizeName(blk.Name) + "_state"
			if !seen[stateName] {
				seen[stateName] = true
				schema.State = append(schema.State, Signal{
					Name:        stateName,
					Description: "State for " + blk.Name,
					Type:        "float",
					Default:     "0.0f",
				})
			}
		}

		if blk.IsSubsystem() && blk.SubsystemRef != "" {
			if subsys := model.System(blk.SubsystemRef); subsys != nil {
				collectConfigAndState(model, subsys, schema, seen, depth+1)
			}
		}
	}
}

// matlabBuiltins covers the names never treated as workspace variables.
var matlabBuiltins = map[string]bool{
	"sqrt": true, "exp": true, "log": true, "log10": true,
	"sin": true, "cos": true, "tan": true, "asin": true, "acos": true,
	"atan": true, "atan2": true, "sinh": true, "cosh": true, "tanh": true,
	"abs": true, "floor": true, "ceil": true, "round": true, "mod": true,
	"rem": true, "sign": true, "max": true, "min": true, "sum": true,
	"prod": true, "mean": true, "std": true, "var": true,
	"real": true, "imag": true, "conj": true, "angle": true, "complex": true,
	"pi": true, "inf": true, "nan": true, "eps": true, "i": true, "j": true,
	"true": true, "false": true, "zeros": true, "ones": true, "eye": true,
	"rand": true, "randn": true, "length": true, "size": true, "numel": true,
	"reshape": true, "transpose": true, "on": true, "off": true, "auto": true,
}

// workspaceVars extracts the free identifiers of a parameter expression.
func workspaceVars(expr string) []string {
	var vars []string
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
			vars = append(vars, name)
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
	return vars
}
