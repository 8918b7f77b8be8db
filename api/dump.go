package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/da0x/oc/ir"
)

// dumpSystem prints one system's blocks and connections, recursing into
// subsystems.
func dumpSystem(model *ir.Model, sys *ir.System, depth int) {
	indent := strings.Repeat("  ", depth)

	name := sys.Name
	if name == "" {
		name = sys.ID
	}
	fmt.Printf("%sSystem: %s (%s)\n", indent, name, sys.ID)

	byType := make(map[string][]*ir.Block)
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		byType[blk.Type] = append(byType[blk.Type], blk)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("%s  Blocks (%d):\n", indent, len(sys.Blocks))
	for _, t := range types {
		fmt.Printf("%s    %s x%d\n", indent, t, len(byType[t]))
		for _, blk := range byType[t] {
			fmt.Printf("%s      - %s%s\n", indent, blk.Name, keyParams(blk))
		}
	}

	fmt.Printf("%s  Connections (%d):\n", indent, len(sys.Connections))
	for i := range sys.Connections {
		conn := &sys.Connections[i]
		srcName := endpointName(sys, conn.Source)
		dstName := endpointName(sys, conn.Destination)
		if conn.Name != "" {
			fmt.Printf("%s    %s -> %s [%s]\n", indent, srcName, dstName, conn.Name)
		} else {
			fmt.Printf("%s    %s -> %s\n", indent, srcName, dstName)
		}
		for _, br := range conn.Branches {
			fmt.Printf("%s      -> %s\n", indent, endpointName(sys, br.Destination))
		}
	}

	for _, blk := range sys.Subsystems() {
		if blk.SubsystemRef == "" {
			continue
		}
		if subsys := model.System(blk.SubsystemRef); subsys != nil {
			named := *subsys
			named.Name = blk.Name
			dumpSystem(model, &named, depth+1)
		}
	}
}

// keyParams renders the interesting parameters of a block for the dump.
func keyParams(blk *ir.Block) string {
	show := func(label, param string) string {
		if v, ok := blk.Param(param); ok {
			return fmt.Sprintf(" [%s=%s]", label, v)
		}
		return ""
	}

	switch blk.Type {
	case ir.Gain:
		return show("Gain", "Gain")
	case ir.Sum, ir.Product:
		return show("Inputs", "Inputs")
	case ir.Saturate:
		return show("Upper", "UpperLimit") + show("Lower", "LowerLimit")
	case ir.Constant:
		return show("Value", "Value")
	case ir.RelationalOperator, ir.Logic:
		return show("Op", "Operator")
	case ir.Switch:
		return show("Criteria", "Criteria") + show("Threshold", "Threshold")
	case ir.UnitDelay, ir.DiscreteIntegrator:
		return show("IC", "InitialCondition")
	}
	return ""
}

func endpointName(sys *ir.System, spec string) string {
	ep, err := ir.ParseEndpoint(spec)
	if err != nil {
		return "?"
	}
	blk := sys.FindBlockBySID(ep.BlockSID)
	if blk == nil {
		return "?"
	}
	return fmt.Sprintf("%s:%d", blk.Name, ep.PortIndex)
}
