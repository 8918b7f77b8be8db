// Package lifter reconstructs block systems from OC update bodies. It is a
// line-oriented reader over the disciplined, comment-tagged form the forward
// code generator emits; it makes no attempt to parse arbitrary OC.
package lifter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/da0x/oc/ir"
	"github.com/da0x/oc/oc"
)

// Result is one lifted system plus the child systems recovered from
// component calls, depth-first.
type Result struct {
	System      *ir.System
	Children    []*ir.System
	Diagnostics []error
}

// LiftElement reconstructs the system described by an element's update body.
// sysCounter allocates ids for child systems recovered from component calls.
func LiftElement(elem *oc.Element, components []oc.Component, sysCounter *int) *Result {
	return lift(elem.Name, elem.Sections, elem.Update, components, sysCounter)
}

// LiftComponent reconstructs the system described by a component's update
// body.
func LiftComponent(comp *oc.Component, components []oc.Component, sysCounter *int) *Result {
	return lift(comp.Name, comp.Sections, comp.Update, components, sysCounter)
}

// endpointRef locates the producing output port of a known value name.
type endpointRef struct {
	sid  string
	port int
}

// rawConn is a single source-to-destination wire before fan-out grouping.
type rawConn struct {
	srcSID  string
	srcPort int
	dstSID  string
	dstPort int
}

type lifterState struct {
	components []oc.Component
	sysCounter *int

	blocks []ir.Block
	conns  []rawConn
	varMap map[string]endpointRef

	nextSID int

	stateVars []prescanStateVar
	tfData    map[string]prescanTF

	children    []*ir.System
	diagnostics []error
}

func lift(name string, sections []oc.Section, update oc.UpdateBody, components []oc.Component, sysCounter *int) *Result {
	ls := &lifterState{
		components: components,
		sysCounter: sysCounter,
		varMap:     make(map[string]endpointRef),
		tfData:     make(map[string]prescanTF),
		nextSID:    1,
	}

	lines := strings.Split(update.Raw, "\n")

	// Inports first: in.<x> resolves to the matching inport output.
	for portNum, v := range oc.SectionVars(sections, "input") {
		blk := ir.Block{
			Type:    ir.Inport,
			Name:    v.Name,
			SID:     ls.allocSID(),
			PortOut: 1,
		}
		if portNum > 0 {
			blk.SetParam("Port", strconv.Itoa(portNum+1))
		}
		ls.blocks = append(ls.blocks, blk)
		ls.define("in."+v.Name, endpointRef{blk.SID, 1})
	}

	ls.prescan(lines)
	ls.mainPass(lines)

	// Outports last, wired from the trailing // Outputs section.
	assignments := extractOutputAssignments(lines)
	for portNum, v := range oc.SectionVars(sections, "output") {
		blk := ir.Block{
			Type:   ir.Outport,
			Name:   v.Name,
			SID:    ls.allocSID(),
			PortIn: 1,
		}
		if portNum > 0 {
			blk.SetParam("Port", strconv.Itoa(portNum+1))
		}
		ls.blocks = append(ls.blocks, blk)

		src, ok := assignments[v.Name]
		if !ok {
			continue
		}
		if ref, ok := ls.varMap[src]; ok {
			ls.connect(ref, blk.SID, 1)
		} else {
			ls.diag("output %s: unresolved source %q", v.Name, src)
		}
	}

	sys := &ir.System{
		Name:             name,
		SIDHighWatermark: ls.nextSID - 1,
		Blocks:           ls.blocks,
	}
	sys.Connections = groupConnections(ls.conns)

	return &Result{System: sys, Children: ls.children, Diagnostics: ls.diagnostics}
}

func (ls *lifterState) allocSID() string {
	sid := strconv.Itoa(ls.nextSID)
	ls.nextSID++
	return sid
}

func (ls *lifterState) define(name string, ref endpointRef) {
	ls.varMap[name] = ref
}

func (ls *lifterState) connect(src endpointRef, dstSID string, dstPort int) {
	ls.conns = append(ls.conns, rawConn{src.sid, src.port, dstSID, dstPort})
}

func (ls *lifterState) diag(format string, args ...interface{}) {
	ls.diagnostics = append(ls.diagnostics, fmt.Errorf(format, args...))
}

// resolveInput wires the expression's producing block to the destination
// port. Literal values and cfg references legitimately produce no
// connection; anything else that fails to resolve is reported.
func (ls *lifterState) resolveInput(expr string, dstSID string, dstPort int) {
	clean := strings.TrimSpace(expr)
	if i := strings.Index(clean, "// TODO:"); i >= 0 {
		clean = strings.TrimSpace(clean[:i])
	}
	if clean == "" {
		return
	}
	if strings.Contains(clean, "/* missing input") {
		return
	}
	// A demux marker wires the consumer to the signal behind the demux.
	if i := strings.Index(clean, "/* demux"); i >= 0 {
		clean = strings.TrimSpace(clean[:i])
	}
	if clean == "0.0f" || clean == "0" || clean == "1.0f" || clean == "1" {
		return
	}
	if strings.Contains(clean, "std::numeric_limits") {
		return
	}
	if strings.HasPrefix(clean, "cfg.") {
		return
	}

	if ref, ok := ls.varMap[clean]; ok {
		ls.connect(ref, dstSID, dstPort)
		return
	}
	if !strings.HasPrefix(clean, "state.") {
		if ref, ok := ls.varMap["state."+clean+"_state"]; ok {
			ls.connect(ref, dstSID, dstPort)
			return
		}
	} else {
		if ref, ok := ls.varMap[strings.TrimPrefix(clean, "state.")]; ok {
			ls.connect(ref, dstSID, dstPort)
			return
		}
	}
	if isNumericLiteral(clean) {
		return
	}
	ls.diag("unresolved reference %q feeding block %s port %d", clean, dstSID, dstPort)
}

// lookupVar finds the producing endpoint of a known value name without
// emitting a connection.
func (ls *lifterState) lookupVar(name string) (endpointRef, bool) {
	if ref, ok := ls.varMap[name]; ok {
		return ref, true
	}
	if !strings.HasPrefix(name, "state.") {
		if ref, ok := ls.varMap["state."+name+"_state"]; ok {
			return ref, true
		}
	}
	return endpointRef{}, false
}

// isVariable reports whether the operand names a known or plausible value
// rather than a constant expression.
func (ls *lifterState) isVariable(name string) bool {
	if _, ok := ls.varMap[name]; ok {
		return true
	}
	if _, ok := ls.varMap["in."+name]; ok {
		return true
	}
	if _, ok := ls.varMap["state."+name+"_state"]; ok {
		return true
	}
	if name == "" {
		return false
	}
	c := name[0]
	if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && c != '_' {
		return false
	}
	return !strings.ContainsAny(name, "*+(")
}

// extractOutputAssignments reads the "out.<name> = <src>;" lines following
// the // Outputs marker.
func extractOutputAssignments(lines []string) map[string]string {
	result := make(map[string]string)
	inOutputs := false
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "// Outputs" {
			inOutputs = true
			continue
		}
		if !inOutputs || !strings.HasPrefix(t, "out.") {
			continue
		}
		eq := strings.Index(t, "=")
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(t[len("out."):eq])
		src := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t[eq+1:]), ";"))
		result[name] = src
	}
	return result
}

// groupConnections merges wires sharing a source into one connection with
// fan-out branches, in first-seen source order.
func groupConnections(conns []rawConn) []ir.Connection {
	type srcKey struct {
		sid  string
		port int
	}
	groups := make(map[srcKey][]rawConn)
	var order []srcKey
	for _, c := range conns {
		key := srcKey{c.srcSID, c.srcPort}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	var result []ir.Connection
	zorder := 1
	for _, key := range order {
		group := groups[key]
		conn := ir.Connection{
			ZOrder: zorder,
			Source: ir.Endpoint{BlockSID: key.sid, PortKind: ir.PortOut, PortIndex: key.port}.String(),
		}
		zorder++
		if len(group) == 1 {
			conn.Destination = dstEndpoint(group[0])
		} else {
			for _, c := range group {
				conn.Branches = append(conn.Branches, ir.Branch{
					ZOrder:      zorder,
					Destination: dstEndpoint(c),
				})
				zorder++
			}
		}
		result = append(result, conn)
	}
	return result
}

func dstEndpoint(c rawConn) string {
	return ir.Endpoint{BlockSID: c.dstSID, PortKind: ir.PortIn, PortIndex: c.dstPort}.String()
}

func isNumericLiteral(s string) bool {
	t := strings.TrimSuffix(strings.TrimSuffix(s, "f"), "F")
	_, err := strconv.ParseFloat(t, 64)
	return err == nil
}

// parseFloatLit reads a float literal, tolerating a trailing 'f' suffix.
func parseFloatLit(s string) float64 {
	t := strings.TrimSpace(s)
	t = strings.TrimSuffix(strings.TrimSuffix(t, "f"), "F")
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0
	}
	return v
}

// splitArgs splits a comma-separated argument list, respecting nesting.
func splitArgs(s string) []string {
	var result []string
	depth := 0
	var current strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		if c == ',' && depth == 0 {
			if t := strings.TrimSpace(current.String()); t != "" {
				result = append(result, t)
			}
			current.Reset()
			continue
		}
		current.WriteByte(c)
	}
	if t := strings.TrimSpace(current.String()); t != "" {
		result = append(result, t)
	}
	return result
}

// cleanValue strips a float suffix and a cfg. prefix from a lifted
// parameter value.
func cleanValue(s string) string {
	v := strings.TrimSpace(s)
	if len(v) > 1 && strings.HasSuffix(v, "f") && isNumericLiteral(v) {
		v = v[:len(v)-1]
	}
	v = strings.TrimPrefix(v, "cfg.")
	return v
}
