// Package ir defines the block-graph intermediate representation shared by
// the MDL reader, the code generator, and the reverse lifter.
package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Recognized block types. The IR stores the type as a string (it is carried
// verbatim from the MDL BlockType attribute); everything above the IR layer
// dispatches on these constants.
const (
	Inport             = "Inport"
	Outport            = "Outport"
	Constant           = "Constant"
	Gain               = "Gain"
	Sum                = "Sum"
	Product            = "Product"
	Saturate           = "Saturate"
	MinMax             = "MinMax"
	Abs                = "Abs"
	RelationalOperator = "RelationalOperator"
	Logic              = "Logic"
	Switch             = "Switch"
	Trigonometry       = "Trigonometry"
	Math               = "Math"
	UnitDelay          = "UnitDelay"
	Memory             = "Memory"
	Integrator         = "Integrator"
	DiscreteIntegrator = "DiscreteIntegrator"
	TransferFcn        = "TransferFcn"
	SubSystem          = "SubSystem"
	Demux              = "Demux"
	Mux                = "Mux"
	Derivative         = "Derivative"
	Reference          = "Reference"
)

// IsStatefulType reports whether blocks of the given type output state from
// the previous tick. Stateful blocks act as sources during scheduling.
func IsStatefulType(blockType string) bool {
	switch blockType {
	case UnitDelay, Memory, Integrator, DiscreteIntegrator:
		return true
	}
	return false
}

// MaskParameter is one per-instance configuration parameter of a masked
// block.
type MaskParameter struct {
	Name        string
	Type        string
	Prompt      string
	Value       string
	ShowTooltip string
}

// PortInfo carries the properties of a single named port.
type PortInfo struct {
	Index             int
	Name              string
	PropagatedSignals string
}

// Param is a single named block parameter. Parameters keep their MDL
// declaration order.
type Param struct {
	Name  string
	Value string
}

// Block is a node in a System.
type Block struct {
	Type string
	Name string
	SID  string

	Position        []int
	ZOrder          int
	BackgroundColor string

	PortIn  int
	PortOut int

	Parameters     []Param
	MaskParameters []MaskParameter
	InputPorts     []PortInfo
	OutputPorts    []PortInfo
	MaskDisplayXML string

	// SubsystemRef is the id of the referenced child system for SubSystem
	// blocks, empty otherwise.
	SubsystemRef string
}

// IsInport reports whether the block is an Inport.
func (b *Block) IsInport() bool { return b.Type == Inport }

// IsOutport reports whether the block is an Outport.
func (b *Block) IsOutport() bool { return b.Type == Outport }

// IsSubsystem reports whether the block references a child system.
func (b *Block) IsSubsystem() bool { return b.Type == SubSystem }

// IsStateful reports whether the block outputs prior-tick state.
func (b *Block) IsStateful() bool { return IsStatefulType(b.Type) }

// Param returns the value of the named parameter and whether it is present.
func (b *Block) Param(name string) (string, bool) {
	for _, p := range b.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// SetParam overwrites the named parameter, appending it if absent.
func (b *Block) SetParam(name, value string) {
	for i := range b.Parameters {
		if b.Parameters[i].Name == name {
			b.Parameters[i].Value = value
			return
		}
	}
	b.Parameters = append(b.Parameters, Param{Name: name, Value: value})
}

// MaskParam returns the value of the named mask parameter and whether it is
// present.
func (b *Block) MaskParam(name string) (string, bool) {
	for _, mp := range b.MaskParameters {
		if mp.Name == name {
			return mp.Value, true
		}
	}
	return "", false
}

// PortNumber returns the Port parameter as an integer, defaulting to 1. The
// Port parameter orders a system's Inport and Outport blocks.
func (b *Block) PortNumber() int {
	v, ok := b.Param("Port")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 1
	}
	return n
}

// Branch is an additional destination sharing a Connection's source.
type Branch struct {
	ZOrder      int
	Destination string
	Points      []int
}

// Connection is a directed hyperedge from one source endpoint to one or more
// destination endpoints.
type Connection struct {
	Name        string
	ZOrder      int
	Source      string
	Destination string
	Points      []int
	Labels      string
	Branches    []Branch
}

// SourceEndpoint parses the connection's source endpoint.
func (c *Connection) SourceEndpoint() (Endpoint, error) {
	return ParseEndpoint(c.Source)
}

// DestinationEndpoint parses the connection's primary destination endpoint.
func (c *Connection) DestinationEndpoint() (Endpoint, error) {
	return ParseEndpoint(c.Destination)
}

// Destinations returns the primary destination followed by every branch
// destination, in input order.
func (c *Connection) Destinations() []string {
	var dsts []string
	if c.Destination != "" {
		dsts = append(dsts, c.Destination)
	}
	for _, br := range c.Branches {
		dsts = append(dsts, br.Destination)
	}
	return dsts
}

// System is an ordered collection of blocks and connections.
type System struct {
	ID   string
	Name string

	Location         []int
	ZoomFactor       int
	SIDHighWatermark int
	Open             string
	ReportName       string

	Blocks      []Block
	Connections []Connection
}

// FindBlockBySID returns the block with the given SID, or nil.
func (s *System) FindBlockBySID(sid string) *Block {
	for i := range s.Blocks {
		if s.Blocks[i].SID == sid {
			return &s.Blocks[i]
		}
	}
	return nil
}

// FindBlockByName returns the block with the given name, or nil.
func (s *System) FindBlockByName(name string) *Block {
	for i := range s.Blocks {
		if s.Blocks[i].Name == name {
			return &s.Blocks[i]
		}
	}
	return nil
}

// Inports returns the system's Inport blocks ordered by their Port
// parameter. The order defines the system's input vector.
func (s *System) Inports() []*Block {
	return s.portBlocks(Inport)
}

// Outports returns the system's Outport blocks ordered by their Port
// parameter.
func (s *System) Outports() []*Block {
	return s.portBlocks(Outport)
}

func (s *System) portBlocks(blockType string) []*Block {
	var ports []*Block
	for i := range s.Blocks {
		if s.Blocks[i].Type == blockType {
			ports = append(ports, &s.Blocks[i])
		}
	}
	sort.SliceStable(ports, func(i, j int) bool {
		return ports[i].PortNumber() < ports[j].PortNumber()
	})
	return ports
}

// Subsystems returns the system's SubSystem blocks in declaration order.
func (s *System) Subsystems() []*Block {
	var subs []*Block
	for i := range s.Blocks {
		if s.Blocks[i].IsSubsystem() {
			subs = append(subs, &s.Blocks[i])
		}
	}
	return subs
}

// IsLeaf reports whether the system contains no SubSystem blocks.
func (s *System) IsLeaf() bool {
	return len(s.Subsystems()) == 0
}

// RootSystemID is the id of a model's root system.
const RootSystemID = "system_root"

// Model is a tree of systems indexed by id.
type Model struct {
	UUID        string
	Name        string
	Version     string
	LibraryType string

	Systems map[string]*System
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Systems: make(map[string]*System)}
}

// RootSystem returns the root system, or nil if the model has none.
func (m *Model) RootSystem() *System {
	return m.Systems[RootSystemID]
}

// System returns the system with the given id, or nil.
func (m *Model) System(id string) *System {
	return m.Systems[id]
}

// AddSystem inserts the system under its id.
func (m *Model) AddSystem(sys *System) {
	m.Systems[sys.ID] = sys
}

// SystemIDs returns all system ids in sorted order.
func (m *Model) SystemIDs() []string {
	ids := make([]string, 0, len(m.Systems))
	for id := range m.Systems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *System) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "system %s {\n", s.ID)
	for i := range s.Blocks {
		blk := &s.Blocks[i]
		fmt.Fprintf(&b, "  %s %q sid=%s\n", blk.Type, blk.Name, blk.SID)
	}
	for i := range s.Connections {
		conn := &s.Connections[i]
		fmt.Fprintf(&b, "  %s -> %s", conn.Source, conn.Destination)
		for _, br := range conn.Branches {
			fmt.Fprintf(&b, ", %s", br.Destination)
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}
