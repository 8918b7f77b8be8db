// Package metadata defines the sidecar document that makes reverse
// translation verbatim: everything the MDL emitter cannot recover from OC
// text alone, including an ordered, byte-exact copy of every container part.
package metadata

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/da0x/oc/ir"
)

// Version is the current sidecar format version.
const Version = 1

// ModelInfo identifies the source model.
type ModelInfo struct {
	UUID        string `json:"uuid"`
	LibraryType string `json:"library_type"`
	Name        string `json:"name"`
}

// PortProperty records the properties of one named port.
type PortProperty struct {
	PortType   string            `json:"port_type"`
	Index      int               `json:"index"`
	Properties map[string]string `json:"properties,omitempty"`
}

// MaskParam is one mask parameter of a block.
type MaskParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Prompt      string `json:"prompt"`
	Value       string `json:"value"`
	ShowTooltip string `json:"show_tooltip,omitempty"`
}

// BlockMeta captures every field of one block.
type BlockMeta struct {
	SID             string            `json:"sid"`
	Type            string            `json:"type"`
	Name            string            `json:"name"`
	Position        []int             `json:"position"`
	ZOrder          int               `json:"zorder"`
	BackgroundColor string            `json:"background_color,omitempty"`
	SubsystemRef    string            `json:"subsystem_ref,omitempty"`
	PortIn          int               `json:"port_in,omitempty"`
	PortOut         int               `json:"port_out,omitempty"`
	Parameters      map[string]string `json:"parameters,omitempty"`
	Mask            []MaskParam       `json:"mask,omitempty"`
	MaskDisplayXML  string            `json:"mask_display_xml,omitempty"`
	PortProperties  []PortProperty    `json:"port_properties,omitempty"`
}

// BranchMeta captures one fan-out branch.
type BranchMeta struct {
	ZOrder      int    `json:"zorder"`
	Destination string `json:"dst"`
	Points      []int  `json:"points,omitempty"`
}

// ConnectionMeta captures one connection.
type ConnectionMeta struct {
	Name        string       `json:"name,omitempty"`
	ZOrder      int          `json:"zorder"`
	Source      string       `json:"src"`
	Destination string       `json:"dst,omitempty"`
	Labels      string       `json:"labels,omitempty"`
	Points      []int        `json:"points,omitempty"`
	Branches    []BranchMeta `json:"branches,omitempty"`
}

// SystemMeta is the structured record of one system.
type SystemMeta struct {
	Location         []int            `json:"location"`
	ZoomFactor       int              `json:"zoom_factor"`
	SIDHighWatermark int              `json:"sid_highwatermark"`
	Open             string           `json:"open,omitempty"`
	ReportName       string           `json:"report_name,omitempty"`
	Blocks           []BlockMeta      `json:"blocks"`
	Connections      []ConnectionMeta `json:"connections"`
}

// Metadata is the sidecar document.
type Metadata struct {
	Version int       `json:"version"`
	Model   ModelInfo `json:"model"`
	// PartOrder preserves the original OPC part ordering; the MDL emitter
	// writes parts in this order.
	PartOrder []string              `json:"part_order,omitempty"`
	RawParts  map[string]string     `json:"raw_parts"`
	Systems   map[string]SystemMeta `json:"systems"`
}

// Build projects a model and its container parts into a sidecar document.
// partOrder and rawParts come from the loaded container; rawParts are kept
// byte-exact.
func Build(model *ir.Model, partOrder []string, rawParts map[string]string) *Metadata {
	meta := &Metadata{
		Version: Version,
		Model: ModelInfo{
			UUID:        model.UUID,
			LibraryType: model.LibraryType,
			Name:        model.Name,
		},
		PartOrder: partOrder,
		RawParts:  make(map[string]string, len(rawParts)),
		Systems:   make(map[string]SystemMeta, len(model.Systems)),
	}
	for path, content := range rawParts {
		meta.RawParts[path] = content
	}
	for id, sys := range model.Systems {
		meta.Systems[id] = buildSystemMeta(sys)
	}
	return meta
}

func buildSystemMeta(sys *ir.System) SystemMeta {
	sm := SystemMeta{
		Location:         sys.Location,
		ZoomFactor:       sys.ZoomFactor,
		SIDHighWatermark: sys.SIDHighWatermark,
		Open:             sys.Open,
		ReportName:       sys.ReportName,
	}

	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		bm := BlockMeta{
			SID:            blk.SID,
			Type:           blk.Type,
			Name:           blk.Name,
			Position:       blk.Position,
			ZOrder:         blk.ZOrder,
			SubsystemRef:   blk.SubsystemRef,
			PortIn:         blk.PortIn,
			PortOut:        blk.PortOut,
			MaskDisplayXML: blk.MaskDisplayXML,
		}
		for _, p := range blk.Parameters {
			// Position and ZOrder are first-class fields.
			if p.Name == "Position" || p.Name == "ZOrder" {
				continue
			}
			if bm.Parameters == nil {
				bm.Parameters = make(map[string]string)
			}
			bm.Parameters[p.Name] = p.Value
			if p.Name == "BackgroundColor" {
				bm.BackgroundColor = p.Value
			}
		}
		for _, mp := range blk.MaskParameters {
			bm.Mask = append(bm.Mask, MaskParam{
				Name:        mp.Name,
				Type:        mp.Type,
				Prompt:      mp.Prompt,
				Value:       mp.Value,
				ShowTooltip: mp.ShowTooltip,
			})
		}
		bm.PortProperties = append(bm.PortProperties, portProperties("in", blk.InputPorts)...)
		bm.PortProperties = append(bm.PortProperties, portProperties("out", blk.OutputPorts)...)
		sm.Blocks = append(sm.Blocks, bm)
	}

	for i := range sys.Connections {
		conn := &sys.Connections[i]
		cm := connectionMeta(conn)
		sm.Connections = append(sm.Connections, cm)
	}
	return sm
}

func portProperties(portType string, ports []ir.PortInfo) []PortProperty {
	var result []PortProperty
	for _, pi := range ports {
		pp := PortProperty{PortType: portType, Index: pi.Index}
		if pi.Name != "" || pi.PropagatedSignals != "" {
			pp.Properties = make(map[string]string)
			if pi.Name != "" {
				pp.Properties["Name"] = pi.Name
			}
			if pi.PropagatedSignals != "" {
				pp.Properties["PropagatedSignals"] = pi.PropagatedSignals
			}
		}
		result = append(result, pp)
	}
	return result
}

func connectionMeta(conn *ir.Connection) ConnectionMeta {
	cm := ConnectionMeta{
		Name:        conn.Name,
		ZOrder:      conn.ZOrder,
		Source:      conn.Source,
		Destination: conn.Destination,
		Labels:      conn.Labels,
		Points:      conn.Points,
	}
	for _, br := range conn.Branches {
		cm.Branches = append(cm.Branches, BranchMeta{
			ZOrder:      br.ZOrder,
			Destination: br.Destination,
			Points:      br.Points,
		})
	}
	return cm
}

// WriteFile writes the sidecar as indented JSON.
func WriteFile(path string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding metadata")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing metadata %s", path)
	}
	return nil
}

// ReadFile reads a sidecar document.
func ReadFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading metadata %s", path)
	}
	meta := &Metadata{Version: Version}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, errors.Wrapf(err, "parsing metadata %s", path)
	}
	return meta, nil
}
