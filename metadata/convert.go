package metadata

import "github.com/da0x/oc/ir"

// ToSystem rebuilds the IR system from a structured record. This is the
// emitter's source of truth when a system part has to be regenerated from
// scratch rather than replayed verbatim.
func (sm *SystemMeta) ToSystem(id string) *ir.System {
	sys := &ir.System{
		ID:               id,
		Location:         sm.Location,
		ZoomFactor:       sm.ZoomFactor,
		SIDHighWatermark: sm.SIDHighWatermark,
		Open:             sm.Open,
		ReportName:       sm.ReportName,
	}

	for _, bm := range sm.Blocks {
		blk := ir.Block{
			Type:            bm.Type,
			Name:            bm.Name,
			SID:             bm.SID,
			Position:        bm.Position,
			ZOrder:          bm.ZOrder,
			BackgroundColor: bm.BackgroundColor,
			SubsystemRef:    bm.SubsystemRef,
			PortIn:          bm.PortIn,
			PortOut:         bm.PortOut,
			MaskDisplayXML:  bm.MaskDisplayXML,
		}
		for name, value := range bm.Parameters {
			blk.Parameters = append(blk.Parameters, ir.Param{Name: name, Value: value})
		}
		sortParams(blk.Parameters)
		for _, mp := range bm.Mask {
			blk.MaskParameters = append(blk.MaskParameters, ir.MaskParameter{
				Name:        mp.Name,
				Type:        mp.Type,
				Prompt:      mp.Prompt,
				Value:       mp.Value,
				ShowTooltip: mp.ShowTooltip,
			})
		}
		for _, pp := range bm.PortProperties {
			pi := ir.PortInfo{
				Index:             pp.Index,
				Name:              pp.Properties["Name"],
				PropagatedSignals: pp.Properties["PropagatedSignals"],
			}
			if pp.PortType == "in" {
				blk.InputPorts = append(blk.InputPorts, pi)
			} else {
				blk.OutputPorts = append(blk.OutputPorts, pi)
			}
		}
		sys.Blocks = append(sys.Blocks, blk)
	}

	for _, cm := range sm.Connections {
		conn := ir.Connection{
			Name:        cm.Name,
			ZOrder:      cm.ZOrder,
			Source:      cm.Source,
			Destination: cm.Destination,
			Labels:      cm.Labels,
			Points:      cm.Points,
		}
		for _, bm := range cm.Branches {
			conn.Branches = append(conn.Branches, ir.Branch{
				ZOrder:      bm.ZOrder,
				Destination: bm.Destination,
				Points:      bm.Points,
			})
		}
		sys.Connections = append(sys.Connections, conn)
	}
	return sys
}

// sortParams keeps JSON-sourced parameters in a defined order, since the
// map loses the original declaration order.
func sortParams(params []ir.Param) {
	for i := 1; i < len(params); i++ {
		for j := i; j > 0 && params[j].Name < params[j-1].Name; j-- {
			params[j], params[j-1] = params[j-1], params[j]
		}
	}
}
