package mdl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/da0x/oc/ir"
	"github.com/da0x/oc/metadata"
)

// header is the canonical MDL file prologue.
const header = `# MathWorks OPC Text Package
Model {
  Version  24.2
  Description "Simulink model saved in R2024b"
}
__MWOPC_PACKAGE_BEGIN__ R2024b
`

// WriteVerbatim reassembles the container from a sidecar: every recorded
// part, byte-exact, in recorded order.
func WriteVerbatim(meta *metadata.Metadata) string {
	var b strings.Builder
	b.WriteString(header)

	if len(meta.PartOrder) > 0 {
		for _, path := range meta.PartOrder {
			if content, ok := meta.RawParts[path]; ok {
				writePart(&b, path, content)
			}
		}
		return b.String()
	}

	paths := make([]string, 0, len(meta.RawParts))
	for path := range meta.RawParts {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		writePart(&b, path, meta.RawParts[path])
	}
	return b.String()
}

// WriteSynthesized generates a container from scratch: the fixed OPC
// skeleton parameterized by a fresh UUID, plus one system part per system of
// the given model. The model's root system holds one SubSystem block per
// element.
func WriteSynthesized(model *ir.Model) string {
	var b strings.Builder
	b.WriteString(header)

	modelUUID := uuid.NewString()

	writePart(&b, "/[Content_Types].xml", defaultContentTypes)
	writePart(&b, "/_rels/.rels", defaultRels)
	writePart(&b, "/metadata/coreProperties.xml", defaultCoreProperties)
	writePart(&b, "/metadata/mwcoreProperties.xml", defaultMWCoreProperties)
	writePart(&b, "/metadata/mwcorePropertiesExtension.xml", defaultMWCoreExtension(modelUUID))
	writePart(&b, "/metadata/mwcorePropertiesReleaseInfo.xml", defaultReleaseInfo)
	writePart(&b, "/simulink/_rels/blockdiagram.xml.rels", defaultBlockDiagramRels)
	writePart(&b, "/simulink/_rels/configSetInfo.xml.rels", defaultConfigSetInfoRels)
	writePart(&b, "/simulink/bddefaults.xml", defaultBDDefaults)
	writePart(&b, "/simulink/blockdiagram.xml", defaultBlockDiagram(modelUUID))
	writePart(&b, "/simulink/configSet0.xml", defaultConfigSet)
	writePart(&b, "/simulink/configSetInfo.xml", defaultConfigSetInfo)
	writePart(&b, "/simulink/modelDictionary.xml", defaultModelDictionary)

	root := model.RootSystem()
	elementCount := 0
	if root != nil {
		elementCount = len(root.Subsystems())
	}
	writePart(&b, "/simulink/systems/_rels/system_root.xml.rels", defaultSystemRels(1, elementCount))
	if root != nil {
		writePart(&b, "/simulink/systems/system_root.xml", SystemXML(root))
	}

	for _, id := range sortedSystemIDs(model) {
		writePart(&b, "/simulink/systems/"+id+".xml", SystemXML(model.System(id)))
	}

	writePart(&b, "/simulink/windowsInfo.xml", defaultWindowsInfo)
	return b.String()
}

func sortedSystemIDs(model *ir.Model) []string {
	var ids []string
	for id := range model.Systems {
		if id == ir.RootSystemID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni := atoiOr(strings.TrimPrefix(ids[i], "system_"), 0)
		nj := atoiOr(strings.TrimPrefix(ids[j], "system_"), 0)
		if ni != nj {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// writePart appends one part. Binary parts carry the BASE64 flag; text
// parts are followed by a blank separator line.
func writePart(b *strings.Builder, path, content string) {
	isBase64 := strings.HasSuffix(path, ".mxarray")
	b.WriteString(partBeginMarker + path)
	if isBase64 {
		b.WriteString(" BASE64")
	}
	b.WriteString("\n" + content + "\n")
	if !isBase64 {
		b.WriteString("\n")
	}
}

// RootElement describes one element for the synthesized root system.
type RootElement struct {
	Name     string
	InCount  int
	OutCount int
	SystemID string
}

// NewRootSystem builds a system_root containing one SubSystem block per
// element, laid out top to bottom.
func NewRootSystem(elems []RootElement) *ir.System {
	sys := &ir.System{
		ID:               ir.RootSystemID,
		Location:         []int{-1, -8, 1921, 1153},
		ZoomFactor:       100,
		SIDHighWatermark: len(elems),
	}

	sid := 1
	x, y := 100, 100
	for _, elem := range elems {
		blk := ir.Block{
			Type:         ir.SubSystem,
			Name:         elem.Name,
			SID:          strconv.Itoa(sid),
			ZOrder:       sid,
			PortIn:       elem.InCount,
			PortOut:      elem.OutCount,
			Position:     []int{x, y, x + 120, y + 80},
			SubsystemRef: elem.SystemID,
		}
		sys.Blocks = append(sys.Blocks, blk)

		y += 120
		if y > 800 {
			y = 100
			x += 200
		}
		sid++
	}
	return sys
}

// SystemXML renders one system part.
func SystemXML(sys *ir.System) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<System>\n")

	if len(sys.Location) > 0 {
		fmt.Fprintf(&b, "  <P Name=\"Location\">%s</P>\n", formatIntArray(sys.Location))
	} else {
		b.WriteString("  <P Name=\"Location\">[-1, -8, 1921, 1033]</P>\n")
	}
	if sys.Open != "" {
		fmt.Fprintf(&b, "  <P Name=\"Open\">%s</P>\n", sys.Open)
	}
	fmt.Fprintf(&b, "  <P Name=\"ZoomFactor\">%d</P>\n", sys.ZoomFactor)
	if sys.ReportName != "" {
		fmt.Fprintf(&b, "  <P Name=\"ReportName\">%s</P>\n", sys.ReportName)
	}
	if sys.SIDHighWatermark > 0 {
		fmt.Fprintf(&b, "  <P Name=\"SIDHighWatermark\">%d</P>\n", sys.SIDHighWatermark)
	}

	for i := range sys.Blocks {
		writeBlockXML(&b, &sys.Blocks[i])
	}
	for i := range sys.Connections {
		writeLineXML(&b, &sys.Connections[i])
	}

	b.WriteString("</System>")
	return b.String()
}

func writeBlockXML(b *strings.Builder, blk *ir.Block) {
	fmt.Fprintf(b, "  <Block BlockType=\"%s\" Name=\"%s\" SID=\"%s\">\n",
		blk.Type, xmlEscape(blk.Name), blk.SID)

	if blk.IsSubsystem() || blk.PortIn > 1 || blk.PortOut > 1 {
		b.WriteString("    <PortCounts")
		if blk.PortIn > 0 {
			fmt.Fprintf(b, " in=\"%d\"", blk.PortIn)
		}
		if blk.PortOut > 0 {
			fmt.Fprintf(b, " out=\"%d\"", blk.PortOut)
		}
		b.WriteString("/>\n")
	}

	if len(blk.Position) > 0 {
		fmt.Fprintf(b, "    <P Name=\"Position\">%s</P>\n", formatIntArray(blk.Position))
	}
	zorder := blk.ZOrder
	if zorder == 0 {
		zorder = atoiOr(blk.SID, 0)
	}
	fmt.Fprintf(b, "    <P Name=\"ZOrder\">%d</P>\n", zorder)

	for _, p := range blk.Parameters {
		if p.Name == "Position" || p.Name == "ZOrder" {
			continue
		}
		fmt.Fprintf(b, "    <P Name=\"%s\">%s</P>\n", p.Name, xmlEscape(p.Value))
	}

	if len(blk.MaskParameters) > 0 {
		b.WriteString("    <Mask>\n")
		if blk.MaskDisplayXML != "" {
			b.WriteString("      " + blk.MaskDisplayXML + "\n")
		} else {
			b.WriteString("      <Display RunInitForIconRedraw=\"off\"/>\n")
		}
		for _, mp := range blk.MaskParameters {
			fmt.Fprintf(b, "      <MaskParameter Name=\"%s\" Type=\"%s\"", mp.Name, mp.Type)
			if mp.ShowTooltip != "" {
				fmt.Fprintf(b, " ShowTooltip=\"%s\"", mp.ShowTooltip)
			}
			b.WriteString(">\n")
			fmt.Fprintf(b, "        <Prompt>%s</Prompt>\n", xmlEscape(mp.Prompt))
			fmt.Fprintf(b, "        <Value>%s</Value>\n", xmlEscape(mp.Value))
			b.WriteString("      </MaskParameter>\n")
		}
		b.WriteString("    </Mask>\n")
	}

	if len(blk.InputPorts) > 0 || len(blk.OutputPorts) > 0 {
		b.WriteString("    <PortProperties>\n")
		writePortsXML(b, "in", blk.InputPorts)
		writePortsXML(b, "out", blk.OutputPorts)
		b.WriteString("    </PortProperties>\n")
	}

	if blk.SubsystemRef != "" {
		fmt.Fprintf(b, "    <System Ref=\"%s\"/>\n", blk.SubsystemRef)
	}

	b.WriteString("  </Block>\n")
}

func writePortsXML(b *strings.Builder, portType string, ports []ir.PortInfo) {
	for _, pi := range ports {
		fmt.Fprintf(b, "      <Port Type=\"%s\" Index=\"%d\">\n", portType, pi.Index)
		if pi.Name != "" {
			fmt.Fprintf(b, "        <P Name=\"Name\">%s</P>\n", xmlEscape(pi.Name))
		}
		if pi.PropagatedSignals != "" {
			fmt.Fprintf(b, "        <P Name=\"PropagatedSignals\">%s</P>\n", xmlEscape(pi.PropagatedSignals))
		}
		b.WriteString("      </Port>\n")
	}
}

func writeLineXML(b *strings.Builder, conn *ir.Connection) {
	b.WriteString("  <Line>\n")
	if conn.Name != "" {
		fmt.Fprintf(b, "    <P Name=\"Name\">%s</P>\n", xmlEscape(conn.Name))
	}
	fmt.Fprintf(b, "    <P Name=\"ZOrder\">%d</P>\n", conn.ZOrder)
	if conn.Labels != "" {
		fmt.Fprintf(b, "    <P Name=\"Labels\">%s</P>\n", conn.Labels)
	}
	fmt.Fprintf(b, "    <P Name=\"Src\">%s</P>\n", conn.Source)
	if len(conn.Points) > 0 {
		fmt.Fprintf(b, "    <P Name=\"Points\">%s</P>\n", formatIntArray(conn.Points))
	}
	if conn.Destination != "" && len(conn.Branches) == 0 {
		fmt.Fprintf(b, "    <P Name=\"Dst\">%s</P>\n", conn.Destination)
	}
	for _, br := range conn.Branches {
		b.WriteString("    <Branch>\n")
		fmt.Fprintf(b, "      <P Name=\"ZOrder\">%d</P>\n", br.ZOrder)
		if len(br.Points) > 0 {
			fmt.Fprintf(b, "      <P Name=\"Points\">%s</P>\n", formatIntArray(br.Points))
		}
		fmt.Fprintf(b, "      <P Name=\"Dst\">%s</P>\n", br.Destination)
		b.WriteString("    </Branch>\n")
	}
	b.WriteString("  </Line>\n")
}

func formatIntArray(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func xmlEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		case '\n':
			b.WriteString("&#xA;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
