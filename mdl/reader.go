package mdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/da0x/oc/ir"
)

// BlockDiagramPart is the container part carrying the model identity.
const BlockDiagramPart = "/simulink/blockdiagram.xml"

// ReadModel builds the block-graph IR from a loaded container. Errors are
// accumulated; a partial model is still returned.
func ReadModel(c *Container) (*ir.Model, []error) {
	model := ir.NewModel()
	var errs []error

	if content, ok := c.Part(BlockDiagramPart); ok {
		if err := readBlockDiagram(model, content); err != nil {
			errs = append(errs, fmt.Errorf("%s: %v", BlockDiagramPart, err))
		}
	} else {
		errs = append(errs, fmt.Errorf("container has no %s part", BlockDiagramPart))
	}

	for _, sysPath := range c.SystemPaths() {
		content, _ := c.Part(sysPath)
		sysID := systemIDFromPath(sysPath)

		sys, err := ParseSystem(sysID, content)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %v", sysPath, err))
			continue
		}
		model.AddSystem(sys)
	}

	return model, errs
}

func systemIDFromPath(path string) string {
	id := path
	if slash := strings.LastIndex(id, "/"); slash >= 0 {
		id = id[slash+1:]
	}
	if dot := strings.LastIndex(id, "."); dot >= 0 {
		id = id[:dot]
	}
	return id
}

// readBlockDiagram extracts the model identity from the blockdiagram part.
// Libraries carry it in a <Library> element, models in <Model>.
func readBlockDiagram(model *ir.Model, content string) error {
	root, err := ParseXML(content)
	if err != nil {
		return err
	}
	elem := root.Child("Library")
	if elem == nil {
		elem = root.Child("Model")
	}
	if elem == nil {
		return nil
	}
	for _, p := range elem.ChildrenByTag("P") {
		switch p.Attr("Name") {
		case "ModelUUID":
			model.UUID = p.Text
		case "LibraryType":
			model.LibraryType = p.Text
		}
	}
	return nil
}

// ParseSystem reads one system XML part.
func ParseSystem(sysID, content string) (*ir.System, error) {
	root, err := ParseXML(content)
	if err != nil {
		return nil, err
	}

	sys := &ir.System{ID: sysID, ZoomFactor: 100}
	for _, p := range root.ChildrenByTag("P") {
		switch p.Attr("Name") {
		case "Location":
			sys.Location = parseIntArray(p.Text)
		case "ZoomFactor":
			sys.ZoomFactor = atoiOr(p.Text, 100)
		case "SIDHighWatermark":
			sys.SIDHighWatermark = atoiOr(p.Text, 0)
		case "Open":
			sys.Open = p.Text
		case "ReportName":
			sys.ReportName = p.Text
		}
	}
	for _, blockElem := range root.ChildrenByTag("Block") {
		sys.Blocks = append(sys.Blocks, parseBlock(blockElem))
	}
	for _, lineElem := range root.ChildrenByTag("Line") {
		sys.Connections = append(sys.Connections, parseConnection(lineElem))
	}
	return sys, nil
}

func parseBlock(elem *Element) ir.Block {
	b := ir.Block{
		Type:    elem.Attr("BlockType"),
		Name:    elem.Attr("Name"),
		SID:     elem.Attr("SID"),
		PortIn:  1,
		PortOut: 1,
	}

	if pc := elem.Child("PortCounts"); pc != nil {
		if in := pc.Attr("in"); in != "" {
			b.PortIn = atoiOr(in, 1)
		}
		if out := pc.Attr("out"); out != "" {
			b.PortOut = atoiOr(out, 1)
		}
	}

	for _, p := range elem.ChildrenByTag("P") {
		name := p.Attr("Name")
		b.Parameters = append(b.Parameters, ir.Param{Name: name, Value: p.Text})
		switch name {
		case "Position":
			b.Position = parseIntArray(p.Text)
		case "ZOrder":
			b.ZOrder = atoiOr(p.Text, 0)
		case "BackgroundColor":
			b.BackgroundColor = p.Text
		}
	}

	if sysRef := elem.Child("System"); sysRef != nil {
		b.SubsystemRef = sysRef.Attr("Ref")
	}

	if mask := elem.Child("Mask"); mask != nil {
		if display := mask.Child("Display"); display != nil {
			b.MaskDisplayXML = renderSelfClosing(display)
		}
		for _, mp := range mask.ChildrenByTag("MaskParameter") {
			b.MaskParameters = append(b.MaskParameters, ir.MaskParameter{
				Name:        mp.Attr("Name"),
				Type:        mp.Attr("Type"),
				ShowTooltip: mp.Attr("ShowTooltip"),
				Prompt:      mp.ChildText("Prompt"),
				Value:       mp.ChildText("Value"),
			})
		}
	}

	if pp := elem.Child("PortProperties"); pp != nil {
		for _, port := range pp.ChildrenByTag("Port") {
			pi := ir.PortInfo{Index: atoiOr(port.Attr("Index"), 0)}
			for _, p := range port.ChildrenByTag("P") {
				switch p.Attr("Name") {
				case "Name":
					pi.Name = p.Text
				case "PropagatedSignals":
					pi.PropagatedSignals = p.Text
				}
			}
			switch port.Attr("Type") {
			case "in":
				b.InputPorts = append(b.InputPorts, pi)
			case "out":
				b.OutputPorts = append(b.OutputPorts, pi)
			}
		}
	}

	return b
}

func parseConnection(elem *Element) ir.Connection {
	var conn ir.Connection
	for _, p := range elem.ChildrenByTag("P") {
		switch p.Attr("Name") {
		case "Name":
			conn.Name = p.Text
		case "ZOrder":
			conn.ZOrder = atoiOr(p.Text, 0)
		case "Src":
			conn.Source = p.Text
		case "Dst":
			conn.Destination = p.Text
		case "Points":
			conn.Points = parseIntArray(p.Text)
		case "Labels":
			conn.Labels = p.Text
		}
	}
	for _, branchElem := range elem.ChildrenByTag("Branch") {
		var br ir.Branch
		for _, p := range branchElem.ChildrenByTag("P") {
			switch p.Attr("Name") {
			case "ZOrder":
				br.ZOrder = atoiOr(p.Text, 0)
			case "Dst":
				br.Destination = p.Text
			case "Points":
				br.Points = parseIntArray(p.Text)
			}
		}
		conn.Branches = append(conn.Branches, br)
	}
	return conn
}

// parseIntArray reads a bracketed list like "[100, 50, 130, 64]".
func parseIntArray(s string) []int {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']':
			return -1
		case ',', ';':
			return ' '
		}
		return r
	}, s)

	var result []int
	for _, field := range strings.Fields(cleaned) {
		v, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		result = append(result, v)
	}
	return result
}

func atoiOr(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

// renderSelfClosing rebuilds a childless element like <Display .../>.
func renderSelfClosing(e *Element) string {
	var b strings.Builder
	b.WriteString("<" + e.Tag)
	for _, a := range e.Attrs {
		fmt.Fprintf(&b, " %s=%q", a.Name, a.Value)
	}
	b.WriteString("/>")
	return b.String()
}
