package mdl

import (
	"testing"

	"github.com/da0x/oc/ir"
)

const sampleSystemXML = `<?xml version="1.0" encoding="utf-8"?>
<System>
  <P Name="Location">[-1, -8, 1921, 1033]</P>
  <P Name="ZoomFactor">150</P>
  <P Name="SIDHighWatermark">5</P>
  <Block BlockType="Inport" Name="u" SID="1">
    <P Name="Position">[100, 50, 130, 64]</P>
    <P Name="ZOrder">1</P>
  </Block>
  <Block BlockType="Gain" Name="My &amp; Gain" SID="2">
    <P Name="Position">[200, 50, 240, 86]</P>
    <P Name="ZOrder">2</P>
    <P Name="Gain">k</P>
    <Mask>
      <Display RunInitForIconRedraw="off"/>
      <MaskParameter Name="k" Type="edit">
        <Prompt>Gain factor</Prompt>
        <Value>2.0</Value>
      </MaskParameter>
    </Mask>
  </Block>
  <Block BlockType="SubSystem" Name="Sub" SID="3">
    <PortCounts in="2" out="1"/>
    <P Name="Position">[300, 50, 420, 130]</P>
    <P Name="ZOrder">3</P>
    <PortProperties>
      <Port Type="in" Index="1">
        <P Name="Name">speed</P>
      </Port>
    </PortProperties>
    <System Ref="system_7"/>
  </Block>
  <Block BlockType="Outport" Name="y" SID="4">
    <P Name="Position">[500, 50, 530, 64]</P>
    <P Name="ZOrder">4</P>
  </Block>
  <Line>
    <P Name="ZOrder">1</P>
    <P Name="Src">1#out:1</P>
    <P Name="Dst">2#in:1</P>
  </Line>
  <Line>
    <P Name="ZOrder">2</P>
    <P Name="Src">2#out:1</P>
    <P Name="Points">[10, 0]</P>
    <Branch>
      <P Name="ZOrder">3</P>
      <P Name="Dst">3#in:1</P>
    </Branch>
    <Branch>
      <P Name="ZOrder">4</P>
      <P Name="Dst">3#in:2</P>
    </Branch>
  </Line>
</System>`

func TestParseSystem(t *testing.T) {
	sys, err := ParseSystem("system_1", sampleSystemXML)
	if err != nil {
		t.Fatalf("ParseSystem: %v", err)
	}

	if sys.ID != "system_1" {
		t.Errorf("system id = %q", sys.ID)
	}
	if sys.ZoomFactor != 150 || sys.SIDHighWatermark != 5 {
		t.Errorf("system properties = %d, %d", sys.ZoomFactor, sys.SIDHighWatermark)
	}
	if len(sys.Location) != 4 || sys.Location[0] != -1 {
		t.Errorf("location = %v", sys.Location)
	}
	if len(sys.Blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(sys.Blocks))
	}

	gain := sys.FindBlockBySID("2")
	if gain == nil {
		t.Fatal("gain block not found")
	}
	if gain.Name != "My & Gain" {
		t.Errorf("entity-decoded name = %q", gain.Name)
	}
	if v, _ := gain.Param("Gain"); v != "k" {
		t.Errorf("Gain param = %q", v)
	}
	if len(gain.MaskParameters) != 1 {
		t.Fatalf("mask parameters = %+v", gain.MaskParameters)
	}
	mp := gain.MaskParameters[0]
	if mp.Name != "k" || mp.Prompt != "Gain factor" || mp.Value != "2.0" {
		t.Errorf("mask parameter = %+v", mp)
	}
	if gain.MaskDisplayXML == "" {
		t.Error("mask display not captured")
	}

	sub := sys.FindBlockBySID("3")
	if sub.PortIn != 2 || sub.PortOut != 1 {
		t.Errorf("port counts = %d/%d", sub.PortIn, sub.PortOut)
	}
	if sub.SubsystemRef != "system_7" {
		t.Errorf("subsystem ref = %q", sub.SubsystemRef)
	}
	if len(sub.InputPorts) != 1 || sub.InputPorts[0].Name != "speed" {
		t.Errorf("input ports = %+v", sub.InputPorts)
	}

	if len(sys.Connections) != 2 {
		t.Fatalf("got %d connections, want 2", len(sys.Connections))
	}
	fan := sys.Connections[1]
	if len(fan.Branches) != 2 || fan.Branches[1].Destination != "3#in:2" {
		t.Errorf("branches = %+v", fan.Branches)
	}
	if len(fan.Points) != 2 {
		t.Errorf("points = %v", fan.Points)
	}
}

func TestParseSystemMalformedXML(t *testing.T) {
	if _, err := ParseSystem("system_1", "<System><Block></System>"); err == nil {
		t.Error("mismatched tags parsed successfully")
	}
}

func TestReadModel(t *testing.T) {
	c, err := ParseContainer(sampleContainerWithModel())
	if err != nil {
		t.Fatalf("ParseContainer: %v", err)
	}
	model, errs := ReadModel(c)
	if len(errs) > 0 {
		t.Fatalf("ReadModel errors: %v", errs)
	}
	if model.UUID != "abc-123" {
		t.Errorf("uuid = %q", model.UUID)
	}
	if model.LibraryType != "BlockLibrary" {
		t.Errorf("library type = %q", model.LibraryType)
	}
	if model.RootSystem() == nil {
		t.Fatal("no root system")
	}
	if model.System("system_1") == nil {
		t.Fatal("system_1 missing")
	}
}

func sampleContainerWithModel() string {
	blockdiagram := `<?xml version="1.0" encoding="utf-8"?>
<ModelInformation Version="1.0">
  <Library>
    <P Name="ModelUUID">abc-123</P>
    <P Name="LibraryType">BlockLibrary</P>
    <System Ref="system_root"/>
  </Library>
</ModelInformation>`

	rootXML := `<?xml version="1.0" encoding="utf-8"?>
<System>
  <P Name="Location">[-1, -8, 1921, 1153]</P>
  <P Name="ZoomFactor">100</P>
  <P Name="SIDHighWatermark">1</P>
  <Block BlockType="SubSystem" Name="Controller" SID="1">
    <PortCounts in="1" out="1"/>
    <P Name="Position">[100, 100, 220, 180]</P>
    <P Name="ZOrder">1</P>
    <System Ref="system_1"/>
  </Block>
</System>`

	sysXML := `<?xml version="1.0" encoding="utf-8"?>
<System>
  <P Name="Location">[-1, -8, 1921, 1033]</P>
  <P Name="ZoomFactor">100</P>
  <P Name="SIDHighWatermark">3</P>
  <Block BlockType="Inport" Name="u" SID="1">
    <P Name="Position">[100, 50, 130, 64]</P>
    <P Name="ZOrder">1</P>
  </Block>
  <Block BlockType="Gain" Name="G" SID="2">
    <P Name="Position">[200, 50, 240, 86]</P>
    <P Name="ZOrder">2</P>
    <P Name="Gain">2.0</P>
  </Block>
  <Block BlockType="Outport" Name="y" SID="3">
    <P Name="Position">[300, 50, 330, 64]</P>
    <P Name="ZOrder">3</P>
  </Block>
  <Line>
    <P Name="ZOrder">1</P>
    <P Name="Src">1#out:1</P>
    <P Name="Dst">2#in:1</P>
  </Line>
  <Line>
    <P Name="ZOrder">2</P>
    <P Name="Src">2#out:1</P>
    <P Name="Dst">3#in:1</P>
  </Line>
</System>`

	var b []byte
	b = append(b, header...)
	appendPart := func(path, content string) {
		b = append(b, (partBeginMarker + path + "\n")...)
		b = append(b, (content + "\n\n")...)
	}
	appendPart("/simulink/blockdiagram.xml", blockdiagram)
	appendPart("/simulink/systems/system_root.xml", rootXML)
	appendPart("/simulink/systems/system_1.xml", sysXML)
	return string(b)
}

func TestSystemXMLRoundTrip(t *testing.T) {
	sys, err := ParseSystem("system_1", sampleSystemXML)
	if err != nil {
		t.Fatalf("ParseSystem: %v", err)
	}
	rendered := SystemXML(sys)

	again, err := ParseSystem("system_1", rendered)
	if err != nil {
		t.Fatalf("rendered XML does not parse: %v\n%s", err, rendered)
	}
	if len(again.Blocks) != len(sys.Blocks) {
		t.Fatalf("block count changed: %d vs %d", len(again.Blocks), len(sys.Blocks))
	}
	for i := range sys.Blocks {
		if again.Blocks[i].Name != sys.Blocks[i].Name {
			t.Errorf("block %d name %q != %q", i, again.Blocks[i].Name, sys.Blocks[i].Name)
		}
	}
	if len(again.Connections) != len(sys.Connections) {
		t.Errorf("connection count changed")
	}

	gain := again.FindBlockBySID("2")
	if gain.Name != "My & Gain" {
		t.Errorf("name escaping broke round trip: %q", gain.Name)
	}
}

func TestAutoLayoutAssignsPositions(t *testing.T) {
	sys := &ir.System{
		ID: "system_1",
		Blocks: []ir.Block{
			{Type: ir.Inport, Name: "u", SID: "1", PortOut: 1},
			{Type: ir.Gain, Name: "G", SID: "2", PortIn: 1, PortOut: 1},
			{Type: ir.Outport, Name: "y", SID: "3", PortIn: 1},
		},
		Connections: []ir.Connection{
			{Source: "1#out:1", Destination: "2#in:1"},
			{Source: "2#out:1", Destination: "3#in:1"},
		},
	}
	AutoLayout(sys)

	for i := range sys.Blocks {
		if len(sys.Blocks[i].Position) != 4 {
			t.Fatalf("block %s has no position", sys.Blocks[i].Name)
		}
	}
	// Columns progress left to right with the dependency chain.
	if sys.Blocks[0].Position[0] >= sys.Blocks[1].Position[0] {
		t.Error("inport not left of gain")
	}
	if sys.Blocks[1].Position[0] >= sys.Blocks[2].Position[0] {
		t.Error("gain not left of outport")
	}
}
