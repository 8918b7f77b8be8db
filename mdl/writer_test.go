package mdl

import (
	"strings"
	"testing"

	"github.com/da0x/oc/ir"
	"github.com/da0x/oc/metadata"
)

func TestWriteVerbatimRoundTrip(t *testing.T) {
	original := sampleContainerWithModel()

	c, err := ParseContainer(original)
	if err != nil {
		t.Fatalf("ParseContainer: %v", err)
	}
	model, errs := ReadModel(c)
	if len(errs) > 0 {
		t.Fatalf("ReadModel: %v", errs)
	}
	model.Name = "plant"

	meta := metadata.Build(model, c.PartPaths(), c.RawParts())
	got := WriteVerbatim(meta)

	if got != original {
		t.Errorf("verbatim output differs from original:\ngot:\n%q\nwant:\n%q", got, original)
	}
}

func TestWriteVerbatimPartOrder(t *testing.T) {
	meta := &metadata.Metadata{
		Version:   1,
		PartOrder: []string{"/b.xml", "/a.xml"},
		RawParts: map[string]string{
			"/a.xml": "<A/>",
			"/b.xml": "<B/>",
		},
	}
	got := WriteVerbatim(meta)
	if strings.Index(got, "/b.xml") > strings.Index(got, "/a.xml") {
		t.Error("parts not written in recorded order")
	}
}

func TestWriteSynthesizedSkeleton(t *testing.T) {
	elemSys := &ir.System{
		ID: "system_1",
		Blocks: []ir.Block{
			{Type: ir.Inport, Name: "u", SID: "1", PortOut: 1},
			{Type: ir.Gain, Name: "G", SID: "2", PortIn: 1, PortOut: 1,
				Parameters: []ir.Param{{Name: "Gain", Value: "2.0"}}},
			{Type: ir.Outport, Name: "y", SID: "3", PortIn: 1},
		},
		Connections: []ir.Connection{
			{ZOrder: 1, Source: "1#out:1", Destination: "2#in:1"},
			{ZOrder: 2, Source: "2#out:1", Destination: "3#in:1"},
		},
	}
	AutoLayout(elemSys)

	model := ir.NewModel()
	model.AddSystem(elemSys)
	model.AddSystem(NewRootSystem([]RootElement{
		{Name: "Controller", InCount: 1, OutCount: 1, SystemID: "system_1"},
	}))

	content := WriteSynthesized(model)

	// The result must itself parse as a container with a readable model.
	c, err := ParseContainer(content)
	if err != nil {
		t.Fatalf("synthesized output is not a container: %v", err)
	}
	back, errs := ReadModel(c)
	if len(errs) > 0 {
		t.Fatalf("synthesized output not readable: %v", errs)
	}

	root := back.RootSystem()
	if root == nil {
		t.Fatal("synthesized output has no root system")
	}
	subs := root.Subsystems()
	if len(subs) != 1 || subs[0].Name != "Controller" {
		t.Fatalf("root subsystems = %+v", subs)
	}
	if subs[0].SubsystemRef != "system_1" {
		t.Errorf("subsystem ref = %q", subs[0].SubsystemRef)
	}

	sys := back.System("system_1")
	if sys == nil {
		t.Fatal("element system missing from synthesized output")
	}
	if len(sys.Blocks) != 3 {
		t.Errorf("element system has %d blocks, want 3", len(sys.Blocks))
	}
	if back.UUID == "" {
		t.Error("synthesized blockdiagram carries no UUID")
	}

	for _, part := range []string{
		"/[Content_Types].xml",
		"/_rels/.rels",
		"/metadata/coreProperties.xml",
		"/simulink/bddefaults.xml",
		"/simulink/configSet0.xml",
		"/simulink/windowsInfo.xml",
	} {
		if _, ok := c.Part(part); !ok {
			t.Errorf("skeleton part %s missing", part)
		}
	}
}

func TestSynthesizedUUIDsDiffer(t *testing.T) {
	model := ir.NewModel()
	model.AddSystem(NewRootSystem(nil))

	first := WriteSynthesized(model)
	second := WriteSynthesized(model)
	if first == second {
		t.Error("two synthesized containers share the same UUID")
	}
}
