package metadata

import (
	"path/filepath"
	"testing"

	"github.com/da0x/oc/ir"
)

func sampleModel() *ir.Model {
	sys := &ir.System{
		ID:               "system_1",
		Location:         []int{-1, -8, 1921, 1033},
		ZoomFactor:       100,
		SIDHighWatermark: 3,
		Blocks: []ir.Block{
			{Type: ir.Inport, Name: "u", SID: "1", PortOut: 1,
				Position: []int{100, 50, 130, 64}, ZOrder: 1},
			{Type: ir.Gain, Name: "G", SID: "2", PortIn: 1, PortOut: 1,
				Position: []int{200, 50, 240, 86}, ZOrder: 2,
				Parameters: []ir.Param{
					{Name: "Gain", Value: "k"},
					{Name: "BackgroundColor", Value: "orange"},
				},
				MaskParameters: []ir.MaskParameter{
					{Name: "k", Type: "edit", Prompt: "Gain factor", Value: "2.0"},
				}},
			{Type: ir.Outport, Name: "y", SID: "3", PortIn: 1,
				Position: []int{300, 50, 330, 64}, ZOrder: 3},
		},
		Connections: []ir.Connection{
			{ZOrder: 1, Source: "1#out:1", Destination: "2#in:1", Points: []int{10, 0}},
			{ZOrder: 2, Source: "2#out:1",
				Branches: []ir.Branch{
					{ZOrder: 3, Destination: "3#in:1"},
				}},
		},
	}
	model := ir.NewModel()
	model.UUID = "aaaa-bbbb"
	model.Name = "plant"
	model.LibraryType = "BlockLibrary"
	model.AddSystem(sys)
	return model
}

func TestBuildMetadata(t *testing.T) {
	model := sampleModel()
	partOrder := []string{"/simulink/blockdiagram.xml", "/simulink/systems/system_1.xml"}
	rawParts := map[string]string{
		"/simulink/blockdiagram.xml":     "<ModelInformation/>",
		"/simulink/systems/system_1.xml": "<System/>",
	}

	meta := Build(model, partOrder, rawParts)
	if meta.Version != Version {
		t.Errorf("version = %d, want %d", meta.Version, Version)
	}
	if meta.Model.UUID != "aaaa-bbbb" || meta.Model.Name != "plant" {
		t.Errorf("model info = %+v", meta.Model)
	}
	if len(meta.PartOrder) != 2 || meta.PartOrder[0] != "/simulink/blockdiagram.xml" {
		t.Errorf("part order = %v", meta.PartOrder)
	}
	if meta.RawParts["/simulink/systems/system_1.xml"] != "<System/>" {
		t.Error("raw part content not captured verbatim")
	}

	sys, ok := meta.Systems["system_1"]
	if !ok {
		t.Fatal("system_1 missing from metadata")
	}
	if len(sys.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(sys.Blocks))
	}
	gain := sys.Blocks[1]
	if gain.BackgroundColor != "orange" {
		t.Errorf("background color = %q", gain.BackgroundColor)
	}
	if gain.Parameters["Gain"] != "k" {
		t.Errorf("parameters = %v", gain.Parameters)
	}
	if _, ok := gain.Parameters["Position"]; ok {
		t.Error("Position captured as a plain parameter")
	}
	if len(gain.Mask) != 1 || gain.Mask[0].Prompt != "Gain factor" {
		t.Errorf("mask = %+v", gain.Mask)
	}
	if len(sys.Connections) != 2 || len(sys.Connections[1].Branches) != 1 {
		t.Errorf("connections = %+v", sys.Connections)
	}
}

func TestMetadataFileRoundTrip(t *testing.T) {
	model := sampleModel()
	meta := Build(model,
		[]string{"/simulink/blockdiagram.xml"},
		map[string]string{"/simulink/blockdiagram.xml": "line1\nline2\t<x>&amp;</x>"})

	path := filepath.Join(t.TempDir(), "plant.oc.metadata")
	if err := WriteFile(path, meta); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if got.Version != meta.Version || got.Model != meta.Model {
		t.Errorf("identity changed: %+v vs %+v", got.Model, meta.Model)
	}
	if got.RawParts["/simulink/blockdiagram.xml"] != "line1\nline2\t<x>&amp;</x>" {
		t.Errorf("raw part bytes changed: %q", got.RawParts["/simulink/blockdiagram.xml"])
	}
	sys := got.Systems["system_1"]
	if len(sys.Blocks) != 3 || sys.Blocks[1].Name != "G" {
		t.Errorf("blocks changed: %+v", sys.Blocks)
	}
}

func TestMetadataReadMissingFile(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.metadata")); err == nil {
		t.Error("reading a missing sidecar succeeded")
	}
}

func TestSystemMetaToSystem(t *testing.T) {
	meta := Build(sampleModel(), nil, nil)
	sm := meta.Systems["system_1"]
	sys := sm.ToSystem("system_1")

	if sys.ID != "system_1" || len(sys.Blocks) != 3 {
		t.Fatalf("unexpected system: %v", sys)
	}
	gain := sys.FindBlockBySID("2")
	if gain == nil || gain.Type != ir.Gain {
		t.Fatal("gain block lost in conversion")
	}
	if v, _ := gain.Param("Gain"); v != "k" {
		t.Errorf("Gain param = %q", v)
	}
	if len(sys.Connections) != 2 {
		t.Errorf("connections = %+v", sys.Connections)
	}
}
