package mdl

import (
	"strings"
	"testing"
)

const sampleContainer = `# MathWorks OPC Text Package
Model {
  Version  24.2
  Description "Simulink model saved in R2024b"
}
__MWOPC_PACKAGE_BEGIN__ R2024b
__MWOPC_PART_BEGIN__ /[Content_Types].xml
<?xml version="1.0"?>
<Types/>

__MWOPC_PART_BEGIN__ /simulink/blockdiagram.xml
<?xml version="1.0"?>
<ModelInformation/>

__MWOPC_PART_BEGIN__ /simulink/systems/system_root.xml
<?xml version="1.0"?>
<System/>

__MWOPC_PART_BEGIN__ /simulink/systems/system_1.xml
<?xml version="1.0"?>
<System/>

__MWOPC_PART_BEGIN__ /data/payload.mxarray BASE64
QUJDRA==
`

func TestParseContainerParts(t *testing.T) {
	c, err := ParseContainer(sampleContainer)
	if err != nil {
		t.Fatalf("ParseContainer: %v", err)
	}

	wantOrder := []string{
		"/[Content_Types].xml",
		"/simulink/blockdiagram.xml",
		"/simulink/systems/system_root.xml",
		"/simulink/systems/system_1.xml",
		"/data/payload.mxarray",
	}
	got := c.PartPaths()
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d parts, want %d: %v", len(got), len(wantOrder), got)
	}
	for i := range wantOrder {
		if got[i] != wantOrder[i] {
			t.Errorf("part %d = %q, want %q", i, got[i], wantOrder[i])
		}
	}

	content, ok := c.Part("/simulink/blockdiagram.xml")
	if !ok {
		t.Fatal("blockdiagram part missing")
	}
	if content != "<?xml version=\"1.0\"?>\n<ModelInformation/>" {
		t.Errorf("unexpected part content: %q", content)
	}

	// The BASE64 suffix belongs to the marker line, not the path.
	if _, ok := c.Part("/data/payload.mxarray"); !ok {
		t.Error("base64 part path not recognized")
	}
}

func TestContainerSystemPaths(t *testing.T) {
	c, err := ParseContainer(sampleContainer)
	if err != nil {
		t.Fatalf("ParseContainer: %v", err)
	}
	paths := c.SystemPaths()
	want := []string{
		"/simulink/systems/system_root.xml",
		"/simulink/systems/system_1.xml",
	}
	if len(paths) != len(want) {
		t.Fatalf("system paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("system path %d = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestParseContainerMalformed(t *testing.T) {
	if _, err := ParseContainer("not a container at all"); err == nil {
		t.Error("container without markers parsed successfully")
	}
}

func TestContainerVerbatimReassembly(t *testing.T) {
	// Load, project into raw parts, and write back: the byte stream must
	// match the original.
	c, err := ParseContainer(sampleContainer)
	if err != nil {
		t.Fatalf("ParseContainer: %v", err)
	}

	var b strings.Builder
	b.WriteString(header)
	for _, path := range c.PartPaths() {
		content, _ := c.Part(path)
		writePart(&b, path, content)
	}

	if b.String() != sampleContainer {
		t.Errorf("reassembled container differs:\ngot:\n%q\nwant:\n%q", b.String(), sampleContainer)
	}
}
