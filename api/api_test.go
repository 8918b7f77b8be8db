package api

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fixtureMDL is a minimal library: one Controller element with
// u -> Gain -> Sum -> y and v on the Sum's second port.
func fixtureMDL() string {
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
    <PortCounts in="2" out="1"/>
    <P Name="Position">[100, 100, 220, 180]</P>
    <P Name="ZOrder">1</P>
    <System Ref="system_1"/>
  </Block>
</System>`

	sysXML := `<?xml version="1.0" encoding="utf-8"?>
<System>
  <P Name="Location">[-1, -8, 1921, 1033]</P>
  <P Name="ZoomFactor">100</P>
  <P Name="SIDHighWatermark">5</P>
  <Block BlockType="Inport" Name="u" SID="1">
    <P Name="Position">[100, 50, 130, 64]</P>
    <P Name="ZOrder">1</P>
  </Block>
  <Block BlockType="Inport" Name="v" SID="2">
    <P Name="Position">[100, 100, 130, 114]</P>
    <P Name="ZOrder">2</P>
    <P Name="Port">2</P>
  </Block>
  <Block BlockType="Gain" Name="Gain" SID="3">
    <P Name="Position">[200, 50, 240, 86]</P>
    <P Name="ZOrder">3</P>
    <P Name="Gain">k</P>
    <Mask>
      <Display RunInitForIconRedraw="off"/>
      <MaskParameter Name="k" Type="edit">
        <Prompt>Gain factor</Prompt>
        <Value>2.0</Value>
      </MaskParameter>
    </Mask>
  </Block>
  <Block BlockType="Sum" Name="Sum" SID="4">
    <PortCounts in="2" out="1"/>
    <P Name="Position">[300, 50, 336, 86]</P>
    <P Name="ZOrder">4</P>
    <P Name="Inputs">++</P>
  </Block>
  <Block BlockType="Outport" Name="y" SID="5">
    <P Name="Position">[400, 50, 430, 64]</P>
    <P Name="ZOrder">5</P>
  </Block>
  <Line>
    <P Name="ZOrder">1</P>
    <P Name="Src">1#out:1</P>
    <P Name="Dst">3#in:1</P>
  </Line>
  <Line>
    <P Name="ZOrder">2</P>
    <P Name="Src">3#out:1</P>
    <P Name="Dst">4#in:1</P>
  </Line>
  <Line>
    <P Name="ZOrder">3</P>
    <P Name="Src">2#out:1</P>
    <P Name="Dst">4#in:2</P>
  </Line>
  <Line>
    <P Name="ZOrder">4</P>
    <P Name="Src">4#out:1</P>
    <P Name="Dst">5#in:1</P>
  </Line>
</System>`

	var b strings.Builder
	b.WriteString("# MathWorks OPC Text Package\n")
	b.WriteString("Model {\n")
	b.WriteString("  Version  24.2\n")
	b.WriteString("  Description \"Simulink model saved in R2024b\"\n")
	b.WriteString("}\n")
	b.WriteString("__MWOPC_PACKAGE_BEGIN__ R2024b\n")
	appendPart := func(path, content string) {
		b.WriteString("__MWOPC_PART_BEGIN__ " + path + "\n")
		b.WriteString(content + "\n\n")
	}
	appendPart("/simulink/blockdiagram.xml", blockdiagram)
	appendPart("/simulink/systems/system_root.xml", rootXML)
	appendPart("/simulink/systems/system_1.xml", sysXML)
	return b.String()
}

// chdirTemp switches into a fresh temp dir for the duration of the test.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
	return dir
}

func TestMDLToOCOutputs(t *testing.T) {
	dir := chdirTemp(t)
	mdlPath := filepath.Join(dir, "plant.mdl")
	if err := os.WriteFile(mdlPath, []byte(fixtureMDL()), 0644); err != nil {
		t.Fatal(err)
	}

	if result := MDLToOC(mdlPath, Config{}); result != RunSuccessful {
		t.Fatalf("MDLToOC = %v", result)
	}

	ocData, err := os.ReadFile(filepath.Join(dir, "plant-oc", "Controller.oc"))
	if err != nil {
		t.Fatalf("Controller.oc not written: %v", err)
	}
	oc := string(ocData)
	for _, want := range []string{
		"namespace plant {",
		"element Controller {",
		"// Gain: Gain",
		"auto Gain = in.u * cfg.k;",
		"// Sum: Sum",
		"auto Sum = Gain + in.v;",
		"// Outputs",
		"out.y = Sum;",
	} {
		if !strings.Contains(oc, want) {
			t.Errorf("OC output missing %q:\n%s", want, oc)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "plant-oc", "plant.oc.metadata")); err != nil {
		t.Errorf("sidecar not written: %v", err)
	}
}

func TestOCToMDLVerbatimRoundTrip(t *testing.T) {
	dir := chdirTemp(t)
	original := fixtureMDL()
	mdlPath := filepath.Join(dir, "plant.mdl")
	if err := os.WriteFile(mdlPath, []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	if result := MDLToOC(mdlPath, Config{}); result != RunSuccessful {
		t.Fatalf("MDLToOC = %v", result)
	}

	outPath := filepath.Join(dir, "regenerated.mdl")
	if result := OCToMDL(filepath.Join(dir, "plant-oc"), outPath); result != RunSuccessful {
		t.Fatalf("OCToMDL = %v", result)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != original {
		t.Errorf("round-tripped MDL differs from original:\ngot:\n%q\nwant:\n%q", got, original)
	}
}

func TestOCRoundTripIdempotent(t *testing.T) {
	// mdl_to_oc, oc_to_mdl (with sidecar), mdl_to_oc again: the OC text
	// must be identical both times.
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, "plant.mdl"), []byte(fixtureMDL()), 0644); err != nil {
		t.Fatal(err)
	}

	if result := MDLToOC(filepath.Join(dir, "plant.mdl"), Config{}); result != RunSuccessful {
		t.Fatal("first forward pass failed")
	}
	firstOC, err := os.ReadFile(filepath.Join(dir, "plant-oc", "Controller.oc"))
	if err != nil {
		t.Fatal(err)
	}

	secondInput := filepath.Join(dir, "second.mdl")
	if result := OCToMDL(filepath.Join(dir, "plant-oc"), secondInput); result != RunSuccessful {
		t.Fatal("reverse pass failed")
	}

	secondDir := filepath.Join(dir, "again")
	if err := os.MkdirAll(secondDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(secondDir); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(secondInput, filepath.Join(secondDir, "plant.mdl")); err != nil {
		t.Fatal(err)
	}
	if result := MDLToOC(filepath.Join(secondDir, "plant.mdl"), Config{}); result != RunSuccessful {
		t.Fatal("second forward pass failed")
	}
	secondOC, err := os.ReadFile(filepath.Join(secondDir, "plant-oc", "Controller.oc"))
	if err != nil {
		t.Fatal(err)
	}

	if string(firstOC) != string(secondOC) {
		t.Errorf("OC text not idempotent across the round trip:\nfirst:\n%s\nsecond:\n%s", firstOC, secondOC)
	}
}

func TestOCToMDLSynthesized(t *testing.T) {
	dir := chdirTemp(t)
	mdlPath := filepath.Join(dir, "plant.mdl")
	if err := os.WriteFile(mdlPath, []byte(fixtureMDL()), 0644); err != nil {
		t.Fatal(err)
	}
	if result := MDLToOC(mdlPath, Config{}); result != RunSuccessful {
		t.Fatal("forward pass failed")
	}

	// Remove the sidecar to force synthesized mode with lifted systems.
	if err := os.Remove(filepath.Join(dir, "plant-oc", "plant.oc.metadata")); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, "synth.mdl")
	if result := OCToMDL(filepath.Join(dir, "plant-oc"), outPath); result != RunSuccessful {
		t.Fatalf("OCToMDL synthesized = %v", result)
	}

	// The synthesized MDL must load and contain the lifted block graph.
	if result := MDLToOC(outPath, Config{}); result != RunSuccessful &&
		result != RunSuccessfulButWithWarnings {
		t.Fatalf("synthesized MDL not convertible: %v", result)
	}
	reOC, err := os.ReadFile(filepath.Join(dir, "synth-oc", "Controller.oc"))
	if err != nil {
		t.Fatalf("element lost in synthesized round trip: %v", err)
	}
	for _, want := range []string{"// Gain: Gain", "// Sum: Sum", "out.y ="} {
		if !strings.Contains(string(reOC), want) {
			t.Errorf("synthesized round trip lost %q:\n%s", want, reOC)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Low Pass Filter", "Low_Pass_Filter"},
		{"rate-limiter", "rate-limiter"},
		{"a/b\\c", "abc"},
	}
	for _, test := range tests {
		if got := sanitizeFilename(test.in); got != test.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}
