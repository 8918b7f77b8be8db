package oc

import (
	"strings"
	"testing"
)

const sampleSource = `namespace plant {

component Inner {

    input {
        float x;
    }

    output {
        float z;
    }

    config {
        float g;
        float dt = 0.001;  // sample time
    }

    update {
        // Gain: Scale
        auto Scale = in.x * cfg.g;

        // Outputs
        out.z = Scale;
    }
}

element Controller {
    frequency: 1kHz;

    input {
        float u;
        float v;
    }

    output {
        float y;
    }

    state {
        float D_state = 0.0;  // UnitDelay in root
    }

    config {
        float k;
        float dt = 0.001;  // sample time
    }

    update {
        // Gain: Gain
        auto Gain = in.u * cfg.k;

        // Outputs
        out.y = Gain;
    }
}

} // namespace plant
`

func TestParseStructure(t *testing.T) {
	file, errs := Parse(sampleSource)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(file.Namespaces) != 1 {
		t.Fatalf("got %d namespaces, want 1", len(file.Namespaces))
	}

	ns := file.Namespaces[0]
	if ns.Name != "plant" {
		t.Errorf("namespace name = %q, want plant", ns.Name)
	}
	if len(ns.Elements) != 1 || len(ns.Components) != 1 {
		t.Fatalf("got %d elements, %d components; want 1, 1", len(ns.Elements), len(ns.Components))
	}

	elem := ns.Elements[0]
	if elem.Name != "Controller" {
		t.Errorf("element name = %q", elem.Name)
	}
	if elem.Frequency != "1 kHz" {
		t.Errorf("frequency = %q, want \"1 kHz\"", elem.Frequency)
	}

	inputs := SectionVars(elem.Sections, "input")
	if len(inputs) != 2 || inputs[0].Name != "u" || inputs[1].Name != "v" {
		t.Errorf("unexpected input section: %+v", inputs)
	}
	state := SectionVars(elem.Sections, "state")
	if len(state) != 1 || state[0].Name != "D_state" || state[0].Default != "0.0" {
		t.Errorf("unexpected state section: %+v", state)
	}
	config := SectionVars(elem.Sections, "config")
	if len(config) != 2 || config[0].Name != "k" || config[1].Name != "dt" {
		t.Errorf("unexpected config section: %+v", config)
	}

	comp := ns.Components[0]
	if comp.Name != "Inner" {
		t.Errorf("component name = %q", comp.Name)
	}
	if got := file.FindComponent("Inner"); got == nil {
		t.Error("FindComponent(Inner) = nil")
	}
}

func TestParseUpdateBodyVerbatim(t *testing.T) {
	file, errs := Parse(sampleSource)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	raw := file.Namespaces[0].Elements[0].Update.Raw

	// Comments and line structure must survive untouched.
	for _, want := range []string{
		"        // Gain: Gain\n",
		"        auto Gain = in.u * cfg.k;\n",
		"        // Outputs\n",
		"        out.y = Gain;\n",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("raw body missing %q:\n%s", want, raw)
		}
	}
	if strings.Contains(raw, "element") || strings.Contains(raw, "config {") {
		t.Errorf("raw body leaked surrounding text:\n%s", raw)
	}
}

func TestParseColonSections(t *testing.T) {
	src := `namespace n {
element E {
    input:
        float a;
        float b;
    output:
        float c;
    update {
    }
}
}
`
	file, errs := Parse(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	elem := file.Namespaces[0].Elements[0]
	if got := SectionVars(elem.Sections, "input"); len(got) != 2 {
		t.Errorf("colon-style input section has %d vars, want 2", len(got))
	}
	if got := SectionVars(elem.Sections, "output"); len(got) != 1 {
		t.Errorf("colon-style output section has %d vars, want 1", len(got))
	}
}

func TestParseControllerSkipped(t *testing.T) {
	src := `namespace n {
controller C {
    some { nested { braces } }
    update { x = 1; }
}
element E {
    update { }
}
}
`
	file, errs := Parse(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(file.Namespaces[0].Elements) != 1 {
		t.Errorf("element after controller not parsed")
	}
}

func TestParseSectionKeywordAsName(t *testing.T) {
	src := `namespace n {
element E {
    input {
        float state;
    }
    update { }
}
}
`
	file, errs := Parse(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	vars := SectionVars(file.Namespaces[0].Elements[0].Sections, "input")
	if len(vars) != 1 || vars[0].Name != "state" {
		t.Errorf("keyword-named variable not parsed: %+v", vars)
	}
}

func TestParseErrorsAccumulate(t *testing.T) {
	src := `element Orphan { }
namespace n {
    bogus
element E { update { } }
}
`
	file, errs := Parse(src)
	if len(errs) == 0 {
		t.Fatal("malformed source produced no errors")
	}
	// Best-effort tree still recovers the valid element.
	found := false
	for _, ns := range file.Namespaces {
		for _, elem := range ns.Elements {
			if elem.Name == "E" {
				found = true
			}
		}
	}
	if !found {
		t.Error("valid element lost after errors")
	}
	for _, err := range errs {
		if err.Line == 0 && err.Column == 0 {
			t.Errorf("error without position info: %+v", err)
		}
	}
}

func TestParseCustomTypeDecl(t *testing.T) {
	src := `namespace n {
element E {
    state {
        Inner_state Inner;  // component state
        float x = 0.0;
    }
    update { }
}
}
`
	file, errs := Parse(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	state := SectionVars(file.Namespaces[0].Elements[0].Sections, "state")
	if len(state) != 2 {
		t.Fatalf("got %d state vars, want 2", len(state))
	}
	if state[0].Type != "Inner_state" || state[0].Name != "Inner" {
		t.Errorf("custom-typed declaration parsed as %+v", state[0])
	}
}
