package ir

import "testing"

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		spec string
		want Endpoint
	}{
		{"3#out:1", Endpoint{"3", "out", 1}},
		{"12#in:4", Endpoint{"12", "in", 4}},
		{"block_a#out:2", Endpoint{"block_a", "out", 2}},
	}
	for _, test := range tests {
		got, err := ParseEndpoint(test.spec)
		if err != nil {
			t.Errorf("ParseEndpoint(%q) returned error: %v", test.spec, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseEndpoint(%q) = %v, want %v", test.spec, got, test.want)
		}
	}
}

func TestParseEndpointMalformed(t *testing.T) {
	for _, spec := range []string{"", "3", "3#out", "3#out:", "3#out:x", "3#out:0", "3#out:-1", "out:1"} {
		if _, err := ParseEndpoint(spec); err == nil {
			t.Errorf("ParseEndpoint(%q) succeeded, want error", spec)
		}
	}
}

func TestEndpointRoundTrip(t *testing.T) {
	specs := []string{"1#out:1", "42#in:3", "sub_block#out:7"}
	for _, spec := range specs {
		ep, err := ParseEndpoint(spec)
		if err != nil {
			t.Fatalf("ParseEndpoint(%q): %v", spec, err)
		}
		if got := ep.String(); got != spec {
			t.Errorf("round trip of %q produced %q", spec, got)
		}
	}
}
