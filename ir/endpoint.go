package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Port kinds used in endpoint addresses.
const (
	PortIn  = "in"
	PortOut = "out"
)

// Endpoint addresses a single port of a block. Its wire format
// "<sid>#<kind>:<index>" is fixed by the MDL Line Src/Dst strings and must
// be preserved exactly.
type Endpoint struct {
	BlockSID  string
	PortKind  string
	PortIndex int
}

// ParseEndpoint parses an endpoint address of the form "<sid>#<kind>:<index>".
func ParseEndpoint(spec string) (Endpoint, error) {
	hash := strings.Index(spec, "#")
	if hash < 0 {
		return Endpoint{}, fmt.Errorf("malformed endpoint %q: missing '#'", spec)
	}
	colon := strings.Index(spec[hash:], ":")
	if colon < 0 {
		return Endpoint{}, fmt.Errorf("malformed endpoint %q: missing ':'", spec)
	}
	colon += hash
	index, err := strconv.Atoi(spec[colon+1:])
	if err != nil || index < 1 {
		return Endpoint{}, fmt.Errorf("malformed endpoint %q: bad port index", spec)
	}
	return Endpoint{
		BlockSID:  spec[:hash],
		PortKind:  spec[hash+1 : colon],
		PortIndex: index,
	}, nil
}

// String formats the endpoint in its wire format.
func (e Endpoint) String() string {
	return e.BlockSID + "#" + e.PortKind + ":" + strconv.Itoa(e.PortIndex)
}
