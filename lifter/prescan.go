package lifter

import (
	"strconv"
	"strings"
)

// prescanStateVar is a stateful block discovered before the main pass, so
// that state.<X> references resolve forward: a stateful block's output is
// readable before the statement that updates it.
type prescanStateVar struct {
	stateKey    string // "state.<X>_state"
	blockType   string // UnitDelay, Memory, Integrator, DiscreteIntegrator
	reservedSID string
}

// prescanTF carries the data recovered from one TransferFcn scoped block:
// the feeding expression and the continuous-time coefficients read back from
// the Tustin lines.
type prescanTF struct {
	inputVar    string
	numerator   string
	denominator string
}

// prescan walks the update body once, reserving SIDs for stateful blocks and
// inverting the Tustin coefficient lines of TransferFcn scopes.
func (ls *lifterState) prescan(lines []string) {
	var scanType, scanName string
	inTFScope := false
	tfDepth := 0
	var tf tfScan

	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}

		if strings.HasPrefix(t, "//") {
			comment := strings.TrimSpace(t[2:])
			if comment == "Outputs" {
				break
			}
			// The secondary order line of a TransferFcn is not a new block.
			if strings.HasPrefix(comment, "TransferFcn:") && scanType == "TransferFcn" {
				continue
			}
			if colon := strings.Index(comment, ":"); colon >= 0 {
				scanType = strings.TrimSpace(comment[:colon])
				scanName = xmlDecode(strings.TrimSpace(comment[colon+1:]))
			}
			continue
		}

		if inTFScope {
			for _, c := range t {
				if c == '{' {
					tfDepth++
				}
				if c == '}' {
					tfDepth--
				}
			}
			tf.scanLine(t)
			if tfDepth <= 0 {
				ls.tfData[tf.name] = tf.result()
				inTFScope = false
				scanType, scanName = "", ""
			}
			continue
		}

		if t == "{" && scanType == "TransferFcn" {
			inTFScope = true
			tfDepth = 1
			tf = tfScan{name: scanName}
			continue
		}

		// Reserve integrator outputs: state.<X> += <expr> * cfg.dt;
		if strings.HasPrefix(t, "state.") && strings.Contains(t, "+=") &&
			strings.Contains(t, "* cfg.dt") &&
			(scanType == "Integrator" || scanType == "DiscreteIntegrator") {
			stateVar := strings.TrimSpace(t[len("state."):strings.Index(t, "+=")])
			sid := ls.allocSID()
			ls.stateVars = append(ls.stateVars, prescanStateVar{
				stateKey:    "state." + stateVar,
				blockType:   scanType,
				reservedSID: sid,
			})
			ls.define("state."+stateVar, endpointRef{sid, 1})
			scanType = ""
			continue
		}

		// Reserve delay outputs: state.<X> = <expr>;  // update for next step
		if strings.HasPrefix(t, "state.") && strings.Contains(t, "= ") &&
			!strings.Contains(t, "+=") && !strings.Contains(t, "_tf_") &&
			(scanType == "UnitDelay" || scanType == "Memory") {
			stateVar := strings.TrimSpace(t[len("state."):strings.Index(t, "=")])
			sid := ls.allocSID()
			ls.stateVars = append(ls.stateVars, prescanStateVar{
				stateKey:    "state." + stateVar,
				blockType:   scanType,
				reservedSID: sid,
			})
			ls.define("state."+stateVar, endpointRef{sid, 1})
			scanType = ""
			continue
		}
	}
}

// reservedSID finds the SID reserved during prescan for a state variable of
// the given block type family.
func (ls *lifterState) reservedSID(stateKey string, integrator bool) (string, bool) {
	for _, sv := range ls.stateVars {
		isIntegrator := sv.blockType == "Integrator" || sv.blockType == "DiscreteIntegrator"
		if sv.stateKey == stateKey && isIntegrator == integrator {
			return sv.reservedSID, true
		}
	}
	return "", false
}

// tfScan accumulates the lines of one TransferFcn scoped block.
type tfScan struct {
	name     string
	inputVar string
	order2   bool

	b0, b1, b2 float64
	a0, a1, a2 float64
}

func (tf *tfScan) scanLine(t string) {
	switch {
	case strings.HasPrefix(t, "float u_n = "):
		val := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t[strings.Index(t, "=")+1:]), ";"))
		tf.inputVar = val
	case strings.HasPrefix(t, "float b0_d"):
		tf.b0, tf.b1, tf.b2, tf.order2 = parseTustinLine(t)
	case strings.HasPrefix(t, "float a0_d"):
		a0, a1, a2, _ := parseTustinLine(t)
		tf.a0, tf.a1, tf.a2 = a0, a1, a2
	}
}

// parseTustinLine inverts a leading Tustin coefficient line.
//
// Order 1: float b0_d = <b0> * k + <b1>;     -> (b0, b1, 0, false)
// Order 2: float b0_d = <b0>*k2 + <b1>*k + <b2>; -> (b0, b1, b2, true)
func parseTustinLine(t string) (c0, c1, c2 float64, order2 bool) {
	eq := strings.Index(t, "=")
	if eq < 0 {
		return 0, 0, 0, false
	}
	val := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t[eq+1:]), ";"))

	if strings.Contains(val, "*k2") {
		terms := strings.Split(val, " + ")
		if len(terms) != 3 {
			return 0, 0, 0, true
		}
		c0 = parseFloatLit(strings.TrimSuffix(terms[0], "*k2"))
		c1 = parseFloatLit(strings.TrimSuffix(terms[1], "*k"))
		c2 = parseFloatLit(terms[2])
		return c0, c1, c2, true
	}

	starK := strings.Index(val, " * k")
	if starK < 0 {
		return 0, 0, 0, false
	}
	c0 = parseFloatLit(val[:starK])
	rest := val[starK+len(" * k"):]
	if plus := strings.Index(rest, "+"); plus >= 0 {
		c1 = parseFloatLit(rest[plus+1:])
	}
	return c0, c1, 0, false
}

// result reconstructs the continuous-time coefficient parameters from the
// scanned Tustin lines, up to leading-zero trimming.
func (tf *tfScan) result() prescanTF {
	res := prescanTF{inputVar: tf.inputVar}
	if tf.order2 {
		res.numerator = formatCoeffArray(trimLeadingZeros([]float64{tf.b0, tf.b1, tf.b2}))
		res.denominator = formatCoeffArray([]float64{tf.a0, tf.a1, tf.a2})
	} else {
		res.numerator = formatCoeffArray(trimLeadingZeros([]float64{tf.b0, tf.b1}))
		res.denominator = formatCoeffArray([]float64{tf.a0, tf.a1})
	}
	return res
}

func trimLeadingZeros(coeffs []float64) []float64 {
	i := 0
	for i < len(coeffs)-1 && coeffs[i] == 0 {
		i++
	}
	return coeffs[i:]
}

func formatCoeffArray(coeffs []float64) string {
	parts := make([]string, len(coeffs))
	for i, c := range coeffs {
		parts[i] = strconv.FormatFloat(c, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// xmlDecode maps the entity references the forward pass may leave in block
// name comments back to characters.
func xmlDecode(s string) string {
	r := strings.NewReplacer(
		"&#xA;", "\n",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
	)
	return r.Replace(s)
}
