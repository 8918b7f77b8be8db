package translator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/da0x/oc/ir"
)

// TransferFunction is a continuous-time transfer function with coefficient
// lists in highest-power-first order.
type TransferFunction struct {
	Num   []float64
	Den   []float64
	Order int
}

// ParseCoefficients reads a MATLAB-style coefficient array like "[0.3 0]" or
// "[0.02, 1]".
func ParseCoefficients(s string) []float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']':
			return -1
		case ',', ';':
			return ' '
		}
		return r
	}, s)

	var coeffs []float64
	for _, field := range strings.Fields(cleaned) {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		coeffs = append(coeffs, v)
	}
	return coeffs
}

// parseTransferFunction reads the Numerator/Denominator parameters of a
// TransferFcn block. The order is the denominator degree.
func parseTransferFunction(blk *ir.Block) TransferFunction {
	numStr, ok := blk.Param("Numerator")
	if !ok {
		numStr = "[1]"
	}
	denStr, ok := blk.Param("Denominator")
	if !ok {
		denStr = "[1]"
	}
	tf := TransferFunction{
		Num: ParseCoefficients(numStr),
		Den: ParseCoefficients(denStr),
	}
	tf.Order = len(tf.Den) - 1
	if tf.Order < 1 {
		tf.Order = 1
	}
	return tf
}

// firstOrderCoeffs normalizes the coefficient lists of a first-order
// function to (b0, b1, a0, a1) for H(s) = (b0*s + b1) / (a0*s + a1). A
// single-value numerator [c] is the constant c.
func (tf TransferFunction) firstOrderCoeffs() (b0, b1, a0, a1 float64) {
	if len(tf.Num) > 0 {
		b0 = tf.Num[0]
	}
	b1 = 1.0
	if len(tf.Num) > 1 {
		b1 = tf.Num[1]
	}
	if len(tf.Num) == 1 {
		b0, b1 = 0.0, tf.Num[0]
	}
	if len(tf.Den) > 0 {
		a0 = tf.Den[0]
	}
	a1 = 1.0
	if len(tf.Den) > 1 {
		a1 = tf.Den[1]
	}
	return b0, b1, a0, a1
}

// secondOrderCoeffs normalizes to (b0, b1, b2, a0, a1, a2) for
// H(s) = (b0*s^2 + b1*s + b2) / (a0*s^2 + a1*s + a2).
func (tf TransferFunction) secondOrderCoeffs() (b0, b1, b2, a0, a1, a2 float64) {
	switch len(tf.Num) {
	case 0:
		b2 = 1.0
	case 1:
		b2 = tf.Num[0]
	case 2:
		b1, b2 = tf.Num[0], tf.Num[1]
	default:
		b0, b1, b2 = tf.Num[0], tf.Num[1], tf.Num[2]
	}
	if len(tf.Den) > 0 {
		a0 = tf.Den[0]
	}
	if len(tf.Den) > 1 {
		a1 = tf.Den[1]
	}
	a2 = 1.0
	if len(tf.Den) > 2 {
		a2 = tf.Den[2]
	}
	return b0, b1, b2, a0, a1, a2
}

// Discretize applies the Tustin (bilinear) transform s = (2/dt)(z-1)/(z+1)
// and returns the discrete-time numerator and denominator coefficients.
// Orders 1 and 2 are supported; other orders return the coefficients
// unchanged.
func (tf TransferFunction) Discretize(dt float64) (numD, denD []float64) {
	k := 2.0 / dt

	switch tf.Order {
	case 1:
		b0, b1, a0, a1 := tf.firstOrderCoeffs()
		numD = []float64{b0*k + b1, -b0*k + b1}
		denD = []float64{a0*k + a1, -a0*k + a1}
		return numD, denD

	case 2:
		b0, b1, b2, a0, a1, a2 := tf.secondOrderCoeffs()
		k2 := k * k
		numD = []float64{
			b0*k2 + b1*k + b2,
			2*b2 - 2*b0*k2,
			b0*k2 - b1*k + b2,
		}
		denD = []float64{
			a0*k2 + a1*k + a2,
			2*a2 - 2*a0*k2,
			a0*k2 - a1*k + a2,
		}
		return numD, denD
	}

	return tf.Num, tf.Den
}

// emitTransferFcn writes a scoped Direct Form I block whose Tustin
// coefficients are computed at runtime from cfg.dt, so the generated code
// follows the configured step size.
func (t *translator) emitTransferFcn(ctx *blockContext, code *strings.Builder) {
	blk := ctx.blk
	tf := parseTransferFunction(blk)
	statePrefix := "state." + ctx.varPrefix + "_tf_"

	fmt.Fprintf(code, "%s// TransferFcn: %s (order %d)\n", indent, blk.Name, tf.Order)
	code.WriteString(indent + "{\n")

	switch tf.Order {
	case 1:
		b0, b1, a0, a1 := tf.firstOrderCoeffs()
		fmt.Fprintf(code, "%s    float k = 2.0f / cfg.dt;\n", indent)
		fmt.Fprintf(code, "%s    float b0_d = %s * k + %s;\n", indent, formatFloat(b0), formatFloat(b1))
		fmt.Fprintf(code, "%s    float b1_d = -%s * k + %s;\n", indent, formatFloat(b0), formatFloat(b1))
		fmt.Fprintf(code, "%s    float a0_d = %s * k + %s;\n", indent, formatFloat(a0), formatFloat(a1))
		fmt.Fprintf(code, "%s    float a1_d = -%s * k + %s;\n", indent, formatFloat(a0), formatFloat(a1))
		fmt.Fprintf(code, "%s    float u_n = %s;\n", indent, ctx.input(0))
		fmt.Fprintf(code, "%s    float y_n = (b0_d * u_n + b1_d * %su0 - a1_d * %sx0) / a0_d;\n",
			indent, statePrefix, statePrefix)
		fmt.Fprintf(code, "%s    %su0 = u_n;\n", indent, statePrefix)
		fmt.Fprintf(code, "%s    %sx0 = y_n;\n", indent, statePrefix)
		code.WriteString(indent + "}\n")
		fmt.Fprintf(code, "%sauto %s = %sx0;\n", indent, ctx.outVar, statePrefix)

	case 2:
		b0, b1, b2, a0, a1, a2 := tf.secondOrderCoeffs()
		fmt.Fprintf(code, "%s    float k = 2.0f / cfg.dt;\n", indent)
		fmt.Fprintf(code, "%s    float k2 = k * k;\n", indent)
		fmt.Fprintf(code, "%s    float b0_d = %s*k2 + %s*k + %s;\n", indent, formatFloat(b0), formatFloat(b1), formatFloat(b2))
		fmt.Fprintf(code, "%s    float b1_d = 2.0f*%s - 2.0f*%s*k2;\n", indent, formatFloat(b2), formatFloat(b0))
		fmt.Fprintf(code, "%s    float b2_d = %s*k2 - %s*k + %s;\n", indent, formatFloat(b0), formatFloat(b1), formatFloat(b2))
		fmt.Fprintf(code, "%s    float a0_d = %s*k2 + %s*k + %s;\n", indent, formatFloat(a0), formatFloat(a1), formatFloat(a2))
		fmt.Fprintf(code, "%s    float a1_d = 2.0f*%s - 2.0f*%s*k2;\n", indent, formatFloat(a2), formatFloat(a0))
		fmt.Fprintf(code, "%s    float a2_d = %s*k2 - %s*k + %s;\n", indent, formatFloat(a0), formatFloat(a1), formatFloat(a2))
		fmt.Fprintf(code, "%s    float u_n = %s;\n", indent, ctx.input(0))
		fmt.Fprintf(code, "%s    float y_n = (b0_d*u_n + b1_d*%su0 + b2_d*%su1 - a1_d*%sx0 - a2_d*%sx1) / a0_d;\n",
			indent, statePrefix, statePrefix, statePrefix, statePrefix)
		fmt.Fprintf(code, "%s    %su1 = %su0;\n", indent, statePrefix, statePrefix)
		fmt.Fprintf(code, "%s    %su0 = u_n;\n", indent, statePrefix)
		fmt.Fprintf(code, "%s    %sx1 = %sx0;\n", indent, statePrefix, statePrefix)
		fmt.Fprintf(code, "%s    %sx0 = y_n;\n", indent, statePrefix)
		code.WriteString(indent + "}\n")
		fmt.Fprintf(code, "%sauto %s = %sx0;\n", indent, ctx.outVar, statePrefix)

	default:
		fmt.Fprintf(code, "%s    // Order %d transfer function not yet supported\n", indent, tf.Order)
		code.WriteString(indent + "}\n")
		fmt.Fprintf(code, "%sauto %s = %s;\n", indent, ctx.outVar, ctx.input(0))
		t.addWarning(fmt.Errorf("block %s: transfer function order %d unsupported, emitted pass-through",
			blk.Name, tf.Order))
	}
}
