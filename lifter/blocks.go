package lifter

import (
	"strconv"
	"strings"

	"github.com/da0x/oc/ir"
	"github.com/da0x/oc/oc"
)

// mainPass walks the update body and creates one block per comment-tagged
// statement, tracking the value names each block defines.
func (ls *lifterState) mainPass(lines []string) {
	var pendingType, pendingName string

	for i := 0; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if t == "" {
			continue
		}

		if strings.HasPrefix(t, "//") {
			comment := strings.TrimSpace(t[2:])
			if comment == "Outputs" {
				break
			}
			if strings.HasPrefix(comment, "TransferFcn:") && pendingType == "TransferFcn" {
				continue
			}
			// Inlined-subsystem begin/end markers are not block comments.
			if strings.HasPrefix(comment, "---") {
				pendingType, pendingName = "", ""
				continue
			}
			colon := strings.Index(comment, ":")
			if colon < 0 {
				continue
			}
			pendingType = strings.TrimSpace(comment[:colon])
			pendingName = xmlDecode(strings.TrimSpace(comment[colon+1:]))

			// Demux emits no statement; the comment is the whole block.
			if pendingType == "Demux" {
				blk := ir.Block{
					Type:    ir.Demux,
					Name:    pendingName,
					SID:     ls.allocSID(),
					PortIn:  1,
					PortOut: 2,
				}
				blk.SetParam("Outputs", "2")
				ls.blocks = append(ls.blocks, blk)
				pendingType, pendingName = "", ""
			}
			continue
		}

		// TransferFcn scope internals are consumed by the prescan.
		if t == "{" || t == "}" {
			continue
		}
		if strings.HasPrefix(t, "float ") {
			continue
		}
		if strings.HasPrefix(t, "state.") && strings.Contains(t, "_tf_") {
			continue
		}

		if strings.HasPrefix(t, "auto ") {
			if pendingType == "Component call" {
				continue
			}
			eq := strings.Index(t, "=")
			if eq < 0 {
				continue
			}
			varName := strings.TrimSpace(t[len("auto "):eq])
			expr := stripStatement(t[eq+1:])

			if pendingType == "" {
				// Alias statements from inlined subsystem outputs carry no
				// marker; keep the name resolvable.
				if ref, ok := ls.lookupVar(expr); ok {
					ls.define(varName, ref)
				}
				continue
			}

			if pendingType == "TransferFcn" {
				ls.createTransferFcn(pendingName, varName, expr)
			} else {
				ls.createBlock(pendingType, pendingName, varName, expr)
			}
			pendingType, pendingName = "", ""
			continue
		}

		// Integrator family: state.<X> += <expr> * cfg.dt;
		if strings.HasPrefix(t, "state.") && strings.Contains(t, "+=") && strings.Contains(t, "* cfg.dt") {
			if pendingType == "Integrator" || pendingType == "DiscreteIntegrator" {
				ls.createIntegrator(pendingType, pendingName, t)
				pendingType, pendingName = "", ""
			}
			continue
		}

		// Delay family: state.<X> = <expr>;  // update for next step
		if strings.HasPrefix(t, "state.") && strings.Contains(t, "= ") && !strings.Contains(t, "+=") {
			if pendingType == "UnitDelay" || pendingType == "Memory" {
				ls.createDelay(pendingType, pendingName, t)
				pendingType, pendingName = "", ""
			}
			continue
		}

		if pendingType == "Component call" {
			i = ls.createComponentCall(pendingName, lines, i)
			pendingType, pendingName = "", ""
			continue
		}
	}
}

// stripStatement drops a trailing line comment and the statement semicolon.
func stripStatement(s string) string {
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

func (ls *lifterState) createTransferFcn(name, varName, expr string) {
	blk := ir.Block{
		Type:    ir.TransferFcn,
		Name:    name,
		SID:     ls.allocSID(),
		PortIn:  1,
		PortOut: 1,
	}
	if tf, ok := ls.tfData[name]; ok {
		ls.resolveInput(tf.inputVar, blk.SID, 1)
		blk.SetParam("Numerator", tf.numerator)
		blk.SetParam("Denominator", tf.denominator)
	} else {
		ls.resolveInput(expr, blk.SID, 1)
	}
	ls.blocks = append(ls.blocks, blk)
	ls.define(varName, endpointRef{blk.SID, 1})
}

func (ls *lifterState) createIntegrator(blockType, name, t string) {
	plus := strings.Index(t, "+=")
	stateVar := strings.TrimSpace(t[len("state."):plus])

	sid, ok := ls.reservedSID("state."+stateVar, true)
	if !ok {
		sid = ls.allocSID()
	}
	blk := ir.Block{Type: blockType, Name: name, SID: sid, PortIn: 1, PortOut: 1}

	inputExpr := t[plus+2:]
	if dt := strings.Index(inputExpr, "* cfg.dt"); dt >= 0 {
		inputExpr = inputExpr[:dt]
	}
	ls.resolveInput(strings.TrimSpace(inputExpr), blk.SID, 1)
	ls.blocks = append(ls.blocks, blk)
}

func (ls *lifterState) createDelay(blockType, name, t string) {
	eq := strings.Index(t, "=")
	stateVar := strings.TrimSpace(t[len("state."):eq])
	expr := stripStatement(t[eq+1:])

	sid, ok := ls.reservedSID("state."+stateVar, false)
	if !ok {
		sid = ls.allocSID()
	}
	blk := ir.Block{Type: blockType, Name: name, SID: sid, PortIn: 1, PortOut: 1}
	ls.resolveInput(expr, blk.SID, 1)
	ls.blocks = append(ls.blocks, blk)
	ls.define("state."+stateVar, endpointRef{blk.SID, 1})
}

// createComponentCall consumes the multi-line component call pattern
// starting at lines[i] and returns the index of its last line.
func (ls *lifterState) createComponentCall(name string, lines []string, i int) int {
	t := strings.TrimSpace(lines[i])

	underscoreInput := strings.Index(t, "_input ")
	if underscoreInput < 0 {
		return i
	}
	compType := t[:underscoreInput]

	// Instance prefix from "<Type>_input <prefix>_in{...};".
	rest := t[underscoreInput+len("_input "):]
	brace := strings.Index(rest, "{")
	if brace < 0 {
		return i
	}
	instVar := strings.TrimSpace(rest[:brace])
	prefix := strings.TrimSuffix(instVar, "_in")

	var compDef *oc.Component
	for j := range ls.components {
		if ls.components[j].Name == compType {
			compDef = &ls.components[j]
			break
		}
	}

	inCount, outCount := 0, 0
	if compDef != nil {
		inCount = len(oc.SectionVars(compDef.Sections, "input"))
		outCount = len(oc.SectionVars(compDef.Sections, "output"))
	}

	// Input values from the designated initializers.
	absBrace := underscoreInput + len("_input ") + brace
	var inputValues []string
	if end := strings.LastIndex(t, "}"); end > absBrace {
		fields := t[absBrace+1 : end]
		for _, field := range splitArgs(fields) {
			eq := strings.Index(field, "=")
			if eq < 0 {
				continue
			}
			inputValues = append(inputValues, strings.TrimSpace(field[eq+1:]))
		}
	}

	blk := ir.Block{
		Type:    ir.SubSystem,
		Name:    name,
		SID:     ls.allocSID(),
		PortIn:  max(inCount, len(inputValues)),
		PortOut: max(outCount, 1),
	}

	if compDef != nil {
		(*ls.sysCounter)++
		childID := *ls.sysCounter
		blk.SubsystemRef = "system_" + strconv.Itoa(childID)

		child := LiftComponent(compDef, ls.components, ls.sysCounter)
		child.System.ID = "system_" + strconv.Itoa(childID)
		ls.children = append(ls.children, child.System)
		ls.children = append(ls.children, child.Children...)
		ls.diagnostics = append(ls.diagnostics, child.Diagnostics...)
	} else {
		ls.diag("component call %s: no component named %q", name, compType)
	}

	for p, val := range inputValues {
		ls.resolveInput(val, blk.SID, p+1)
	}
	ls.blocks = append(ls.blocks, blk)

	// Skip the output struct and update call lines.
	i += 2

	// Output extractions: auto <prefix>_out<N> = <prefix>_out.<field>;
	outPort := 1
	for i+1 < len(lines) {
		next := strings.TrimSpace(lines[i+1])
		if !strings.HasPrefix(next, "auto "+prefix+"_out") {
			break
		}
		eq := strings.Index(next, "=")
		if eq < 0 {
			break
		}
		outVar := strings.TrimSpace(next[len("auto "):eq])
		ls.define(outVar, endpointRef{blk.SID, outPort})
		outPort++
		i++
	}
	return i
}

// createBlock lifts one "auto <var> = <expr>;" statement into a block of the
// commented type. The rules are the inverse of the forward emission table.
func (ls *lifterState) createBlock(blockType, name, varName, expr string) {
	blk := ir.Block{Type: blockType, Name: name, SID: ls.allocSID()}

	switch blockType {
	case ir.Gain:
		ls.liftGain(&blk, expr)
	case ir.Sum:
		ls.liftSum(&blk, expr)
	case ir.Product:
		ls.liftProduct(&blk, expr)
	case ir.Constant:
		ls.liftConstant(&blk, expr)
	case ir.Saturate:
		ls.liftSaturate(&blk, expr)
	case ir.MinMax:
		ls.liftMinMax(&blk, expr)
	case ir.Switch:
		ls.liftSwitch(&blk, expr)
	case ir.RelationalOperator:
		ls.liftRelational(&blk, expr)
	case ir.Logic:
		ls.liftLogic(&blk, expr)
	case ir.Abs:
		ls.liftAbs(&blk, expr)
	case ir.Trigonometry:
		ls.liftTrig(&blk, expr)
	case ir.Math:
		ls.liftMath(&blk, expr)
	case ir.Reference:
		ls.liftReference(&blk, expr)
	default:
		blk.PortIn = 1
		blk.PortOut = 1
		ls.resolveInput(expr, blk.SID, 1)
	}

	ls.blocks = append(ls.blocks, blk)
	ls.define(varName, endpointRef{blk.SID, 1})
}

func (ls *lifterState) liftGain(blk *ir.Block, expr string) {
	blk.PortIn = 1
	blk.PortOut = 1

	if mul := strings.Index(expr, " * "); mul >= 0 {
		left := strings.TrimSpace(expr[:mul])
		right := strings.TrimSpace(expr[mul+3:])
		switch {
		case ls.isVariable(left):
			ls.resolveInput(left, blk.SID, 1)
			blk.SetParam("Gain", cleanValue(right))
		case ls.isVariable(right):
			ls.resolveInput(right, blk.SID, 1)
			blk.SetParam("Gain", cleanValue(left))
		default:
			ls.resolveInput(left, blk.SID, 1)
			blk.SetParam("Gain", cleanValue(right))
		}
		return
	}
	if div := strings.Index(expr, " / "); div >= 0 {
		left := strings.TrimSpace(expr[:div])
		right := strings.TrimSpace(expr[div+3:])
		ls.resolveInput(left, blk.SID, 1)
		blk.SetParam("Gain", "1/"+cleanValue(right))
		return
	}
	ls.resolveInput(expr, blk.SID, 1)
	blk.SetParam("Gain", "1")
}

func (ls *lifterState) liftSum(blk *ir.Block, expr string) {
	blk.PortOut = 1

	var signs strings.Builder
	var operands []string
	var current strings.Builder
	negateNext := false
	first := true

	flush := func() {
		op := strings.TrimSpace(current.String())
		current.Reset()
		if op == "" {
			return
		}
		if negateNext {
			signs.WriteByte('-')
		} else {
			signs.WriteByte('+')
		}
		operands = append(operands, op)
	}

	trimmed := strings.TrimSpace(expr)
	for i := 0; i <= len(trimmed); i++ {
		var c byte
		if i < len(trimmed) {
			c = trimmed[i]
		}
		if c == '+' || c == '-' || c == 0 {
			if strings.TrimSpace(current.String()) == "" && first && c == '-' {
				negateNext = true
				first = false
				continue
			}
			flush()
			negateNext = c == '-'
			first = false
			continue
		}
		current.WriteByte(c)
	}

	blk.PortIn = len(operands)
	blk.SetParam("Inputs", "|"+signs.String())
	for p, op := range operands {
		ls.resolveInput(op, blk.SID, p+1)
	}
}

func (ls *lifterState) liftProduct(blk *ir.Block, expr string) {
	blk.PortOut = 1

	if div := strings.Index(expr, " / "); div >= 0 {
		blk.PortIn = 2
		blk.SetParam("Inputs", "*/")
		ls.resolveInput(strings.TrimSpace(expr[:div]), blk.SID, 1)
		ls.resolveInput(strings.TrimSpace(expr[div+3:]), blk.SID, 2)
		return
	}

	var operands []string
	for _, op := range strings.Split(expr, " * ") {
		if t := strings.TrimSpace(op); t != "" {
			operands = append(operands, t)
		}
	}
	if len(operands) < 2 {
		blk.PortIn = 1
		blk.SetParam("Inputs", "1")
		ls.resolveInput(expr, blk.SID, 1)
		return
	}

	blk.PortIn = len(operands)
	blk.SetParam("Inputs", strings.Repeat("*", len(operands)))
	for p, op := range operands {
		ls.resolveInput(op, blk.SID, p+1)
	}
}

func (ls *lifterState) liftConstant(blk *ir.Block, expr string) {
	blk.PortIn = 0
	blk.PortOut = 1
	blk.SetParam("Value", strings.TrimPrefix(expr, "cfg."))
}

func (ls *lifterState) liftSaturate(blk *ir.Block, expr string) {
	blk.PortIn = 1
	blk.PortOut = 1

	args, ok := callArgs(expr)
	if !ok || len(args) < 3 {
		return
	}
	ls.resolveInput(args[0], blk.SID, 1)
	blk.SetParam("LowerLimit", cleanValue(args[1]))
	blk.SetParam("UpperLimit", cleanValue(args[2]))
}

func (ls *lifterState) liftMinMax(blk *ir.Block, expr string) {
	blk.PortOut = 1

	fn := "min"
	if strings.Contains(expr, "std::max") {
		fn = "max"
	}
	blk.SetParam("Function", fn)

	args, ok := callArgs(expr)
	if !ok {
		blk.PortIn = 2
		return
	}
	blk.PortIn = len(args)
	for p, arg := range args {
		ls.resolveInput(arg, blk.SID, p+1)
	}
}

func (ls *lifterState) liftSwitch(blk *ir.Block, expr string) {
	blk.PortIn = 3
	blk.PortOut = 1

	q := strings.Index(expr, "?")
	colon := -1
	if q >= 0 {
		colon = strings.Index(expr[q:], ":")
	}
	if q < 0 || colon < 0 {
		return
	}
	colon += q

	condition := strings.TrimSpace(expr[:q])
	trueVal := strings.TrimSpace(expr[q+1 : colon])
	falseVal := strings.TrimSpace(expr[colon+1:])
	condition = stripOuterParens(condition)

	var op, criteria string
	switch {
	case strings.Contains(condition, " >= "):
		op, criteria = " >= ", "u2 >= Threshold"
	case strings.Contains(condition, " > "):
		op, criteria = " > ", "u2 > Threshold"
	case strings.Contains(condition, " != "):
		op, criteria = " != ", "u2 ~= Threshold"
	default:
		return
	}

	opPos := strings.Index(condition, op)
	condInput := strings.TrimSpace(condition[:opPos])
	threshold := strings.TrimSpace(condition[opPos+len(op):])
	blk.SetParam("Criteria", criteria)
	blk.SetParam("Threshold", cleanValue(threshold))

	ls.resolveInput(trueVal, blk.SID, 1)
	ls.resolveInput(condInput, blk.SID, 2)
	ls.resolveInput(falseVal, blk.SID, 3)
}

func (ls *lifterState) liftRelational(blk *ir.Block, expr string) {
	blk.PortIn = 2
	blk.PortOut = 1

	q := strings.Index(expr, "?")
	if q < 0 {
		return
	}
	condition := stripOuterParens(strings.TrimSpace(expr[:q]))

	for _, rel := range []string{" >= ", " <= ", " > ", " < ", " == ", " != "} {
		pos := strings.Index(condition, rel)
		if pos < 0 {
			continue
		}
		left := strings.TrimSpace(condition[:pos])
		right := strings.TrimSpace(condition[pos+len(rel):])
		op := strings.TrimSpace(rel)
		if op == "!=" {
			op = "~="
		}
		blk.SetParam("Operator", op)
		ls.resolveInput(left, blk.SID, 1)
		ls.resolveInput(right, blk.SID, 2)
		return
	}
}

func (ls *lifterState) liftLogic(blk *ir.Block, expr string) {
	blk.PortOut = 1

	q := strings.Index(expr, "?")
	if q < 0 {
		blk.PortIn = 1
		return
	}
	condition := strings.TrimSpace(expr[:q])

	isAnd := strings.Contains(condition, "&&")
	isOr := strings.Contains(condition, "||")
	isXor := !isAnd && !isOr && strings.Contains(condition, "!= 0.0f) != (")

	if !isAnd && !isOr && !isXor {
		// NOT: (X == 0.0f) ? 1.0f : 0.0f
		blk.SetParam("Operator", "NOT")
		blk.PortIn = 1
		pstart := strings.Index(condition, "(")
		eq := strings.Index(condition, " == ")
		if pstart >= 0 && eq > pstart {
			ls.resolveInput(strings.TrimSpace(condition[pstart+1:eq]), blk.SID, 1)
		}
		return
	}

	op := "AND"
	delim := "&&"
	if isOr {
		op, delim = "OR", "||"
	} else if isXor {
		op, delim = "XOR", ") != ("
	}
	blk.SetParam("Operator", op)

	inner := stripOuterParens(condition)
	var operands []string
	for _, part := range strings.Split(inner, delim) {
		pstart := strings.Index(part, "(")
		ne := strings.Index(part, " != ")
		if pstart >= 0 && ne > pstart {
			operands = append(operands, strings.TrimSpace(part[pstart+1:ne]))
		} else if ne >= 0 {
			operands = append(operands, strings.TrimSpace(part[:ne]))
		}
	}

	blk.PortIn = len(operands)
	blk.SetParam("Ports", "["+strconv.Itoa(len(operands))+", 1]")
	for p, operand := range operands {
		ls.resolveInput(operand, blk.SID, p+1)
	}
}

func (ls *lifterState) liftAbs(blk *ir.Block, expr string) {
	blk.PortIn = 1
	blk.PortOut = 1
	if args, ok := callArgs(expr); ok && len(args) > 0 {
		ls.resolveInput(args[0], blk.SID, 1)
	}
}

func (ls *lifterState) liftTrig(blk *ir.Block, expr string) {
	blk.PortIn = 1
	blk.PortOut = 1

	fn := callName(expr)
	if fn != "" {
		blk.SetParam("Operator", fn)
	}
	if fn == "atan2" {
		blk.PortIn = 2
	}

	args, ok := callArgs(expr)
	if !ok {
		return
	}
	for p := 0; p < len(args) && p < blk.PortIn; p++ {
		ls.resolveInput(args[p], blk.SID, p+1)
	}
}

func (ls *lifterState) liftMath(blk *ir.Block, expr string) {
	blk.PortIn = 1
	blk.PortOut = 1

	switch fn := callName(expr); fn {
	case "sqrt", "exp", "log10", "log":
		blk.SetParam("Operator", fn)
		if args, ok := callArgs(expr); ok && len(args) > 0 {
			ls.resolveInput(args[0], blk.SID, 1)
		}
		return
	case "pow":
		blk.SetParam("Operator", "pow")
		blk.PortIn = 2
		if args, ok := callArgs(expr); ok {
			for p := 0; p < len(args) && p < 2; p++ {
				ls.resolveInput(args[p], blk.SID, p+1)
			}
		}
		return
	}

	// square: X * X with identical operands
	if mul := strings.Index(expr, " * "); mul >= 0 {
		left := strings.TrimSpace(expr[:mul])
		right := strings.TrimSpace(expr[mul+3:])
		if left == right {
			blk.SetParam("Operator", "square")
			ls.resolveInput(left, blk.SID, 1)
			return
		}
	}

	ls.resolveInput(expr, blk.SID, 1)
}

func (ls *lifterState) liftReference(blk *ir.Block, expr string) {
	blk.PortIn = 1
	blk.PortOut = 1
	blk.SetParam("SourceType", "Compare To Constant")

	clean := expr
	if i := strings.Index(clean, "// TODO:"); i >= 0 {
		clean = strings.TrimSpace(clean[:i])
	}
	if clean != "" {
		ls.resolveInput(clean, blk.SID, 1)
	}
}

// callName extracts the function name of a "std::<name>(...)" expression.
func callName(expr string) string {
	scope := strings.Index(expr, "std::")
	if scope < 0 {
		return ""
	}
	rest := expr[scope+len("std::"):]
	paren := strings.Index(rest, "(")
	if paren < 0 {
		return ""
	}
	return rest[:paren]
}

// callArgs splits the arguments of the outermost call in the expression.
func callArgs(expr string) ([]string, bool) {
	start := strings.Index(expr, "(")
	end := strings.LastIndex(expr, ")")
	if start < 0 || end < start {
		return nil, false
	}
	return splitArgs(expr[start+1 : end]), true
}

func stripOuterParens(s string) string {
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		return s[1 : len(s)-1]
	}
	return s
}

