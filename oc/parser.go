package oc

import "fmt"

// Parse reads an OC source file. Errors are accumulated and returned
// alongside a best-effort tree.
func Parse(src string) (*File, []ParseError) {
	p := &parser{src: src, tokens: tokenize(src)}
	file := &File{}
	for !p.atEnd() {
		if p.check(tokNamespace) {
			file.Namespaces = append(file.Namespaces, p.parseNamespace())
		} else {
			p.errorf("expected 'namespace' at top level")
			p.advance()
		}
	}
	return file, p.errors
}

type parser struct {
	src    string
	tokens []token
	pos    int
	errors []ParseError
}

func (p *parser) parseNamespace() Namespace {
	var ns Namespace
	p.expect(tokNamespace)
	ns.Name = p.expectIdentifier()
	p.expect(tokLBrace)

	for !p.check(tokRBrace) && !p.atEnd() {
		switch {
		case p.check(tokElement):
			ns.Elements = append(ns.Elements, p.parseElement())
		case p.check(tokComponent):
			ns.Components = append(ns.Components, p.parseComponent())
		case p.check(tokController):
			// Controllers are skipped by brace matching.
			p.advance()
			p.skipIdentifier()
			p.skipBraceBlock()
		default:
			p.errorf("expected 'element', 'component', or 'controller' inside namespace")
			p.advance()
		}
	}
	p.expect(tokRBrace)
	return ns
}

func (p *parser) parseElement() Element {
	var elem Element
	p.expect(tokElement)
	elem.Name = p.expectIdentifier()
	p.expect(tokLBrace)

	for !p.check(tokRBrace) && !p.atEnd() {
		switch {
		case p.check(tokFrequency):
			elem.Frequency = p.parseFrequency()
		case p.isSectionKeyword():
			elem.Sections = append(elem.Sections, p.parseSection())
		case p.check(tokUpdate) || p.check(tokOperation):
			elem.Update = p.parseUpdate()
		default:
			p.errorf("unexpected token in element body")
			p.advance()
		}
	}
	p.expect(tokRBrace)
	return elem
}

func (p *parser) parseComponent() Component {
	var comp Component
	p.expect(tokComponent)
	comp.Name = p.expectIdentifier()
	p.expect(tokLBrace)

	for !p.check(tokRBrace) && !p.atEnd() {
		switch {
		case p.isSectionKeyword():
			comp.Sections = append(comp.Sections, p.parseSection())
		case p.check(tokUpdate) || p.check(tokOperation):
			comp.Update = p.parseUpdate()
		default:
			p.errorf("unexpected token in component body")
			p.advance()
		}
	}
	p.expect(tokRBrace)
	return comp
}

func (p *parser) parseFrequency() string {
	p.expect(tokFrequency)
	if p.check(tokColon) {
		p.advance()
	}
	freq := ""
	for !p.check(tokSemicolon) && !p.check(tokRBrace) && !p.isSectionKeyword() &&
		!p.check(tokUpdate) && !p.check(tokOperation) && !p.atEnd() {
		if freq != "" {
			freq += " "
		}
		freq += p.current().text
		p.advance()
	}
	if p.check(tokSemicolon) {
		p.advance()
	}
	return freq
}

func (p *parser) parseSection() Section {
	var sec Section
	sec.Kind = p.current().text
	p.advance()

	switch {
	case p.check(tokLBrace):
		p.advance()
		for !p.check(tokRBrace) && !p.atEnd() {
			sec.Vars = append(sec.Vars, p.parseVarDecl())
		}
		p.expect(tokRBrace)
	case p.check(tokColon):
		p.advance()
		for !p.isSectionKeyword() && !p.check(tokRBrace) &&
			!p.check(tokUpdate) && !p.check(tokOperation) && !p.atEnd() {
			sec.Vars = append(sec.Vars, p.parseVarDecl())
		}
	default:
		p.expect(tokLBrace)
	}
	return sec
}

func (p *parser) parseVarDecl() VarDecl {
	var decl VarDecl

	if p.isTypeToken() || p.check(tokIdentifier) {
		decl.Type = p.current().text
		p.advance()
	} else {
		p.errorf("expected type in variable declaration")
		p.advance()
		return decl
	}

	if p.check(tokIdentifier) || p.isKeywordUsableAsName() {
		decl.Name = p.current().text
		p.advance()
	} else {
		p.errorf("expected variable name after type")
		return decl
	}

	if p.check(tokAssign) {
		p.advance()
		expr := ""
		parens := 0
		for !p.atEnd() {
			if p.check(tokSemicolon) && parens == 0 {
				break
			}
			if p.check(tokLParen) {
				parens++
			}
			if p.check(tokRParen) {
				parens--
			}
			if expr != "" {
				expr += " "
			}
			expr += p.current().text
			p.advance()
		}
		decl.Default = expr
	}

	if p.check(tokSemicolon) {
		p.advance()
	}
	return decl
}

// parseUpdate captures the body between the update braces verbatim, by
// slicing the source between the matched brace tokens.
func (p *parser) parseUpdate() UpdateBody {
	p.advance() // update or operation
	open := p.current()
	p.expect(tokLBrace)

	depth := 1
	for !p.atEnd() {
		if p.check(tokLBrace) {
			depth++
		}
		if p.check(tokRBrace) {
			depth--
			if depth == 0 {
				break
			}
		}
		p.advance()
	}

	var body UpdateBody
	if open.typ == tokLBrace && !p.atEnd() {
		body.Raw = p.src[open.offset+1 : p.current().offset]
	}
	p.expect(tokRBrace)
	return body
}

func (p *parser) current() token { return p.tokens[p.pos] }

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].typ == tokEOF
}

func (p *parser) check(typ tokenType) bool {
	return !p.atEnd() && p.tokens[p.pos].typ == typ
}

func (p *parser) advance() {
	if !p.atEnd() {
		p.pos++
	}
}

func (p *parser) expect(typ tokenType) {
	if !p.check(typ) {
		got := "EOF"
		if !p.atEnd() {
			got = p.current().text
		}
		p.errorf("expected %s, got %q", tokenName(typ), got)
		return
	}
	p.advance()
}

func (p *parser) expectIdentifier() string {
	if p.check(tokIdentifier) || p.isKeywordUsableAsName() {
		text := p.current().text
		p.advance()
		return text
	}
	got := "EOF"
	if !p.atEnd() {
		got = p.current().text
	}
	p.errorf("expected identifier, got %q", got)
	return "<error>"
}

func (p *parser) skipIdentifier() {
	if p.check(tokIdentifier) || p.isKeywordUsableAsName() {
		p.advance()
	}
}

func (p *parser) skipBraceBlock() {
	if !p.check(tokLBrace) {
		return
	}
	p.advance()
	depth := 1
	for !p.atEnd() && depth > 0 {
		if p.check(tokLBrace) {
			depth++
		}
		if p.check(tokRBrace) {
			depth--
		}
		p.advance()
	}
}

func (p *parser) isTypeToken() bool {
	return p.check(tokFloat) || p.check(tokInt) || p.check(tokAuto)
}

// isKeywordUsableAsName allows section keywords in name positions.
func (p *parser) isKeywordUsableAsName() bool {
	if p.atEnd() {
		return false
	}
	switch p.current().typ {
	case tokInput, tokOutput, tokState, tokConfig, tokMemory:
		return true
	}
	return false
}

func (p *parser) isSectionKeyword() bool {
	return p.check(tokInput) || p.check(tokOutput) || p.check(tokState) ||
		p.check(tokConfig) || p.check(tokMemory)
}

func (p *parser) errorf(format string, args ...interface{}) {
	var err ParseError
	if !p.atEnd() {
		err.Line = p.current().line
		err.Column = p.current().column
	}
	err.Message = fmt.Sprintf(format, args...)
	p.errors = append(p.errors, err)
}

func tokenName(typ tokenType) string {
	switch typ {
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokSemicolon:
		return "';'"
	case tokNamespace:
		return "'namespace'"
	case tokIdentifier:
		return "identifier"
	}
	return fmt.Sprintf("token(%d)", typ)
}
