package symbolic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseError reports a syntax or symbol-resolution failure with the
// byte offset of the offending token in the source.
type ParseError struct {
	Source  string
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d in %q: %s", e.Offset, e.Source, e.Message)
}

// Parse parses an infix arithmetic expression over the given symbol
// table. Supported operators: + - * / ^ and parentheses. Every
// identifier must resolve through symbols; an unresolved identifier is
// an error rather than an implicitly created free symbol, so typos in
// rate equations fail at construction time.
func Parse(src string, symbols map[string]Expr) (Expr, error) {
	p := &parser{src: src, symbols: symbols}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	return e, nil
}

type parser struct {
	src     string
	pos     int
	symbols map[string]Expr
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Source: p.src, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

// parseSum := parseProduct (('+'|'-') parseProduct)*
func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	terms := []Expr{left}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			t, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case '-':
			p.pos++
			t, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			terms = append(terms, Negate(t))
		default:
			if len(terms) == 1 {
				return terms[0], nil
			}
			return NewAdd(terms...), nil
		}
	}
}

// parseProduct := parseUnary (('*'|'/') parseUnary)*
func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			r, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = NewMul(left, r)
		case '/':
			p.pos++
			r, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if rv, ok := IsNum(r); ok && rv == 0 {
				return nil, p.errorf("division by zero")
			}
			left = NewDiv(left, r)
		default:
			return left, nil
		}
	}
}

// parseUnary := '-' parseUnary | parsePower
func (p *parser) parseUnary() (Expr, error) {
	p.skipSpace()
	if p.peek() == '-' {
		p.pos++
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Negate(e), nil
	}
	return p.parsePower()
}

// parsePower := parseAtom ('^' parseUnary)?  (right associative)
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() == '^' {
		p.pos++
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewPow(base, exp), nil
	}
	return base, nil
}

func (p *parser) parseAtom() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of expression")
	}
	c := p.src[p.pos]
	switch {
	case c == '(':
		p.pos++
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return e, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case isIdentStart(rune(c)):
		return p.parseIdent()
	}
	return nil, p.errorf("unexpected character %q", c)
}

func (p *parser) parseNumber() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' || c == '.' {
			p.pos++
			continue
		}
		// Exponent notation, with optional sign.
		if (c == 'e' || c == 'E') && p.pos > start {
			next := p.pos + 1
			if next < len(p.src) && (p.src[next] == '+' || p.src[next] == '-') {
				next++
			}
			if next < len(p.src) && p.src[next] >= '0' && p.src[next] <= '9' {
				p.pos = next
				continue
			}
		}
		break
	}
	text := p.src[start:p.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", text)
	}
	return Num(v), nil
}

func (p *parser) parseIdent() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(rune(p.src[p.pos])) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if e, ok := p.symbols[name]; ok {
		return e, nil
	}
	p.pos = start
	return nil, p.errorf("unknown symbol %q (not a component ID or declared parameter)", name)
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// MustParse is like Parse but panics on error. Use only in tests or
// with literals known to be valid.
func MustParse(src string, symbols map[string]Expr) Expr {
	e, err := Parse(src, symbols)
	if err != nil {
		panic(err)
	}
	return e
}

// SymbolTable builds a parse table mapping each name to its own Sym.
func SymbolTable(names ...string) map[string]Expr {
	t := make(map[string]Expr, len(names))
	for _, n := range names {
		t[strings.TrimSpace(n)] = Sym(strings.TrimSpace(n))
	}
	return t
}
