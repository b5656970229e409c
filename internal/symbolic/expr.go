package symbolic

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Expr is a sealed interface over the expression node types.
// Only Num, Sym, Add, Mul, Div, Pow and Neg implement it.
type Expr interface {
	expr() // sealed

	// Eval evaluates the expression against a symbol environment.
	// A symbol missing from the environment is an error, never zero.
	Eval(env map[string]float64) (float64, error)

	// String renders the expression in canonical infix form. Two
	// structurally equal expressions render identically, which makes
	// the string usable as a hashing key.
	String() string
}

// Num is a numeric literal.
type Num float64

// Sym is a free symbol (component concentration or model parameter).
type Sym string

// Add is an n-ary sum.
type Add []Expr

// Mul is an n-ary product.
type Mul []Expr

// Div is a quotient.
type Div struct {
	N Expr
	D Expr
}

// Pow is an exponentiation.
type Pow struct {
	Base Expr
	Exp  Expr
}

// Neg is a unary negation.
type Neg struct {
	X Expr
}

func (Num) expr() {}
func (Sym) expr() {}
func (Add) expr() {}
func (Mul) expr() {}
func (Div) expr() {}
func (Pow) expr() {}
func (Neg) expr() {}

// UndefinedSymbolError is returned by Eval when the environment lacks a
// binding for a symbol appearing in the expression.
type UndefinedSymbolError struct {
	Symbol string
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("undefined symbol %q in evaluation environment", e.Symbol)
}

func (n Num) Eval(map[string]float64) (float64, error) { return float64(n), nil }

func (s Sym) Eval(env map[string]float64) (float64, error) {
	v, ok := env[string(s)]
	if !ok {
		return 0, &UndefinedSymbolError{Symbol: string(s)}
	}
	return v, nil
}

func (a Add) Eval(env map[string]float64) (float64, error) {
	var sum float64
	for _, t := range a {
		v, err := t.Eval(env)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

func (m Mul) Eval(env map[string]float64) (float64, error) {
	prod := 1.0
	for _, t := range m {
		v, err := t.Eval(env)
		if err != nil {
			return 0, err
		}
		prod *= v
	}
	return prod, nil
}

func (d Div) Eval(env map[string]float64) (float64, error) {
	n, err := d.N.Eval(env)
	if err != nil {
		return 0, err
	}
	den, err := d.D.Eval(env)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, fmt.Errorf("division by zero evaluating %s", d.String())
	}
	return n / den, nil
}

func (p Pow) Eval(env map[string]float64) (float64, error) {
	b, err := p.Base.Eval(env)
	if err != nil {
		return 0, err
	}
	e, err := p.Exp.Eval(env)
	if err != nil {
		return 0, err
	}
	return math.Pow(b, e), nil
}

func (n Neg) Eval(env map[string]float64) (float64, error) {
	v, err := n.X.Eval(env)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

// formatNum renders floats without exponent noise for typical
// stoichiometric magnitudes, falling back to %g.
func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (n Num) String() string { return formatNum(float64(n)) }
func (s Sym) String() string { return string(s) }

func (a Add) String() string {
	parts := make([]string, len(a))
	for i, t := range a {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

func (m Mul) String() string {
	parts := make([]string, len(m))
	for i, t := range m {
		parts[i] = maybeParen(t)
	}
	return strings.Join(parts, "*")
}

func (d Div) String() string {
	return maybeParen(d.N) + "/" + maybeParen(d.D)
}

func (p Pow) String() string {
	return maybeParen(p.Base) + "^" + maybeParen(p.Exp)
}

func (n Neg) String() string {
	return "-" + maybeParen(n.X)
}

// maybeParen wraps compound subexpressions so the rendered form
// round-trips through the parser unambiguously.
func maybeParen(e Expr) string {
	switch e.(type) {
	case Num, Sym, Add:
		// Add already parenthesizes itself.
		return e.String()
	default:
		return "(" + e.String() + ")"
	}
}

// IsNum reports whether e is a numeric literal and returns its value.
func IsNum(e Expr) (float64, bool) {
	if n, ok := e.(Num); ok {
		return float64(n), true
	}
	return 0, false
}

// NewAdd builds a sum with eager constant folding. Zero terms are
// dropped; a fully numeric sum collapses to a Num.
func NewAdd(terms ...Expr) Expr {
	var konst float64
	out := make([]Expr, 0, len(terms))
	for _, t := range terms {
		if inner, ok := t.(Add); ok {
			t = NewAdd(inner...)
		}
		if v, ok := IsNum(t); ok {
			konst += v
			continue
		}
		out = append(out, t)
	}
	if konst != 0 {
		out = append(out, Num(konst))
	}
	switch len(out) {
	case 0:
		return Num(0)
	case 1:
		return out[0]
	}
	return Add(out)
}

// NewMul builds a product with eager constant folding. A zero factor
// collapses the product; unit factors are dropped.
func NewMul(factors ...Expr) Expr {
	konst := 1.0
	out := make([]Expr, 0, len(factors))
	for _, f := range factors {
		if inner, ok := f.(Mul); ok {
			f = NewMul(inner...)
		}
		if v, ok := IsNum(f); ok {
			konst *= v
			continue
		}
		out = append(out, f)
	}
	if konst == 0 {
		return Num(0)
	}
	if konst != 1 {
		out = append([]Expr{Num(konst)}, out...)
	}
	switch len(out) {
	case 0:
		return Num(1)
	case 1:
		return out[0]
	}
	return Mul(out)
}

// NewDiv builds a quotient, folding numeric operands. Division by a
// literal zero panics: it is a construction bug, not an input error.
func NewDiv(n, d Expr) Expr {
	if dv, ok := IsNum(d); ok {
		if dv == 0 {
			panic("symbolic: division by literal zero")
		}
		if nv, ok := IsNum(n); ok {
			return Num(nv / dv)
		}
		return NewMul(Num(1/dv), n)
	}
	return Div{N: n, D: d}
}

// NewPow builds an exponentiation, folding numeric operands.
func NewPow(base, exp Expr) Expr {
	if ev, ok := IsNum(exp); ok {
		if ev == 1 {
			return base
		}
		if bv, ok := IsNum(base); ok {
			return Num(math.Pow(bv, ev))
		}
	}
	return Pow{Base: base, Exp: exp}
}

// Negate returns -e, folding literals and collapsing double negation.
func Negate(e Expr) Expr {
	switch v := e.(type) {
	case Num:
		return Num(-v)
	case Neg:
		return v.X
	}
	return Neg{X: e}
}

// Scale returns k*e with constant folding.
func Scale(e Expr, k float64) Expr {
	return NewMul(Num(k), e)
}

// AddScaled returns a + k*b, the row operation used by the linear solver.
func AddScaled(a, b Expr, k float64) Expr {
	if k == 0 {
		return a
	}
	return NewAdd(a, Scale(b, k))
}

// Substitute replaces symbols by expressions, rebuilding with folding so
// a fully determined expression collapses to a Num.
func Substitute(e Expr, env map[string]Expr) Expr {
	switch v := e.(type) {
	case Num:
		return v
	case Sym:
		if r, ok := env[string(v)]; ok {
			return r
		}
		return v
	case Add:
		terms := make([]Expr, len(v))
		for i, t := range v {
			terms[i] = Substitute(t, env)
		}
		return NewAdd(terms...)
	case Mul:
		factors := make([]Expr, len(v))
		for i, f := range v {
			factors[i] = Substitute(f, env)
		}
		return NewMul(factors...)
	case Div:
		return NewDiv(Substitute(v.N, env), Substitute(v.D, env))
	case Pow:
		return NewPow(Substitute(v.Base, env), Substitute(v.Exp, env))
	case Neg:
		return Negate(Substitute(v.X, env))
	}
	return e
}

// FreeSymbols returns the sorted set of symbols appearing in e.
func FreeSymbols(e Expr) []string {
	set := map[string]struct{}{}
	collectSymbols(e, set)
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(e Expr, set map[string]struct{}) {
	switch v := e.(type) {
	case Sym:
		set[string(v)] = struct{}{}
	case Add:
		for _, t := range v {
			collectSymbols(t, set)
		}
	case Mul:
		for _, f := range v {
			collectSymbols(f, set)
		}
	case Div:
		collectSymbols(v.N, set)
		collectSymbols(v.D, set)
	case Pow:
		collectSymbols(v.Base, set)
		collectSymbols(v.Exp, set)
	case Neg:
		collectSymbols(v.X, set)
	}
}
