package process

import (
	"fmt"
	"math"
	"sort"

	"github.com/KimmieDC/qsdsan/internal/components"
	"github.com/KimmieDC/qsdsan/internal/symbolic"
)

// DefaultConservedFor is the conservation set applied when a process
// definition does not name one.
var DefaultConservedFor = []string{"COD", "N", "P", "charge"}

// Config describes one process to construct.
type Config struct {
	ID           string
	Reaction     string // "<reactants> -> <products>"
	RefComponent string
	// RateEquation is a symbolic expression over component IDs and
	// parameters. When empty the rate is the free symbol rho_<ID>, to
	// be bound later by a compiled rate function.
	RateEquation string
	Components   *components.CompiledComponents
	ConservedFor []string // nil means DefaultConservedFor
	Parameters   []string
}

// Process is a single reaction: a dense stoichiometric coefficient
// vector over its component registry, a reference component, the
// conserved quantities its coefficients were solved against, a free
// parameter set and a symbolic rate equation.
type Process struct {
	id           string
	cmps         *components.CompiledComponents
	refComponent string
	conservedFor []string
	parameters   map[string]symbolic.Expr
	coeffs       []symbolic.Expr
	numeric      []float64 // non-nil iff every coefficient folded to a literal
	rate         symbolic.Expr
}

// New parses the reaction text and rate equation into a Process.
// Unknown "[?]" coefficients are solved from the conservation
// constraints; the reference component defaults to ±1 (consumed or
// produced) unless a literal coefficient is given for it.
func New(cfg Config) (*Process, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("process ID must not be empty")
	}
	if cfg.Components == nil {
		return nil, fmt.Errorf("process %q: component registry is required", cfg.ID)
	}
	conserved := cfg.ConservedFor
	if conserved == nil {
		conserved = DefaultConservedFor
	}

	p := &Process{
		id:           cfg.ID,
		cmps:         cfg.Components,
		refComponent: cfg.RefComponent,
		conservedFor: append([]string(nil), conserved...),
		parameters:   make(map[string]symbolic.Expr, len(cfg.Parameters)),
	}
	for _, name := range cfg.Parameters {
		p.parameters[name] = symbolic.Sym(name)
	}

	coeffs, err := stoichiometricCoeffs(cfg.Reaction, cfg.RefComponent, cfg.Components, conserved, p.parameters)
	if err != nil {
		return nil, fmt.Errorf("process %q: %w", cfg.ID, err)
	}
	p.coeffs = coeffs
	p.refreshNumeric()

	if err := p.parseRateEquation(cfg.RateEquation); err != nil {
		return nil, fmt.Errorf("process %q: %w", cfg.ID, err)
	}
	return p, nil
}

func (p *Process) parseRateEquation(eq string) error {
	if eq == "" {
		// Placeholder rate for processes whose kinetics are bound as a
		// compiled rate function rather than declared symbolically.
		rho := "rho_" + p.id
		p.parameters[rho] = symbolic.Sym(rho)
		p.rate = symbolic.Sym(rho)
		return nil
	}
	table := make(map[string]symbolic.Expr, p.cmps.Size()+len(p.parameters))
	for _, id := range p.cmps.IDs() {
		table[id] = symbolic.Sym(id)
	}
	for name, sym := range p.parameters {
		table[name] = sym
	}
	rate, err := symbolic.Parse(eq, table)
	if err != nil {
		return fmt.Errorf("rate equation: %w", err)
	}
	p.rate = rate
	return nil
}

func (p *Process) refreshNumeric() {
	numeric := make([]float64, len(p.coeffs))
	for i, c := range p.coeffs {
		v, ok := symbolic.IsNum(c)
		if !ok {
			p.numeric = nil
			return
		}
		numeric[i] = v
	}
	p.numeric = numeric
}

// ID returns the unique process key.
func (p *Process) ID() string { return p.id }

// Components returns the registry the process was parsed against.
func (p *Process) Components() *components.CompiledComponents { return p.cmps }

// RefComponent returns the current reference component ID.
func (p *Process) RefComponent() string { return p.refComponent }

// ConservedFor returns the conserved quantities, in declaration order.
func (p *Process) ConservedFor() []string { return p.conservedFor }

// RateEquation returns the symbolic rate expression.
func (p *Process) RateEquation() symbolic.Expr { return p.rate }

// Parameters returns the sorted free-parameter names.
func (p *Process) Parameters() []string {
	out := make([]string, 0, len(p.parameters))
	for name := range p.parameters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AppendParameters extends the free-parameter symbol set. The rate
// equation is not re-parsed.
func (p *Process) AppendParameters(names ...string) {
	for _, name := range names {
		p.parameters[name] = symbolic.Sym(name)
	}
}

// Coeffs returns the dense signed coefficient vector aligned to the
// process registry. The slice is shared; callers must not mutate it.
func (p *Process) Coeffs() []symbolic.Expr { return p.coeffs }

// NumericCoeffs returns the dense float vector and true when every
// coefficient is numeric.
func (p *Process) NumericCoeffs() ([]float64, bool) {
	if p.numeric == nil {
		return nil, false
	}
	return p.numeric, true
}

// Stoichiometry returns the sparse, human-readable view: component ID
// to nonzero coefficient.
func (p *Process) Stoichiometry() map[string]symbolic.Expr {
	out := make(map[string]symbolic.Expr)
	for i, c := range p.coeffs {
		if v, ok := symbolic.IsNum(c); ok && v == 0 {
			continue
		}
		out[p.cmps.IDs()[i]] = c
	}
	return out
}

// ConversionFactors returns one registry-aligned conversion-factor row
// per conserved quantity, stacked in declaration order.
func (p *Process) ConversionFactors() ([][]float64, error) {
	rows := make([][]float64, len(p.conservedFor))
	for i, q := range p.conservedFor {
		row, err := p.cmps.ConversionFactors(q)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

// CheckConservation verifies that the conversion-factor matrix times
// the coefficient vector is zero within tol for every conserved
// quantity. Requires a fully numeric vector.
func (p *Process) CheckConservation(tol float64) error {
	v, ok := p.NumericCoeffs()
	if !ok {
		return &SymbolicStoichiometryError{ProcessID: p.id, Op: "check conservation"}
	}
	factors, err := p.ConversionFactors()
	if err != nil {
		return err
	}
	var violations []ConservationViolation
	for i, q := range p.conservedFor {
		var dot float64
		for j, f := range factors[i] {
			dot += f * v[j]
		}
		if math.Abs(dot) > tol {
			violations = append(violations, ConservationViolation{Quantity: q, Residual: dot})
		}
	}
	if len(violations) > 0 {
		return &ConservationError{ProcessID: p.id, Violations: violations}
	}
	return nil
}

// Reverse flips the signs of every coefficient and of the rate
// expression in place. Applying it twice restores the original.
func (p *Process) Reverse() {
	for i, c := range p.coeffs {
		p.coeffs[i] = symbolic.Negate(c)
	}
	p.refreshNumeric()
	p.rate = symbolic.Negate(p.rate)
}

// SetRefComponent renormalizes the coefficient vector so the new
// reference's coefficient has absolute value 1, and rescales the rate
// expression by the signed previous coefficient so every production
// rate is preserved. The new reference's coefficient must be numeric
// and nonzero.
func (p *Process) SetRefComponent(id string) error {
	idx, err := p.cmps.Index(id)
	if err != nil {
		return err
	}
	f, ok := symbolic.IsNum(p.coeffs[idx])
	if !ok {
		return &SymbolicStoichiometryError{ProcessID: p.id, Op: "renormalize to a symbolic coefficient"}
	}
	if f == 0 {
		return fmt.Errorf("process %q: component %q has zero coefficient and cannot be the reference", p.id, id)
	}
	inv := 1 / math.Abs(f)
	for i, c := range p.coeffs {
		p.coeffs[i] = symbolic.Scale(c, inv)
	}
	p.refreshNumeric()
	p.rate = symbolic.Scale(p.rate, f)
	p.refComponent = id
	return nil
}
