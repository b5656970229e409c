package process

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KimmieDC/qsdsan/internal/components"
	"github.com/KimmieDC/qsdsan/internal/symbolic"
)

// ReactionSyntaxError reports malformed reaction text.
type ReactionSyntaxError struct {
	Reaction string
	Message  string
}

func (e *ReactionSyntaxError) Error() string {
	return fmt.Sprintf("invalid reaction %q: %s", e.Reaction, e.Message)
}

// term is one parsed side entry: a component with a signed coefficient
// (consumed = negative, produced = positive) or an unknown marker to be
// resolved from conservation constraints.
type term struct {
	componentID string
	coeff       symbolic.Expr // nil when unknown
	unknown     bool
	sign        float64 // -1 reactant, +1 product
}

// parseReaction tokenizes `<reactants> -> <products>` into terms. A
// term is `[coefficient]ComponentID` where the coefficient may be a
// bracketed expression over parameters, a bare (possibly signed)
// numeric literal, the unknown marker `[?]`, or omitted (defaults to 1
// on that side).
func parseReaction(reaction string, params map[string]symbolic.Expr) ([]term, error) {
	sides := strings.Split(reaction, "->")
	if len(sides) != 2 {
		return nil, &ReactionSyntaxError{Reaction: reaction,
			Message: "expected exactly one '->' separator"}
	}

	var terms []term
	for i, side := range sides {
		sign := float64(2*i - 1) // -1 for reactants, +1 for products
		for _, raw := range splitTerms(side) {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			t, err := parseTerm(raw, sign, params)
			if err != nil {
				return nil, &ReactionSyntaxError{Reaction: reaction, Message: err.Error()}
			}
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return nil, &ReactionSyntaxError{Reaction: reaction, Message: "no terms"}
	}
	return terms, nil
}

// splitTerms splits a reaction side on '+' at bracket depth zero, so
// coefficient expressions like [Y+1] survive intact.
func splitTerms(side string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(side); i++ {
		switch side[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case '+':
			if depth == 0 {
				out = append(out, side[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, side[start:])
	return out
}

func parseTerm(raw string, sign float64, params map[string]symbolic.Expr) (term, error) {
	t := term{sign: sign}

	switch {
	case strings.HasPrefix(raw, "[?]"):
		t.unknown = true
		raw = raw[len("[?]"):]
	case strings.HasPrefix(raw, "["):
		end := strings.Index(raw, "]")
		if end < 0 {
			return t, fmt.Errorf("unterminated coefficient bracket in term %q", raw)
		}
		expr, err := symbolic.Parse(raw[1:end], params)
		if err != nil {
			return t, fmt.Errorf("coefficient of term %q: %v", raw, err)
		}
		t.coeff = expr
		raw = raw[end+1:]
	default:
		// Optional bare numeric literal prefix, e.g. "2 S_O2" or "0.5S_A".
		j := 0
		for j < len(raw) {
			c := raw[j]
			if c >= '0' && c <= '9' || c == '.' || (j == 0 && (c == '-' || c == '+')) {
				j++
				continue
			}
			break
		}
		if j > 0 && raw[:j] != "-" && raw[:j] != "+" {
			v, err := strconv.ParseFloat(raw[:j], 64)
			if err != nil {
				return t, fmt.Errorf("invalid coefficient literal in term %q", raw)
			}
			t.coeff = symbolic.Num(v)
			raw = raw[j:]
		}
	}

	id := strings.TrimSpace(raw)
	if id == "" {
		return t, fmt.Errorf("missing component ID in term")
	}
	if strings.ContainsAny(id, " \t[]") {
		return t, fmt.Errorf("malformed component ID %q", id)
	}
	t.componentID = id
	if t.coeff == nil && !t.unknown {
		t.coeff = symbolic.Num(1)
	}
	return t, nil
}

// stoichiometricCoeffs resolves the reaction text into a dense signed
// coefficient vector over the registry. Unknown markers are solved from
// one linear equation per conserved quantity; literal coefficients may
// reference parameters, in which case the solved entries stay symbolic.
func stoichiometricCoeffs(reaction, refComponent string, cmps *components.CompiledComponents,
	conservedFor []string, params map[string]symbolic.Expr) ([]symbolic.Expr, error) {

	terms, err := parseReaction(reaction, params)
	if err != nil {
		return nil, err
	}

	coeffs := make([]symbolic.Expr, cmps.Size())
	for i := range coeffs {
		coeffs[i] = symbolic.Num(0)
	}

	type unknownSlot struct {
		name  string
		index int
	}
	var unknowns []unknownSlot
	seenUnknown := map[int]bool{}

	for _, t := range terms {
		idx, err := cmps.Index(t.componentID)
		if err != nil {
			return nil, err
		}
		if t.unknown {
			if t.componentID == refComponent {
				return nil, &ReactionSyntaxError{Reaction: reaction,
					Message: fmt.Sprintf("reference component %q cannot carry the unknown marker", refComponent)}
			}
			if seenUnknown[idx] {
				return nil, &ReactionSyntaxError{Reaction: reaction,
					Message: fmt.Sprintf("component %q marked unknown more than once", t.componentID)}
			}
			seenUnknown[idx] = true
			unknowns = append(unknowns, unknownSlot{name: t.componentID, index: idx})
			continue
		}
		coeffs[idx] = symbolic.NewAdd(coeffs[idx], symbolic.Scale(t.coeff, t.sign))
	}

	if _, err := cmps.Index(refComponent); err != nil {
		return nil, err
	}

	if len(unknowns) > 0 {
		// One equation per conserved quantity:
		//   sum_j i_q(unknown_j)·x_j = -sum_known i_q(c)·coeff(c)
		// where x_j is the signed vector entry for the unknown. The
		// factor matrix is numeric; the right-hand side may carry
		// parameter expressions from literal coefficients.
		a := make([][]float64, 0, len(conservedFor))
		b := make([]symbolic.Expr, 0, len(conservedFor))
		names := make([]string, len(unknowns))
		for j, u := range unknowns {
			names[j] = u.name
		}
		for _, q := range conservedFor {
			factors, err := cmps.ConversionFactors(q)
			if err != nil {
				return nil, err
			}
			row := make([]float64, len(unknowns))
			for j, u := range unknowns {
				row[j] = factors[u.index]
			}
			rhs := symbolic.Expr(symbolic.Num(0))
			for idx, c := range coeffs {
				if v, ok := symbolic.IsNum(c); ok && v == 0 {
					continue
				}
				rhs = symbolic.AddScaled(rhs, c, -factors[idx])
			}
			a = append(a, row)
			b = append(b, rhs)
		}
		solved, err := symbolic.SolveLinear(a, b, names)
		if err != nil {
			return nil, err
		}
		for j, u := range unknowns {
			coeffs[u.index] = symbolic.NewAdd(coeffs[u.index], solved[j])
		}
	}

	return coeffs, nil
}
