package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KimmieDC/qsdsan/internal/components"
	"github.com/KimmieDC/qsdsan/internal/symbolic"
)

// algaeRegistry reproduces the conversion factors of the acetate
// uptake example: COD and C factors chosen so COD fixes the reference
// pair and C determines the CO2 coefficient.
func algaeRegistry(t *testing.T) *components.CompiledComponents {
	t.Helper()
	cc, err := components.New(
		&components.Component{ID: "S_A", IMass: 1, IC: 0.2, ICOD: 1},
		&components.Component{ID: "S_CO2", IMass: 1, IC: 1},
		&components.Component{ID: "X_ALG", IMass: 1.2, IC: 0.3, IN: 0.06, IP: 0.01, ICOD: 1},
	).Compile()
	require.NoError(t, err)
	return cc
}

func numericCoeff(t *testing.T, p *Process, id string) float64 {
	t.Helper()
	v, ok := p.NumericCoeffs()
	require.True(t, ok, "expected numeric stoichiometry")
	i, err := p.Components().Index(id)
	require.NoError(t, err)
	return v[i]
}

func TestSolveUnknownFromConservation(t *testing.T) {
	p, err := New(Config{
		ID:           "acetate_uptake",
		Reaction:     "S_A -> [?]S_CO2 + X_ALG",
		RefComponent: "X_ALG",
		Components:   algaeRegistry(t),
		ConservedFor: []string{"COD", "C"},
	})
	require.NoError(t, err)

	// COD: -1·1 + 1·1 + x·0 = 0 holds; C: -1·0.2 + 1·0.3 + x·1 = 0
	// gives x = -0.1.
	assert.InDelta(t, -1.0, numericCoeff(t, p, "S_A"), 1e-12)
	assert.InDelta(t, 1.0, numericCoeff(t, p, "X_ALG"), 1e-12)
	assert.InDelta(t, -0.1, numericCoeff(t, p, "S_CO2"), 1e-12)

	require.NoError(t, p.CheckConservation(1e-8))
}

func TestSparseViewElidesZeros(t *testing.T) {
	cc, err := components.New(
		&components.Component{ID: "S_A", ICOD: 1},
		&components.Component{ID: "S_B", ICOD: 1},
		&components.Component{ID: "S_UNUSED", ICOD: 1},
	).Compile()
	require.NoError(t, err)

	p, err := New(Config{
		ID: "transfer", Reaction: "S_A -> S_B", RefComponent: "S_A",
		Components: cc, ConservedFor: []string{"COD"},
	})
	require.NoError(t, err)

	view := p.Stoichiometry()
	assert.Len(t, view, 2)
	assert.NotContains(t, view, "S_UNUSED")
}

func TestUndefinedComponentInReaction(t *testing.T) {
	_, err := New(Config{
		ID:           "bad",
		Reaction:     "S_A -> S_NOPE",
		RefComponent: "S_A",
		Components:   algaeRegistry(t),
		ConservedFor: []string{"COD"},
	})
	require.Error(t, err)
	var undef *components.UndefinedComponentError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "S_NOPE", undef.ID)
}

func TestUnderdeterminedSystem(t *testing.T) {
	_, err := New(Config{
		ID:           "loose",
		Reaction:     "[?]S_A -> [?]S_CO2 + X_ALG",
		RefComponent: "X_ALG",
		Components:   algaeRegistry(t),
		ConservedFor: []string{"C"},
	})
	require.Error(t, err)
	var serr *symbolic.SolveError
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.Underdetermined)
}

func TestParameterizedCoefficientStaysSymbolic(t *testing.T) {
	p, err := New(Config{
		ID:           "het_growth",
		Reaction:     "[1/Y]S_A -> [?]S_CO2 + X_ALG",
		RefComponent: "X_ALG",
		Components:   algaeRegistry(t),
		ConservedFor: []string{"C"},
		Parameters:   []string{"Y"},
	})
	require.NoError(t, err)

	_, numeric := p.NumericCoeffs()
	assert.False(t, numeric)

	// C balance: -(1/Y)·0.2 + 1·0.3 + x·1 = 0  →  x = 0.2/Y - 0.3
	i, err := p.Components().Index("S_CO2")
	require.NoError(t, err)
	x, err := p.Coeffs()[i].Eval(map[string]float64{"Y": 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.2/0.5-0.3, x, 1e-12)
}

func TestReactionSyntaxErrors(t *testing.T) {
	cc := algaeRegistry(t)
	cases := []struct {
		name     string
		reaction string
		msg      string
	}{
		{name: "no arrow", reaction: "S_A + X_ALG", msg: "'->'"},
		{name: "double arrow", reaction: "S_A -> S_CO2 -> X_ALG", msg: "'->'"},
		{name: "unterminated bracket", reaction: "[2S_A -> X_ALG", msg: "unterminated"},
		{name: "unknown on reference", reaction: "S_A -> [?]X_ALG", msg: "unknown marker"},
		{name: "duplicate unknown", reaction: "[?]S_CO2 + [?]S_CO2 -> X_ALG", msg: "more than once"},
		{name: "empty", reaction: " -> ", msg: "no terms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(Config{
				ID: "bad", Reaction: tc.reaction, RefComponent: "X_ALG",
				Components: cc, ConservedFor: []string{"COD", "C"},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestBareNumericCoefficient(t *testing.T) {
	cc, err := components.New(
		&components.Component{ID: "S_X", ICOD: 1},
		&components.Component{ID: "S_HALF", ICOD: 2},
	).Compile()
	require.NoError(t, err)

	p, err := New(Config{
		ID: "split", Reaction: "S_X -> 0.5 S_HALF", RefComponent: "S_X",
		Components: cc, ConservedFor: []string{"COD"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, numericCoeff(t, p, "S_HALF"), 1e-12)
	require.NoError(t, p.CheckConservation(1e-8))
}
