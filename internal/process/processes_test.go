package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KimmieDC/qsdsan/internal/components"
	"github.com/KimmieDC/qsdsan/internal/symbolic"
)

// Two overlapping registries: p1 over {A,B}, p2 over {B,C}.
func overlappingPair(t *testing.T) (*Process, *Process) {
	t.Helper()
	regAB, err := components.New(
		&components.Component{ID: "A", ICOD: 1},
		&components.Component{ID: "B", ICOD: 1},
	).Compile()
	require.NoError(t, err)
	regBC, err := components.New(
		&components.Component{ID: "B", ICOD: 1},
		&components.Component{ID: "C", ICOD: 1},
	).Compile()
	require.NoError(t, err)

	p1, err := New(Config{
		ID: "p1", Reaction: "A -> B", RefComponent: "A",
		RateEquation: "k1*A", Components: regAB,
		ConservedFor: []string{"COD"}, Parameters: []string{"k1"},
	})
	require.NoError(t, err)
	p2, err := New(Config{
		ID: "p2", Reaction: "B -> C", RefComponent: "B",
		RateEquation: "k2*B", Components: regBC,
		ConservedFor: []string{"COD"}, Parameters: []string{"k2"},
	})
	require.NoError(t, err)
	return p1, p2
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	p1, _ := overlappingPair(t)
	ps, err := NewProcesses(p1)
	require.NoError(t, err)

	err = ps.Append(p1)
	var dup *DuplicateProcessError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "p1", dup.ID)
	assert.Equal(t, 1, ps.Len())
}

func TestExtendAndSubgroup(t *testing.T) {
	p1, p2 := overlappingPair(t)
	ps, err := NewProcesses(p1)
	require.NoError(t, err)
	other, err := NewProcesses(p2)
	require.NoError(t, err)

	require.NoError(t, ps.Extend(other))
	assert.Equal(t, 2, ps.Len())

	sub, err := ps.Subgroup([]string{"p2"})
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Len())
	assert.True(t, sub.Contains("p2"))

	_, err = ps.Subgroup([]string{"p1", "ghost"})
	var undef *UndefinedProcessError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "ghost", undef.ID)
}

func TestCompileMergesRegistries(t *testing.T) {
	p1, p2 := overlappingPair(t)
	ps, err := NewProcesses(p1, p2)
	require.NoError(t, err)

	cp, err := ps.Compile()
	require.NoError(t, err)

	assert.Equal(t, 2, cp.Size())
	assert.Equal(t, []string{"p1", "p2"}, cp.IDs())
	assert.Equal(t, []string{"A", "B", "C"}, cp.Components().IDs())

	m, numeric := cp.NumericStoichiometry()
	require.True(t, numeric)
	require.Len(t, m, 2)
	assert.Equal(t, []float64{-1, 1, 0}, m[0])
	assert.Equal(t, []float64{0, -1, 1}, m[1])

	assert.Len(t, cp.ProductionRates(), 3)
	assert.Equal(t, []string{"k1", "k2"}, cp.Parameters())
}

func TestProductionRates(t *testing.T) {
	p1, p2 := overlappingPair(t)
	ps, err := NewProcesses(p1, p2)
	require.NoError(t, err)
	cp, err := ps.Compile()
	require.NoError(t, err)

	env := map[string]float64{"k1": 2, "k2": 3, "A": 5, "B": 7, "C": 0}
	rates := cp.ProductionRateMap()

	// dB/dt = k1·A - k2·B
	vB, err := rates["B"].Eval(env)
	require.NoError(t, err)
	assert.InDelta(t, 2*5-3*7, vB, 1e-12)

	vA, err := rates["A"].Eval(env)
	require.NoError(t, err)
	assert.InDelta(t, -10, vA, 1e-12)

	vC, err := rates["C"].Eval(env)
	require.NoError(t, err)
	assert.InDelta(t, 21, vC, 1e-12)
}

func TestCompileCaching(t *testing.T) {
	p1, p2 := overlappingPair(t)
	ps, err := NewProcesses(p1, p2)
	require.NoError(t, err)

	first, err := ps.Compile()
	require.NoError(t, err)
	second, err := ps.Compile()
	require.NoError(t, err)
	assert.Same(t, first, second)

	// Structurally identical but distinct Process objects still hit.
	q1, q2 := overlappingPair(t)
	qs, err := NewProcesses(q1, q2)
	require.NoError(t, err)
	third, err := qs.Compile()
	require.NoError(t, err)
	assert.Same(t, first, third)

	// A reordered tuple is a different compilation.
	reordered, err := NewProcesses(p2, p1)
	require.NoError(t, err)
	fourth, err := reordered.Compile()
	require.NoError(t, err)
	assert.NotSame(t, first, fourth)
	assert.NotEqual(t, first.Hash(), fourth.Hash())
}

func TestCompiledIsFrozen(t *testing.T) {
	p1, p2 := overlappingPair(t)
	ps, err := NewProcesses(p1)
	require.NoError(t, err)
	cp, err := ps.Compile()
	require.NoError(t, err)

	sizeBefore := cp.Size()
	idsBefore := append([]string(nil), cp.IDs()...)

	var ro *ReadOnlyError
	require.ErrorAs(t, cp.Append(p2), &ro)
	other, err := NewProcesses(p2)
	require.NoError(t, err)
	require.ErrorAs(t, cp.Extend(other), &ro)

	assert.Equal(t, sizeBefore, cp.Size())
	assert.Equal(t, idsBefore, cp.IDs())
}

func TestCompiledLookups(t *testing.T) {
	p1, p2 := overlappingPair(t)
	ps, err := NewProcesses(p1, p2)
	require.NoError(t, err)
	cp, err := ps.Compile()
	require.NoError(t, err)

	i, err := cp.Index("p2")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	idx, err := cp.Indices([]string{"p2", "p1"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, idx)

	_, err = cp.Index("ghost")
	var undef *UndefinedProcessError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "ghost", undef.ID)

	_, err = cp.Indices([]string{"p1", "ghost"})
	require.ErrorAs(t, err, &undef)
}

func TestCompiledSubgroupRecompiles(t *testing.T) {
	p1, p2 := overlappingPair(t)
	ps, err := NewProcesses(p1, p2)
	require.NoError(t, err)
	cp, err := ps.Compile()
	require.NoError(t, err)

	sub, err := cp.Subgroup([]string{"p2"})
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Size())
	// Column space shrinks with membership.
	assert.Equal(t, []string{"B", "C"}, sub.Components().IDs())

	m, numeric := sub.NumericStoichiometry()
	require.True(t, numeric)
	assert.Equal(t, []float64{-1, 1}, m[0])
}

func TestCopyIsIndependent(t *testing.T) {
	p1, p2 := overlappingPair(t)
	ps, err := NewProcesses(p1, p2)
	require.NoError(t, err)
	cp, err := ps.Compile()
	require.NoError(t, err)

	cpy, err := cp.Copy()
	require.NoError(t, err)
	assert.NotSame(t, cp, cpy)
	assert.Equal(t, cp.Hash(), cpy.Hash())
	assert.Equal(t, cp.IDs(), cpy.IDs())
}

func TestSymbolicMatrixWhenAnyProcessSymbolic(t *testing.T) {
	reg, err := components.New(
		&components.Component{ID: "S_S", IC: 0.4, ICOD: 1},
		&components.Component{ID: "S_CO2", IC: 1},
		&components.Component{ID: "X_B", IC: 0.36, ICOD: 1},
	).Compile()
	require.NoError(t, err)

	sym, err := New(Config{
		ID: "growth", Reaction: "[1/Y_H]S_S -> [?]S_CO2 + X_B", RefComponent: "X_B",
		Components: reg, ConservedFor: []string{"C"}, Parameters: []string{"Y_H"},
	})
	require.NoError(t, err)

	ps, err := NewProcesses(sym)
	require.NoError(t, err)
	cp, err := ps.Compile()
	require.NoError(t, err)

	_, numeric := cp.NumericStoichiometry()
	assert.False(t, numeric)

	// The symbolic entry evaluates once parameters are bound.
	col, err := cp.Components().Index("S_CO2")
	require.NoError(t, err)
	entry := cp.Stoichiometry()[0][col]
	_, isNum := symbolic.IsNum(entry)
	assert.False(t, isNum)
	v, err := entry.Eval(map[string]float64{"Y_H": 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.4/0.5-0.36, v, 1e-12)
}
