// Package testutil provides shared process-system fixtures for tests
// that need a compiled matrix without caring how it was defined.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KimmieDC/qsdsan/internal/compiler"
	"github.com/KimmieDC/qsdsan/internal/process"
)

// AcetateDefinition is a minimal heterotrophic uptake system with one
// solvable unknown coefficient.
const AcetateDefinition = `
system: Acetate: {
	conserved_for: ["COD", "C"]
	parameters: ["mu_A", "K_A"]
	components: {
		S_A: {i_mass: 1, i_C: 0.2, i_COD: 1}
		S_CO2: {i_mass: 1, i_C: 1}
		X_ALG: {i_mass: 1.2, i_C: 0.3, i_COD: 1}
	}
	processes: [{
		id:            "acetate_uptake"
		reaction:      "S_A -> [?]S_CO2 + X_ALG"
		ref_component: "X_ALG"
		rate_equation: "mu_A*S_A/(K_A + S_A)*X_ALG"
	}]
}
`

// GlucoseDefinition mirrors AcetateDefinition with a different
// substrate, so archive tests can tell two stored systems apart.
const GlucoseDefinition = `
system: Glucose: {
	conserved_for: ["COD", "C"]
	parameters: ["mu_G", "K_G"]
	components: {
		S_F: {i_mass: 1, i_C: 0.4, i_COD: 1}
		S_CO2: {i_mass: 1, i_C: 1}
		X_ALG: {i_mass: 1.2, i_C: 0.3, i_COD: 1}
	}
	processes: [{
		id:            "glucose_uptake"
		reaction:      "S_F -> [?]S_CO2 + X_ALG"
		ref_component: "X_ALG"
		rate_equation: "mu_G*S_F/(K_G + S_F)*X_ALG"
	}]
}
`

// Compile builds a definition into its compiled matrix, failing the
// test on any compile error.
func Compile(t *testing.T, definition string) *process.CompiledProcesses {
	t.Helper()
	spec, err := compiler.CompileSource([]byte(definition), "fixture.cue")
	require.NoError(t, err)
	cp, err := compiler.Build(spec)
	require.NoError(t, err)
	return cp
}
