package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KimmieDC/qsdsan/internal/queryir"
	"github.com/KimmieDC/qsdsan/internal/testutil"
)

func TestQuerySystemsByName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	acetate := testutil.Compile(t, testutil.AcetateDefinition)
	glucose := testutil.Compile(t, testutil.GlucoseDefinition)

	_, err := s.SaveSystem(ctx, "Acetate", acetate)
	require.NoError(t, err)
	_, err = s.SaveSystem(ctx, "Glucose", glucose)
	require.NoError(t, err)

	got, err := s.QuerySystems(ctx, queryir.Query{
		Filter: queryir.NameIs{Name: "Glucose"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, glucose.Hash(), got[0].Hash)
}

func TestQuerySystemsByProcessAndComponent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	acetate := testutil.Compile(t, testutil.AcetateDefinition)
	glucose := testutil.Compile(t, testutil.GlucoseDefinition)

	_, err := s.SaveSystem(ctx, "Acetate", acetate)
	require.NoError(t, err)
	_, err = s.SaveSystem(ctx, "Glucose", glucose)
	require.NoError(t, err)

	byProcess, err := s.QuerySystems(ctx, queryir.Query{
		Filter: queryir.HasProcess{ProcessID: "acetate_uptake"},
	})
	require.NoError(t, err)
	require.Len(t, byProcess, 1)
	assert.Equal(t, "Acetate", byProcess[0].Name)

	// Both fixtures share the biomass component.
	byComponent, err := s.QuerySystems(ctx, queryir.Query{
		Filter: queryir.HasComponent{ComponentID: "X_ALG"},
	})
	require.NoError(t, err)
	assert.Len(t, byComponent, 2)
}

func TestQuerySystemsLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.SaveSystem(ctx, "Acetate", testutil.Compile(t, testutil.AcetateDefinition))
	require.NoError(t, err)
	_, err = s.SaveSystem(ctx, "Glucose", testutil.Compile(t, testutil.GlucoseDefinition))
	require.NoError(t, err)

	got, err := s.QuerySystems(ctx, queryir.Query{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestQuerySystemsRejectsWrongTarget(t *testing.T) {
	s := openTestStore(t)

	_, err := s.QuerySystems(context.Background(), queryir.Query{Target: queryir.TargetRuns})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target must be")
}

func TestQueryRunsForSystem(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	acetate := testutil.Compile(t, testutil.AcetateDefinition)
	glucose := testutil.Compile(t, testutil.GlucoseDefinition)

	_, err := s.SaveSystem(ctx, "Acetate", acetate)
	require.NoError(t, err)
	_, err = s.SaveSystem(ctx, "Glucose", glucose)
	require.NoError(t, err)

	_, err = s.RecordRun(ctx, acetate.Hash(), []float64{10, 0, 500}, []float64{1.25})
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, glucose.Hash(), []float64{5, 0, 500}, []float64{0.5})
	require.NoError(t, err)

	got, err := s.QueryRuns(ctx, queryir.Query{
		Filter: queryir.ForSystem{SystemHash: acetate.Hash()},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, acetate.Hash(), got[0].SystemHash)
}

func TestQueryRunsInvalidFilter(t *testing.T) {
	s := openTestStore(t)

	_, err := s.QueryRuns(context.Background(), queryir.Query{
		Filter: queryir.NameIs{Name: "Acetate"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), queryir.ErrFilterTargetMismatch)
}
