package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KimmieDC/qsdsan/internal/process"
	"github.com/KimmieDC/qsdsan/internal/testutil"
)

func compileTestSystem(t *testing.T) *process.CompiledProcesses {
	t.Helper()
	return testutil.Compile(t, testutil.AcetateDefinition)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "qsdsan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qsdsan.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestSaveSystemRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	cp := compileTestSystem(t)

	saved, err := s.SaveSystem(ctx, "Acetate", cp)
	require.NoError(t, err)
	assert.Equal(t, cp.Hash(), saved.Hash)

	got, err := s.GetSystem(ctx, cp.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Acetate", got.Name)
	assert.Equal(t, cp.IDs(), got.ProcessIDs)
	assert.Equal(t, []string{"S_A", "S_CO2", "X_ALG"}, got.ComponentIDs)
	require.Len(t, got.Stoichiometry, 1)
	assert.Len(t, got.Stoichiometry[0], 3)
	assert.Equal(t, "-1", got.Stoichiometry[0][0])
	assert.NotEmpty(t, got.CreatedAt)
}

func TestSaveSystemIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	cp := compileTestSystem(t)

	_, err := s.SaveSystem(ctx, "Acetate", cp)
	require.NoError(t, err)
	_, err = s.SaveSystem(ctx, "Acetate again", cp)
	require.NoError(t, err)

	systems, err := s.ListSystems(ctx)
	require.NoError(t, err)
	require.Len(t, systems, 1)
	assert.Equal(t, "Acetate", systems[0].Name, "first save wins")
}

func TestGetSystemNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetSystem(context.Background(), "no-such-hash")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordAndListRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	cp := compileTestSystem(t)

	_, err := s.SaveSystem(ctx, "Acetate", cp)
	require.NoError(t, err)

	state := []float64{10, 0, 500}
	rates := []float64{1.25}
	id1, err := s.RecordRun(ctx, cp.Hash(), state, rates)
	require.NoError(t, err)
	id2, err := s.RecordRun(ctx, cp.Hash(), state, rates)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	runs, err := s.ListRuns(ctx, cp.Hash())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, state, runs[0].State)
	assert.Equal(t, rates, runs[0].Rates)
	assert.Equal(t, cp.Hash(), runs[0].SystemHash)
}

func TestRecordRunRequiresSystem(t *testing.T) {
	s := openTestStore(t)

	_, err := s.RecordRun(context.Background(), "no-such-hash", []float64{1}, []float64{1})
	require.Error(t, err, "foreign key constraint")
}
