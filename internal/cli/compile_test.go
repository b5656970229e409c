package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KimmieDC/qsdsan/internal/store"
)

func TestCompileText(t *testing.T) {
	out, err := runCommand(t, "compile", filepath.Join("testdata", "conserved.cue"))
	require.NoError(t, err)

	assert.Contains(t, out, "system: aerobic")
	assert.Contains(t, out, "hash: ")
	assert.Contains(t, out, "components: S_S S_O2 X_B")
	assert.Contains(t, out, "parameters: mu_H K_S")
	// The unknown S_O2 coefficient is solved from COD conservation.
	assert.Contains(t, out, "growth: -2 -1 1")
}

func TestCompileJSON(t *testing.T) {
	out, err := runCommand(t, "--format", "json", "compile", filepath.Join("testdata", "conserved.cue"))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var rec store.SystemRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "aerobic", rec.Name)
	assert.NotEmpty(t, rec.Hash)
	assert.Equal(t, []string{"growth"}, rec.ProcessIDs)
	require.Len(t, rec.Stoichiometry, 1)
	assert.Equal(t, []string{"-2", "-1", "1"}, rec.Stoichiometry[0])
}

func TestCompileSymbolicCoefficients(t *testing.T) {
	out, err := runCommand(t, "compile", filepath.Join("testdata", "symbolic.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "Y_H")
}

func TestCompileStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "systems.db")

	_, err := runCommand(t, "compile", "--store", dbPath, filepath.Join("testdata", "conserved.cue"))
	require.NoError(t, err)

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	systems, err := s.ListSystems(context.Background())
	require.NoError(t, err)
	require.Len(t, systems, 1)
	assert.Equal(t, "aerobic", systems[0].Name)
}

func TestCompileStoreIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "systems.db")

	for i := 0; i < 2; i++ {
		_, err := runCommand(t, "compile", "--store", dbPath, filepath.Join("testdata", "conserved.cue"))
		require.NoError(t, err)
	}

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	systems, err := s.ListSystems(context.Background())
	require.NoError(t, err)
	assert.Len(t, systems, 1)
}

func TestCompileInvalidDefinition(t *testing.T) {
	out, err := runCommand(t, "compile", filepath.Join("testdata", "invalid.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed validation")
}

func TestCompileMissingFile(t *testing.T) {
	_, err := runCommand(t, "compile", filepath.Join("testdata", "no_such.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
