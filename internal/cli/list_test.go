package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KimmieDC/qsdsan/internal/store"
)

// seedStore compiles both fixture definitions into a fresh database
// and returns its path.
func seedStore(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	for _, fixture := range []string{"conserved.cue", "symbolic.cue"} {
		_, err := runCommand(t, "compile", "--store", dbPath, filepath.Join("testdata", fixture))
		require.NoError(t, err)
	}
	return dbPath
}

func TestListSystems(t *testing.T) {
	dbPath := seedStore(t)

	out, err := runCommand(t, "list", "systems", "--store", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "aerobic")
	assert.Contains(t, out, "yielded")
	assert.Contains(t, out, "2 system(s)")
}

func TestListSystemsByName(t *testing.T) {
	dbPath := seedStore(t)

	out, err := runCommand(t, "list", "systems", "--store", dbPath, "--name", "aerobic")
	require.NoError(t, err)
	assert.Contains(t, out, "aerobic")
	assert.NotContains(t, out, "yielded")
	assert.Contains(t, out, "1 system(s)")
}

func TestListSystemsByProcess(t *testing.T) {
	dbPath := seedStore(t)

	out, err := runCommand(t, "list", "systems", "--store", dbPath, "--process", "growth", "--component", "S_O2")
	require.NoError(t, err)
	assert.Contains(t, out, "aerobic")
	assert.NotContains(t, out, "yielded")
}

func TestListSystemsJSON(t *testing.T) {
	dbPath := seedStore(t)

	out, err := runCommand(t, "--format", "json", "list", "systems", "--store", dbPath, "--limit", "1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var records []store.SystemRecord
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)
}

func TestListRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	_, err := runCommand(t, "rates", "--state", repleteState, "--store", dbPath)
	require.NoError(t, err)

	out, err := runCommand(t, "list", "runs", "--store", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 run(s)")
}

func TestListRunsRejectsSystemFilterMismatch(t *testing.T) {
	dbPath := seedStore(t)

	out, err := runCommand(t, "list", "runs", "--store", dbPath, "--name", "aerobic")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E206")
}

func TestListUnknownTarget(t *testing.T) {
	dbPath := seedStore(t)

	_, err := runCommand(t, "list", "snapshots", "--store", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
