package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run_units.json")
	units := map[string]struct{}{"林口#1": {}, "大潭#7": {}, "興達#2": {}}

	require.NoError(t, SaveState(path, units))
	assert.Equal(t, units, LoadState(path, zap.NewNop()))
}

func TestState_FileIsSortedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run_units.json")
	require.NoError(t, SaveState(path, map[string]struct{}{"b": {}, "a": {}, "c": {}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `["a","b","c"]`, string(data))
}

func TestLoadState_AbsentFileIsEmptySet(t *testing.T) {
	units := LoadState(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	assert.Empty(t, units)
}

func TestLoadState_CorruptFileIsEmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run_units.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Empty(t, LoadState(path, zap.NewNop()))
}

func TestSaveState_OverwritesPreviousSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run_units.json")
	require.NoError(t, SaveState(path, map[string]struct{}{"old": {}}))
	require.NoError(t, SaveState(path, map[string]struct{}{"new": {}}))

	units := LoadState(path, zap.NewNop())
	assert.Equal(t, map[string]struct{}{"new": {}}, units)
}
