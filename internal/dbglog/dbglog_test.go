package dbglog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMoveSweep_WritesRecordWithFields(t *testing.T) {
	t.Setenv("DUODIFF_LOG_FILE", filepath.Join(t.TempDir(), "duodiff.log"))

	MoveSweep(3, true)
	MoveSweepCapped(64)

	b, err := os.ReadFile(os.Getenv("DUODIFF_LOG_FILE"))
	require.NoError(t, err)
	require.Equal(t,
		"component=moves event=sweep iteration=3 changed=true\n"+
			"component=moves event=sweep_capped max_iterations=64\n",
		string(b))
}

func TestCancelled_QuotesReasonWithSpaces(t *testing.T) {
	t.Setenv("DUODIFF_LOG_FILE", filepath.Join(t.TempDir(), "duodiff.log"))

	Cancelled("recovered panic: boom")

	b, err := os.ReadFile(os.Getenv("DUODIFF_LOG_FILE"))
	require.NoError(t, err)
	require.Equal(t, `component=compare event=cancelled reason="recovered panic: boom"`+"\n", string(b))
}

func TestMappingSelectedAndMarkersEmitted_AppendInOrder(t *testing.T) {
	t.Setenv("DUODIFF_LOG_FILE", filepath.Join(t.TempDir(), "duodiff.log"))

	MappingSelected(87, 4)
	MarkersEmitted(2, 3, 6)

	b, err := os.ReadFile(os.Getenv("DUODIFF_LOG_FILE"))
	require.NoError(t, err)
	require.Equal(t,
		"component=blockcompare event=mapping_selected score=87 pairs=4\n"+
			"component=markers event=emitted side_a=2 side_b=3 alignment_pairs=6\n",
		string(b))
}

func TestMoveSweep_NoOpWhenUnset(t *testing.T) {
	t.Setenv("DUODIFF_LOG_FILE", "")
	MoveSweep(1, false)
}

func TestMoveSweep_NoOpWhenPathIsDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DUODIFF_LOG_FILE", dir)

	MoveSweep(1, false)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
