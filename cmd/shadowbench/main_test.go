package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadowbench/internal/benchmark"
	"shadowbench/internal/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulateCommand(t *testing.T) {
	out, err := execute(t, "simulate")
	require.NoError(t, err)

	records, err := report.Parse(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, records, len(benchmark.Default()))
	assert.Equal(t, "snd/mp3_player", records[0].Key.String())
	assert.Equal(t, 79, records[0].Automatic)
}

func TestRunCommand_NoModules(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "results.txt")

	out, err := execute(t, "run", "--no-modules", "--delay", "0", "--results", results, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, report.Header)

	data, err := os.ReadFile(results)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Session: "))

	records, err := report.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, records, 6)
	for _, r := range records {
		assert.Equal(t, 100, r.Total(), r.Key.String())
	}

	csv, err := execute(t, "export", results)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	assert.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[1], "snd,mp3_player,100,79,16,5"))
}

func TestRunCommand_CustomTable(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "table.yaml")
	require.NoError(t, os.WriteFile(table, []byte(`entries:
  - driver: ide
    application: compiler
    automatic: 2
    manual: 1
`), 0o644))

	out, err := execute(t, "run", "--no-modules", "--delay", "0", "--table", table, "--results", "", "--log-level", "error")
	require.NoError(t, err)

	records, err := report.Parse(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Total())
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "simulate", "--format", "xml")
	assert.Error(t, err)

	_, err = execute(t, "run", "--no-modules", "--format", "xml")
	assert.Error(t, err)
}

func TestExportMissingFile(t *testing.T) {
	_, err := execute(t, "export", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
