package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statesCSV = `State,TotalPop,Income,GenderPop,White
Ohio,100,"$50,000",40M_60F,70%
Utah,50,$0,30M_,40%
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "states0.csv"), []byte(statesCSV), 0o644))
	return dir
}

func TestInspectCommand(t *testing.T) {
	dir := writeInput(t)

	out, err := execute(t, "inspect",
		"--pattern", filepath.Join(dir, "states*.csv"),
		"--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "Rows:               2")
	assert.Contains(t, out, "Percentage columns: [White]")
	assert.Contains(t, out, "female")
}

func TestRunCommand(t *testing.T) {
	dir := writeInput(t)
	output := filepath.Join(dir, "clean.csv")
	metrics := filepath.Join(dir, "metrics.json")

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=error\n"), 0o644))

	out, err := execute(t, "run",
		"--env-file", envFile,
		"--pattern", filepath.Join(dir, "states*.csv"),
		"--output", output,
		"--metrics-json", metrics)
	require.NoError(t, err)

	assert.Contains(t, out, "Cleaning Run Report")
	assert.Contains(t, out, "Female Imputed:          1")
	assert.Contains(t, out, "Sample errors:")
	assert.Contains(t, out, "[DataConversion] Stage: clean Column: female Value: 30M_")
	assert.FileExists(t, output)
	assert.FileExists(t, metrics)
}

func TestRunCommand_NoInput(t *testing.T) {
	_, err := execute(t, "run",
		"--pattern", filepath.Join(t.TempDir(), "states*.csv"),
		"--output", filepath.Join(t.TempDir(), "clean.csv"),
		"--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files found")
}
