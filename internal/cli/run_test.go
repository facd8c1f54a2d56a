package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	configFlag := runCmd.Flags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)

	metricsFlag := runCmd.Flags().Lookup("metrics")
	require.NotNil(t, metricsFlag)
	assert.Equal(t, "false", metricsFlag.DefValue)
}

func TestRunCommandReachesQuiescenceAndPrintsReport(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"run"})

	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "methodA")
	assert.Contains(t, output, "methodB")
	assert.Contains(t, output, "methodC")
	assert.Contains(t, output, "orphan")
	assert.Contains(t, output, "final")
}

func TestRunCommandWithMetricsIncludesPrometheusText(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"run", "--metrics"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "fpcf_")
}

func TestRunCommandJSONFormat(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"run", "--format", "json"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"orphan"`)
}

func TestRunCommandRejectsBadConfigPath(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"run", "--config", "/nonexistent/store.cue"})

	err := cmd.Execute()
	require.Error(t, err)
}
