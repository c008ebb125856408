package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/smallsh/core/config"
	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Cleanup(func() {
		cfgPath = "."
		eventLogPath = ""
		plainInput = false
	})

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestBuiltinsCommand(t *testing.T) {
	assert.Equal(t, "cd\nexit\nstatus\n", execute(t, "builtins"))
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "smallsh")

	out := execute(t, "init", "--config", dir)

	assert.Contains(t, out, "writing")
	_, err := os.Stat(filepath.Join(dir, config.ConfigurationName))
	assert.NoError(t, err)
}

func TestReportCommand(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "events.log")
	fd, err := os.Create(logPath)
	require.NoError(t, err)

	events := logger.NewJSONLinesLogger(fd)
	events.ShellStarted(100)
	events.RunCommand([]string{"ls", "-l"}, "", "", false)
	events.ForegroundFinished(101, []string{"ls", "-l"}, false, 0)
	require.NoError(t, fd.Close())

	out := execute(t, "events", "report", "--event-log", logPath)

	assert.Contains(t, out, "log_entries: 3")
	assert.Contains(t, out, "ls: 1")
	assert.Contains(t, out, "exit value 0: 1")
}

func TestReportCommand_fromConfig(t *testing.T) {
	dir := t.TempDir()
	execute(t, "init", "--config", dir)

	fd, err := os.Create(filepath.Join(dir, "events.log"))
	require.NoError(t, err)
	logger.NewJSONLinesLogger(fd).ShellStarted(1)
	require.NoError(t, fd.Close())

	out := execute(t, "events", "report", "--config", dir)
	assert.Contains(t, out, "log_entries: 1")
}

func TestLoadConfig_defaults(t *testing.T) {
	cfgPath = t.TempDir()
	t.Cleanup(func() { cfgPath = "." })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.EventLog, "uninitialized directories aren't written to")
	assert.Equal(t, ":", cfg.Prompt)
}
