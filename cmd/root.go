package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/josephlewis42/smallsh/core"
	"github.com/josephlewis42/smallsh/core/config"
	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	eventLogPath string
	plainInput   bool
)

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		// Nothing was initialized, run with the built-in defaults and don't
		// write anything into the directory.
		configuration = config.Default(cfgPath)
		configuration.EventLog = ""
		return configuration, nil
	}

	return configuration, err
}

// openEventLog opens the event log named by --event-log or the configuration.
// The returned logger is nil if event logging is disabled.
func openEventLog(cfg *config.Configuration) (*logger.Logger, func() error, error) {
	var (
		fd  io.WriteCloser
		err error
	)
	if eventLogPath != "" {
		fd, err = os.OpenFile(eventLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	} else {
		var logFd afero.File
		if logFd, err = cfg.OpenEventLog(); logFd != nil {
			fd = logFd
		}
	}

	switch {
	case err != nil:
		return nil, nil, fmt.Errorf("opening event log: %w", err)
	case fd == nil:
		return nil, func() error { return nil }, nil
	default:
		return logger.NewJSONLinesLogger(fd), fd.Close, nil
	}
}

// runShell runs an interactive session on the process's standard streams.
func runShell(cmd *cobra.Command, cfg *config.Configuration) error {
	events, closeEvents, err := openEventLog(cfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	shell, err := core.NewShell(core.Options{
		Config:        cfg,
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Events:        events,
		Plain:         plainInput,
		HandleSignals: true,
	})
	if err != nil {
		return err
	}
	defer shell.Close()

	if code := shell.Run(cmd.Context()); code != 0 {
		return fmt.Errorf("shell exited with code %d", code)
	}
	return nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smallsh",
	Short: "A small command interpreter",
	Long: `smallsh reads one command per line and runs it in the foreground, or in
the background when the line ends with &. Input and output can be redirected
with < and >, $$ expands to the shell's pid and Ctrl-Z toggles
foreground-only mode.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		return runShell(cmd, configuration)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.PersistentFlags().StringVar(&eventLogPath, "event-log", "", "event log path, overrides the configuration")
	rootCmd.PersistentFlags().BoolVar(&plainInput, "plain", false, "read input without the line editor")
}
