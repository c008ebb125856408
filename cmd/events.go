package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the shell event log.",
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fd, err := openEventLogForRead()
		if err != nil {
			return err
		}
		defer fd.Close()

		report := logger.NewReport()
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	},
}

func openEventLogForRead() (io.ReadCloser, error) {
	if eventLogPath != "" {
		return os.Open(eventLogPath)
	}

	config, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if config.EventLog == "" {
		return nil, fmt.Errorf("no event log configured in %q, did you run init?", cfgPath)
	}
	return config.ReadEventLog()
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
}
