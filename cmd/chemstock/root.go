package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// application carries process-wide dependencies into the subcommands. The
// logger is rebuilt by the root command once the --log-level flag is known.
type application struct {
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	app := &application{logger: slog.New(slog.NewTextHandler(os.Stderr, nil))}
	var logLevel string

	root := &cobra.Command{
		Use:   "chemstock",
		Short: "Chemical inventory report toolkit",
		Long: "chemstock converts JSON:API chemical inventory documents into\n" +
			"spreadsheet-ready reports, serves the conversion over HTTP, and\n" +
			"publishes reports to Google Sheets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			logger, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			app.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")

	root.AddCommand(
		newConvertCommand(app),
		newFetchCommand(app),
		newBatchCommand(app),
		newServeCommand(app),
		newPublishCommand(app),
	)
	return root
}

// newLogger builds the process logger. Logs go to stderr so report output on
// stdout or in files stays clean.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "", "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler), nil
}

func execute() int {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
