package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pistream/pkg/config"
	"pistream/pkg/history"
	"pistream/pkg/ui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past streaming sessions",
	Long: `List recent sessions from the history database: when each one ran, how
far it got, and how it ended.`,
	Example: `  # Last 20 sessions
  pistream history

  # Last 5 sessions of a stream elsewhere
  pistream history --limit 5 --out /data/pi`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of sessions to show")
	historyCmd.Flags().StringVarP(&outputDir, "out", "o", "", "directory holding the stream")
}

func runHistory(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["out"] = outputDir
	}
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Configuration error", err)
		os.Exit(1)
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		ui.PrintError("Failed to open history database", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), historyLimit)
	if err != nil {
		ui.PrintError("Failed to read history", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		ui.PrintWarning("No sessions recorded yet")
		return
	}

	ui.PrintHighlight(fmt.Sprintf("Last %d session(s)", len(runs)))
	for _, run := range runs {
		line := fmt.Sprintf("%s  %-11s  %s → %s digits",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Outcome,
			humanize.Comma(int64(run.StartDigits)),
			humanize.Comma(int64(run.EndDigits)))
		switch run.Outcome {
		case history.OutcomeFatal:
			line = ui.Red(line)
		case history.OutcomeInterrupted:
			line = ui.Yellow(line)
		case history.OutcomeRunning:
			line = ui.Cyan(line)
		}
		fmt.Println(line)
		if run.EndedAt.IsZero() {
			fmt.Println(ui.Dim(fmt.Sprintf("  run %s", shortRunID(run.RunID))))
		} else {
			fmt.Println(ui.Dim(fmt.Sprintf("  ran %s, run %s",
				run.EndedAt.Sub(run.StartedAt).Round(time.Second), shortRunID(run.RunID))))
		}
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
