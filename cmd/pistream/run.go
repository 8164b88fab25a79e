package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pistream/pkg/config"
	"pistream/pkg/logger"
	"pistream/pkg/stream"
	"pistream/pkg/ui"
	"pistream/pkg/ui/tui"
)

var (
	// Run flags
	outputDir          string
	lineWidth          int
	checkpointDigits   uint64
	checkpointInterval time.Duration
	minFree            string
	pollInterval       time.Duration
	batchSize          int
	maxRate            int
	fresh              bool
	noHistory          bool
	useTUI             bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start or resume the digit stream",
	Long: `Start streaming π digits to the output file, resuming from the last
checkpoint when one exists. The stream runs until interrupted (Ctrl+C)
and can be resumed any number of times without losing or repeating a
digit.`,
	Example: `  # Start or resume in the current directory
  pistream run

  # Stream into a specific directory with 25 digits per line
  pistream run --out /data/pi --line-width 25

  # Checkpoint every million digits or every ten seconds
  pistream run --checkpoint-digits 1000000 --checkpoint-interval 10s

  # Pause when free space drops below two gibibytes
  pistream run --min-free 2GiB

  # Discard previous progress and start over
  pistream run --fresh

  # Full-screen terminal dashboard
  pistream run --tui`,
	Args: cobra.NoArgs,
	RunE: runStream,
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "directory for the digit file and checkpoint")
	cmd.Flags().IntVar(&lineWidth, "line-width", 0, "digits per line in the output file")
	cmd.Flags().Uint64Var(&checkpointDigits, "checkpoint-digits", 0, "checkpoint after this many new digits")
	cmd.Flags().DurationVar(&checkpointInterval, "checkpoint-interval", 0, "checkpoint at least this often")
	cmd.Flags().StringVar(&minFree, "min-free", "", "pause when free disk space drops below this (e.g. 2GiB)")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "how often to re-check free space while paused")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "digits generated per engine call")
	cmd.Flags().IntVar(&maxRate, "max-rate", 0, "cap generation at this many digits per second (0 = unlimited)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore any existing checkpoint and start from digit one")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "skip recording this session in the history database")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "full-screen terminal dashboard instead of the status line")
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
	addRunFlags(rootCmd)

	// Running with no subcommand starts the stream, so `pistream` alone
	// does the obvious thing.
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runStream(cmd, args)
		}
		return cmd.Help()
	}
}

func runStream(cmd *cobra.Command, args []string) error {
	// Collect the flags that were actually set so defaults and config
	// file values survive.
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["out"] = outputDir
	}
	if lineWidth > 0 {
		flags["line-width"] = lineWidth
	}
	if checkpointDigits > 0 {
		flags["checkpoint-digits"] = checkpointDigits
	}
	if checkpointInterval > 0 {
		flags["checkpoint-interval"] = checkpointInterval
	}
	if minFree != "" {
		bytes, err := humanize.ParseBytes(minFree)
		if err != nil {
			ui.PrintError("Invalid --min-free value", err)
			os.Exit(1)
		}
		flags["min-free"] = bytes
	}
	if pollInterval > 0 {
		flags["poll-interval"] = pollInterval
	}
	if batchSize > 0 {
		flags["batch-size"] = batchSize
	}
	if maxRate > 0 {
		flags["max-rate"] = maxRate
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if noColor {
		flags["no-color"] = true
	}

	// The status line owns stdout, so unless the user explicitly wants
	// logs keep them out of the way.
	hudActive := !quiet && !useTUI
	if hudActive && !verbose && logLevel == "" {
		flags["log-level"] = "error"
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Configuration error", err)
		os.Exit(1)
	}
	if noHistory {
		cfg.History.Enabled = false
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.InfoWithFields("pistream starting", map[string]interface{}{
		"version": version,
		"out":     cfg.DigitsPath(),
	})

	streamer := stream.New(cfg)
	streamer.SetFresh(fresh)

	var terminal *tui.TUI
	if useTUI {
		terminal = tui.NewTUI(time.Duration(cfg.UI.RefreshInterval), cfg.Checkpoint.IntervalDigits)
		streamer.AddStatusSink(terminal)
	} else if !quiet {
		streamer.AddStatusSink(ui.NewHUD(time.Duration(cfg.UI.RefreshInterval), verbose))
	}

	// Desktop notifications always make sense; terminal-type ones only
	// when nothing else is printing to the console.
	notifType := strings.ToLower(cfg.Notifications.NotificationType)
	if cfg.Notifications.Enabled && (notifType == "desktop" || (notifType == "terminal" && quiet)) {
		streamer.AddStatusSink(ui.NewWatcher(cfg.Notifications))
	}

	if !quiet && !useTUI {
		ui.PrintInfo("Output", cfg.DigitsPath())
		ui.PrintInfo("Checkpoint", fmt.Sprintf("every %s digits or %s",
			humanize.Comma(int64(cfg.Checkpoint.IntervalDigits)), time.Duration(cfg.Checkpoint.Interval)))
		if cfg.Disk.MinFreeBytes > 0 {
			ui.PrintInfo("Pause below", humanize.IBytes(cfg.Disk.MinFreeBytes))
		}
		fmt.Println()
	}

	streamer.Start(context.Background())

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Interrupt received, stopping stream")
		streamer.Stop()
		<-sigCh
		fmt.Fprintln(os.Stderr, "forced exit, checkpoint may lag the output file")
		os.Exit(130)
	}()

	if terminal != nil {
		if err := terminal.Start(); err != nil {
			log.WithError(err).Error("Terminal UI failed")
		}
		// The dashboard has quit; make sure the stream winds down too.
		streamer.Stop()
	}

	err = streamer.Wait()
	signal.Stop(sigCh)

	if terminal != nil {
		printSummary(streamer.Progress())
	}

	if err != nil {
		log.WithError(err).Error("Stream failed")
		if quiet || useTUI {
			ui.PrintError("STREAM FAILED", err)
		}
		os.Exit(1)
	}
	log.Info("Stream stopped cleanly")
	return nil
}

func printSummary(p stream.Progress) {
	fmt.Println()
	ui.PrintInfo("Digits", humanize.Comma(int64(p.Digits)))
	ui.PrintInfo("File", fmt.Sprintf("%s (%s)", p.Path, humanize.IBytes(uint64(p.Bytes))))
	if p.AvgRate > 0 {
		ui.PrintInfo("Average rate", fmt.Sprintf("%s digits/s", humanize.Comma(int64(p.AvgRate))))
	}
}
