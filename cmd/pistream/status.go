package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pistream/pkg/checkpoint"
	"pistream/pkg/config"
	"pistream/pkg/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect the checkpoint and output file of a stream",
	Long: `Show where a stream left off: how many digits are on disk, when the
last checkpoint was written, and whether the output file still agrees
with it. Does not touch either file.`,
	Example: `  # Status of the stream in the current directory
  pistream status

  # Status of a stream elsewhere
  pistream status --out /data/pi`,
	Args: cobra.NoArgs,
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&outputDir, "out", "o", "", "directory holding the digit file and checkpoint")
}

func runStatus(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["out"] = outputDir
	}
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Configuration error", err)
		os.Exit(1)
	}

	ck, err := checkpoint.NewManager(cfg.CheckpointPath()).Load()
	if err != nil {
		ui.PrintError("Checkpoint unreadable", err)
		fmt.Println(ui.Dim("The next run will start over from digit one."))
		os.Exit(1)
	}

	info, statErr := os.Stat(cfg.DigitsPath())

	if ck == nil {
		ui.PrintWarning("No checkpoint found", cfg.CheckpointPath())
		if statErr == nil {
			ui.PrintInfo("Stray output file", fmt.Sprintf("%s (%s)", cfg.DigitsPath(), humanize.IBytes(uint64(info.Size()))))
		} else {
			fmt.Println(ui.Dim("Nothing here yet. `pistream run` starts a new stream."))
		}
		return
	}

	ui.PrintHighlight("Stream status")
	ui.PrintInfo("Run", ck.RunID)
	ui.PrintInfo("Digits", humanize.Comma(int64(ck.DigitCount)))
	ui.PrintInfo("File", ck.Cursor.File)
	ui.PrintInfo("Line width", fmt.Sprintf("%d", ck.Cursor.LineWidth))
	ui.PrintInfo("Started", humanize.Time(ck.CreatedAt))
	ui.PrintInfo("Checkpointed", humanize.Time(ck.UpdatedAt))

	switch {
	case statErr != nil:
		ui.PrintWarning("Output file missing", cfg.DigitsPath())
		fmt.Println(ui.Dim("The next run starts over from digit one."))
	case info.Size() == ck.Cursor.BytesWritten:
		ui.PrintSuccess(fmt.Sprintf("✓ File consistent at %s", humanize.IBytes(uint64(info.Size()))))
	case info.Size() > ck.Cursor.BytesWritten:
		extra := info.Size() - ck.Cursor.BytesWritten
		ui.PrintWarning("File runs past the checkpoint")
		fmt.Println(ui.Dim(fmt.Sprintf("%s extra; resume will truncate and regenerate them.", humanize.IBytes(uint64(extra)))))
	default:
		ui.PrintWarning("File shorter than the checkpoint")
		fmt.Println(ui.Dim("The next run starts over from digit one."))
	}
}
