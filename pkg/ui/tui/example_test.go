package tui_test

import (
	"context"
	"fmt"
	"time"

	"pistream/pkg/config"
	"pistream/pkg/stream"
	"pistream/pkg/ui/tui"
)

func ExampleTUI() {
	cfg := config.DefaultConfig()
	cfg.Output.Directory = "/tmp/pi"

	streamer := stream.New(cfg)

	terminal := tui.NewTUI(time.Duration(cfg.UI.RefreshInterval), cfg.Checkpoint.IntervalDigits)
	streamer.AddStatusSink(terminal)

	// The stream runs in the background; the TUI owns the terminal until
	// the user quits or the stream reaches a terminal state.
	streamer.Start(context.Background())
	if err := terminal.Start(); err != nil {
		fmt.Println("tui:", err)
	}

	streamer.Stop()
	if err := streamer.Wait(); err != nil {
		fmt.Println("stream:", err)
	}
}
