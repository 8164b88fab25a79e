package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pistream/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pistream",
	Short: "A resumable π digit streamer",
	Long: `pistream generates the decimal digits of π with an unbounded spigot
algorithm and streams them to a plain text file.

Features:
  - Exact digit generation with no precision ceiling
  - Crash-safe checkpoints written atomically
  - Byte-identical resume after interrupts and power loss
  - Pauses instead of dying when disk space runs low
  - Automatic retry with exponential backoff on write errors
  - Live status line or full-screen terminal UI
  - SQLite ledger of past sessions

Run it with no arguments to start or resume the stream in the current
directory.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
			ui.DisableColors()
		}

		// Don't show the logo for certain commands, nor when the TUI is
		// about to own the screen.
		if quiet || useTUI {
			return
		}
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default searches .pistream.yaml, then $HOME/.config/pistream/)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress the logo and the live status line")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "keep full log output alongside the status display")

	// Version template
	rootCmd.SetVersionTemplate(`pistream {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
