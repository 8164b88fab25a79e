package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pistream/pkg/config"
	"pistream/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage pistream configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'pistream.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	// Determine config file path
	configPath := configFile
	if configPath == "" {
		configPath = "pistream.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	// Create example configuration
	exampleConfig := `# pistream Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with PISTREAM_
# For example: PISTREAM_OUTPUT_DIR, PISTREAM_MIN_FREE_BYTES

# Output file
output:
  # Directory for the digit file and checkpoint
  # Default: current directory
  directory: "."

  # Digits per line in the output file
  line_width: 50

# Checkpointing
checkpoint:
  # Checkpoint after this many new digits
  interval_digits: 50000

  # Checkpoint at least this often regardless of digit count
  interval: 30s

# Disk space guard
disk:
  # Pause the stream when free space drops below this many bytes
  # 0 disables the guard
  min_free_bytes: 0

  # How often to re-check free space while paused
  poll_interval: 2s

# Digit engine
engine:
  # Digits generated per engine call
  # Range: 1-100000
  batch_size: 100

  # Cap generation at this many digits per second
  # 0 means unthrottled
  max_digits_per_second: 0

# Retry behavior for transient write errors
retry:
  # Maximum number of retry attempts
  # Range: 0-10
  max_attempts: 3

  # Initial backoff duration
  base_delay: 1s

  # Maximum backoff duration
  max_delay: 60s

  # Backoff multiplier
  multiplier: 2.0

  # Random jitter fraction applied to each delay
  jitter_factor: 0.1

# Session history
history:
  # Record sessions in a SQLite database
  enabled: true

  # Database path
  # Leave empty to keep it next to the output file
  path: ""

# Notifications on pause, failure, and stop
notifications:
  enabled: true
  on_complete: true
  on_error: true
  on_pause: true

  # Notification type: terminal, desktop, none
  notification_type: "terminal"

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""

  # Disable colored log output
  no_color: false

# Status display
ui:
  # Status refresh interval
  refresh_interval: 500ms

  # Smoothing factor for the average rate (0-1)
  ema_alpha: 0.15
`

	// Write configuration file
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file to taste")
	fmt.Println("2. Run 'pistream config validate' to check the configuration")
	fmt.Println("3. Start streaming with 'pistream run'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Convert to YAML for display
	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	// Show configuration sources
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (PISTREAM_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	// Check if config file is specified
	if configFile == "" {
		// Try to find config file in common locations
		possiblePaths := []string{
			"pistream.yaml",
			"pistream.yml",
			".pistream.yaml",
			".pistream.yml",
			filepath.Join(os.Getenv("HOME"), ".pistream.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "pistream", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	// Try to load and validate configuration
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	// Perform additional validation checks
	warnings := []string{}
	errors := []string{}

	// Check paths
	if cfg.Output.Directory != "" {
		if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create output directory: %v", err))
		}
	}

	// Check logging file path
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if cfg.Disk.MinFreeBytes == 0 {
		warnings = append(warnings, "min_free_bytes is 0; the disk guard is disabled")
	}
	if !cfg.History.Enabled {
		warnings = append(warnings, "session history is disabled")
	}

	// Display results
	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	// Show summary
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output file: %s\n", cfg.DigitsPath())
	fmt.Printf("  Line width: %d digits\n", cfg.Output.LineWidth)
	fmt.Printf("  Checkpoint: every %s digits or %s\n",
		humanize.Comma(int64(cfg.Checkpoint.IntervalDigits)), time.Duration(cfg.Checkpoint.Interval))
	if cfg.Disk.MinFreeBytes > 0 {
		fmt.Printf("  Pause below: %s free\n", humanize.IBytes(cfg.Disk.MinFreeBytes))
	}
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
