package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the digit streamer
type Config struct {
	// Output stream settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Checkpoint cadence and location
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Low-disk guard
	Disk DiskConfig `yaml:"disk" json:"disk"`

	// Digit generation settings
	Engine EngineConfig `yaml:"engine" json:"engine"`

	// Write retry policy
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Run history ledger
	History HistoryConfig `yaml:"history" json:"history"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Terminal HUD settings
	UI UIConfig `yaml:"ui" json:"ui"`
}

// OutputConfig holds digit file configuration
type OutputConfig struct {
	// Directory receives the digit file, checkpoint, lock file and, unless
	// overridden, the history database.
	Directory string `yaml:"directory" json:"directory"`
	// LineWidth is the number of digit characters per output line.
	LineWidth int `yaml:"line_width" json:"line_width"`
}

// Duration is a time.Duration that round-trips through YAML as a
// human-readable string such as "30s" or "1m30s".
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// String returns the value in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// CheckpointConfig holds the flush-and-checkpoint cadence. A cycle runs
// when either threshold is crossed, whichever comes first.
type CheckpointConfig struct {
	IntervalDigits uint64   `yaml:"interval_digits" json:"interval_digits"`
	Interval       Duration `yaml:"interval" json:"interval"`
}

// DiskConfig holds the free-space guard settings
type DiskConfig struct {
	// MinFreeBytes pauses the stream when free space drops below it.
	// Zero disables the guard.
	MinFreeBytes uint64 `yaml:"min_free_bytes" json:"min_free_bytes"`
	// PollInterval is how often a running stream samples free space and
	// how often a paused one re-checks it.
	PollInterval Duration `yaml:"poll_interval" json:"poll_interval"`
}

// EngineConfig holds digit generation settings
type EngineConfig struct {
	// BatchSize is how many digits are generated between suspension
	// points. Shutdown, pause and checkpointing happen only on batch
	// boundaries.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// MaxDigitsPerSecond throttles generation; 0 runs unthrottled.
	MaxDigitsPerSecond int `yaml:"max_digits_per_second" json:"max_digits_per_second"`
}

// RetryConfig holds the bounded retry policy for failed appends
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64  `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64  `yaml:"jitter_factor" json:"jitter_factor"`
}

// HistoryConfig holds run ledger settings
type HistoryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Path overrides the database location; empty keeps it next to the
	// digit file.
	Path string `yaml:"path" json:"path"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	OnPause          bool   `yaml:"on_pause" json:"on_pause"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// UIConfig holds terminal HUD settings
type UIConfig struct {
	RefreshInterval Duration `yaml:"refresh_interval" json:"refresh_interval"`
	// EMAAlpha smooths the displayed digits-per-second rate.
	EMAAlpha float64 `yaml:"ema_alpha" json:"ema_alpha"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Directory: ".",
			LineWidth: 50,
		},
		Checkpoint: CheckpointConfig{
			IntervalDigits: 50_000,
			Interval:       Duration(30 * time.Second),
		},
		Disk: DiskConfig{
			MinFreeBytes: 0, // guard disabled unless configured
			PollInterval: Duration(2 * time.Second),
		},
		Engine: EngineConfig{
			BatchSize:          100,
			MaxDigitsPerSecond: 0, // unthrottled
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    Duration(1 * time.Second),
			MaxDelay:     Duration(60 * time.Second),
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "",
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			OnPause:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level:   "info",
			File:    "",
			NoColor: false,
		},
		UI: UIConfig{
			RefreshInterval: Duration(500 * time.Millisecond),
			EMAAlpha:        0.15,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if dir := os.Getenv("PISTREAM_OUTPUT_DIR"); dir != "" {
		c.Output.Directory = dir
	}
	if width := os.Getenv("PISTREAM_LINE_WIDTH"); width != "" {
		if val, err := strconv.Atoi(width); err == nil && val > 0 {
			c.Output.LineWidth = val
		}
	}
	if digits := os.Getenv("PISTREAM_CHECKPOINT_DIGITS"); digits != "" {
		if val, err := strconv.ParseUint(digits, 10, 64); err == nil && val > 0 {
			c.Checkpoint.IntervalDigits = val
		}
	}
	if interval := os.Getenv("PISTREAM_CHECKPOINT_INTERVAL"); interval != "" {
		if val, err := time.ParseDuration(interval); err == nil && val > 0 {
			c.Checkpoint.Interval = Duration(val)
		}
	}
	if minFree := os.Getenv("PISTREAM_MIN_FREE_BYTES"); minFree != "" {
		if val, err := strconv.ParseUint(minFree, 10, 64); err == nil {
			c.Disk.MinFreeBytes = val
		}
	}
	if poll := os.Getenv("PISTREAM_POLL_INTERVAL"); poll != "" {
		if val, err := time.ParseDuration(poll); err == nil && val > 0 {
			c.Disk.PollInterval = Duration(val)
		}
	}
	if batch := os.Getenv("PISTREAM_BATCH_SIZE"); batch != "" {
		if val, err := strconv.Atoi(batch); err == nil && val > 0 {
			c.Engine.BatchSize = val
		}
	}
	if rate := os.Getenv("PISTREAM_MAX_RATE"); rate != "" {
		if val, err := strconv.Atoi(rate); err == nil && val >= 0 {
			c.Engine.MaxDigitsPerSecond = val
		}
	}
	if enabled := os.Getenv("PISTREAM_HISTORY_ENABLED"); enabled != "" {
		c.History.Enabled = strings.ToLower(enabled) == "true"
	}
	if notif := os.Getenv("PISTREAM_NOTIFICATIONS_ENABLED"); notif != "" {
		c.Notifications.Enabled = strings.ToLower(notif) == "true"
	}
	if level := os.Getenv("PISTREAM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("PISTREAM_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".pistream.yaml",
		".pistream.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "pistream", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "pistream", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".pistream.yaml"),
		filepath.Join(os.Getenv("HOME"), ".pistream.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.LineWidth <= 0 {
		errs = append(errs, errors.New("line width must be positive"))
	}

	if c.Checkpoint.IntervalDigits == 0 {
		errs = append(errs, errors.New("checkpoint digit interval must be positive"))
	}
	if c.Checkpoint.Interval <= 0 {
		errs = append(errs, errors.New("checkpoint time interval must be positive"))
	}

	if c.Disk.PollInterval <= 0 {
		errs = append(errs, errors.New("disk poll interval must be positive"))
	}

	if c.Engine.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.Engine.MaxDigitsPerSecond < 0 {
		errs = append(errs, errors.New("max digits per second cannot be negative"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry attempts must be positive"))
	}
	if c.Retry.BaseDelay <= 0 {
		errs = append(errs, errors.New("retry base delay must be positive"))
	}
	if c.Retry.Multiplier < 1.0 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("retry jitter factor must be between 0 and 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if c.UI.RefreshInterval <= 0 {
		errs = append(errs, errors.New("ui refresh interval must be positive"))
	}
	if c.UI.EMAAlpha <= 0 || c.UI.EMAAlpha > 1 {
		errs = append(errs, errors.New("ema alpha must be in (0, 1]"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dir, ok := flags["out"].(string); ok && dir != "" {
		c.Output.Directory = dir
	}
	if width, ok := flags["line-width"].(int); ok && width > 0 {
		c.Output.LineWidth = width
	}
	if digits, ok := flags["checkpoint-digits"].(uint64); ok && digits > 0 {
		c.Checkpoint.IntervalDigits = digits
	}
	if interval, ok := flags["checkpoint-interval"].(time.Duration); ok && interval > 0 {
		c.Checkpoint.Interval = Duration(interval)
	}
	if minFree, ok := flags["min-free"].(uint64); ok {
		c.Disk.MinFreeBytes = minFree
	}
	if poll, ok := flags["poll-interval"].(time.Duration); ok && poll > 0 {
		c.Disk.PollInterval = Duration(poll)
	}
	if batch, ok := flags["batch-size"].(int); ok && batch > 0 {
		c.Engine.BatchSize = batch
	}
	if rate, ok := flags["max-rate"].(int); ok && rate >= 0 {
		c.Engine.MaxDigitsPerSecond = rate
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pistream.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// DigitsPath returns the full path of the digit stream file.
func (c *Config) DigitsPath() string {
	return filepath.Join(c.Output.Directory, "pi_digits.txt")
}

// CheckpointPath returns the full path of the checkpoint file.
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.Output.Directory, "pi_state.json")
}

// LockPath returns the full path of the exclusive lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Output.Directory, "pistream.lock")
}

// HistoryPath returns the run ledger location, honoring the override.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.Output.Directory, "pistream_history.db")
}
