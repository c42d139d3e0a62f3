// Package config loads the hunter configuration from YAML. Every field has a
// built-in default matching the original deployment, so the program runs with
// no config file at all; the file only overrides.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration.
type Config struct {
	SystemName string           `yaml:"system_name"`
	Hunt       HuntConfig       `yaml:"hunt"`
	Probe      ProbeConfig      `yaml:"probe"`
	Workers    WorkersConfig    `yaml:"workers"`
	Queue      QueueConfig      `yaml:"queue"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Results    ResultsConfig    `yaml:"results"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Logging    LoggingConfig    `yaml:"logging"`
	Stats      StatsConfig      `yaml:"stats"`
}

// HuntConfig describes what is being hunted: the short-link base, the code
// shape, and the patterns a final URL must carry.
type HuntConfig struct {
	BaseURL    string   `yaml:"base_url"`
	CodeLength int      `yaml:"code_length"`
	Patterns   []string `yaml:"patterns"`
	Categories []string `yaml:"categories"`
}

// ProbeConfig selects the probe backend and its timeout.
type ProbeConfig struct {
	Backend        string `yaml:"backend"` // "http" or "curl"
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// WorkersConfig sizes the pool. Zero means auto: min(30, 4×CPU).
type WorkersConfig struct {
	Count int `yaml:"count"`
}

// QueueConfig bounds the work queue and the generation-loop backoff.
type QueueConfig struct {
	Capacity         int `yaml:"capacity"`
	BackoffThreshold int `yaml:"backoff_threshold"`
	BackoffMS        int `yaml:"backoff_ms"`
}

// CheckpointConfig controls progress persistence. Two independent timers
// save the checkpoint: the main interval and a shorter auto-save.
type CheckpointConfig struct {
	File            string `yaml:"file"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	AutoSaveSeconds int    `yaml:"auto_save_seconds"`
}

// ResultsConfig controls the append-only match log.
type ResultsConfig struct {
	File                 string `yaml:"file"`
	BatchSize            int    `yaml:"batch_size"`
	FlushIntervalSeconds int    `yaml:"flush_interval_seconds"`
}

// ArchiveConfig controls the queryable SQLite copy of confirmed matches.
type ArchiveConfig struct {
	Enabled         bool   `yaml:"enabled"`
	DBPath          string `yaml:"db_path"`
	QueueSize       int    `yaml:"queue_size"`
	BatchSize       int    `yaml:"batch_size"`
	BatchIntervalMS int    `yaml:"batch_interval_ms"`
}

// TelegramConfig configures the notification collaborator. Token and chat ID
// fall back to TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID when empty.
type TelegramConfig struct {
	Enabled              bool   `yaml:"enabled"`
	Token                string `yaml:"token"`
	ChatID               string `yaml:"chat_id"`
	ShareCheckpoint      bool   `yaml:"share_checkpoint"`
	ShareIntervalSeconds int    `yaml:"share_interval_seconds"`
	LogSendSeconds       int    `yaml:"log_send_seconds"`
}

// LoggingConfig controls the file log. The system name, when set, prefixes
// the file name so parallel instances don't clobber each other.
type LoggingConfig struct {
	File string `yaml:"file"`
}

// StatsConfig controls periodic console stats output.
type StatsConfig struct {
	DisplayIntervalSeconds int `yaml:"display_interval_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML file at path, filling defaults for any
// omitted field.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Hunt.BaseURL == "" {
		c.Hunt.BaseURL = "https://gpay.app.goo.gl/"
	}
	if c.Hunt.CodeLength <= 0 {
		c.Hunt.CodeLength = 6
	}
	if len(c.Hunt.Patterns) == 0 {
		c.Hunt.Patterns = []string{"iplladdoo2025", "socialTitle=Psst", "Laddoo+for+you"}
	}
	if len(c.Hunt.Categories) == 0 {
		c.Hunt.Categories = []string{
			"Steady", "Sparky", "Zen", "Elastic", "Boom",
			"Dash", "Bazooka", "Dizzy", "Sunny", "Ninja", "Wally",
		}
	}
	if c.Probe.Backend == "" {
		c.Probe.Backend = "http"
	}
	if c.Probe.TimeoutSeconds <= 0 {
		c.Probe.TimeoutSeconds = 8
	}
	if c.Workers.Count <= 0 {
		c.Workers.Count = defaultWorkerCount()
	}
	if c.Queue.Capacity <= 0 {
		c.Queue.Capacity = 100000
	}
	if c.Queue.BackoffThreshold <= 0 {
		c.Queue.BackoffThreshold = 10000
	}
	if c.Queue.BackoffMS <= 0 {
		c.Queue.BackoffMS = 100
	}
	if c.Checkpoint.File == "" {
		c.Checkpoint.File = "checkpoint.json"
	}
	if c.Checkpoint.IntervalSeconds <= 0 {
		c.Checkpoint.IntervalSeconds = 300
	}
	if c.Checkpoint.AutoSaveSeconds <= 0 {
		c.Checkpoint.AutoSaveSeconds = 600
	}
	if c.Results.File == "" {
		c.Results.File = "valid.txt"
	}
	if c.Results.BatchSize <= 0 {
		c.Results.BatchSize = 100
	}
	if c.Results.FlushIntervalSeconds <= 0 {
		c.Results.FlushIntervalSeconds = 2
	}
	if c.Archive.DBPath == "" {
		c.Archive.DBPath = "data/matches.db"
	}
	if c.Archive.QueueSize <= 0 {
		c.Archive.QueueSize = 1000
	}
	if c.Archive.BatchSize <= 0 {
		c.Archive.BatchSize = 50
	}
	if c.Archive.BatchIntervalMS <= 0 {
		c.Archive.BatchIntervalMS = 2000
	}
	if c.Telegram.Token == "" {
		c.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if c.Telegram.ChatID == "" {
		c.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	}
	if c.Telegram.ShareIntervalSeconds <= 0 {
		c.Telegram.ShareIntervalSeconds = 3600
	}
	if c.Telegram.LogSendSeconds <= 0 {
		c.Telegram.LogSendSeconds = 3600
	}
	if c.Logging.File == "" {
		c.Logging.File = "logs.txt"
	}
	if c.Stats.DisplayIntervalSeconds <= 0 {
		c.Stats.DisplayIntervalSeconds = 60
	}
}

func (c *Config) validate() error {
	switch c.Probe.Backend {
	case "http", "curl":
	default:
		return fmt.Errorf("config: unknown probe backend %q (want http or curl)", c.Probe.Backend)
	}
	if !strings.HasSuffix(c.Hunt.BaseURL, "/") {
		return fmt.Errorf("config: hunt base_url must end with /")
	}
	return nil
}

// LogFile returns the log file path, prefixed with the system name when set.
func (c *Config) LogFile() string {
	name := strings.TrimSpace(c.SystemName)
	if name == "" {
		return c.Logging.File
	}
	return name + "-" + c.Logging.File
}

// Print displays the effective configuration on stdout.
func (c *Config) Print() {
	if c.SystemName != "" {
		fmt.Printf("System: %s\n", c.SystemName)
	}
	fmt.Printf("Target: %s (code length %d)\n", c.Hunt.BaseURL, c.Hunt.CodeLength)
	fmt.Printf("Patterns: %s\n", strings.Join(c.Hunt.Patterns, ", "))
	fmt.Printf("Probe: %s backend, %ds timeout\n", c.Probe.Backend, c.Probe.TimeoutSeconds)
	fmt.Printf("Workers: %d (queue capacity %d)\n", c.Workers.Count, c.Queue.Capacity)
	fmt.Printf("Checkpoint: %s every %ds (auto-save %ds)\n",
		c.Checkpoint.File, c.Checkpoint.IntervalSeconds, c.Checkpoint.AutoSaveSeconds)
	fmt.Printf("Results: %s (batch %d)\n", c.Results.File, c.Results.BatchSize)
	if c.Archive.Enabled {
		fmt.Printf("Archive: %s\n", c.Archive.DBPath)
	}
	if c.Telegram.Enabled {
		fmt.Printf("Telegram: enabled (checkpoint sharing: %v)\n", c.Telegram.ShareCheckpoint)
	}
}

func defaultWorkerCount() int {
	n := runtime.NumCPU() * 4
	if n > 30 {
		n = 30
	}
	if n < 1 {
		n = 1
	}
	return n
}
