package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Chat      ChatConfig      `yaml:"chat"`
	Killmails KillmailsConfig `yaml:"killmails"`
	Discord   DiscordConfig   `yaml:"discord"`
	OTel      OTelConfig      `yaml:"otel"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Static    StaticConfig    `yaml:"static"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ChatConfig struct {
	// LogDirectory overrides auto-detection of the game's chat log folder.
	LogDirectory string `yaml:"log_directory"`
	// IntelChannels maps a monitored channel name to its region names.
	IntelChannels map[string][]string `yaml:"intel_channels"`
}

type KillmailsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	MaxAge    time.Duration `yaml:"max_age"`
	QueueURL  string        `yaml:"queue_url"`
	DetailURL string        `yaml:"detail_url"`
}

type DiscordConfig struct {
	Enabled   bool   `yaml:"-"` // derived from the presence of a bot token
	BotToken  string `yaml:"-"` // from env only
	ChannelID string `yaml:"-"` // from env only
}

type OTelConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type MetricsConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type StaticConfig struct {
	// DatabasePath points at the read-only static game data snapshot.
	DatabasePath string `yaml:"database_path"`
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Killmails: KillmailsConfig{
			Enabled:   true,
			MaxAge:    5 * time.Minute,
			QueueURL:  "https://killfeed.example.net/listen.php",
			DetailURL: "https://esi.evetech.net/latest/killmails/%d/%s/",
		},
		OTel: OTelConfig{
			ServiceName: "intelwatch",
		},
		Metrics: MetricsConfig{Interval: 15 * time.Second},
		Static:  StaticConfig{DatabasePath: "static.sqlite"},
	}
}

func configPath() string {
	return envOr("INTELWATCH_CONFIG", filepath.Join(configDir(), "config.yaml"))
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "intelwatch")
}

func loadConfig() (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(configPath())
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", configPath(), err)
		}
	}
	// config file is optional; a missing file is not an error

	// Env overrides (secrets + runtime values)
	cfg.Discord.BotToken = os.Getenv("DISCORD_BOT_TOKEN")
	cfg.Discord.ChannelID = os.Getenv("DISCORD_CHANNEL_ID")
	if v := os.Getenv("INTELWATCH_LOG_DIR"); v != "" {
		cfg.Chat.LogDirectory = v
	}
	if v := os.Getenv("INTELWATCH_STATIC_DB"); v != "" {
		cfg.Static.DatabasePath = v
	}

	if cfg.Discord.BotToken != "" && cfg.Discord.ChannelID == "" {
		return cfg, fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_BOT_TOKEN is set")
	}
	cfg.Discord.Enabled = cfg.Discord.BotToken != ""
	if cfg.Killmails.MaxAge <= 0 {
		cfg.Killmails.MaxAge = 5 * time.Minute
	}

	return cfg, nil
}

// Settings is the live-reloadable view of the configuration. Components read
// snapshots; a re-read of the config file replaces the snapshot and wakes
// every subscriber.
type Settings struct {
	mu   sync.RWMutex
	cfg  Config
	subs []chan struct{}
}

func NewSettings(cfg Config) *Settings {
	return &Settings{cfg: cfg}
}

// Snapshot returns the current configuration by value.
func (s *Settings) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace installs a new configuration and notifies subscribers.
func (s *Settings) Replace(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	subs := make([]chan struct{}, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
			// subscriber already has a pending wake-up
		}
	}
}

// Subscribe returns a channel that receives a tick after every Replace.
func (s *Settings) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// IntelChannelRegions returns the regions bound to a channel, nil when the
// channel is not configured for intel.
func (s *Settings) IntelChannelRegions(channel string) []string {
	cfg := s.Snapshot()
	return cfg.Chat.IntelChannels[channel]
}

// chatLogDirCandidates lists the usual game client log locations, checked in
// order when no directory is configured.
func chatLogDirCandidates() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, "Documents", "EVE", "logs", "Chatlogs"),
		filepath.Join(home, "EVE", "logs", "Chatlogs"),
	}
}

// resolveChatLogDir picks the configured directory when set, otherwise the
// first auto-detected candidate that exists. Empty means undetectable.
func (s *Settings) resolveChatLogDir() string {
	cfg := s.Snapshot()
	if cfg.Chat.LogDirectory != "" {
		return cfg.Chat.LogDirectory
	}
	for _, dir := range chatLogDirCandidates() {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
