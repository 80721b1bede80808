// Package config loads czar's runtime settings: built-in defaults, then the YAML
// config file, then CZAR_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "CZAR_"

type Config struct {
	DataDir         string   `yaml:"data_dir"`
	Database        string   `yaml:"database"`
	Owner           string   `yaml:"owner"`
	Timezone        string   `yaml:"timezone"`
	LogLevel        string   `yaml:"log_level"`
	LogFile         string   `yaml:"log_file"`
	SchedulerBuffer int      `yaml:"scheduler_buffer"`
	SuggestedTags   []string `yaml:"suggested_tags"`
}

// Default returns a Config rooted at dataDir.
func Default(dataDir string) Config {
	return Config{
		DataDir:         dataDir,
		Database:        "czar.db",
		Owner:           defaultOwner(),
		Timezone:        "Local",
		LogLevel:        "info",
		LogFile:         "czar.log",
		SchedulerBuffer: 64,
		SuggestedTags:   []string{"work", "home", "health", "money"},
	}
}

// DefaultDataDir is $XDG_DATA_HOME/czar, falling back to ~/.local/share/czar.
func DefaultDataDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "czar")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".czar"
	}
	return filepath.Join(home, ".local", "share", "czar")
}

// DefaultConfigPath is the config.yaml inside the user config dir.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "czar", "config.yaml")
}

// Load layers the YAML file at configPath (skipped when empty or missing) and the
// environment over the defaults, then validates the result.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := Default(dataDir)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg = FromEnv(cfg)
	cfg.applyDefaults(dataDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// FromEnv applies CZAR_* overrides to base.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := getEnvString("DATABASE"); ok {
		cfg.Database = v
	}
	if v, ok := getEnvString("OWNER"); ok {
		cfg.Owner = v
	}
	if v, ok := getEnvString("TIMEZONE"); ok {
		cfg.Timezone = v
	}
	if v, ok := getEnvString("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnvString("LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvInt("SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvString("SUGGESTED_TAGS"); ok {
		cfg.SuggestedTags = splitList(v)
	}
	return cfg
}

func (c *Config) applyDefaults(dataDir string) {
	defaults := Default(dataDir)
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
	if c.Database == "" {
		c.Database = defaults.Database
	}
	if c.Timezone == "" {
		c.Timezone = defaults.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.SchedulerBuffer == 0 {
		c.SchedulerBuffer = defaults.SchedulerBuffer
	}
}

// DatabasePath resolves Database against DataDir.
func (c Config) DatabasePath() string {
	return c.resolve(c.Database)
}

// LogPath resolves LogFile against DataDir. Empty means log to stderr.
func (c Config) LogPath() string {
	if c.LogFile == "" {
		return ""
	}
	return c.resolve(c.LogFile)
}

// Location is the timezone day boundaries are computed in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) resolve(p string) string {
	if p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func defaultOwner() string {
	for _, name := range []string{"USER", "USERNAME"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return "local"
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
