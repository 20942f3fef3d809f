package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// DataDirEnv overrides the data directory root when set.
const DataDirEnv = "LUDEX_DATA_DIR"

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Catalog contains configuration for the remote catalog API.
type Catalog struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	PageSize       int    `toml:"page_size"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Matching contains configuration for the identity matcher.
type Matching struct {
	ContentHashing bool `toml:"content_hashing"`
}

// Audit contains defaults for reconciliation runs.
type Audit struct {
	MaxParallelism     int  `toml:"max_parallelism"`
	APIDelayMs         int  `toml:"api_delay_ms"`
	RematchMissingID   bool `toml:"rematch_missing_id"`
	RevalidateExisting bool `toml:"revalidate_existing"`
}

// Store contains tuning for the state store gate and recovery.
type Store struct {
	GateTimeoutSeconds  int `toml:"gate_timeout_seconds"`
	GateWarnMillis      int `toml:"gate_warn_millis"`
	StaleThresholdHours int `toml:"stale_threshold_hours"`
}

// Config is the root configuration structure.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Catalog  Catalog  `toml:"catalog"`
	Matching Matching `toml:"matching"`
	Audit    Audit    `toml:"audit"`
	Store    Store    `toml:"store"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// DefaultConfigPath returns the standard configuration file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ludex", "config.toml"), nil
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. An empty path uses DefaultConfigPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.applyEnvironment()
			cfg.normalize()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", expanded, err)
	}

	cfg.applyEnvironment()
	cfg.normalize()
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the data and log directories if absent.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the state database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, databaseFileName)
}

// LegacyDatabasePath returns the pre-rename database location.
func (c *Config) LegacyDatabasePath() string {
	return filepath.Join(c.Paths.DataDir, legacyDatabaseFileName)
}

func (c *Config) applyEnvironment() {
	if override := strings.TrimSpace(os.Getenv(DataDirEnv)); override != "" {
		c.Paths.DataDir = override
		c.Paths.LogDir = filepath.Join(override, "logs")
	}
}

func (c *Config) normalize() {
	c.Paths.DataDir = expandOrKeep(c.Paths.DataDir)
	c.Paths.LogDir = expandOrKeep(c.Paths.LogDir)
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = defaultCatalogPageSize
	}
	if c.Catalog.RequestTimeout <= 0 {
		c.Catalog.RequestTimeout = defaultCatalogRequestTimeout
	}
	if c.Audit.MaxParallelism < 1 {
		c.Audit.MaxParallelism = 1
	}
	if c.Store.GateTimeoutSeconds <= 0 {
		c.Store.GateTimeoutSeconds = defaultGateTimeoutSeconds
	}
	if c.Store.GateWarnMillis <= 0 {
		c.Store.GateWarnMillis = defaultGateWarnMillis
	}
	if c.Store.StaleThresholdHours <= 0 {
		c.Store.StaleThresholdHours = defaultStaleThresholdHours
	}
}

// ExpandPath resolves a leading ~ to the user home directory.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func expandOrKeep(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}
