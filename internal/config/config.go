package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir    string `toml:"data_dir" env:"DATA_DIR"`
	LogDir     string `toml:"log_dir" env:"LOG_DIR"`
	CoverDir   string `toml:"cover_dir" env:"COVER_DIR"`
	BundledDir string `toml:"bundled_dir" env:"BUNDLED_DIR"`
	APIBind    string `toml:"api_bind" env:"API_BIND"`
	APIToken   string `toml:"api_token" env:"API_TOKEN"`
}

// Reader contains page streaming and session settings.
type Reader struct {
	// InitialPages is how many document pages are rendered before open returns.
	InitialPages int `toml:"initial_pages" env:"READER_INITIAL_PAGES"`
	// ProgressDebounceMS is the navigation quiet period before a position write.
	ProgressDebounceMS int `toml:"progress_debounce_ms" env:"READER_PROGRESS_DEBOUNCE_MS"`
	// PrefetchRate limits background extraction in pages per second. 0 disables the limit.
	PrefetchRate float64 `toml:"prefetch_rate" env:"READER_PREFETCH_RATE"`
	// Orientation selects the document orientation correction: "none" or "flip-landscape".
	Orientation        string `toml:"orientation" env:"READER_ORIENTATION"`
	SessionIdleTimeout int    `toml:"session_idle_timeout" env:"READER_SESSION_IDLE_TIMEOUT"`
}

// Access contains capability token settings.
type Access struct {
	SecretPath   string `toml:"secret_path" env:"ACCESS_SECRET_PATH"`
	LeaseMinutes int    `toml:"lease_minutes" env:"ACCESS_LEASE_MINUTES"`
}

// Library contains import settings.
type Library struct {
	CoverWidth   int `toml:"cover_width" env:"LIBRARY_COVER_WIDTH"`
	CoverQuality int `toml:"cover_quality" env:"LIBRARY_COVER_QUALITY"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format" env:"LOG_FORMAT"`
	Level         string `toml:"level" env:"LOG_LEVEL"`
	RetentionDays int    `toml:"retention_days" env:"LOG_RETENTION_DAYS"`
}

// Config encapsulates all configuration values for Folio.
//
// Configuration sections by subsystem:
//   - Paths: library database, covers, logs, bundled comics, API bind address
//   - Reader: page-stream session behaviour
//   - Access: capability token signing and lease duration
//   - Library: cover thumbnail generation
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Reader  Reader  `toml:"reader"`
	Access  Access  `toml:"access"`
	Library Library `toml:"library"`
	Logging Logging `toml:"logging"`
}

// envPrefix namespaces every environment override.
const envPrefix = "FOLIO_"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/folio/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. FOLIO_* environment variables override file values.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, "", false, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("folio.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories Folio writes into. BundledDir is
// read-only content shipped with the install and is never created.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.CoverDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the library database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "folio.db")
}

// ImportLockPath returns the cross-process lock guarding library imports.
func (c *Config) ImportLockPath() string {
	return filepath.Join(c.Paths.DataDir, "import.lock")
}

// ServeLockPath returns the single-instance lock for the viewer API.
func (c *Config) ServeLockPath() string {
	return filepath.Join(c.Paths.DataDir, "serve.lock")
}

// LogPath returns the primary log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "folio.log")
}

// ProgressDebounce returns the reading-position write debounce interval.
func (c *Config) ProgressDebounce() time.Duration {
	return time.Duration(c.Reader.ProgressDebounceMS) * time.Millisecond
}

// SessionIdleTimeout returns how long an untouched viewer session survives.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.Reader.SessionIdleTimeout) * time.Second
}

// AccessLease returns the lifetime of a resolved file handle.
func (c *Config) AccessLease() time.Duration {
	return time.Duration(c.Access.LeaseMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print: the API token is masked.
func (c Config) Redacted() Config {
	if c.Paths.APIToken != "" {
		c.Paths.APIToken = "********"
	}
	return c
}
