package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateReader(); err != nil {
		return err
	}
	if err := c.validateAccess(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q must be host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateReader() error {
	if c.Reader.InitialPages < 1 {
		return errors.New("reader.initial_pages must be at least 1")
	}
	if c.Reader.ProgressDebounceMS < 0 {
		return errors.New("reader.progress_debounce_ms must not be negative")
	}
	if c.Reader.PrefetchRate < 0 {
		return errors.New("reader.prefetch_rate must not be negative")
	}
	if c.Reader.SessionIdleTimeout < 0 {
		return errors.New("reader.session_idle_timeout must not be negative")
	}
	switch c.Reader.Orientation {
	case OrientationNone, OrientationFlipLandscape:
	default:
		return fmt.Errorf("reader.orientation: unsupported value %q (use %q or %q)", c.Reader.Orientation, OrientationNone, OrientationFlipLandscape)
	}
	return nil
}

func (c *Config) validateAccess() error {
	if c.Access.SecretPath == "" {
		return errors.New("access.secret_path must be set")
	}
	if c.Access.LeaseMinutes < 1 {
		return errors.New("access.lease_minutes must be at least 1")
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if c.Library.CoverWidth < 16 || c.Library.CoverWidth > 4096 {
		return errors.New("library.cover_width must be between 16 and 4096")
	}
	if c.Library.CoverQuality < 1 || c.Library.CoverQuality > 100 {
		return errors.New("library.cover_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}
