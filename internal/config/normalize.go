package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAccess(); err != nil {
		return err
	}
	c.normalizeReader()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CoverDir) == "" {
		c.Paths.CoverDir = defaultCoverDir
	}
	if c.Paths.CoverDir, err = expandPath(c.Paths.CoverDir); err != nil {
		return fmt.Errorf("paths.cover_dir: %w", err)
	}
	if c.Paths.BundledDir, err = expandPath(strings.TrimSpace(c.Paths.BundledDir)); err != nil {
		return fmt.Errorf("paths.bundled_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeAccess() error {
	var err error
	if strings.TrimSpace(c.Access.SecretPath) == "" {
		c.Access.SecretPath = defaultSecretPath
	}
	if c.Access.SecretPath, err = expandPath(c.Access.SecretPath); err != nil {
		return fmt.Errorf("access.secret_path: %w", err)
	}
	if c.Access.LeaseMinutes == 0 {
		c.Access.LeaseMinutes = defaultLeaseMinutes
	}
	return nil
}

func (c *Config) normalizeReader() {
	c.Reader.Orientation = strings.ToLower(strings.TrimSpace(c.Reader.Orientation))
	if c.Reader.Orientation == "" {
		c.Reader.Orientation = defaultOrientation
	}
	if c.Reader.InitialPages == 0 {
		c.Reader.InitialPages = defaultInitialPages
	}
	if c.Reader.ProgressDebounceMS == 0 {
		c.Reader.ProgressDebounceMS = defaultProgressDebounceMS
	}
	if c.Reader.SessionIdleTimeout == 0 {
		c.Reader.SessionIdleTimeout = defaultSessionIdleTimeout
	}
	if c.Library.CoverWidth == 0 {
		c.Library.CoverWidth = defaultCoverWidth
	}
	if c.Library.CoverQuality == 0 {
		c.Library.CoverQuality = defaultCoverQuality
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
