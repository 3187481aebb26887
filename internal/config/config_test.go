package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"folio/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "folio")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Access.SecretPath != filepath.Join(tempHome, ".config", "folio", "access.key") {
		t.Fatalf("unexpected secret path: %q", cfg.Access.SecretPath)
	}
	if cfg.Paths.BundledDir != "" {
		t.Fatalf("expected bundled dir unset, got %q", cfg.Paths.BundledDir)
	}
	if cfg.Reader.InitialPages != 3 {
		t.Fatalf("expected 3 initial pages, got %d", cfg.Reader.InitialPages)
	}
	if got := cfg.ProgressDebounce().Milliseconds(); got != 500 {
		t.Fatalf("expected 500ms debounce, got %dms", got)
	}
	if cfg.Reader.Orientation != config.OrientationNone {
		t.Fatalf("expected orientation correction off by default, got %q", cfg.Reader.Orientation)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "folio.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.CoverDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	configPath := filepath.Join(tempDir, "folio.toml")

	type payload struct {
		Paths struct {
			DataDir    string `toml:"data_dir"`
			BundledDir string `toml:"bundled_dir"`
		} `toml:"paths"`
		Reader struct {
			InitialPages int     `toml:"initial_pages"`
			PrefetchRate float64 `toml:"prefetch_rate"`
			Orientation  string  `toml:"orientation"`
		} `toml:"reader"`
	}
	custom := payload{}
	custom.Paths.DataDir = "~/comics-data"
	custom.Paths.BundledDir = filepath.Join(tempDir, "bundled")
	custom.Reader.InitialPages = 5
	custom.Reader.PrefetchRate = 4
	custom.Reader.Orientation = " Flip-Landscape "

	encoded, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "comics-data") {
		t.Fatalf("expected tilde expansion, got %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.BundledDir != filepath.Join(tempDir, "bundled") {
		t.Fatalf("unexpected bundled dir: %q", cfg.Paths.BundledDir)
	}
	if cfg.Reader.InitialPages != 5 || cfg.Reader.PrefetchRate != 4 {
		t.Fatalf("unexpected reader settings: %+v", cfg.Reader)
	}
	if cfg.Reader.Orientation != config.OrientationFlipLandscape {
		t.Fatalf("expected normalized orientation, got %q", cfg.Reader.Orientation)
	}
}

func TestEnvironmentOverridesFileValues(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	configPath := filepath.Join(tempDir, "folio.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\napi_token = \"from-file\"\n[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("FOLIO_API_TOKEN", "from-env")
	t.Setenv("FOLIO_LOG_LEVEL", "DEBUG")
	t.Setenv("FOLIO_READER_PROGRESS_DEBOUNCE_MS", "250")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "from-env" {
		t.Fatalf("expected env token, got %q", cfg.Paths.APIToken)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env level normalized to debug, got %q", cfg.Logging.Level)
	}
	if cfg.Reader.ProgressDebounceMS != 250 {
		t.Fatalf("expected debounce override, got %d", cfg.Reader.ProgressDebounceMS)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"orientation", func(c *config.Config) { c.Reader.Orientation = "rotate" }, "reader.orientation"},
		{"initial pages", func(c *config.Config) { c.Reader.InitialPages = 0 }, "reader.initial_pages"},
		{"prefetch rate", func(c *config.Config) { c.Reader.PrefetchRate = -1 }, "reader.prefetch_rate"},
		{"api bind", func(c *config.Config) { c.Paths.APIBind = "localhost" }, "paths.api_bind"},
		{"cover width", func(c *config.Config) { c.Library.CoverWidth = 5 }, "library.cover_width"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"lease", func(c *config.Config) { c.Access.LeaseMinutes = 0 }, "access.lease_minutes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DataDir = t.TempDir()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	target := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Library.CoverWidth != 320 {
		t.Fatalf("unexpected cover width from sample: %d", cfg.Library.CoverWidth)
	}
}
