package testsupport

import (
	"path/filepath"
	"testing"

	"folio/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CoverDir = filepath.Join(base, "covers")
	cfgVal.Paths.BundledDir = filepath.Join(base, "bundled")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Access.SecretPath = filepath.Join(base, "access.key")
	cfgVal.Reader.ProgressDebounceMS = 20

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAPIToken sets the bearer token required by the viewer API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithInitialPages overrides the eager document render batch.
func WithInitialPages(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reader.InitialPages = n
	}
}

// WithOrientation overrides the document orientation correction.
func WithOrientation(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reader.Orientation = mode
	}
}

// BaseDir returns the temp root shared by the generated paths.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
