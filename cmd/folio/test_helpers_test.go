package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"folio/internal/config"
	"folio/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	comicsDir  string
}

// setupCLITestEnv isolates HOME and writes a config pointing every folio
// directory into a temp tree.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	cfg := testsupport.NewConfig(t)
	cfg.Reader.ProgressDebounceMS = 20
	configPath := filepath.Join(base, "home", ".config", "folio", "config.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{cfg: cfg, configPath: configPath, comicsDir: filepath.Join(base, "comics")}
	if err := os.MkdirAll(env.comicsDir, 0o755); err != nil {
		t.Fatalf("mkdir comics: %v", err)
	}
	return env
}

func (e *cliTestEnv) writeComic(t *testing.T, name string, pages int) string {
	t.Helper()
	return testsupport.WriteCBZ(t, filepath.Join(e.comicsDir, name), testsupport.PageEntries(t, pages))
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	body, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// runCLI executes the root command with --config prepended when set.
func runCLI(t *testing.T, args []string, configPath string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
