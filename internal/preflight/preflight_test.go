package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"folio/internal/preflight"
	"folio/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if preflight.CheckReadableDirectory("test", f).Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllOnFreshConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := preflight.RunAll(context.Background(), cfg)
	if preflight.Failed(results) {
		t.Fatalf("expected every check to pass, got %+v", results)
	}
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"Data directory", "Access secret", "Library database", "Viewer API"} {
		if !names[want] {
			t.Fatalf("missing check %q in %+v", want, results)
		}
	}
	if _, err := os.Stat(cfg.Access.SecretPath); err != nil {
		t.Fatalf("expected secret to be created: %v", err)
	}
}

func TestRunAllReportsMissingBundledDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.BundledDir = filepath.Join(t.TempDir(), "missing")
	if !preflight.Failed(preflight.RunAll(context.Background(), cfg)) {
		t.Fatal("expected missing bundled directory to fail")
	}
}

func TestCheckViewerAPIWithHeldLock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("good"))
	cfg.Paths.APIBind = strings.TrimPrefix(srv.URL, "http://")
	holder := flock.New(cfg.ServeLockPath())
	if ok, err := holder.TryLock(); err != nil || !ok {
		t.Fatalf("hold lock: %v %v", ok, err)
	}
	defer holder.Unlock()

	if result := preflight.CheckViewerAPI(context.Background(), cfg); !result.Passed {
		t.Fatalf("expected running server to pass, got %s", result.Detail)
	}
	if result := preflight.CheckEndpoint(context.Background(), cfg.Paths.APIBind, "bad"); result.Passed {
		t.Fatal("expected rejected token to fail")
	}
}
