package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"folio/internal/access"
	"folio/internal/config"
	"folio/internal/store"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckAccessSecret loads, or creates, the token signing key.
func CheckAccessSecret(path string) Result {
	const name = "Access secret"
	if _, err := access.LoadSecret(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckLibrary opens the library database, which verifies its schema.
func CheckLibrary(cfg *config.Config) Result {
	const name = "Library database"
	st, err := store.Open(cfg)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, store.ErrSchemaMismatch) {
			detail = "written by a newer folio; upgrade or move the database aside"
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", cfg.DatabasePath(), detail)}
	}
	defer st.Close()

	stats, err := st.ProgressStats(context.Background())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.DatabasePath(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema v%d, %d comics)", cfg.DatabasePath(), store.SchemaVersion(), stats.Total())}
}

// CheckViewerAPI reports whether a viewer API holds the serve lock and, if
// so, whether it answers on the configured bind address. A stopped server
// passes.
func CheckViewerAPI(ctx context.Context, cfg *config.Config) Result {
	const name = "Viewer API"

	lock := flock.New(cfg.ServeLockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("lock check failed (%v)", err)}
	}
	if locked {
		_ = lock.Unlock()
		return Result{Name: name, Passed: true, Detail: "not running"}
	}
	return CheckEndpoint(ctx, cfg.Paths.APIBind, cfg.Paths.APIToken)
}

// CheckEndpoint probes a running viewer API with an authenticated list call.
func CheckEndpoint(ctx context.Context, bind, token string) Result {
	const name = "Viewer API"

	bind = strings.TrimSpace(bind)
	if bind == "" {
		return Result{Name: name, Detail: "missing bind address"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, "http://"+bind+"/api/comics", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("probe failed (%v)", err)}
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeProbeError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("running on %s", bind)}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "running, but paths.api_token is rejected"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("probe failed (%d)", resp.StatusCode)}
	}
}

func summarizeProbeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "probe timed out (server unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "probe timed out (server unreachable)"
	}
	return fmt.Sprintf("lock held but server unreachable (%v)", err)
}
