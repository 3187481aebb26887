package access

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"folio/internal/comic"
	"folio/internal/config"
	"folio/internal/logging"
)

// Resolution describes how a handle was obtained.
type Resolution struct {
	Path string
	// Bundled is set when the file ships with the library and needed no token.
	Bundled bool
	// Stale is set when the file at the token path differs from the one
	// that was granted (moved, replaced, or modified).
	Stale bool
	// FellBack is set when token resolution failed and the last known path
	// was opened directly.
	FellBack bool
}

// Resolver issues capability tokens and turns them back into file handles.
type Resolver struct {
	secret      []byte
	bundledDir  string
	lease       time.Duration
	logger      *slog.Logger
	now         func() time.Time
	outstanding atomic.Int64
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source, for lease tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver loads (or creates) the signing secret configured in cfg.
func NewResolver(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Resolver, error) {
	secret, err := LoadSecret(cfg.Access.SecretPath)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Resolver{
		secret:     secret,
		bundledDir: cfg.Paths.BundledDir,
		lease:      cfg.AccessLease(),
		logger:     logging.NewComponentLogger(logger, "access"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Grant verifies that path is readable and returns a token bound to it.
func (r *Resolver) Grant(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, comic.Wrap(comic.ErrNotFound, "grant", path, err)
	}
	if err := checkReadable(abs); err != nil {
		return nil, err
	}
	id, err := statIdentity(abs)
	if err != nil {
		return nil, classify("grant", abs, err)
	}
	return signToken(r.secret, abs, id, r.now())
}

// IsBundled reports whether path lies inside the bundled content directory.
func (r *Resolver) IsBundled(path string) bool {
	if strings.TrimSpace(r.bundledDir) == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(r.bundledDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// Resolve opens the file a ref points at. Bundled files open directly; every
// other file needs a valid token.
func (r *Resolver) Resolve(ctx context.Context, ref comic.ContainerRef) (*Handle, Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, Resolution{}, err
	}
	if r.IsBundled(ref.Path) {
		h, err := r.open(ref.Path)
		if err != nil {
			return nil, Resolution{}, err
		}
		return h, Resolution{Path: ref.Path, Bundled: true}, nil
	}
	if len(ref.Token) == 0 {
		return nil, Resolution{}, comic.Wrap(comic.ErrAccessDenied, "resolve", "no access token for "+ref.Path, nil)
	}
	claims, err := parseToken(r.secret, ref.Token)
	if err != nil {
		return nil, Resolution{}, comic.Wrap(comic.ErrAccessDenied, "resolve", "invalid access token", err)
	}

	res := Resolution{Path: claims.Path}
	if err := checkReadable(claims.Path); err != nil {
		return nil, res, err
	}
	if current, err := statIdentity(claims.Path); err == nil && current != claims.identity() {
		res.Stale = true
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "access token is stale", "access_stale",
			logging.String("path", claims.Path),
			logging.String(logging.FieldImpact, "file changed since it was imported"),
			logging.String(logging.FieldErrorHint, "re-import the comic to refresh its access token"),
		)
	}
	h, err := r.open(claims.Path)
	if err != nil {
		return nil, res, err
	}
	return h, res, nil
}

// ResolveWithFallback resolves ref and, when that fails for a non-bundled
// file, opens lastKnownPath directly. The fallback is always logged.
func (r *Resolver) ResolveWithFallback(ctx context.Context, ref comic.ContainerRef, lastKnownPath string) (*Handle, Resolution, error) {
	h, res, err := r.Resolve(ctx, ref)
	if err == nil || r.IsBundled(ref.Path) || ctx.Err() != nil || lastKnownPath == "" {
		return h, res, err
	}

	logger := logging.WithContext(ctx, r.logger)
	fallback, fbErr := r.open(lastKnownPath)
	if fbErr != nil {
		logging.WarnWithContext(logger, "access fallback failed", "access_fallback_failed",
			logging.String("path", lastKnownPath),
			logging.Error(fbErr),
			logging.String(logging.FieldImpact, "comic cannot be opened"),
			logging.String(logging.FieldErrorHint, comic.UserMessage(err)),
		)
		return nil, res, err
	}
	logging.WarnWithContext(logger, "opened comic by last known path", "access_fallback",
		logging.String("path", lastKnownPath),
		logging.Error(err),
		logging.String(logging.FieldImpact, "access token could not be used"),
		logging.String(logging.FieldErrorHint, "re-import the comic to refresh its access token"),
	)
	return fallback, Resolution{Path: lastKnownPath, FellBack: true}, nil
}

// Outstanding counts handles that have not been released.
func (r *Resolver) Outstanding() int {
	return int(r.outstanding.Load())
}

func (r *Resolver) open(path string) (*Handle, error) {
	if err := checkReadable(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, classify("open", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, classify("stat", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, comic.Wrap(comic.ErrInvalidFormat, "open", path+" is a directory", nil)
	}
	r.outstanding.Add(1)
	h := &Handle{
		file:    f,
		path:    path,
		size:    info.Size(),
		now:     r.now,
		onClose: func() { r.outstanding.Add(-1) },
	}
	if r.lease > 0 {
		h.deadline = r.now().Add(r.lease)
	}
	return h, nil
}

func checkReadable(path string) error {
	if err := unix.Access(path, unix.R_OK); err != nil {
		return classify("check access", path, err)
	}
	return nil
}

func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM), errors.Is(err, fs.ErrPermission):
		return comic.Wrap(comic.ErrAccessDenied, op, path, err)
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENOTDIR), errors.Is(err, fs.ErrNotExist):
		return comic.Wrap(comic.ErrNotFound, op, path, err)
	default:
		return comic.Wrap(comic.ErrNotFound, op, path, err)
	}
}
