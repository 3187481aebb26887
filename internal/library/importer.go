package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"folio/internal/access"
	"folio/internal/comic"
	"folio/internal/config"
	"folio/internal/container"
	"folio/internal/fileutil"
	"folio/internal/logging"
	"folio/internal/metadata"
	"folio/internal/services"
	"folio/internal/store"
	"folio/internal/textutil"
)

// ErrImportLocked is returned when another process holds the import lock.
var ErrImportLocked = errors.New("another import is running")

const lockRetryDelay = 100 * time.Millisecond

// Importer adds comic files to the library.
type Importer struct {
	cfg      *config.Config
	store    *store.Store
	resolver *access.Resolver
	logger   *slog.Logger
	opts     container.Options
	now      func() time.Time
}

// Option customizes an Importer.
type Option func(*Importer)

// WithContainerOptions overrides how containers are opened during import.
func WithContainerOptions(opts container.Options) Option {
	return func(i *Importer) {
		i.opts = opts
	}
}

// NewImporter wires an importer over the library store.
func NewImporter(cfg *config.Config, st *store.Store, resolver *access.Resolver, logger *slog.Logger, opts ...Option) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	imp := &Importer{
		cfg:      cfg,
		store:    st,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "library"),
		opts: container.Options{
			InitialPages: 1,
			Orientation:  cfg.Reader.Orientation,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Import adds one file. Duplicate content returns the existing record along
// with an error wrapping store.ErrDuplicate.
func (i *Importer) Import(ctx context.Context, path string) (*comic.Comic, error) {
	unlock, err := i.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return i.importFile(ctx, path)
}

// Bundle copies path into the bundled directory and imports the copy. Bundled
// comics need no access token.
func (i *Importer) Bundle(ctx context.Context, path string) (*comic.Comic, error) {
	if strings.TrimSpace(i.cfg.Paths.BundledDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "library", "bundle", "paths.bundled_dir is not set", nil)
	}
	unlock, err := i.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	name := textutil.SanitizeFileName(filepath.Base(path))
	dst := filepath.Join(i.cfg.Paths.BundledDir, name)
	if _, err := fileutil.CopyFileVerified(path, dst); err != nil {
		return nil, fmt.Errorf("copy into bundled dir: %w", err)
	}
	c, err := i.importFile(ctx, dst)
	if err != nil {
		_ = os.Remove(dst)
		return c, err
	}
	return c, nil
}

// Outcome reports what happened to one file of a directory import.
type Outcome struct {
	Path    string
	Comic   *comic.Comic
	Status  string
	Message string
	Err     error
}

// Outcome statuses.
const (
	OutcomeImported  = "imported"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// ImportDir imports every comic file below dir in path order. Failures are
// reported per file and do not stop the walk.
func (i *Importer) ImportDir(ctx context.Context, dir string) ([]Outcome, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if comic.IsComicFile(path) && !strings.HasPrefix(d.Name(), ".") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	unlock, err := i.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sampler := logging.NewProgressSampler(25)
	outcomes := make([]Outcome, 0, len(paths))
	for n, path := range paths {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		c, err := i.importFile(ctx, path)
		outcomes = append(outcomes, NewOutcome(path, c, err))
		if percent, ok := sampler.Sample(n+1, len(paths)); ok {
			i.logger.Info("import progress",
				logging.Int("percent", percent),
				logging.Int("done", n+1),
				logging.Int("total", len(paths)),
				logging.String("path", dir),
			)
		}
	}
	return outcomes, nil
}

// NewOutcome classifies the result of importing path.
func NewOutcome(path string, c *comic.Comic, err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Path: path, Comic: c, Status: OutcomeImported}
	case errors.Is(err, store.ErrDuplicate):
		return Outcome{Path: path, Comic: c, Status: OutcomeDuplicate, Message: "already in library", Err: err}
	default:
		return Outcome{Path: path, Status: OutcomeFailed, Message: comic.UserMessage(err), Err: err}
	}
}

// Remove deletes a comic, its progress and its cover thumbnail. Bundled
// copies are removed too.
func (i *Importer) Remove(ctx context.Context, id string) error {
	c, err := i.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return comic.Wrap(comic.ErrNotFound, "remove", "no comic with id "+id, nil)
	}
	if err := i.store.Delete(ctx, id); err != nil {
		return err
	}
	logger := logging.WithContext(services.WithStage(services.WithComicID(ctx, id), "remove"), i.logger)
	if c.CoverPath != "" {
		if err := os.Remove(c.CoverPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "cover cleanup failed", "cover_cleanup_failed",
				logging.String("path", c.CoverPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "orphaned thumbnail left on disk"),
			)
		}
	}
	if c.Bundled && i.resolver.IsBundled(c.Path) {
		if err := os.Remove(c.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "bundled file cleanup failed", "bundled_cleanup_failed",
				logging.String("path", c.Path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "bundled copy left on disk"),
			)
		}
	}
	logger.Info("comic removed", logging.String("title", c.Title))
	return nil
}

func (i *Importer) lock(ctx context.Context) (func(), error) {
	lock := flock.New(i.cfg.ImportLockPath())
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !locked {
		return nil, ErrImportLocked
	}
	return func() { _ = lock.Unlock() }, nil
}

func (i *Importer) importFile(ctx context.Context, path string) (*comic.Comic, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, comic.Wrap(comic.ErrNotFound, "import", path, err)
	}
	kind, err := comic.KindFromPath(abs)
	if err != nil {
		return nil, err
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	fingerprint, err := fileutil.Digest(abs)
	if err != nil {
		return nil, comic.Wrap(comic.ErrNotFound, "fingerprint", abs, err)
	}
	if existing, err := i.store.FindByFingerprint(ctx, fingerprint); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, fmt.Errorf("%w: %s matches %q", store.ErrDuplicate, filepath.Base(abs), existing.Title)
	}

	bundled := i.resolver.IsBundled(abs)
	var token []byte
	if !bundled {
		if token, err = i.resolver.Grant(abs); err != nil {
			return nil, err
		}
	}
	ref := comic.ContainerRef{Path: abs, Token: token, Kind: kind}
	handle, _, err := i.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer handle.Release()

	reader, err := container.Open(ctx, kind, handle, i.opts)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	id := uuid.NewString()
	ctx = services.WithStage(services.WithComicID(ctx, id), "import")
	logger := logging.WithContext(ctx, i.logger)

	embedded, err := reader.EmbeddedMetadata(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "embedded metadata ignored", "metadata_parse_failed",
			logging.String("path", abs),
			logging.Error(err),
			logging.String(logging.FieldImpact, "comic imported with filename metadata only"),
			logging.String(logging.FieldErrorHint, "fix or remove ComicInfo.xml in the archive"),
		)
		embedded = nil
	}
	meta := metadata.FromContainer(kind, embedded, abs)

	c := &comic.Comic{
		ID:          id,
		Title:       titleFor(meta, abs),
		Path:        abs,
		Kind:        kind,
		Token:       token,
		Bundled:     bundled,
		PageCount:   reader.PageCount(),
		FileSize:    handle.Size(),
		Fingerprint: fingerprint,
		Metadata:    meta,
		AddedAt:     i.now().UTC(),
	}
	if cover, err := i.writeCover(ctx, reader, id); err != nil {
		logging.WarnWithContext(logger, "cover thumbnail skipped", "cover_failed",
			logging.String("path", abs),
			logging.Error(err),
			logging.String(logging.FieldImpact, "library shows a placeholder cover"),
		)
	} else {
		c.CoverPath = cover
	}

	if err := i.store.Save(ctx, c); err != nil {
		if c.CoverPath != "" {
			_ = os.Remove(c.CoverPath)
		}
		return nil, err
	}
	logger.Info("comic imported",
		logging.String("title", c.Title),
		logging.String("kind", string(kind)),
		logging.Int(logging.FieldPageCount, c.PageCount),
		logging.String("fingerprint", fingerprint),
	)
	return c, nil
}

func (i *Importer) writeCover(ctx context.Context, reader container.Reader, id string) (string, error) {
	data, err := reader.Cover(ctx)
	if err != nil {
		return "", err
	}
	thumb, err := Thumbnail(data, i.cfg.Library.CoverWidth, i.cfg.Library.CoverQuality)
	if err != nil {
		return "", err
	}
	path := filepath.Join(i.cfg.Paths.CoverDir, id+".jpg")
	if err := fileutil.WriteFileAtomic(path, thumb, 0o644); err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}
	return path, nil
}

func titleFor(meta comic.Metadata, path string) string {
	if title := meta.DisplayTitle(); title != "" {
		return title
	}
	return comic.StripExtension(filepath.Base(path))
}
