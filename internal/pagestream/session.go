package pagestream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"folio/internal/access"
	"folio/internal/comic"
	"folio/internal/config"
	"folio/internal/container"
	"folio/internal/logging"
	"folio/internal/metadata"
	"folio/internal/progress"
	"folio/internal/services"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("page stream session closed")

const defaultSubscriberBuffer = 64

// Handle is the open file a session reads from. It is released exactly once.
type Handle interface {
	container.Source
	Release() error
}

// Resolver turns a container ref into an access handle.
type Resolver interface {
	ResolveWithFallback(ctx context.Context, ref comic.ContainerRef, lastKnownPath string) (Handle, access.Resolution, error)
}

// AccessResolver adapts an access.Resolver to Resolver.
func AccessResolver(r *access.Resolver) Resolver { return accessResolver{r} }

type accessResolver struct{ r *access.Resolver }

func (a accessResolver) ResolveWithFallback(ctx context.Context, ref comic.ContainerRef, lastKnownPath string) (Handle, access.Resolution, error) {
	h, res, err := a.r.ResolveWithFallback(ctx, ref, lastKnownPath)
	if err != nil {
		return nil, res, err
	}
	return h, res, nil
}

// Deps are the collaborators a session needs.
type Deps struct {
	Resolver Resolver
	// Tracker persists reading position; nil disables progress.
	Tracker *progress.Tracker
	Logger  *slog.Logger
}

// Options tune one session.
type Options struct {
	ComicID       string
	LastKnownPath string
	// PrefetchRate caps background extraction in pages per second; 0 is unlimited.
	PrefetchRate     float64
	ProgressDebounce time.Duration
	SubscriberBuffer int
	Reader           container.Options
}

// OptionsFromConfig derives session options from the reader settings.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PrefetchRate:     cfg.Reader.PrefetchRate,
		ProgressDebounce: cfg.ProgressDebounce(),
		Reader: container.Options{
			InitialPages: cfg.Reader.InitialPages,
			Orientation:  cfg.Reader.Orientation,
		},
	}
}

// Session streams the pages of one open comic. It owns the access handle and
// the container reader from Open until Close.
type Session struct {
	id     string
	ref    comic.ContainerRef
	deps   Deps
	opts   Options
	logger *slog.Logger

	// lifeMu serializes Open against Close. Fields below are set under it
	// during Open and read-only afterwards.
	lifeMu     sync.Mutex
	handle     Handle
	resolution access.Resolution
	reader     container.Reader
	meta       comic.Metadata
	total      int
	start      int
	debouncer  *progress.Debouncer
	limiter    *rate.Limiter

	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	completed    chan struct{}
	completeOnce sync.Once

	mu      sync.RWMutex
	state   State
	pages   map[int]comic.Page
	skipped map[int]error
	subs    map[int]chan Event
	nextSub int
	closed  bool

	// readerMu guards reader use against Close.
	readerMu     sync.RWMutex
	readerClosed bool

	flights    singleflight.Group
	lastAccess atomic.Int64
	closeOnce  sync.Once
	closeErr   error
}

// New creates a session in the opening state. Call Open to load it.
func New(deps Deps, ref comic.ContainerRef, opts Options) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = defaultSubscriberBuffer
	}
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = services.WithSessionID(ctx, id)
	if opts.ComicID != "" {
		ctx = services.WithComicID(ctx, opts.ComicID)
	}
	s := &Session{
		id:        id,
		ref:       ref,
		deps:      deps,
		opts:      opts,
		logger:    logging.WithContext(ctx, logging.NewComponentLogger(logger, "pagestream")),
		ctx:       ctx,
		cancel:    cancel,
		completed: make(chan struct{}),
		state:     StateOpening,
		pages:     make(map[int]comic.Page),
		skipped:   make(map[int]error),
		subs:      make(map[int]chan Event),
	}
	s.touch()
	return s
}

// Open creates and opens a session in one step.
func Open(ctx context.Context, deps Deps, ref comic.ContainerRef, opts Options) (*Session, error) {
	s := New(deps, ref, opts)
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Open resolves access, opens the reader, merges metadata, fills the cache
// and loads the resume position. Archives have every page cached when Open
// returns and the session is complete; documents are ready with their initial
// batch and the background walk has started. Any failure leaves the session
// failed with all resources released, and the error is returned unchanged.
// Open never retries. A concurrent Close cancels it.
func (s *Session) Open(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateOpening {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("open session: already %s", state)
	}
	s.mu.Unlock()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	unlink := context.AfterFunc(s.ctx, stop)
	defer unlink()

	if err := s.open(ctx); err != nil {
		s.fail(err)
		return err
	}

	s.setState(StateReady)
	s.logger.Info("session ready",
		logging.String("kind", string(s.ref.Kind)),
		logging.Int(logging.FieldPageCount, s.total),
		logging.Int("start_page", s.start),
		logging.Int("cached", s.CachedCount()),
	)

	if !s.reader.Lazy() {
		s.setState(StateComplete)
		return nil
	}
	s.done = make(chan struct{})
	go s.prefetch()
	return nil
}

func (s *Session) open(ctx context.Context) error {
	handle, res, err := s.deps.Resolver.ResolveWithFallback(ctx, s.ref, s.opts.LastKnownPath)
	if err != nil {
		return err
	}
	s.handle = handle
	s.resolution = res

	reader, err := container.Open(ctx, s.ref.Kind, handle, s.opts.Reader)
	if err != nil {
		return err
	}
	s.reader = reader
	s.total = reader.PageCount()

	embedded, err := reader.EmbeddedMetadata(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logging.WarnWithContext(s.logger, "embedded metadata ignored", "metadata_parse_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "showing filename metadata only"),
			logging.String(logging.FieldErrorHint, "fix or remove ComicInfo.xml in the archive"),
		)
		embedded = nil
	}
	s.meta = metadata.FromContainer(s.ref.Kind, embedded, res.Path)

	for _, page := range reader.InitialPages() {
		s.store(page)
	}
	if !reader.Lazy() {
		if err := s.loadAll(ctx); err != nil {
			return err
		}
	}

	if s.deps.Tracker != nil && s.opts.ComicID != "" {
		saved, err := s.deps.Tracker.Load(ctx, s.opts.ComicID)
		if err != nil {
			logging.WarnWithContext(s.logger, "reading position unavailable", "progress_load_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "comic opens at the first page"),
			)
		}
		s.start = progress.ResumePage(saved, s.total)
		s.debouncer = progress.NewDebouncer(s.deps.Tracker, s.opts.ComicID, s.total, s.opts.ProgressDebounce)
	}
	if s.opts.PrefetchRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(s.opts.PrefetchRate), 1)
	}
	return nil
}

// loadAll extracts every page of a non-lazy reader into the cache. Pages that
// fail to decode are recorded as skipped and stay retryable on demand.
func (s *Session) loadAll(ctx context.Context) error {
	for index := 0; index < s.total; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := s.Page(index); ok {
			continue
		}
		page, err := s.reader.Page(ctx, index)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.markSkipped(index, err)
			logging.WarnWithContext(s.logger, "page skipped during open", "page_decode_failed",
				logging.Page(index),
				logging.Error(err),
				logging.String(logging.FieldImpact, "page will be retried when requested"),
			)
			continue
		}
		s.store(page)
	}
	return nil
}

func (s *Session) fail(err error) {
	s.cancel()
	if s.reader != nil {
		_ = s.reader.Close()
	}
	if s.handle != nil {
		_ = s.handle.Release()
	}
	s.mu.Lock()
	s.state = StateFailed
	s.closed = true
	s.mu.Unlock()
	logging.WarnWithContext(s.logger, "session open failed", "session_open_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "comic cannot be displayed"),
		logging.String(logging.FieldErrorHint, comic.UserMessage(err)),
	)
}

// prefetch walks the pages in order, loading every page that is missing.
func (s *Session) prefetch() {
	defer close(s.done)
	s.setState(StatePrefetching)
	logger := logging.WithContext(services.WithStage(context.Background(), "prefetch"), s.logger)

	sampler := logging.NewProgressSampler(25)
	for index := 0; index < s.total; index++ {
		if s.ctx.Err() != nil {
			return
		}
		if _, ok := s.Page(index); ok {
			continue
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(s.ctx); err != nil {
				return
			}
		}
		if _, err := s.load(s.ctx, index); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.markSkipped(index, err)
			logging.WarnWithContext(logger, "page skipped during prefetch", "page_decode_failed",
				logging.Page(index),
				logging.Error(err),
				logging.String(logging.FieldImpact, "page will be retried when requested"),
			)
			continue
		}
		cached := s.CachedCount()
		if percent, ok := sampler.Sample(cached, s.total); ok {
			logger.Debug("prefetch progress",
				logging.Int("percent", percent),
				logging.Int("cached", cached),
				logging.Int(logging.FieldPageCount, s.total),
			)
		}
	}
	if s.ctx.Err() == nil {
		s.setState(StateComplete)
		logger.Info("prefetch complete",
			logging.Int(logging.FieldPageCount, s.total),
			logging.Int("skipped", len(s.Skipped())),
		)
	}
}

// load extracts one page, sharing the work with concurrent callers for the
// same index. The extraction runs on the session context; ctx only bounds
// how long this caller waits.
func (s *Session) load(ctx context.Context, index int) (comic.Page, error) {
	ch := s.flights.DoChan(strconv.Itoa(index), func() (any, error) {
		if page, ok := s.Page(index); ok {
			return page, nil
		}
		s.readerMu.RLock()
		defer s.readerMu.RUnlock()
		if s.readerClosed {
			return comic.Page{}, ErrClosed
		}
		page, err := s.reader.Page(s.ctx, index)
		if err != nil {
			return comic.Page{}, err
		}
		if !s.store(page) {
			return comic.Page{}, ErrClosed
		}
		return page, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return comic.Page{}, res.Err
		}
		return res.Val.(comic.Page), nil
	case <-ctx.Done():
		return comic.Page{}, ctx.Err()
	}
}

// store is the only place pages enter the cache. It reports false when the
// session no longer accepts pages.
func (s *Session) store(page comic.Page) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || page.Index < 0 || page.Index >= s.total {
		return false
	}
	_, existed := s.pages[page.Index]
	s.pages[page.Index] = page
	delete(s.skipped, page.Index)
	if !existed {
		for _, ch := range s.subs {
			select {
			case ch <- Event{Index: page.Index}:
			default:
			}
		}
	}
	return true
}

func (s *Session) markSkipped(index int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[index]; !ok {
		s.skipped[index] = err
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = state
	if state == StateComplete {
		s.completeOnce.Do(func() { close(s.completed) })
	}
}

// Completed is closed once every page has been attempted. Skipped pages may
// still be missing from the cache.
func (s *Session) Completed() <-chan struct{} { return s.completed }

func (s *Session) touch() {
	s.lastAccess.Store(time.Now().UnixNano())
}

// EnsurePageReady returns page index, extracting it synchronously when it
// is not cached yet.
func (s *Session) EnsurePageReady(ctx context.Context, index int) (comic.Page, error) {
	s.touch()
	if index < 0 || index >= s.total {
		return comic.Page{}, comic.Wrap(comic.ErrIndexOutOfRange, "ensure page", fmt.Sprintf("index %d of %d", index, s.total), nil)
	}
	if page, ok := s.Page(index); ok {
		return page, nil
	}
	if s.isClosed() {
		return comic.Page{}, ErrClosed
	}
	page, err := s.load(ctx, index)
	if err != nil {
		if !errors.Is(err, ErrClosed) && ctx.Err() == nil {
			s.markSkipped(index, err)
		}
		return comic.Page{}, err
	}
	return page, nil
}

// Page returns a cached page.
func (s *Session) Page(index int) (comic.Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[index]
	return page, ok
}

// CachedCount is the number of pages in the cache.
func (s *Session) CachedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// Pages lists every index in order, with placeholders for missing pages.
func (s *Session) Pages() []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots := make([]Slot, s.total)
	for i := range slots {
		slots[i].Index = i
		if page, ok := s.pages[i]; ok {
			slots[i].Ready = true
			slots[i].Name = page.Name
			continue
		}
		_, slots[i].Skipped = s.skipped[i]
	}
	return slots
}

// Skipped lists indices whose extraction failed and that are still missing.
func (s *Session) Skipped() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.skipped))
	for i := 0; i < s.total; i++ {
		if _, ok := s.skipped[i]; ok {
			out = append(out, i)
		}
	}
	return out
}

// Cover returns the first page's bytes when cached.
func (s *Session) Cover() ([]byte, bool) {
	page, ok := s.Page(0)
	if !ok {
		return nil, false
	}
	return page.Data, true
}

func (s *Session) ID() string                    { return s.id }
func (s *Session) ComicID() string               { return s.opts.ComicID }
func (s *Session) Ref() comic.ContainerRef       { return s.ref }
func (s *Session) Metadata() comic.Metadata      { return s.meta }
func (s *Session) Resolution() access.Resolution { return s.resolution }
func (s *Session) Total() int                    { return s.total }
func (s *Session) StartPage() int                { return s.start }
func (s *Session) LastAccess() time.Time         { return time.Unix(0, s.lastAccess.Load()) }
func (s *Session) Lazy() bool                    { return s.reader != nil && s.reader.Lazy() }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Subscribe returns a channel of page availability events and a function
// that cancels the subscription. Events are dropped for subscribers that
// fall behind. The channel is closed when the session closes.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, s.opts.SubscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// SetPosition records the reader's current page. Writes are debounced.
func (s *Session) SetPosition(page int) error {
	s.touch()
	if page < 0 || page >= s.total {
		return comic.Wrap(comic.ErrIndexOutOfRange, "set position", fmt.Sprintf("page %d of %d", page, s.total), nil)
	}
	if s.isClosed() {
		return ErrClosed
	}
	if s.debouncer != nil {
		s.debouncer.Set(page)
	}
	return nil
}

// Close stops the walk, waits for it to exit, releases the access handle,
// closes the reader, flushes the pending position and closes subscriber
// channels. It is safe to call more than once and while Open is running.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.lifeMu.Lock()
		defer s.lifeMu.Unlock()
		if s.done != nil {
			<-s.done
		}

		s.mu.Lock()
		wasOpen := !s.state.Terminal()
		s.closed = true
		if wasOpen {
			s.state = StateClosed
		}
		s.mu.Unlock()
		if !wasOpen {
			return
		}

		var errs []error
		s.readerMu.Lock()
		s.readerClosed = true
		if s.handle != nil {
			if err := s.handle.Release(); err != nil {
				errs = append(errs, fmt.Errorf("release handle: %w", err))
			}
		}
		if s.reader != nil {
			if err := s.reader.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close reader: %w", err))
			}
		}
		s.readerMu.Unlock()

		if s.debouncer != nil {
			if err := s.debouncer.Stop(context.Background()); err != nil {
				errs = append(errs, fmt.Errorf("flush progress: %w", err))
			}
		}

		s.mu.Lock()
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
		s.mu.Unlock()

		s.closeErr = errors.Join(errs...)
		s.logger.Info("session closed", logging.Int("cached", s.CachedCount()))
	})
	return s.closeErr
}
