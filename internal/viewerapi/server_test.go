package viewerapi_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"folio/internal/access"
	"folio/internal/comic"
	"folio/internal/config"
	"folio/internal/library"
	"folio/internal/logging"
	"folio/internal/progress"
	"folio/internal/store"
	"folio/internal/testsupport"
	"folio/internal/viewerapi"
)

type fixture struct {
	cfg      *config.Config
	store    *store.Store
	resolver *access.Resolver
	server   *viewerapi.Server
	http     *httptest.Server
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	resolver, err := access.NewResolver(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	srv := viewerapi.New(cfg, st, resolver, progress.NewTracker(st, logging.NewNop()), logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &fixture{cfg: cfg, store: st, resolver: resolver, server: srv, http: ts}
}

func (f *fixture) importComic(t *testing.T, name string, pages int) *comic.Comic {
	t.Helper()
	return f.importEntries(t, name, testsupport.PageEntries(t, pages))
}

func (f *fixture) importEntries(t *testing.T, name string, entries []testsupport.Entry) *comic.Comic {
	t.Helper()
	path := testsupport.WriteCBZ(t, filepath.Join(t.TempDir(), name), entries)
	c, err := library.NewImporter(f.cfg, f.store, f.resolver, logging.NewNop()).Import(context.Background(), path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return c
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.http.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token := f.cfg.Paths.APIToken; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, body)
	}
}

func (f *fixture) openSession(t *testing.T, id string) viewerapi.OpenSessionResponse {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/sessions", viewerapi.OpenSessionRequest{ComicID: id})
	expectStatus(t, resp, http.StatusCreated)
	return decode[viewerapi.OpenSessionResponse](t, resp)
}

func TestListAndSearchComics(t *testing.T) {
	f := newFixture(t)
	f.importComic(t, "Saga 001 (2012).cbz", 2)
	f.importComic(t, "Paper Girls 003.cbz", 2)

	list := decode[viewerapi.ComicListResponse](t, f.do(t, http.MethodGet, "/api/comics", nil))
	if len(list.Items) != 2 {
		t.Fatalf("expected two comics, got %+v", list.Items)
	}
	found := decode[viewerapi.ComicListResponse](t, f.do(t, http.MethodGet, "/api/comics?q=paper", nil))
	if len(found.Items) != 1 || found.Items[0].Series != "Paper Girls" {
		t.Fatalf("unexpected search result %+v", found.Items)
	}
	if found.Items[0].Status != comic.StatusUnread || found.Items[0].CoverURL == "" {
		t.Fatalf("expected unread comic with cover, got %+v", found.Items[0])
	}
}

func TestGetComicAndCover(t *testing.T) {
	f := newFixture(t)
	c := f.importComic(t, "Saga 001 (2012).cbz", 3)

	resp := f.do(t, http.MethodGet, "/api/comics/"+c.ID, nil)
	expectStatus(t, resp, http.StatusOK)
	got := decode[viewerapi.ComicResponse](t, resp)
	if got.ID != c.ID || got.PageCount != 3 || comic.Deref(got.Metadata.Year) != 2012 {
		t.Fatalf("unexpected comic %+v", got)
	}

	cover := f.do(t, http.MethodGet, "/api/comics/"+c.ID+"/cover", nil)
	expectStatus(t, cover, http.StatusOK)
	if ct := cover.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("expected jpeg cover, got %q", ct)
	}

	expectStatus(t, f.do(t, http.MethodGet, "/api/comics/missing", nil), http.StatusNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	c := f.importComic(t, "Saga 001.cbz", 4)

	opened := f.openSession(t, c.ID)
	if opened.TotalPages != 4 || opened.StartPage != 0 || opened.SessionID == "" {
		t.Fatalf("unexpected open response %+v", opened)
	}
	if comic.Deref(opened.Metadata.Series) != "Saga" {
		t.Fatalf("expected merged metadata, got %+v", opened.Metadata)
	}
	base := "/api/sessions/" + opened.SessionID

	page := f.do(t, http.MethodGet, base+"/pages/3", nil)
	expectStatus(t, page, http.StatusOK)
	if ct := page.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected png page, got %q", ct)
	}
	expectStatus(t, f.do(t, http.MethodGet, base+"/pages/4", nil), http.StatusBadRequest)
	expectStatus(t, f.do(t, http.MethodGet, base+"/pages/x", nil), http.StatusBadRequest)

	state := decode[viewerapi.SessionResponse](t, f.do(t, http.MethodGet, base, nil))
	if state.TotalPages != 4 || len(state.Pages) != 4 || !state.Pages[3].Ready {
		t.Fatalf("unexpected session state %+v", state)
	}

	expectStatus(t, f.do(t, http.MethodPut, base+"/position", map[string]int{"page": 2}), http.StatusNoContent)
	expectStatus(t, f.do(t, http.MethodPut, base+"/position", map[string]string{}), http.StatusBadRequest)

	expectStatus(t, f.do(t, http.MethodDelete, base, nil), http.StatusNoContent)
	expectStatus(t, f.do(t, http.MethodGet, base, nil), http.StatusNotFound)
	expectStatus(t, f.do(t, http.MethodDelete, base, nil), http.StatusNotFound)

	if f.resolver.Outstanding() != 0 {
		t.Fatalf("expected no outstanding handles, got %d", f.resolver.Outstanding())
	}
	saved, err := f.store.LoadProgress(context.Background(), c.ID)
	if err != nil || saved == nil || saved.CurrentPage != 2 {
		t.Fatalf("expected progress flushed on close, got %+v (%v)", saved, err)
	}
}

func TestOpenSessionErrorMapping(t *testing.T) {
	f := newFixture(t)

	missing := f.importComic(t, "Gone 001.cbz", 2)
	if err := os.Remove(missing.Path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	resp := f.do(t, http.MethodPost, "/api/sessions", viewerapi.OpenSessionRequest{ComicID: missing.ID})
	expectStatus(t, resp, http.StatusNotFound)
	body := decode[viewerapi.ErrorResponse](t, resp)
	if body.Message != comic.UserMessage(comic.ErrNotFound) {
		t.Fatalf("expected remediation message, got %+v", body)
	}

	forged := f.importComic(t, "Forged 001.cbz", 2)
	forged.Token = []byte("not a token")
	if err := f.store.Update(context.Background(), forged); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// The fallback path still opens the file, so a forged token alone is not fatal.
	expectStatus(t, f.do(t, http.MethodPost, "/api/sessions", viewerapi.OpenSessionRequest{ComicID: forged.ID}), http.StatusCreated)

	expectStatus(t, f.do(t, http.MethodPost, "/api/sessions", viewerapi.OpenSessionRequest{ComicID: "nope"}), http.StatusNotFound)
	expectStatus(t, f.do(t, http.MethodPost, "/api/sessions", map[string]string{}), http.StatusBadRequest)
}

func TestBearerTokenRequired(t *testing.T) {
	f := newFixture(t, testsupport.WithAPIToken("s3cret"))

	resp, err := http.Get(f.http.URL + "/api/comics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	expectStatus(t, f.do(t, http.MethodGet, "/api/comics", nil), http.StatusOK)
}

func TestEventsStreamEndsWhenAllPagesCached(t *testing.T) {
	f := newFixture(t)
	c := f.importComic(t, "Saga 001.cbz", 3)
	opened := f.openSession(t, c.ID)

	resp := f.do(t, http.MethodGet, "/api/sessions/"+opened.SessionID+"/events", nil)
	expectStatus(t, resp, http.StatusOK)

	seen := map[string]bool{}
	complete := false
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: {\"index\"") {
			seen[line] = true
		}
		if line == "event: complete" {
			complete = true
		}
	}
	if !complete || len(seen) != 3 {
		t.Fatalf("expected three page events and completion, got %v complete=%v", seen, complete)
	}
}

func TestEventsStreamCompletesWithSkippedPage(t *testing.T) {
	f := newFixture(t)
	entries := testsupport.PageEntries(t, 3)
	entries[2].Data = []byte("not an image")
	c := f.importEntries(t, "Saga 002.cbz", entries)
	opened := f.openSession(t, c.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.http.URL+"/api/sessions/"+opened.SessionID+"/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token := f.cfg.Paths.APIToken; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var pages int
	var complete string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: {\"index\"") {
			pages++
		}
		if line == "event: complete" && scanner.Scan() {
			complete = scanner.Text()
		}
	}
	if ctx.Err() != nil {
		t.Fatal("event stream did not end after the session completed")
	}
	if pages != 2 || complete != `data: {"total":3,"ready":2}` {
		t.Fatalf("expected two page events then completion, got %d pages, complete %q", pages, complete)
	}
}

func TestIdleSessionsAreReaped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Reader.SessionIdleTimeout = 1
	st := testsupport.MustOpenStore(t, cfg)
	resolver, err := access.NewResolver(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	srv := viewerapi.New(cfg, st, resolver, progress.NewTracker(st, logging.NewNop()), logging.NewNop())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	f := &fixture{cfg: cfg, store: st, resolver: resolver, server: srv, http: &httptest.Server{URL: "http://" + listener.Addr().String()}}
	c := f.importComic(t, "Saga 001.cbz", 2)
	f.openSession(t, c.ID)
	if srv.Sessions() != 1 {
		t.Fatalf("expected one session, got %d", srv.Sessions())
	}

	deadline := time.Now().Add(5 * time.Second)
	for srv.Sessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("idle session was not reaped")
		}
		time.Sleep(50 * time.Millisecond)
	}
	if resolver.Outstanding() != 0 {
		t.Fatalf("expected reaped session to release its handle, got %d", resolver.Outstanding())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Serve: %v", err)
	}
}

func TestRunRefusesSecondInstance(t *testing.T) {
	f := newFixture(t)
	holder := flock.New(f.cfg.ServeLockPath())
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("hold serve lock: %v %v", locked, err)
	}
	defer holder.Unlock()

	if err := f.server.Run(context.Background()); !errors.Is(err, viewerapi.ErrServeLocked) {
		t.Fatalf("expected ErrServeLocked, got %v", err)
	}
}
