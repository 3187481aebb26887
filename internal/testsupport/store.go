package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"folio/internal/comic"
	"folio/internal/config"
	"folio/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewComic saves a minimal archive comic record and returns it.
func NewComic(t testing.TB, st *store.Store, title, path string) *comic.Comic {
	t.Helper()

	c := &comic.Comic{
		ID:        uuid.NewString(),
		Title:     title,
		Path:      path,
		Kind:      comic.KindArchive,
		PageCount: 10,
		AddedAt:   time.Now().UTC(),
		Metadata:  comic.Metadata{Title: comic.Ptr(title)},
	}
	if err := st.Save(context.Background(), c); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
	return c
}
