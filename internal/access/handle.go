package access

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"folio/internal/comic"
)

var (
	// ErrReleased is returned by reads on a released handle.
	ErrReleased = errors.New("access handle released")
	// ErrAlreadyReleased is returned by a second Release call.
	ErrAlreadyReleased = errors.New("access handle already released")
)

// Handle is scoped read access to one comic file. It must be released exactly
// once; the owning Resolver counts handles that are still outstanding.
type Handle struct {
	mu       sync.RWMutex
	file     *os.File
	path     string
	size     int64
	deadline time.Time
	now      func() time.Time
	released bool
	onClose  func()
}

// ReadAt reads from the underlying file while the lease is valid.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released {
		return 0, ErrReleased
	}
	if !h.deadline.IsZero() && h.now().After(h.deadline) {
		return 0, comic.Wrap(comic.ErrAccessDenied, "read", "access lease expired for "+h.path, nil)
	}
	return h.file.ReadAt(p, off)
}

// Size is the file size captured at open.
func (h *Handle) Size() int64 { return h.size }

// Name is the base name of the file.
func (h *Handle) Name() string { return filepath.Base(h.path) }

// Path is the resolved location of the file.
func (h *Handle) Path() string { return h.path }

// Deadline is the lease expiry; zero means no expiry.
func (h *Handle) Deadline() time.Time { return h.deadline }

// Release closes the file. Only the first call has an effect.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrAlreadyReleased
	}
	h.released = true
	err := h.file.Close()
	if h.onClose != nil {
		h.onClose()
	}
	return err
}
