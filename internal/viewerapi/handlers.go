package viewerapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"folio/internal/comic"
	"folio/internal/logging"
	"folio/internal/pagestream"
	"folio/internal/services"
)

func (s *Server) handleListComics(w http.ResponseWriter, r *http.Request) {
	comics, err := s.library.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	items := make([]ComicSummary, 0, len(comics))
	for _, c := range comics {
		items = append(items, summarize(c))
	}
	s.writeJSON(w, http.StatusOK, ComicListResponse{Items: items})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*comic.Comic, bool) {
	id := chi.URLParam(r, "id")
	c, err := s.library.Get(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return nil, false
	}
	if c == nil {
		s.writeError(w, http.StatusNotFound, "comic not found")
		return nil, false
	}
	return c, true
}

func (s *Server) handleGetComic(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ComicResponse{
		ComicSummary: summarize(c),
		Bundled:      c.Bundled,
		AddedAt:      c.AddedAt,
		Metadata:     c.Metadata,
		Progress:     c.Progress,
	})
}

func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if c.CoverPath == "" {
		s.writeError(w, http.StatusNotFound, "cover not available")
		return
	}
	f, err := os.Open(c.CoverPath)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "cover not available")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, c.ID+".jpg", info.ModTime(), f)
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ComicID == "" {
		s.writeError(w, http.StatusBadRequest, "comic_id is required")
		return
	}
	ctx := services.WithComicID(r.Context(), req.ComicID)
	c, err := s.library.Get(ctx, req.ComicID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if c == nil {
		s.writeError(w, http.StatusNotFound, "comic not found")
		return
	}

	opts := s.sessionOpts
	opts.ComicID = c.ID
	opts.LastKnownPath = c.Path
	sess, err := pagestream.Open(ctx, pagestream.Deps{
		Resolver: pagestream.AccessResolver(s.resolver),
		Tracker:  s.tracker,
		Logger:   s.logger,
	}, c.Ref(), opts)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.sessions.add(sess)

	if err := s.library.TouchOpened(ctx, c.ID, time.Now().UTC()); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "last opened not recorded", "touch_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "recently read ordering may be stale"),
		)
	}

	res := sess.Resolution()
	s.writeJSON(w, http.StatusCreated, OpenSessionResponse{
		SessionID:  sess.ID(),
		ComicID:    c.ID,
		TotalPages: sess.Total(),
		StartPage:  sess.StartPage(),
		Metadata:   sess.Metadata(),
		CoverURL:   fmt.Sprintf("/api/sessions/%s/pages/0", sess.ID()),
		Stale:      res.Stale,
		FellBack:   res.FellBack,
	})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*pagestream.Session, bool) {
	sess, ok := s.sessions.get(chi.URLParam(r, "sid"))
	if !ok {
		s.writeFailure(w, r, errSessionNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{
		SessionID:  sess.ID(),
		ComicID:    sess.ComicID(),
		State:      sess.State(),
		TotalPages: sess.Total(),
		Cached:     sess.CachedCount(),
		Pages:      sess.Pages(),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "page index must be an integer")
		return
	}
	page, err := sess.EnsurePageReady(r.Context(), index)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(page.Data))
	w.Header().Set("Content-Length", strconv.Itoa(len(page.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page.Data)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Page == nil {
		s.writeError(w, http.StatusBadRequest, "page is required")
		return
	}
	if err := sess.SetPosition(*req.Page); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sid")
	found, err := s.sessions.remove(id)
	if !found {
		s.writeFailure(w, r, errSessionNotFound)
		return
	}
	if err != nil {
		logging.WarnWithContext(s.logger, "session closed with errors", "session_close_failed",
			logging.String(logging.FieldSessionID, id),
			logging.Error(err),
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams page availability as server-sent events. Pages
// already cached are announced first; the stream ends once every page is
// cached or the session closes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	events, cancel := sess.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	total := sess.Total()
	sent := make(map[int]bool, total)
	send := func(index int) {
		if sent[index] {
			return
		}
		sent[index] = true
		fmt.Fprintf(w, "event: page\ndata: {\"index\":%d}\n\n", index)
	}
	for _, slot := range sess.Pages() {
		if slot.Ready {
			send(slot.Index)
		}
	}
	flusher.Flush()

stream:
	for len(sent) < total {
		select {
		case <-r.Context().Done():
			return
		case <-sess.Completed():
			// Skipped pages never arrive; report what the cache holds.
			for _, slot := range sess.Pages() {
				if slot.Ready {
					send(slot.Index)
				}
			}
			break stream
		case ev, open := <-events:
			if !open {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			send(ev.Index)
			// Slow readers can miss events; catch up from the cache.
			if sess.CachedCount() == total {
				for _, slot := range sess.Pages() {
					send(slot.Index)
				}
			}
			flusher.Flush()
		}
	}
	fmt.Fprintf(w, "event: complete\ndata: {\"total\":%d,\"ready\":%d}\n\n", total, len(sent))
	flusher.Flush()
}
