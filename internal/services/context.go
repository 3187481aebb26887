package services

import "context"

// Scope is the set of identifiers a unit of work runs under. Log lines pick
// it up through logging.WithContext.
type Scope struct {
	ComicID   string
	SessionID string
	Stage     string
	RequestID string
}

type scopeKey struct{}

// ScopeFrom returns the identifiers attached to ctx. Missing ones are empty.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}

func withScope(ctx context.Context, value string, set func(*Scope)) context.Context {
	if value == "" {
		return ctx
	}
	s := ScopeFrom(ctx)
	set(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

func present(v string) (string, bool) { return v, v != "" }

// WithComicID annotates context with the library comic identifier.
func WithComicID(ctx context.Context, id string) context.Context {
	return withScope(ctx, id, func(s *Scope) { s.ComicID = id })
}

func ComicIDFromContext(ctx context.Context) (string, bool) {
	return present(ScopeFrom(ctx).ComicID)
}

// WithSessionID annotates context with a page-stream session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	return withScope(ctx, id, func(s *Scope) { s.SessionID = id })
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	return present(ScopeFrom(ctx).SessionID)
}

// WithStage names the step in progress: import, remove, open, prefetch.
func WithStage(ctx context.Context, stage string) context.Context {
	return withScope(ctx, stage, func(s *Scope) { s.Stage = stage })
}

func StageFromContext(ctx context.Context) (string, bool) {
	return present(ScopeFrom(ctx).Stage)
}

// WithRequestID annotates context with the viewer API request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withScope(ctx, id, func(s *Scope) { s.RequestID = id })
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return present(ScopeFrom(ctx).RequestID)
}
