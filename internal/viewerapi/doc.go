// Package viewerapi exposes the library and page-stream sessions to a local
// viewer over HTTP.
//
// Routes live under /api. Comic records and covers come straight from the
// store; reading happens through sessions, each wrapping one
// pagestream.Session, that the viewer opens, pages through, and deletes.
// Sessions left untouched past the configured idle timeout are closed by a
// background reaper. When paths.api_token is set every request must carry
// it as a bearer token.
package viewerapi
