// Command folio manages a local comic library and serves it to a viewer.
//
// Library commands (import, list, show, remove, progress) work directly on
// the SQLite library. The serve command runs the viewer API until
// interrupted.
package main
