// Package comic defines the data model shared by the readers, the metadata
// parser, the page-stream sessions and the library: container references and
// kinds, pages, metadata records, reading progress, and the error taxonomy
// with its user-facing messages.
package comic
