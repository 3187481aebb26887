// Package services defines shared utilities consumed by the comic readers,
// the page-stream sessions, and the library importer.
//
// Key responsibilities:
//   - Context helpers that stamp comic IDs, session IDs, stage names, and
//     correlation identifiers for logging.
//   - The Wrap helper that tags failures with a classification marker while
//     keeping stage and operation context in the message.
//
// Use these helpers when wiring new components so error classification and
// observability stay uniform across the engine.
package services
