// Package store persists the comic library and reading progress in SQLite.
//
// The schema lives in embedded migration scripts applied in order on Open
// and tracked through PRAGMA user_version. A database newer than the build
// fails with ErrSchemaMismatch. Writes retry briefly while another process
// holds the lock. Deleting a comic cascades to its progress row.
package store
