// Package library imports comic files into the local library: it grants
// access tokens, fingerprints content to catch duplicates, merges metadata,
// and renders cover thumbnails. Imports from concurrent processes are
// serialized with a lock file in the data directory.
package library
