// Package preflight provides readiness checks for the filesystem paths,
// signing key, library database and viewer API that Folio depends on.
//
// The CLI "folio status" command runs RunAll and renders the results. The
// individual checks are exported so callers can run just the ones they need.
package preflight
