// Package pagestream serves the pages of one open comic to a viewer.
//
// A Session moves from opening to ready once its access handle, reader and
// metadata are in place, then a single background walk loads every missing
// page in order (prefetching) until the cache is full (complete). A viewer
// can request any page at any time with EnsurePageReady; concurrent requests
// for the same page share one extraction. Close cancels the walk, waits for
// it, and releases everything the session owns.
package pagestream
