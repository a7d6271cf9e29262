// Package tasks drives a wish-list sync against bangumi with real-time progress reporting.
//
// # Sync
//
// [SyncEngine.Run] walks the wish list one page at a time, newest release first:
//
//  1. Fetch page N from the [services.WishListSource]
//  2. Parse it into entries with [scraper.ParseEntries]
//  3. For each entry in document order:
//     - a date before today ends the whole run
//     - a date equal to today is moved to "watching" via [SyncEngine.MarkWatching]
//     - a later date is left alone
//  4. Continue with page N+1
//
// The run also stops on a failed fetch, on a page with no entries, after the configured
// page limit, or when the context is canceled. None of these are errors: the reason is
// recorded on the returned [SyncResult].
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
//
// # Persistence
//
// The optional [RunStore] records each finished run and its events. Store failures are
// logged and never fail the sync.
package tasks
