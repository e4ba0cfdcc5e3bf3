// Package tasks exports library data with real-time progress reporting.
//
// [Exporter.ExportMovies] fetches movie details through a bounded worker pool. Requests are paced
// by a [rate.Limiter] and there are no retries: a movie that fails to load is recorded in the
// manifest and the export carries on.
//
// Progress is sent on an optional channel with select/default, so a slow reader never blocks
// the export.
package tasks
