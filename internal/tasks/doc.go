// Package tasks orchestrates setlist lookups and playlist builds with real-time progress reporting.
//
// # Core Operations
//
// [PlaylistEngine] exposes three operations:
//
//  1. [PlaylistEngine.Lookup] : artist search followed by the latest setlist with songs
//     - Exact, case-insensitive artist name match
//     - Newest-first paging within the recent window
//
//  2. [PlaylistEngine.Build] : create a playlist from resolved songs
//     - Idle → Creating → Populating → Done | Failed
//     - Every song is searched in order with [services.TrackResolver] tiers
//     - Misses are collected in NotFound and never abort the build
//     - Matched tracks are added in setlist order
//
//  3. [PlaylistEngine.BulkExport] : export the latest setlist of many artists to disk
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// A [ProgressUpdate] carries the phase and step counters along with a display message.
// Updates use select with default to prevent blocking.
//
// # Build History
//
// The optional [BuildRecorder] persists each build (repositories.BuildRepository). Recording failures are logged
// and never fail a build.
package tasks
