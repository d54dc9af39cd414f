// Package repositories implements SQLite persistence for build history and session tokens.
//
// Key Implementations:
//   - [BuildRepository] : Playlist build history with status tracking, used as a [tasks.BuildRecorder]
//   - [SessionRepository] : OAuth tokens keyed by session id, used as a [session.TokenStore]
//
// Sequence numbers provide stable, human-readable ordering (e.g., build #15) independent of UUIDs and creation timestamps.
// [NextSequence] increments a per-table counter row inside the caller's transaction.
package repositories
