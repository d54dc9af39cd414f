// Package session holds the per-user state of an interactive session.
//
// A [Session] carries the current artist and setlist selection. Before redirecting to Spotify for
// authorization the caller stores a [Continuation] with [Session.Suspend]; after the callback
// [Session.Resume] hands it back exactly once.
//
// Spotify tokens live in a [TokenStore] keyed by session id, either [MemoryStore] or the SQLite
// repositories.SessionRepository. [AuthProvider] exchanges authorization codes, binds stored tokens to
// a catalog client and writes refreshed tokens back to the store.
package session
