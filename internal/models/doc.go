// Package models defines the domain entities for turning a setlist into a playlist.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects decoded from or derived for external services:
//   - [Artist], [Setlist], [Set], [SetSong] : setlist.fm documents, decoded as-is
//   - [ResolvedSong] : flattened song with its attributed original artist, used for display and matching
//   - [Playlist] : a created streaming playlist and the track URIs actually added
//
// 2. Persistent Entities:
//   - [Build] : one playlist build action with its outcome
//
// Persistent entities implement the [Model] interface.
package models
