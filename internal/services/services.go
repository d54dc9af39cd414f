// package services defines the clients for the two external HTTP APIs:
// setlist.fm (setlists) and Spotify (catalog and playlists)
package services

import (
	"context"

	"github.com/desertthunder/setlistify/internal/models"
)

// SetlistProvider looks up artists and their setlists.
//
// Lookup failures degrade to nil and are logged by the implementation.
type SetlistProvider interface {
	// SearchArtist returns the first relevance-sorted result whose name matches exactly (case-insensitive).
	SearchArtist(ctx context.Context, name string) *models.Artist

	// LatestSetlist returns the newest setlist from the trailing window that has at least one song.
	LatestSetlist(ctx context.Context, mbid string) *models.Setlist
}

// TrackResolver resolves a performed song to a catalog track URI.
type TrackResolver interface {
	// SearchTrack returns "" with a nil error when no tier matches.
	//
	// A non-nil error means the session itself is unusable (e.g. an expired token).
	SearchTrack(ctx context.Context, song, artist string) (string, error)
}

// Catalog is an authenticated streaming catalog session that can build playlists.
type Catalog interface {
	TrackResolver

	// CurrentUserID returns the id of the account the session belongs to.
	CurrentUserID(ctx context.Context) (string, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends uris to the playlist in order.
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}
