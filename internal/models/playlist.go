package models

import "fmt"

const spotifyPlaylistURL = "https://open.spotify.com/playlist/%s"

// Playlist is a streaming playlist created by a build.
type Playlist struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Public      bool     `json:"public"`
	URI         string   `json:"uri,omitempty"`
	Tracks      []string `json:"tracks"` // Track URIs actually added, in setlist order
}

// URL returns the web link for the playlist.
func (p Playlist) URL() string {
	return fmt.Sprintf(spotifyPlaylistURL, p.ID)
}

// DefaultPlaylistName is "{artist} - {venue} ({date})".
func DefaultPlaylistName(artist string, s Setlist) string {
	return fmt.Sprintf("%s - %s (%s)", artist, s.Venue.Name, s.EventDate)
}

// DefaultPlaylistDescription describes where and when the setlist was played.
func DefaultPlaylistDescription(artist string, s Setlist) string {
	return fmt.Sprintf("Setlist from %s at %s, %s on %s. Created with setlistify.",
		artist, s.Venue.Name, s.Venue.City.Name, s.EventDate)
}
