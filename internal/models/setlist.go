package models

import (
	"fmt"
	"strings"
	"time"
)

// EventDateLayout is the day-month-year layout setlist.fm uses for event dates.
const EventDateLayout = "02-01-2006"

// Image is an artist image at a given size.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Artist is a setlist.fm artist record. Identity is the MBID.
type Artist struct {
	MBID           string  `json:"mbid"`
	Name           string  `json:"name"`
	SortName       string  `json:"sortName,omitempty"`
	Disambiguation string  `json:"disambiguation,omitempty"`
	URL            string  `json:"url,omitempty"`
	Images         []Image `json:"image,omitempty"`
}

// BestImage returns the URL of the widest image, or "" when the artist has none.
func (a Artist) BestImage() string {
	best := -1
	for i, img := range a.Images {
		if best < 0 || img.Width > a.Images[best].Width {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return a.Images[best].URL
}

// Country is the country a city belongs to.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// City is where a venue is located.
type City struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	State     string  `json:"state,omitempty"`
	StateCode string  `json:"stateCode,omitempty"`
	Country   Country `json:"country"`
}

// Venue is where an event took place.
type Venue struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	City City   `json:"city"`
}

// Tour names the tour an event belongs to.
type Tour struct {
	Name string `json:"name"`
}

// Cover references the original artist of a covered song.
type Cover struct {
	MBID string `json:"mbid,omitempty"`
	Name string `json:"name"`
}

// SetSong is one performed song. Cover is non-nil iff the song is a cover.
type SetSong struct {
	Name  string `json:"name"`
	Info  string `json:"info,omitempty"`
	Cover *Cover `json:"cover,omitempty"`
	Tape  bool   `json:"tape,omitempty"`
}

// Set is an ordered group of songs, e.g. the main set or an encore.
type Set struct {
	Name   string    `json:"name,omitempty"`
	Encore int       `json:"encore,omitempty"`
	Songs  []SetSong `json:"song,omitempty"`
}

// IsEncore reports whether the set carries an encore marker or has "encore" in its name.
func (s Set) IsEncore() bool {
	return s.Encore > 0 || strings.Contains(strings.ToLower(s.Name), "encore")
}

// Sets wraps the set list the way setlist.fm nests it.
type Sets struct {
	Set []Set `json:"set"`
}

// Setlist is the documented sequence of songs performed at one event.
type Setlist struct {
	ID        string `json:"id"`
	EventDate string `json:"eventDate"`
	Artist    Artist `json:"artist"`
	Venue     Venue  `json:"venue"`
	Tour      *Tour  `json:"tour,omitempty"`
	Sets      Sets   `json:"sets"`
	Info      string `json:"info,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Date parses EventDate.
func (s Setlist) Date() (time.Time, error) {
	d, err := time.Parse(EventDateLayout, s.EventDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event date %q: %w", s.EventDate, err)
	}
	return d, nil
}

// HasSongs reports whether at least one set has at least one song.
func (s Setlist) HasSongs() bool {
	for _, set := range s.Sets.Set {
		if len(set.Songs) > 0 {
			return true
		}
	}
	return false
}

// SongCount returns the number of songs across all sets.
func (s Setlist) SongCount() int {
	n := 0
	for _, set := range s.Sets.Set {
		n += len(set.Songs)
	}
	return n
}

// Summary renders "{date} at {venue}, {city}".
func (s Setlist) Summary() string {
	return fmt.Sprintf("%s at %s, %s", s.EventDate, s.Venue.Name, s.Venue.City.Name)
}

// ResolvedSong is a flattened song used both for display and for catalog matching.
//
// OriginalArtist is the cover artist when IsCover, otherwise the touring artist.
type ResolvedSong struct {
	Name           string `json:"name"`
	OriginalArtist string `json:"original_artist"`
	Info           string `json:"info,omitempty"`
	IsTape         bool   `json:"is_tape"`
	IsCover        bool   `json:"is_cover"`
}
