package models

import (
	"fmt"
	"time"
)

// BuildState is a step of the playlist build state machine: Idle → Creating → Populating → Done | Failed.
type BuildState string

const (
	BuildIdle       BuildState = "idle"
	BuildCreating   BuildState = "creating"
	BuildPopulating BuildState = "populating"
	BuildDone       BuildState = "done"
	BuildFailed     BuildState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s BuildState) Terminal() bool {
	return s == BuildDone || s == BuildFailed
}

// Valid reports whether s is a known state.
func (s BuildState) Valid() bool {
	switch s {
	case BuildIdle, BuildCreating, BuildPopulating, BuildDone, BuildFailed:
		return true
	}
	return false
}

// Build records one playlist build action and its outcome.
type Build struct {
	id           string
	sequence     int
	sessionID    string
	artistName   string
	setlistID    string
	playlistID   string
	playlistName string
	status       BuildState
	tracksTotal  int
	tracksAdded  int
	notFound     []string
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
}

var _ Model = (*Build)(nil)

// NewBuild creates a Build in the idle state.
func NewBuild(sessionID, artistName, setlistID, playlistName string, tracksTotal int) *Build {
	now := time.Now()
	return &Build{
		sessionID:    sessionID,
		artistName:   artistName,
		setlistID:    setlistID,
		playlistName: playlistName,
		status:       BuildIdle,
		tracksTotal:  tracksTotal,
		notFound:     []string{},
		createdAt:    now,
		updatedAt:    now,
	}
}

func (b *Build) ID() string { return b.id }
func (b *Build) Sequence() int { return b.sequence }
func (b *Build) SessionID() string { return b.sessionID }
func (b *Build) ArtistName() string { return b.artistName }
func (b *Build) SetlistID() string { return b.setlistID }
func (b *Build) PlaylistID() string { return b.playlistID }
func (b *Build) PlaylistName() string { return b.playlistName }
func (b *Build) Status() BuildState { return b.status }
func (b *Build) TracksTotal() int { return b.tracksTotal }
func (b *Build) TracksAdded() int { return b.tracksAdded }
func (b *Build) NotFound() []string { return b.notFound }
func (b *Build) ErrorMessage() string { return b.errorMessage }
func (b *Build) CreatedAt() time.Time { return b.createdAt }
func (b *Build) UpdatedAt() time.Time { return b.updatedAt }
func (b *Build) SetID(id string) { b.id = id }
func (b *Build) SetSequence(seq int) { b.sequence = seq }
func (b *Build) SetCreatedAt(t time.Time) { b.createdAt = t }
func (b *Build) SetUpdatedAt(t time.Time) { b.updatedAt = t }

// Complete marks the build done with the created playlist and the songs that could not be matched.
func (b *Build) Complete(playlist *Playlist, notFound []string) {
	b.status = BuildDone
	if playlist != nil {
		b.playlistID = playlist.ID
		b.tracksAdded = len(playlist.Tracks)
	}
	if notFound == nil {
		notFound = []string{}
	}
	b.notFound = notFound
	b.updatedAt = time.Now()
}

// Fail marks the build failed with err's message.
func (b *Build) Fail(err error) {
	b.status = BuildFailed
	if err != nil {
		b.errorMessage = err.Error()
	}
	b.updatedAt = time.Now()
}

// Restore sets fields loaded from storage.
func (b *Build) Restore(playlistID string, status BuildState, tracksAdded int, notFound []string, errorMessage string) {
	b.playlistID = playlistID
	b.status = status
	b.tracksAdded = tracksAdded
	b.notFound = notFound
	b.errorMessage = errorMessage
}

// Validate checks required fields and the state.
func (b *Build) Validate() error {
	if b.sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if b.artistName == "" {
		return fmt.Errorf("artist name is required")
	}
	if b.playlistName == "" {
		return fmt.Errorf("playlist name is required")
	}
	if !b.status.Valid() {
		return fmt.Errorf("invalid build status %q", b.status)
	}
	if b.tracksAdded > b.tracksTotal {
		return fmt.Errorf("tracks added (%d) exceeds total (%d)", b.tracksAdded, b.tracksTotal)
	}
	return nil
}
