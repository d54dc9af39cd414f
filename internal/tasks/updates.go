package tasks

import (
	"fmt"

	"github.com/desertthunder/setlistify/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchArtist Phase = iota
	FetchSetlist
	CreatePlaylist
	SearchTracks
	AddTracks
	ExportSetlist
)

func (p Phase) String() string {
	switch p {
	case FetchArtist:
		return "fetch_artist"
	case FetchSetlist:
		return "fetch_setlist"
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case AddTracks:
		return "add_tracks"
	case ExportSetlist:
		return "export_setlist"
	default:
		return ""
	}
}

func fetchArtistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArtist,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Searching setlist.fm for %s...", name),
	}
}

func fetchSetlistUpdate(artist *models.Artist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSetlist,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Fetching latest setlist for %s...", artist.Name),
		Data:    artist,
	}
}

func creatingPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func createPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func searchTrackUpdate(step, total int, song models.ResolvedSong) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, song.OriginalArtist, song.Name),
	}
}

func addTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}

func exportingSetlistUpdate(step, total int, artist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSetlist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, artist),
	}
}

func exportCompletedUpdate(step, total int, artist string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSetlist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, artist, filesCount),
	}
}

func exportFailedUpdate(step, total int, artist string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSetlist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, artist, err),
	}
}
