// package tasks implements setlist lookups and playlist builds.
//
// The core abstraction is PlaylistEngine, which turns a performed setlist into a streaming playlist.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlistify/internal/formatter"
	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/services"
	"github.com/desertthunder/setlistify/internal/shared"
)

// LookupResult is the artist and setlist selected for a session.
type LookupResult struct {
	Artist  *models.Artist
	Setlist *models.Setlist
}

// Songs returns the setlist flattened with [formatter.ExtractSongs].
func (r *LookupResult) Songs() []models.ResolvedSong {
	return formatter.ExtractSongs(*r.Setlist, r.Artist.Name)
}

// BuildRequest describes one playlist build.
//
// Name and Description default to [models.DefaultPlaylistName] and [models.DefaultPlaylistDescription]
// when Setlist is set.
type BuildRequest struct {
	SessionID   string
	Artist      string
	Setlist     *models.Setlist
	Name        string
	Description string
	Songs       []models.ResolvedSong
}

// BuildResult reports the outcome of a build.
type BuildResult struct {
	BuildID  string
	State    models.BuildState
	Playlist *models.Playlist // nil when creation failed
	NotFound []string         // Song names without a match, in setlist order
	Total    int
}

// Added returns the number of tracks added to the playlist.
func (r *BuildResult) Added() int {
	if r.Playlist == nil {
		return 0
	}
	return len(r.Playlist.Tracks)
}

// Summary renders a short report of the build for display.
func (r *BuildResult) Summary() string {
	if r.Playlist == nil {
		return "No playlist was created"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created playlist %q with %d of %d songs\n", r.Playlist.Name, r.Added(), r.Total)
	fmt.Fprintf(&b, "%s\n", r.Playlist.URL())
	if len(r.NotFound) > 0 {
		fmt.Fprintf(&b, "Could not find: %s\n", strings.Join(r.NotFound, ", "))
	}
	return b.String()
}

// BuildRecorder persists build history.
type BuildRecorder interface {
	Create(build *models.Build) error
	Update(build *models.Build) error
}

// PlaylistEngine looks up setlists and builds playlists from them.
type PlaylistEngine struct {
	setlists services.SetlistProvider
	recorder BuildRecorder
	logger   *log.Logger
}

// NewPlaylistEngine creates a PlaylistEngine. recorder may be nil.
func NewPlaylistEngine(setlists services.SetlistProvider, recorder BuildRecorder, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &PlaylistEngine{
		setlists: setlists,
		recorder: recorder,
		logger:   shared.WithLogger(logger, "task", "playlist"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Lookup finds the artist by exact name and the artist's latest setlist with songs.
//
// Both lookups degrade to [shared.ErrArtistNotFound] or [shared.ErrSetlistNotFound]; the provider logs the cause.
func (e *PlaylistEngine) Lookup(ctx context.Context, name string, progress chan<- ProgressUpdate) (*LookupResult, error) {
	if e.setlists == nil {
		return nil, fmt.Errorf("%w: setlist provider not initialized", shared.ErrServiceUnavailable)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}

	e.sendProgress(progress, fetchArtistUpdate(name))
	artist := e.setlists.SearchArtist(ctx, name)
	if artist == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, name)
	}

	e.sendProgress(progress, fetchSetlistUpdate(artist))
	setlist := e.setlists.LatestSetlist(ctx, artist.MBID)
	if setlist == nil {
		return &LookupResult{Artist: artist}, fmt.Errorf("%w: no recent setlist with songs for %s", shared.ErrSetlistNotFound, artist.Name)
	}

	return &LookupResult{Artist: artist, Setlist: setlist}, nil
}

// Build creates a public playlist and fills it with the catalog matches for req.Songs.
//
// Songs without a match are reported in NotFound and never fail the build; a playlist with no matches is
// still a successful build. Failing to create the playlist, an auth failure during search, or a failed
// add request end the build in [models.BuildFailed]. The returned result is non-nil whenever the
// request was valid, so a partially built playlist can still be reported.
func (e *PlaylistEngine) Build(ctx context.Context, catalog services.Catalog, req BuildRequest, progress chan<- ProgressUpdate) (*BuildResult, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: connect a Spotify account first", shared.ErrNotAuthenticated)
	}
	if len(req.Songs) == 0 {
		return nil, fmt.Errorf("%w: setlist has no songs", shared.ErrInvalidInput)
	}

	name, description := req.Name, req.Description
	if req.Setlist != nil {
		if strings.TrimSpace(name) == "" {
			name = models.DefaultPlaylistName(req.Artist, *req.Setlist)
		}
		if description == "" {
			description = models.DefaultPlaylistDescription(req.Artist, *req.Setlist)
		}
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	setlistID := ""
	if req.Setlist != nil {
		setlistID = req.Setlist.ID
	}

	record := models.NewBuild(req.SessionID, req.Artist, setlistID, name, len(req.Songs))
	e.record(record, true)

	result := &BuildResult{
		BuildID:  record.ID(),
		State:    models.BuildCreating,
		NotFound: []string{},
		Total:    len(req.Songs),
	}

	fail := func(err error) (*BuildResult, error) {
		result.State = models.BuildFailed
		record.Fail(err)
		e.record(record, false)
		e.logger.Error("build failed", "playlist", name, "error", err)
		return result, err
	}

	e.sendProgress(progress, creatingPlaylistUpdate(name))

	userID, err := catalog.CurrentUserID(ctx)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", shared.ErrPlaylistCreate, err))
	}

	playlist, err := catalog.CreatePlaylist(ctx, userID, name, description, true)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", shared.ErrPlaylistCreate, err))
	}
	result.Playlist = playlist
	e.sendProgress(progress, createPlaylistUpdate(playlist))

	result.State = models.BuildPopulating
	uris := make([]string, 0, len(req.Songs))
	for i, song := range req.Songs {
		e.sendProgress(progress, searchTrackUpdate(i+1, len(req.Songs), song))

		uri, err := catalog.SearchTrack(ctx, song.Name, song.OriginalArtist)
		if err != nil {
			return fail(err)
		}
		if uri == "" {
			result.NotFound = append(result.NotFound, song.Name)
			continue
		}
		uris = append(uris, uri)
	}

	if len(uris) > 0 {
		e.sendProgress(progress, addTracksUpdate(len(uris)))
		if err := catalog.AddTracks(ctx, playlist.ID, uris); err != nil {
			return fail(fmt.Errorf("%w: %w", shared.ErrPlaylistPopulate, err))
		}
	}
	playlist.Tracks = uris

	result.State = models.BuildDone
	record.Complete(playlist, result.NotFound)
	e.record(record, false)

	e.logger.Info("build complete", "playlist", playlist.ID, "added", len(uris), "not_found", len(result.NotFound))
	return result, nil
}

// record persists b, logging and ignoring errors.
func (e *PlaylistEngine) record(b *models.Build, create bool) {
	if e.recorder == nil {
		return
	}

	var err error
	if create {
		err = e.recorder.Create(b)
	} else if b.ID() != "" {
		err = e.recorder.Update(b)
	}
	if err != nil {
		e.logger.Warn("failed to record build", "error", err)
	}
}

// IsFatal reports whether err should stop the current session flow rather than being shown as a warning.
func IsFatal(err error) bool {
	return errors.Is(err, shared.ErrMissingCredentials) ||
		errors.Is(err, shared.ErrMissingConfig) ||
		errors.Is(err, shared.ErrInvalidConfig)
}
