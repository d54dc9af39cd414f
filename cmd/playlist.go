package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/setlistify/internal/services"
	"github.com/desertthunder/setlistify/internal/shared"
	"github.com/desertthunder/setlistify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate builds a public Spotify playlist from an artist's latest setlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	artist := strings.TrimSpace(cmd.StringArg("artist"))
	if artist == "" {
		return fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}
	if err := r.requireSetlists(); err != nil {
		return err
	}

	catalog, err := r.catalog(ctx)
	if err != nil {
		return err
	}

	lookup, err := r.engine.Lookup(ctx, artist, nil)
	if err != nil {
		return r.lookupWarning(artist, lookup, err)
	}

	songs := lookup.Songs()
	r.writePlain("Found %d songs from %s\n\n", len(songs), lookup.Setlist.Summary())

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.CreatePlaylist:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.SearchTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("\n➕ %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Build(ctx, catalog, tasks.BuildRequest{
		SessionID:   r.sessionID(),
		Artist:      lookup.Artist.Name,
		Setlist:     lookup.Setlist,
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Songs:       songs,
	}, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		if result != nil && result.Playlist != nil {
			r.writePlain("\nPartial playlist: %s\n", result.Playlist.URL())
		}
		if errors.Is(err, shared.ErrTokenExpired) {
			return fmt.Errorf("%w (run 'setlistify auth login')", err)
		}
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Playlist Created!")
	r.writePlain("%s", result.Summary())

	if cmd.Bool("cover") {
		r.setArtistCover(ctx, catalog, lookup.Artist.Name, result.Playlist.ID)
	}
	return nil
}

// setArtistCover uploads the artist's image as the playlist cover. Failures are warnings.
func (r *Runner) setArtistCover(ctx context.Context, catalog services.Catalog, artist, playlistID string) {
	imager, canFind := catalog.(artistImager)
	uploader, canUpload := catalog.(coverUploader)
	if !canFind || !canUpload {
		r.logger.Warn("catalog does not support cover images")
		return
	}

	imageURL, err := imager.ArtistImage(ctx, artist)
	if err != nil || imageURL == "" {
		r.writePlain("⚠ No artist image found for %s\n", artist)
		return
	}

	if err := uploader.UploadCover(ctx, playlistID, imageURL); err != nil {
		r.logger.Warn("cover upload failed", "playlist", playlistID, "error", err)
		r.writePlain("⚠ Could not set the playlist cover: %v\n", err)
		return
	}
	r.writePlain("✓ Cover image set\n")
}

// PlaylistCover sets a playlist's cover image from a URL.
func (r *Runner) PlaylistCover(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	imageURL := cmd.String("url")
	if playlistID == "" || imageURL == "" {
		return fmt.Errorf("%w: --id and --url are required", shared.ErrMissingArgument)
	}

	catalog, err := r.catalog(ctx)
	if err != nil {
		return err
	}

	uploader, ok := catalog.(coverUploader)
	if !ok {
		return fmt.Errorf("%w: cover upload", shared.ErrNotImplemented)
	}

	if err := uploader.UploadCover(ctx, playlistID, imageURL); err != nil {
		return err
	}
	return r.writePlain("✓ Cover image set for playlist %s\n", playlistID)
}

// PlaylistHistory lists recorded builds for the session, newest first.
func (r *Runner) PlaylistHistory(ctx context.Context, cmd *cli.Command) error {
	history, ok := r.recorder.(buildHistory)
	if !ok {
		return fmt.Errorf("%w: build history requires session.store = \"sqlite\"", shared.ErrInvalidConfig)
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if r.config.Session.ID != "" {
		criteria["session_id"] = r.config.Session.ID
	}

	builds, err := history.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]map[string]any, 0, len(builds))
		for _, b := range builds {
			out = append(out, map[string]any{
				"id":           b.ID(),
				"artist":       b.ArtistName(),
				"setlist_id":   b.SetlistID(),
				"playlist_id":  b.PlaylistID(),
				"name":         b.PlaylistName(),
				"status":       b.Status(),
				"tracks_total": b.TracksTotal(),
				"tracks_added": b.TracksAdded(),
				"not_found":    b.NotFound(),
				"error":        b.ErrorMessage(),
				"created_at":   b.CreatedAt(),
			})
		}
		return r.writeJSON(out, true)
	}

	if len(builds) == 0 {
		return r.writePlain("No builds recorded\n")
	}

	for _, b := range builds {
		r.writePlain("%s  %-10s %s (%d/%d)\n", b.CreatedAt().Format("2006-01-02 15:04"), b.Status(), b.PlaylistName(), b.TracksAdded(), b.TracksTotal())
		if b.ErrorMessage() != "" {
			r.writePlain("    error: %s\n", b.ErrorMessage())
		}
	}
	return nil
}
