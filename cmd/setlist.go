package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/setlistify/internal/formatter"
	"github.com/desertthunder/setlistify/internal/shared"
	"github.com/desertthunder/setlistify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SetlistShow prints an artist's latest setlist grouped into main set and encores.
func (r *Runner) SetlistShow(ctx context.Context, cmd *cli.Command) error {
	artist := strings.TrimSpace(cmd.StringArg("artist"))
	if artist == "" {
		return fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}
	if err := r.requireSetlists(); err != nil {
		return err
	}

	lookup, err := r.engine.Lookup(ctx, artist, nil)
	if err != nil {
		return r.lookupWarning(artist, lookup, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(lookup.Setlist, cmd.Bool("pretty"))
	}

	r.writePlainHeader(lookup.Artist.Name)
	r.writePlain("%s\n", lookup.Setlist.Summary())
	if lookup.Setlist.Tour != nil && lookup.Setlist.Tour.Name != "" {
		r.writePlain("Tour: %s\n", lookup.Setlist.Tour.Name)
	}

	for _, group := range formatter.DisplayGroups(*lookup.Setlist, lookup.Artist.Name) {
		r.writePlain("\n%s\n", group.Label)
		for _, line := range group.Lines {
			r.writePlain("  %s\n", line)
		}
	}

	if lookup.Setlist.URL != "" {
		r.writePlain("\n%s\n", lookup.Setlist.URL)
	}
	return nil
}

// lookupWarning prints a soft warning for lookups that found nothing and returns any other error.
func (r *Runner) lookupWarning(query string, lookup *tasks.LookupResult, err error) error {
	switch {
	case errors.Is(err, shared.ErrArtistNotFound):
		return r.writePlain("⚠ No artist named %q on setlist.fm\n", query)
	case errors.Is(err, shared.ErrSetlistNotFound):
		name := query
		if lookup != nil && lookup.Artist != nil {
			name = lookup.Artist.Name
		}
		return r.writePlain("⚠ No setlist with songs from the last 12 months for %s\n", name)
	default:
		return err
	}
}

// SetlistExport writes the latest setlist of each artist to disk.
func (r *Runner) SetlistExport(ctx context.Context, cmd *cli.Command) error {
	artists := cmd.StringArgs("artists")
	if len(artists) == 0 {
		return fmt.Errorf("%w: at least one artist", shared.ErrMissingArgument)
	}
	if err := r.requireSetlists(); err != nil {
		return err
	}

	format := strings.ToLower(cmd.String("format"))
	switch format {
	case "json", "csv", "markdown", "txt":
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("out"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.Setlist.RequestsPerSecond,
	}

	if format == "markdown" && r.auth != nil && r.config.Session.ID != "" && r.auth.Connected(ctx, r.config.Session.ID) {
		if catalog, err := r.auth.Catalog(ctx, r.config.Session.ID); err == nil {
			if imager, ok := catalog.(artistImager); ok {
				opts.GetArtistURL = imager.ArtistImage
			}
		}
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, artists, opts)
	close(progressCh)
	<-done

	if result != nil {
		r.writePlain("\n")
		r.writePlainHeader("Export Complete")
		r.writePlain("Directory: %s\n", result.OutputDirectory)
		r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalArtists)
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
	}
	return err
}
