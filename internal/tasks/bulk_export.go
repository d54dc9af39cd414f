package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/desertthunder/setlistify/internal/formatter"
	"github.com/desertthunder/setlistify/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk setlist exports.
type BulkExportOpts struct {
	Format       string                                                   // Export format: json, csv, markdown, txt
	OutputDir    string                                                   // Base output directory (default: setlist_export_{epoch})
	NumWorkers   int                                                      // Concurrent file writers (default: 3)
	RateLimit    float64                                                  // Lookups per second (default: 2)
	GetArtistURL func(ctx context.Context, artist string) (string, error) // Artist image fetcher for markdown
}

// SetlistExportJob is a looked up setlist waiting to be written.
type SetlistExportJob struct {
	Index  int
	Query  string
	Lookup *LookupResult
}

// SetlistExportResult is the outcome for one artist.
type SetlistExportResult struct {
	Index     int      `json:"-"`
	Query     string   `json:"query"`
	Artist    string   `json:"artist,omitempty"`
	SetlistID string   `json:"setlist_id,omitempty"`
	Files     []string `json:"files,omitempty"`
	Success   bool     `json:"success"`
	Error     error    `json:"-"`
	Message   string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalArtists      int                   `json:"total_artists"`
	SuccessfulExports int                   `json:"successful_exports"`
	FailedExports     int                   `json:"failed_exports"`
	OutputDirectory   string                `json:"output_directory"`
	Format            string                `json:"format"`
	Results           []SetlistExportResult `json:"results"`
	ManifestPath      string                `json:"-"`
}

// BulkExport looks up the latest setlist for each artist and writes it to disk.
//
// Lookups are paced by a rate limiter and run in order; writes are handled by a small worker pool.
// Failures are recorded per artist and do not stop the export. A manifest summarizing the results is written
// to the output directory.
func (e *PlaylistEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, artists []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.setlists == nil {
		return nil, fmt.Errorf("%w: setlist provider not initialized", shared.ErrServiceUnavailable)
	}
	if len(artists) == 0 {
		return nil, fmt.Errorf("%w: at least one artist", shared.ErrMissingArgument)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("setlist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}
	if opts.Format == "" {
		opts.Format = "json"
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalArtists:    len(artists),
		OutputDirectory: opts.OutputDir,
		Format:          opts.Format,
		Results:         make([]SetlistExportResult, 0, len(artists)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	results := make(chan SetlistExportResult, len(artists))

	var writers errgroup.Group
	writers.SetLimit(opts.NumWorkers)

	go func() {
		defer close(results)
		for i, query := range artists {
			if err := limiter.Wait(ctx); err != nil {
				break
			}

			e.sendProgress(prog, exportingSetlistUpdate(i+1, len(artists), query))

			lookup, err := e.Lookup(ctx, query, nil)
			if err != nil {
				results <- SetlistExportResult{Index: i, Query: query, Error: err}
				continue
			}

			job := SetlistExportJob{Index: i, Query: query, Lookup: lookup}
			writers.Go(func() error {
				results <- e.exportJob(ctx, job, opts)
				return nil
			})
		}
		writers.Wait()
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Message = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(artists), res.Artist, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(artists), res.Query, res.Error))
		}
	}

	// workers finish out of order
	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Index < result.Results[j].Index
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportJob writes one looked up setlist unless the export was cancelled.
func (e *PlaylistEngine) exportJob(ctx context.Context, job SetlistExportJob, opts BulkExportOpts) SetlistExportResult {
	if err := ctx.Err(); err != nil {
		return SetlistExportResult{Index: job.Index, Query: job.Query, Error: err}
	}
	return e.exportSingleSetlist(ctx, job, opts)
}

// exportSingleSetlist writes one setlist in the requested format.
func (e *PlaylistEngine) exportSingleSetlist(ctx context.Context, j SetlistExportJob, opts BulkExportOpts) SetlistExportResult {
	artist := j.Lookup.Artist.Name
	setlist := *j.Lookup.Setlist

	result := SetlistExportResult{
		Index:     j.Index,
		Query:     j.Query,
		Artist:    artist,
		SetlistID: setlist.ID,
		Files:     []string{},
	}

	base := setlist.ID
	if slug := fileSlug(artist); slug != "" {
		base = slug + "_" + base
	}

	switch opts.Format {
	case "csv":
		csvRes, err := formatter.WriteCSVExport(setlist, artist, filepath.Join(opts.OutputDir, base))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.SongsFile, csvRes.MetadataFile}

	case "markdown":
		var imageURL string
		if opts.GetArtistURL != nil {
			if url, err := opts.GetArtistURL(ctx, artist); err == nil {
				imageURL = url
			} else {
				e.logger.Warn("artist image lookup failed", "artist", artist, "error", err)
			}
		}

		mdRes, err := formatter.WriteMarkdownExport(ctx, setlist, artist, filepath.Join(opts.OutputDir, base), imageURL)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		for _, w := range mdRes.Warnings {
			e.logger.Warn(w, "artist", artist)
		}
		result.Files = mdRes.Files

	case "txt":
		path, err := formatter.WriteTextExport(setlist, artist, filepath.Join(opts.OutputDir, base+".txt"))
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, base+".json")
		data, err := formatter.ToJSON(setlist)
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{jsonPath}
	}

	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// fileSlug lowercases name and replaces anything but letters and digits with '-'.
func fileSlug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
