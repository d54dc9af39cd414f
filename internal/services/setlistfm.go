// setlist.fm API implementation of [SetlistProvider]
//
// Response types based on https://api.setlist.fm/docs/1.0/index.html
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/shared"
	"golang.org/x/time/rate"
)

const (
	setlistFMBaseURL  = "https://api.setlist.fm/rest/1.0"
	defaultRetryAfter = 60 * time.Second
	defaultMaxPages   = 5
	defaultRecentDays = 365
)

type artistSearchResponse struct {
	Artists      []models.Artist `json:"artist"`
	Total        int             `json:"total"`
	Page         int             `json:"page"`
	ItemsPerPage int             `json:"itemsPerPage"`
}

type setlistPage struct {
	Setlists     []models.Setlist `json:"setlist"`
	Total        int              `json:"total"`
	Page         int              `json:"page"`
	ItemsPerPage int              `json:"itemsPerPage"`
}

// lastPage reports whether the feed has no pages after this one.
func (p setlistPage) lastPage() bool {
	if len(p.Setlists) == 0 {
		return true
	}
	return p.ItemsPerPage > 0 && p.Page*p.ItemsPerPage >= p.Total
}

// SetlistService implements [SetlistProvider] against the setlist.fm REST API.
type SetlistService struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *log.Logger
	maxPages     int
	recentDays   int
	maxRetryWait time.Duration
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewSetlistService creates a setlist.fm client.
//
// A missing API key is a configuration error and is reported here rather than on first use.
func NewSetlistService(creds shared.SetlistFMConfig, policy shared.SetlistConfig, logger *log.Logger) (*SetlistService, error) {
	if strings.TrimSpace(creds.APIKey) == "" {
		return nil, fmt.Errorf("%w: setlist.fm api_key", shared.ErrMissingCredentials)
	}

	baseURL := strings.TrimRight(creds.BaseURL, "/")
	if baseURL == "" {
		baseURL = setlistFMBaseURL
	}

	maxPages := policy.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	recentDays := policy.RecentDays
	if recentDays <= 0 {
		recentDays = defaultRecentDays
	}

	limit := rate.Inf
	if policy.RequestsPerSecond > 0 {
		limit = rate.Limit(policy.RequestsPerSecond)
	}

	if logger == nil {
		logger = log.Default()
	}

	return &SetlistService{
		apiKey:       creds.APIKey,
		baseURL:      baseURL,
		httpClient:   http.DefaultClient,
		limiter:      rate.NewLimiter(limit, 1),
		logger:       shared.WithLogger(logger, "service", "setlistfm"),
		maxPages:     maxPages,
		recentDays:   recentDays,
		maxRetryWait: policy.RetryWaitCap(),
		now:          time.Now,
		sleep:        sleepContext,
	}, nil
}

// SearchArtist returns the first relevance-sorted artist whose name equals name, ignoring case.
// Partial matches are treated as not found.
func (s *SetlistService) SearchArtist(ctx context.Context, name string) *models.Artist {
	name = strings.TrimSpace(name)
	if name == "" {
		s.logger.Warn("artist search with empty name")
		return nil
	}

	query := url.Values{
		"artistName": {name},
		"p":          {"1"},
		"sort":       {"relevance"},
	}

	var res artistSearchResponse
	if err := s.get(ctx, "/search/artists", query, &res, shared.ErrArtistNotFound); err != nil {
		if errors.Is(err, shared.ErrArtistNotFound) {
			s.logger.Info("no artists found", "artist", name)
		} else {
			s.logger.Error("artist search failed", "artist", name, "error", err)
		}
		return nil
	}

	for i := range res.Artists {
		if shared.SameName(res.Artists[i].Name, name) {
			artist := res.Artists[i]
			return &artist
		}
	}

	s.logger.Info("no exact artist match", "artist", name, "candidates", len(res.Artists))
	return nil
}

// LatestSetlist pages newest-first through the artist's setlists and returns the first one
// that took place within the recent window and lists at least one song.
func (s *SetlistService) LatestSetlist(ctx context.Context, mbid string) *models.Setlist {
	if strings.TrimSpace(mbid) == "" {
		s.logger.Warn("setlist lookup with empty mbid")
		return nil
	}

	// event dates parse to midnight UTC, so a show exactly recentDays ago only
	// qualifies when now is itself midnight
	cutoff := s.now().UTC().AddDate(0, 0, -s.recentDays)
	path := "/artist/" + url.PathEscape(mbid) + "/setlists"

	for page := 1; page <= s.maxPages; page++ {
		query := url.Values{
			"p":     {strconv.Itoa(page)},
			"sort":  {"eventDate"},
			"order": {"desc"},
		}

		var res setlistPage
		if err := s.get(ctx, path, query, &res, shared.ErrSetlistNotFound); err != nil {
			if errors.Is(err, shared.ErrSetlistNotFound) {
				s.logger.Info("no setlists found", "mbid", mbid, "page", page)
			} else {
				s.logger.Error("setlist fetch failed", "mbid", mbid, "page", page, "error", err)
			}
			return nil
		}

		for i := range res.Setlists {
			setlist := res.Setlists[i]
			date, err := setlist.Date()
			if err != nil {
				s.logger.Debug("skipping setlist", "id", setlist.ID, "error", err)
				continue
			}
			if date.Before(cutoff) || !setlist.HasSongs() {
				continue
			}
			return &setlist
		}

		if res.lastPage() {
			break
		}
	}

	s.logger.Info("no recent setlist with songs", "mbid", mbid, "pages", s.maxPages)
	return nil
}

// get performs a GET and decodes the JSON body into result.
//
// A 429 is retried after the server's Retry-After interval until a different status arrives.
// A 404 is reported as notFound.
func (s *SetlistService) get(ctx context.Context, path string, query url.Values, result any, notFound error) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := s.do(ctx, path, query)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp.Header.Get("Retry-After"), s.now())
			resp.Body.Close()

			if s.maxRetryWait > 0 && wait > s.maxRetryWait {
				return fmt.Errorf("%w: retry after %s exceeds %s", shared.ErrRateLimited, wait, s.maxRetryWait)
			}

			s.logger.Warn("rate limited, retrying", "path", path, "retry_after", wait)
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return notFound
		case resp.StatusCode != http.StatusOK:
			resp.Body.Close()
			return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, path, resp.StatusCode)
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
}

func (s *SetlistService) do(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	apiURL := s.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return resp, nil
}

// retryAfter parses a Retry-After value given either in seconds or as an HTTP date.
func retryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultRetryAfter
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}

	return defaultRetryAfter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
