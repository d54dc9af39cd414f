// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultRedirectURI = "http://127.0.0.1:3000/callback"

	// maxTracksPerRequest is the most URIs the add-items endpoint accepts at once.
	maxTracksPerRequest = 100

	// maxRateLimitRetries bounds how often one request is replayed after a 429.
	maxRateLimitRetries = 3
)

// SpotifyScopes are the scopes requested during authorization.
var SpotifyScopes = []string{
	"playlist-modify-public",
	"playlist-modify-private",
	"user-read-private",
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// LargestImage returns the URL of the widest image, or "".
func (a SpotifyArtist) LargestImage() string {
	best, width := "", -1
	for _, img := range a.Images {
		if img.Width > width {
			best, width = img.URL, img.Width
		}
	}
	return best
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
	Artists struct {
		Items []SpotifyArtist `json:"items"`
	} `json:"artists"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// matchTier is one step of the track search fallback.
//
// query returns false when the tier does not apply to the given input.
type matchTier struct {
	name  string
	query func(song, artist string) (string, bool)
}

// matchTiers are tried in order and the first hit wins.
var matchTiers = []matchTier{
	{
		name: "structured",
		query: func(song, artist string) (string, bool) {
			if artist == "" {
				return "", false
			}
			return fmt.Sprintf(`track:"%s" artist:"%s"`, song, artist), true
		},
	},
	{
		name: "free text",
		query: func(song, artist string) (string, bool) {
			if artist == "" {
				return "", false
			}
			return song + " " + artist, true
		},
	},
	{
		name: "title",
		query: func(song, _ string) (string, bool) {
			return song, true
		},
	},
}

// SpotifyService implements [Catalog] for the Spotify Web API.
// Uses [oauth2] for authentication and token refresh.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	imageClient *http.Client
	baseURL     string
	logger      *log.Logger
	userID      string
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, logger *log.Logger) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       SpotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	if logger == nil {
		logger = log.Default()
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		imageClient: http.DefaultClient,
		baseURL:     spotifyBaseURL,
		logger:      shared.WithLogger(logger, "service", "spotify"),
		now:         time.Now,
		sleep:       sleepContext,
	}, nil
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token without binding it to s.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", shared.ErrAuthFailed)
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// WithToken returns a copy of s bound to token.
//
// When the token is refreshed, onRefresh receives the new token so it can be persisted.
func (s *SpotifyService) WithToken(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) *SpotifyService {
	bound := *s
	bound.token = token
	bound.userID = ""

	src := &notifyingTokenSource{
		base:   oauth2.ReuseTokenSource(token, s.config.TokenSource(ctx, token)),
		last:   token.AccessToken,
		notify: onRefresh,
	}
	bound.httpClient = oauth2.NewClient(ctx, src)
	return &bound
}

// Bind is [SpotifyService.WithToken] returning the [Catalog] interface.
func (s *SpotifyService) Bind(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) Catalog {
	return s.WithToken(ctx, token, onRefresh)
}

// notifyingTokenSource reports tokens whose access token differs from the last one seen.
type notifyingTokenSource struct {
	base   oauth2.TokenSource
	mu     sync.Mutex
	last   string
	notify func(*oauth2.Token)
}

func (n *notifyingTokenSource) Token() (*oauth2.Token, error) {
	token, err := n.base.Token()
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	changed := token.AccessToken != n.last
	n.last = token.AccessToken
	n.mu.Unlock()

	if changed && n.notify != nil {
		n.notify(token)
	}
	return token, nil
}

// doRequest performs an authenticated JSON request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}
	return s.send(ctx, method, endpoint, "application/json", payload, result)
}

// send issues the request, replaying it after a 429 once the Retry-After interval has passed.
func (s *SpotifyService) send(ctx context.Context, method, endpoint, contentType string, payload []byte, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: no token bound to the service", shared.ErrNotAuthenticated)
	}

	for attempt := 0; ; attempt++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, body)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
		req.Header.Set("Content-Type", contentType)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			var retrieveErr *oauth2.RetrieveError
			if errors.As(err, &retrieveErr) {
				return fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
			}
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRateLimitRetries {
			wait := retryAfter(resp.Header.Get("Retry-After"), s.now())
			resp.Body.Close()

			s.logger.Warn("rate limited, retrying", "endpoint", endpoint, "retry_after", wait, "attempt", attempt+1)
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return statusError(resp)
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}
}

func statusError(resp *http.Response) error {
	msg := fmt.Sprintf("status %d", resp.StatusCode)

	var apiErr spotifyError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
		msg += ": " + apiErr.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, msg)
	default:
		return fmt.Errorf("%w: spotify API error: %s", shared.ErrAPIRequest, msg)
	}
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserID returns the authenticated user's id, fetching the profile once.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}

	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	s.userID = user.ID
	return s.userID, nil
}

func (s *SpotifyService) search(ctx context.Context, query, kind string) (*searchResponse, error) {
	params := url.Values{
		"q":     {query},
		"type":  {kind},
		"limit": {"1"},
	}

	var res searchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SearchTrack resolves a song to a track URI by running [matchTiers] in order.
//
// A miss in every tier returns "" and a nil error. Failed queries are logged and treated as misses,
// except authentication failures, which are returned.
func (s *SpotifyService) SearchTrack(ctx context.Context, song, artist string) (string, error) {
	song = strings.TrimSpace(song)
	artist = strings.TrimSpace(artist)
	if song == "" {
		return "", nil
	}

	for _, tier := range matchTiers {
		query, ok := tier.query(song, artist)
		if !ok {
			continue
		}

		res, err := s.search(ctx, query, "track")
		if err != nil {
			if errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthenticated) ||
				errors.Is(err, shared.ErrRateLimited) {
				return "", err
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.logger.Warn("track search failed", "tier", tier.name, "song", song, "artist", artist, "error", err)
			continue
		}

		if len(res.Tracks.Items) > 0 {
			s.logger.Debug("track matched", "tier", tier.name, "song", song, "uri", res.Tracks.Items[0].URI)
			return res.Tracks.Items[0].URI, nil
		}
	}

	s.logger.Debug("track not found", "song", song, "artist", artist)
	return "", nil
}

// CreatePlaylist creates an empty playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if userID == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: user id and playlist name are required", shared.ErrInvalidInput)
	}

	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		Public:      created.Public,
		URI:         created.URI,
		Tracks:      []string{},
	}, nil
}

// AddTracks appends uris to a playlist, preserving order.
//
// Up to [maxTracksPerRequest] URIs go in a single request.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	for start := 0; start < len(uris); start += maxTracksPerRequest {
		end := min(start+maxTracksPerRequest, len(uris))
		body := map[string]any{"uris": uris[start:end]}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// ArtistImage returns the largest image of the first artist matching name, or "".
func (s *SpotifyService) ArtistImage(ctx context.Context, name string) (string, error) {
	res, err := s.search(ctx, name, "artist")
	if err != nil {
		return "", err
	}
	if len(res.Artists.Items) == 0 {
		return "", nil
	}
	return res.Artists.Items[0].LargestImage(), nil
}

// UploadCover downloads imageURL, prepares it with [PrepareCoverImage] and sets it as the playlist cover.
func (s *SpotifyService) UploadCover(ctx context.Context, playlistID, imageURL string) error {
	if playlistID == "" || imageURL == "" {
		return fmt.Errorf("%w: playlist id and image url are required", shared.ErrInvalidInput)
	}

	data, err := DownloadImage(ctx, s.imageClient, imageURL)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrImageUpload, err)
	}

	cover, err := PrepareCoverImage(data)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrImageUpload, err)
	}

	encoded := base64.StdEncoding.EncodeToString(cover)
	endpoint := fmt.Sprintf("/playlists/%s/images", url.PathEscape(playlistID))
	if err := s.send(ctx, http.MethodPut, endpoint, "image/jpeg", []byte(encoded), nil); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrImageUpload, err)
	}

	s.logger.Info("cover uploaded", "playlist", playlistID, "bytes", len(cover))
	return nil
}
