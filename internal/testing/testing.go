// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/services"
)

// MockCatalog is a test double for [services.Catalog].
//
// SearchTrack answers from Tracks by song name; songs missing from Tracks are misses.
type MockCatalog struct {
	mu sync.Mutex

	UserID    string
	Tracks    map[string]string
	SearchErr map[string]error
	UserErr   error
	CreateErr error
	AddErr    error

	Searches []string
	Created  []*models.Playlist
	Added    map[string][]string
	AddCalls int

	Images   map[string]string // Artist name to image URL
	CoverErr error
	Covers   map[string]string // Playlist ID to uploaded image URL
}

var _ services.Catalog = (*MockCatalog)(nil)

// NewMockCatalog returns a catalog for user-1 that knows tracks.
func NewMockCatalog(tracks map[string]string) *MockCatalog {
	return &MockCatalog{UserID: "user-1", Tracks: tracks, Added: map[string][]string{}}
}

func (m *MockCatalog) SearchTrack(ctx context.Context, song, artist string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches = append(m.Searches, song)
	if err, ok := m.SearchErr[song]; ok {
		return "", err
	}
	return m.Tracks[song], nil
}

func (m *MockCatalog) CurrentUserID(ctx context.Context) (string, error) {
	if m.UserErr != nil {
		return "", m.UserErr
	}
	return m.UserID, nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	p := &models.Playlist{
		ID:          fmt.Sprintf("playlist-%d", len(m.Created)+1),
		Name:        name,
		Description: description,
		Public:      public,
		Tracks:      []string{},
	}
	m.Created = append(m.Created, p)
	return p, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls++
	if m.AddErr != nil {
		return m.AddErr
	}
	if m.Added == nil {
		m.Added = map[string][]string{}
	}
	m.Added[playlistID] = append(m.Added[playlistID], uris...)
	return nil
}

func (m *MockCatalog) ArtistImage(ctx context.Context, name string) (string, error) {
	return m.Images[name], nil
}

func (m *MockCatalog) UploadCover(ctx context.Context, playlistID, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CoverErr != nil {
		return m.CoverErr
	}
	if m.Covers == nil {
		m.Covers = map[string]string{}
	}
	m.Covers[playlistID] = imageURL
	return nil
}

// RadioheadSetlist is a recent show with a main set and one encore that includes a cover.
func RadioheadSetlist(eventDate string) models.Setlist {
	return models.Setlist{
		ID:        "rh-setlist",
		EventDate: eventDate,
		Artist:    models.Artist{MBID: "a74b1b7f-71a5-4011-9441-d0b5e4122711", Name: "Radiohead"},
		Venue: models.Venue{
			Name: "Madison Square Garden",
			City: models.City{Name: "New York", Country: models.Country{Code: "US", Name: "United States"}},
		},
		Sets: models.Sets{Set: []models.Set{
			{Songs: []models.SetSong{{Name: "Paranoid Android"}}},
			{Name: "Encore", Encore: 1, Songs: []models.SetSong{
				{Name: "Creep"},
				{Name: "Nobody Does It Better", Cover: &models.Cover{Name: "Carly Simon"}},
			}},
		}},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
