package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/services"
	"github.com/desertthunder/setlistify/internal/session"
	"github.com/desertthunder/setlistify/internal/shared"
	"github.com/desertthunder/setlistify/internal/tasks"
	tu "github.com/desertthunder/setlistify/internal/testing"
	"golang.org/x/oauth2"
)

type fakeSetlists struct {
	setlist *models.Setlist
}

func (f *fakeSetlists) SearchArtist(ctx context.Context, name string) *models.Artist {
	if f.setlist == nil || !shared.SameName(name, f.setlist.Artist.Name) {
		return nil
	}
	return &f.setlist.Artist
}

func (f *fakeSetlists) LatestSetlist(ctx context.Context, mbid string) *models.Setlist {
	return f.setlist
}

type fakeAuth struct {
	catalog *tu.MockCatalog
}

func (f *fakeAuth) GetAuthURL(state string) string { return "https://example.com/authorize" }

func (f *fakeAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: code}, nil
}

func (f *fakeAuth) Bind(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) services.Catalog {
	return f.catalog
}

type fixture struct {
	model   *Model
	store   *session.MemoryStore
	session *session.Session
	catalog *tu.MockCatalog
}

func newFixture(t *testing.T, connect ConnectFunc) *fixture {
	t.Helper()

	logger := log.New(io.Discard)
	setlist := tu.RadioheadSetlist("01-05-2025")
	setlist.Artist.Name = "Radiohead"

	catalog := tu.NewMockCatalog(map[string]string{
		"Paranoid Android": "spotify:track:pa",
		"Creep":            "spotify:track:creep",
	})
	store := session.NewMemoryStore()
	auth := session.NewAuthProvider(&fakeAuth{catalog: catalog}, store, logger)
	sess := session.NewManager(store, logger).Start("tui")
	engine := tasks.NewPlaylistEngine(&fakeSetlists{setlist: &setlist}, nil, logger)

	m := NewModel(context.Background(), engine, auth, sess, connect)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return &fixture{model: m, store: store, session: sess, catalog: catalog}
}

func enter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// search types query, presses enter and delivers the lookup result.
func search(t *testing.T, m *Model, query string) {
	t.Helper()

	m.search.SetValue(query)
	m.Update(enter())
	if m.view != LookupView {
		t.Fatalf("expected lookup view, got %v", m.view)
	}
	m.Update(m.lookupCmd(query)())
}

// drain runs the build progress loop until the build finishes.
func drain(m *Model) {
	for m.view == BuildView {
		m.Update(waitForProgress(m.progressChan, m.doneChan)())
	}
}

func TestSearch(t *testing.T) {
	t.Run("Empty Query Is Ignored", func(t *testing.T) {
		f := newFixture(t, nil)
		f.model.Update(enter())
		if f.model.view != SearchView {
			t.Errorf("expected to stay in search view, got %v", f.model.view)
		}
	})

	t.Run("Found", func(t *testing.T) {
		f := newFixture(t, nil)
		search(t, f.model, "radiohead")

		if f.model.view != SetlistView {
			t.Fatalf("expected setlist view, got %v", f.model.view)
		}
		if n := len(f.model.songs.Items()); n != 3 {
			t.Errorf("expected 3 songs, got %d", n)
		}
		query, artist, setlist := f.session.Selection()
		if query != "radiohead" || artist == nil || setlist == nil {
			t.Error("expected selection to be recorded on the session")
		}
		if !strings.Contains(f.model.View(), "2. Creep") {
			t.Errorf("expected numbered songs in view:\n%s", f.model.View())
		}
	})

	t.Run("Not Found Is A Warning", func(t *testing.T) {
		f := newFixture(t, nil)
		search(t, f.model, "Nobody")

		if f.model.view != SearchView {
			t.Errorf("expected search view, got %v", f.model.view)
		}
		if !strings.Contains(f.model.warning, "No artist") {
			t.Errorf("unexpected warning %q", f.model.warning)
		}
		if f.model.err != nil {
			t.Errorf("expected no fatal error, got %v", f.model.err)
		}
	})

	t.Run("Configuration Error Is Fatal", func(t *testing.T) {
		f := newFixture(t, nil)
		f.model.Update(lookupDoneMsg("x", nil, shared.ErrMissingCredentials))

		if f.model.err == nil {
			t.Fatal("expected fatal error")
		}
		_, cmd := f.model.Update(runes("x"))
		if cmd == nil {
			t.Error("expected quit after fatal error")
		}
	})
}

func TestConnectContinuation(t *testing.T) {
	var f *fixture
	f = newFixture(t, func(ctx context.Context) error {
		return f.store.Save(ctx, f.session.ID, &oauth2.Token{AccessToken: "a"})
	})
	m := f.model

	search(t, m, "Radiohead")
	m.Update(enter())
	if m.view != ConnectView {
		t.Fatalf("expected connect view, got %v", m.view)
	}

	// the selection is dropped while the browser flow runs
	m.session.Select("", nil, nil)
	m.Update(connectDoneMsg(m.connect(m.ctx)))

	if !m.connected {
		t.Error("expected connected after authorization")
	}
	if m.view != ConfirmView {
		t.Fatalf("expected confirm view, got %v", m.view)
	}
	if m.name.Value() != "Radiohead - Madison Square Garden (01-05-2025)" {
		t.Errorf("unexpected default name %q", m.name.Value())
	}
	if m.session.Resume() != nil {
		t.Error("expected continuation to be consumed")
	}
}

func TestConnectFailure(t *testing.T) {
	f := newFixture(t, func(context.Context) error { return shared.ErrAuthFailed })
	m := f.model

	search(t, m, "Radiohead")
	m.Update(enter())
	m.Update(connectDoneMsg(m.connect(m.ctx)))

	if m.view != SetlistView {
		t.Errorf("expected to return to setlist view, got %v", m.view)
	}
	if m.connected || !strings.Contains(m.warning, "Could not connect") {
		t.Errorf("unexpected state connected=%v warning=%q", m.connected, m.warning)
	}
}

func TestBuild(t *testing.T) {
	t.Run("Partial Match Succeeds", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.model
		f.store.Save(context.Background(), f.session.ID, &oauth2.Token{AccessToken: "a"})
		m.connected = true

		search(t, m, "Radiohead")
		m.Update(enter())
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %v", m.view)
		}

		m.Update(enter())
		drain(m)

		if m.view != ResultView || m.buildErr != nil {
			t.Fatalf("expected successful result, got view %v err %v", m.view, m.buildErr)
		}
		if m.result.Added() != 2 || len(m.result.NotFound) != 1 {
			t.Errorf("unexpected result %+v", m.result)
		}
		view := m.View()
		if !strings.Contains(view, "Nobody Does It Better") || !strings.Contains(view, "open.spotify.com/playlist/") {
			t.Errorf("expected link and missing song in view:\n%s", view)
		}
	})

	t.Run("Expired Session Reconnects", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.model
		m.connected = true

		search(t, m, "Radiohead")
		m.Update(enter())
		m.Update(enter())

		if m.view != ConnectView {
			t.Errorf("expected connect view when the token is missing, got %v", m.view)
		}
	})

	t.Run("Create Failure", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.model
		f.catalog.CreateErr = errors.New("forbidden")
		f.store.Save(context.Background(), f.session.ID, &oauth2.Token{AccessToken: "a"})
		m.connected = true

		search(t, m, "Radiohead")
		m.Update(enter())
		m.Update(enter())
		drain(m)

		if !errors.Is(m.buildErr, shared.ErrPlaylistCreate) {
			t.Errorf("expected ErrPlaylistCreate, got %v", m.buildErr)
		}
		if !strings.Contains(m.View(), "Build failed") {
			t.Errorf("expected error banner:\n%s", m.View())
		}
	})
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t, nil)
	m := f.model
	ctx := context.Background()
	f.store.Save(ctx, f.session.ID, &oauth2.Token{AccessToken: "a"})
	m.connected = true

	search(t, m, "Radiohead")
	m.Update(runes("d"))

	if m.connected || m.view != SearchView {
		t.Errorf("expected disconnected search view, got connected=%v view=%v", m.connected, m.view)
	}
	if _, err := f.store.Load(ctx, f.session.ID); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected token to be evicted, got %v", err)
	}
	if _, artist, _ := f.session.Selection(); artist != nil {
		t.Error("expected selection to be cleared")
	}
}
