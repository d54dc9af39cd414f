package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/repositories"
	"github.com/desertthunder/setlistify/internal/server"
	"github.com/desertthunder/setlistify/internal/services"
	"github.com/desertthunder/setlistify/internal/session"
	"github.com/desertthunder/setlistify/internal/shared"
	tu "github.com/desertthunder/setlistify/internal/testing"
	"github.com/urfave/cli/v3"
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

type fakeSpotify struct {
	catalog *tu.MockCatalog
}

func (f *fakeSpotify) GetAuthURL(state string) string {
	return "https://accounts.example/authorize?state=" + state
}

func (f *fakeSpotify) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "access-" + code}, nil
}

func (f *fakeSpotify) Bind(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) services.Catalog {
	return f.catalog
}

// completeAuthorize stands in for the browser round trip.
func completeAuthorize(ctx context.Context, opts server.AuthorizeOpts) error {
	return opts.Complete(ctx, "code")
}

type fixture struct {
	runner  *Runner
	output  *bytes.Buffer
	store   *session.MemoryStore
	catalog *tu.MockCatalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	config := shared.DefaultConfig()
	config.Credentials.SetlistFM.APIKey = "key"
	config.Session.Store = "memory"

	setlist := tu.RadioheadSetlist("01-05-2025")
	catalog := tu.NewMockCatalog(map[string]string{
		"Paranoid Android": "spotify:track:pa",
		"Creep":            "spotify:track:creep",
	})
	store := session.NewMemoryStore()
	output := &bytes.Buffer{}

	r := NewRunner(RunnerOpts{
		Config:    config,
		Setlists:  &fakeSetlists{setlist: &setlist},
		Spotify:   &fakeSpotify{catalog: catalog},
		Store:     store,
		Authorize: completeAuthorize,
		OpenURL:   func(string) error { return nil },
		Logger:    log.New(io.Discard),
		Output:    output,
	})
	return &fixture{runner: r, output: output, store: store, catalog: catalog}
}

// connected stores a token for the CLI session.
func (f *fixture) connected(t *testing.T) {
	t.Helper()
	f.runner.config.Session.ID = "cli"
	if err := f.store.Save(context.Background(), "cli", &oauth2.Token{AccessToken: "a"}); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{
		Name:      "setlistify",
		Commands:  r.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return app.Run(context.Background(), append([]string{"setlistify"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			store := session.NewMemoryStore()
			spotify := &fakeSpotify{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Spotify:    spotify,
				Store:      store,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected configPath custom.toml, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
			if runner.auth == nil {
				t.Error("expected auth provider when spotify is set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.store == nil {
				t.Error("expected memory store to be set")
			}
			if runner.authorize == nil || runner.openURL == nil {
				t.Error("expected default authorize and openURL")
			}
			if runner.auth != nil {
				t.Error("expected no auth provider without spotify")
			}
			if runner.engine == nil || runner.sessions == nil {
				t.Error("expected engine and session manager")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln wraps in newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("done")
			if output.String() != "\ndone\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "setlist", "playlist", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("sessionID", func(t *testing.T) {
		t.Run("generates and saves an id", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := shared.CreateConfigFile(path); err != nil {
				t.Fatalf("failed to create config: %v", err)
			}
			config, err := shared.LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: path, Logger: log.New(io.Discard)})
			id := runner.sessionID()
			if id == "" {
				t.Fatal("expected generated id")
			}
			if again := runner.sessionID(); again != id {
				t.Errorf("expected stable id, got %s then %s", id, again)
			}

			reloaded, err := shared.LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if reloaded.Session.ID != id {
				t.Errorf("expected saved id %s, got %q", id, reloaded.Session.ID)
			}
		})

		t.Run("missing config file keeps the id in memory", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.toml")
			runner := NewRunner(RunnerOpts{ConfigPath: path, Logger: log.New(io.Discard)})

			if runner.sessionID() == "" {
				t.Error("expected generated id")
			}
		})
	})

	t.Run("authorize options", func(t *testing.T) {
		f := newFixture(t)
		f.runner.openURL = func(string) error { return errors.New("no display") }

		opts := f.runner.tuiAuthorizeOpts("s1")
		if err := opts.Open("https://example.com"); err == nil || !strings.Contains(err.Error(), "auth login") {
			t.Errorf("expected login hint, got %v", err)
		}

		if err := f.runner.openAuthURL("https://example.com/authorize"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
		if !strings.Contains(f.output.String(), "https://example.com/authorize") {
			t.Errorf("expected url to be printed, got %q", f.output.String())
		}
	})
}

func TestSetlistShow(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		f := newFixture(t)
		if err := run(f.runner, "setlist", "show", "radiohead"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := f.output.String()
		for _, want := range []string{"Radiohead", "Madison Square Garden", "Paranoid Android", "Nobody Does It Better"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("JSON", func(t *testing.T) {
		f := newFixture(t)
		if err := run(f.runner, "setlist", "show", "--json", "Radiohead"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), `"rh-setlist"`) {
			t.Errorf("expected setlist id in JSON:\n%s", f.output.String())
		}
	})

	t.Run("Unknown Artist Is A Warning", func(t *testing.T) {
		f := newFixture(t)
		if err := run(f.runner, "setlist", "show", "Nobody"); err != nil {
			t.Fatalf("expected soft failure, got %v", err)
		}
		if !strings.Contains(f.output.String(), "No artist named") {
			t.Errorf("expected warning, got %q", f.output.String())
		}
	})

	t.Run("Missing API Key", func(t *testing.T) {
		f := newFixture(t)
		f.runner.config.Credentials.SetlistFM.APIKey = ""

		err := run(f.runner, "setlist", "show", "Radiohead")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Missing Artist", func(t *testing.T) {
		f := newFixture(t)
		if err := run(f.runner, "setlist", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSetlistExport(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(t.TempDir(), "export")

	if err := run(f.runner, "setlist", "export", "--format", "csv", "--out", out, "Radiohead"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tu.AssertDirExists(t, out)
	tu.AssertFileExists(t, filepath.Join(out, "export_manifest.json"))
	if !strings.Contains(f.output.String(), "Exported: 1/1") {
		t.Errorf("expected export summary:\n%s", f.output.String())
	}

	t.Run("Unknown Format", func(t *testing.T) {
		f := newFixture(t)
		err := run(f.runner, "setlist", "export", "--format", "xml", "Radiohead")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

// failingStore is a memory store whose Delete always fails.
type failingStore struct {
	*session.MemoryStore
}

func (failingStore) Delete(ctx context.Context, sessionID string) error {
	return errors.New("disk full")
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Delete Failure Is Logged", func(t *testing.T) {
		logs := &bytes.Buffer{}
		config := shared.DefaultConfig()
		config.Session.Store = "memory"

		r := NewRunner(RunnerOpts{
			Config: config,
			Store:  failingStore{session.NewMemoryStore()},
			Logger: log.New(logs),
			Output: io.Discard,
		})
		sess := r.sessions.Start("tui")

		r.endSession(ctx, sess.ID)

		if !strings.Contains(logs.String(), "failed to end session") || !strings.Contains(logs.String(), "disk full") {
			t.Errorf("expected warning with the store error, got %q", logs.String())
		}
		if _, ok := r.sessions.Get(sess.ID); ok {
			t.Error("expected session to be dropped even when the token delete fails")
		}
	})

	t.Run("Persistent Store Keeps Session", func(t *testing.T) {
		f := newFixture(t)
		f.runner.config.Session.Store = "sqlite"
		sess := f.runner.sessions.Start("cli")
		f.store.Save(ctx, sess.ID, &oauth2.Token{AccessToken: "a"})

		f.runner.endSession(ctx, sess.ID)

		if _, err := f.store.Load(ctx, sess.ID); err != nil {
			t.Errorf("expected token to survive, got %v", err)
		}
	})
}

func TestPlaylistCreate(t *testing.T) {
	t.Run("Partial Match", func(t *testing.T) {
		f := newFixture(t)
		f.connected(t)

		if err := run(f.runner, "playlist", "create", "Radiohead"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(f.catalog.Created) != 1 {
			t.Fatalf("expected one playlist, got %d", len(f.catalog.Created))
		}
		p := f.catalog.Created[0]
		if p.Name != "Radiohead - Madison Square Garden (01-05-2025)" || !p.Public {
			t.Errorf("unexpected playlist %+v", p)
		}
		if got := f.catalog.Added[p.ID]; len(got) != 2 {
			t.Errorf("expected 2 tracks added, got %v", got)
		}

		out := f.output.String()
		if !strings.Contains(out, "Could not find: Nobody Does It Better") {
			t.Errorf("expected missing song report:\n%s", out)
		}
		if !strings.Contains(out, "open.spotify.com/playlist/"+p.ID) {
			t.Errorf("expected playlist link:\n%s", out)
		}
	})

	t.Run("Custom Name And Cover", func(t *testing.T) {
		f := newFixture(t)
		f.connected(t)
		f.catalog.Images = map[string]string{"Radiohead": "https://i.scdn.co/image/rh"}

		if err := run(f.runner, "playlist", "create", "--name", "Live", "--cover", "Radiohead"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p := f.catalog.Created[0]
		if p.Name != "Live" {
			t.Errorf("expected custom name, got %s", p.Name)
		}
		if f.catalog.Covers[p.ID] != "https://i.scdn.co/image/rh" {
			t.Errorf("expected cover upload, got %v", f.catalog.Covers)
		}
	})

	t.Run("Cover Failure Is A Warning", func(t *testing.T) {
		f := newFixture(t)
		f.connected(t)
		f.catalog.Images = map[string]string{"Radiohead": "https://i.scdn.co/image/rh"}
		f.catalog.CoverErr = shared.ErrImageUpload

		if err := run(f.runner, "playlist", "create", "--cover", "Radiohead"); err != nil {
			t.Fatalf("expected build to succeed, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Could not set the playlist cover") {
			t.Errorf("expected cover warning:\n%s", f.output.String())
		}
	})

	t.Run("Not Connected", func(t *testing.T) {
		f := newFixture(t)
		err := run(f.runner, "playlist", "create", "Radiohead")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if len(f.catalog.Created) != 0 {
			t.Error("expected no playlist")
		}
	})

	t.Run("Records History", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}

		f := newFixture(t)
		f.runner.recorder = repositories.NewBuildRepository(db)
		f.runner.SetLogger(f.runner.logger)
		f.connected(t)

		if err := run(f.runner, "playlist", "create", "Radiohead"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f.output.Reset()
		if err := run(f.runner, "playlist", "history"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "done") || !strings.Contains(out, "(2/3)") {
			t.Errorf("expected recorded build:\n%s", out)
		}
	})
}

func TestPlaylistCover(t *testing.T) {
	f := newFixture(t)
	f.connected(t)

	if err := run(f.runner, "playlist", "cover", "--id", "p1", "--url", "https://example.com/a.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.catalog.Covers["p1"] != "https://example.com/a.png" {
		t.Errorf("unexpected covers %v", f.catalog.Covers)
	}
}

func TestPlaylistHistory(t *testing.T) {
	f := newFixture(t)
	err := run(f.runner, "playlist", "history")
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig without a database, got %v", err)
	}
}

func TestAuth(t *testing.T) {
	t.Run("Login Status Logout", func(t *testing.T) {
		f := newFixture(t)

		if err := run(f.runner, "auth", "login"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		id := f.runner.config.Session.ID
		if id == "" {
			t.Fatal("expected login to assign a session id")
		}
		if tok, err := f.store.Load(context.Background(), id); err != nil || tok.AccessToken != "access-code" {
			t.Fatalf("expected stored token, got %v (%v)", tok, err)
		}

		f.output.Reset()
		if err := run(f.runner, "auth", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "User: user-1") {
			t.Errorf("expected user in status:\n%s", f.output.String())
		}

		f.output.Reset()
		if err := run(f.runner, "auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		f.output.Reset()
		run(f.runner, "auth", "status")
		if !strings.Contains(f.output.String(), "Not connected") {
			t.Errorf("expected not connected:\n%s", f.output.String())
		}
	})

	t.Run("Login Timeout", func(t *testing.T) {
		f := newFixture(t)
		f.runner.authorize = func(ctx context.Context, opts server.AuthorizeOpts) error {
			return context.DeadlineExceeded
		}

		err := run(f.runner, "auth", "login")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Spotify Not Configured", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: &bytes.Buffer{}})
		err := run(runner, "auth", "login")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	dir := t.TempDir()
	wd := tu.MustGetwd(t)
	tu.MustChdir(t, dir)
	t.Cleanup(func() { tu.MustChdir(t, wd) })

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: output})

	configPath := filepath.Join(dir, "config.toml")
	if err := run(runner, "setup", "database", "--config", configPath); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	tu.AssertFileExists(t, configPath)
	tu.AssertFileExists(t, filepath.Join(dir, "setlistify.db"))
	if !strings.Contains(tu.MustReadFile(t, configPath), "[credentials.setlistfm]") {
		t.Error("expected config created from template")
	}
	if !strings.Contains(output.String(), "api_key") {
		t.Errorf("expected api key hint, got %q", output.String())
	}

	t.Run("Rollback", func(t *testing.T) {
		output.Reset()
		if err := run(runner, "setup", "database", "--config", configPath, "--rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.Contains(output.String(), "Rolled back") {
			t.Errorf("expected rollback message, got %q", output.String())
		}
	})
}
