package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/server"
	"github.com/desertthunder/setlistify/internal/services"
	"github.com/desertthunder/setlistify/internal/session"
	"github.com/desertthunder/setlistify/internal/shared"
	"github.com/desertthunder/setlistify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long login waits for the browser callback.
const authTimeout = 2 * time.Minute

// buildHistory lists recorded builds. [repositories.BuildRepository] implements it.
type buildHistory interface {
	List(criteria map[string]any) ([]*models.Build, error)
}

// artistImager finds an artist image on the streaming service.
type artistImager interface {
	ArtistImage(ctx context.Context, name string) (string, error)
}

// coverUploader sets a playlist cover from an image URL.
type coverUploader interface {
	UploadCover(ctx context.Context, playlistID, imageURL string) error
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	setlists   services.SetlistProvider
	spotify    session.Authenticator
	store      session.TokenStore
	recorder   tasks.BuildRecorder
	sessions   *session.Manager
	auth       *session.AuthProvider
	authorize  func(ctx context.Context, opts server.AuthorizeOpts) error
	openURL    func(url string) error
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.PlaylistEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Setlists   services.SetlistProvider // nil when setlist.fm is not configured
	Spotify    session.Authenticator    // nil when Spotify is not configured
	Store      session.TokenStore
	Recorder   tasks.BuildRecorder
	Authorize  func(ctx context.Context, opts server.AuthorizeOpts) error
	OpenURL    func(url string) error
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}
	if opts.Authorize == nil {
		opts.Authorize = server.Authorize
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		setlists:   opts.Setlists,
		spotify:    opts.Spotify,
		store:      opts.Store,
		recorder:   opts.Recorder,
		authorize:  opts.Authorize,
		openURL:    opts.OpenURL,
		output:     opts.Output,
	}
	r.SetLogger(opts.Logger)
	return r
}

// SetLogger replaces the logger and rebuilds the components that hold it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.sessions = session.NewManager(r.store, logger)
	if r.spotify != nil {
		r.auth = session.NewAuthProvider(r.spotify, r.store, logger)
	}
	r.engine = tasks.NewPlaylistEngine(r.setlists, r.recorder, logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, setlistCommand, playlistCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireSetlists reports the configuration error that blocks setlist lookups.
func (r *Runner) requireSetlists() error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if r.setlists == nil {
		return fmt.Errorf("%w: setlist.fm client not initialized", shared.ErrMissingCredentials)
	}
	return nil
}

// requireSpotify reports the configuration error that blocks Spotify access.
func (r *Runner) requireSpotify() error {
	if r.auth == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}
	return nil
}

// sessionID returns the configured session id, generating and saving one when empty.
func (r *Runner) sessionID() string {
	if r.config.Session.ID != "" {
		return r.config.Session.ID
	}

	r.config.Session.ID = shared.GenerateID()
	if r.configPath == "" {
		return r.config.Session.ID
	}
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Warn("no config file to save the session id to; run setup database first", "path", r.configPath)
		return r.config.Session.ID
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to save session id", "error", err)
	}
	return r.config.Session.ID
}

// endSession drops a memory-backed session and its token. Persistent sessions outlive the process.
func (r *Runner) endSession(ctx context.Context, id string) {
	if r.config.Session.Store != "memory" {
		return
	}
	if err := r.sessions.End(ctx, id); err != nil {
		r.logger.Warn("failed to end session", "session", id, "error", err)
	}
}

// catalog returns the Spotify client bound to the CLI session.
func (r *Runner) catalog(ctx context.Context) (services.Catalog, error) {
	if err := r.requireSpotify(); err != nil {
		return nil, err
	}

	catalog, err := r.auth.Catalog(ctx, r.sessionID())
	if err != nil {
		return nil, fmt.Errorf("%w (run 'setlistify auth login')", err)
	}
	return catalog, nil
}

// connect runs the browser authorization flow for sessionID.
func (r *Runner) connect(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	opts := r.tuiAuthorizeOpts(sessionID)
	opts.Open = r.openAuthURL
	return r.authorize(ctx, opts)
}

// tuiAuthorizeOpts completes authorization for sessionID. Open fails instead of printing the URL.
func (r *Runner) tuiAuthorizeOpts(sessionID string) server.AuthorizeOpts {
	return server.AuthorizeOpts{
		Addr:        r.config.Server.Addr(),
		RedirectURI: r.config.Credentials.Spotify.RedirectURI,
		AuthURL:     r.auth.AuthURL,
		Complete: func(ctx context.Context, code string) error {
			return r.auth.Complete(ctx, sessionID, code)
		},
		Open: func(url string) error {
			if err := r.openURL(url); err != nil {
				return fmt.Errorf("could not open a browser, run 'setlistify auth login' instead: %w", err)
			}
			return nil
		},
		Logger: r.logger,
	}
}

// openAuthURL opens url in the browser, printing it when that fails.
func (r *Runner) openAuthURL(url string) error {
	if err := r.openURL(url); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", url)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
