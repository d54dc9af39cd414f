package main

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlistify/internal/repositories"
	"github.com/desertthunder/setlistify/internal/services"
	"github.com/desertthunder/setlistify/internal/session"
	"github.com/desertthunder/setlistify/internal/shared"
	"github.com/desertthunder/setlistify/internal/tasks"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if p := os.Getenv("SETLISTIFY_CONFIG"); p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	config.ApplyEnv(nil)
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	opts := RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	}

	if svc, err := services.NewSetlistService(config.Credentials.SetlistFM, config.Setlist, logger); err == nil {
		opts.Setlists = svc
	} else {
		logger.Debug("setlist.fm client not configured", "error", err)
	}

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), logger); err == nil {
			opts.Spotify = svc
		} else {
			logger.Debug("spotify client not configured", "error", err)
		}
	}

	db := openStores(config, &opts, logger)
	if db != nil {
		defer db.Close()
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "setlistify",
		Usage:    "Turn an artist's latest setlist into a Spotify playlist",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// openStores wires the SQLite token store and build history when session.store is sqlite.
// It falls back to the in-memory store when the database cannot be opened.
func openStores(config *shared.Config, opts *RunnerOpts, logger *log.Logger) *sql.DB {
	if config.Session.Store != "sqlite" {
		opts.Store = session.NewMemoryStore()
		return nil
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		logger.Warn("database unavailable, tokens will not persist", "path", config.Database.Path, "error", err)
		opts.Store = session.NewMemoryStore()
		return nil
	}

	opts.Store = repositories.NewSessionRepository(db)
	opts.Recorder = tasks.BuildRecorder(repositories.NewBuildRepository(db))
	return db
}
