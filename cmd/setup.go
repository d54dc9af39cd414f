package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/setlistify/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file if needed, then creates and migrates the database it names.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, created := r.loadOrCreateConfig(configPath)
	if created {
		r.writePlain("✓ Created %s\n", configPath)
	}

	if cmd.Bool("rollback") {
		return r.rollbackDatabase(config.Database.Path)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", config.Database.Path)

	var next []string
	if config.Credentials.SetlistFM.APIKey == "" {
		next = append(next, "set credentials.setlistfm.api_key (or SETLISTFM_API_KEY)")
	}
	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientID == "your_spotify_client_id" {
		next = append(next, "set credentials.spotify.client_id and client_secret")
	}
	if config.Session.Store != "sqlite" {
		next = append(next, `set session.store = "sqlite" to keep tokens and build history between runs`)
	}

	for _, step := range next {
		r.writePlain("Next: %s in %s\n", step, configPath)
	}
	return nil
}

// loadOrCreateConfig reads path, writing the example config there first when it does not exist.
// Any failure falls back to the defaults.
func (r *Runner) loadOrCreateConfig(path string) (*shared.Config, bool) {
	created := false
	if _, err := os.Stat(path); err != nil {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			return shared.DefaultConfig(), false
		}
		created = true
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig(), created
	}
	return config, created
}

func (r *Runner) rollbackDatabase(path string) error {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}
	return r.writePlain("✓ Rolled back the most recent migration in %s\n", path)
}
