package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./setlistify.db" {
			t.Errorf("expected database path ./setlistify.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Setlist.MaxPages != 5 {
			t.Errorf("expected max pages 5, got %d", config.Setlist.MaxPages)
		}

		if config.Setlist.RecentDays != 365 {
			t.Errorf("expected recent days 365, got %d", config.Setlist.RecentDays)
		}

		if config.Credentials.SetlistFM.BaseURL != "https://api.setlist.fm/rest/1.0" {
			t.Errorf("unexpected setlist.fm base URL %s", config.Credentials.SetlistFM.BaseURL)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Server.Addr() != "127.0.0.1:3000" {
			t.Errorf("expected addr 127.0.0.1:3000, got %s", config.Server.Addr())
		}

		if config.Setlist.RetryWaitCap() != 0 {
			t.Errorf("expected uncapped retry wait, got %v", config.Setlist.RetryWaitCap())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:8080/callback"

[credentials.setlistfm]
api_key = "test_api_key"

[setlist]
max_pages = 3
max_retry_wait = 30
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Credentials.SetlistFM.APIKey != "test_api_key" {
			t.Errorf("expected api key test_api_key, got %s", config.Credentials.SetlistFM.APIKey)
		}

		if config.Setlist.MaxPages != 3 {
			t.Errorf("expected max pages 3, got %d", config.Setlist.MaxPages)
		}

		if config.Setlist.RecentDays != 365 {
			t.Errorf("expected default recent days to survive, got %d", config.Setlist.RecentDays)
		}

		if config.Setlist.RetryWaitCap() != 30*time.Second {
			t.Errorf("expected retry cap 30s, got %v", config.Setlist.RetryWaitCap())
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("SaveConfig round trips", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Session.ID = "session-123"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if loaded.Session.ID != "session-123" {
			t.Errorf("expected session id session-123, got %s", loaded.Session.ID)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		config := DefaultConfig()
		env := map[string]string{
			"SETLISTFM_API_KEY": "env-key",
			"SPOTIFY_CLIENT_ID": "env-client",
			"LOG_LEVEL":         "debug",
		}
		config.ApplyEnv(func(k string) string { return env[k] })

		if config.Credentials.SetlistFM.APIKey != "env-key" {
			t.Errorf("expected env api key, got %s", config.Credentials.SetlistFM.APIKey)
		}
		if config.Credentials.Spotify.ClientID != "env-client" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "your_spotify_client_secret" {
			t.Errorf("unset env var should not override, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %s", config.Log.Level)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config.Credentials.SetlistFM.APIKey = "key"
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}

		config.Session.Store = "redis"
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
