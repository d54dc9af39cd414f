// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage: "Create config.toml if missing, initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles connecting the session to Spotify
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify connection",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Connect Spotify using OAuth2 in the browser",
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Disconnect Spotify and forget the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether this session is connected",
				Action: r.AuthStatus,
			},
		},
	}
}

// setlistCommand handles setlist.fm lookups
func setlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "setlist",
		Aliases: []string{"sl"},
		Usage:   "setlist.fm lookups",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show an artist's latest setlist from the last 12 months",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "artist"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SetlistShow,
			},
			{
				Name:  "export",
				Usage: "Export the latest setlists of several artists to files",
				Arguments: []cli.Argument{
					&cli.StringArgs{Name: "artists", Min: 1, Max: -1},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: setlist_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent file writers",
						Value: 3,
					},
				},
				Action: r.SetlistExport,
			},
		},
	}
}

// playlistCommand handles Spotify playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a public playlist from an artist's latest setlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "artist"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Playlist name (default: {artist} - {venue} ({date}))",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.BoolFlag{
						Name:  "cover",
						Usage: "Use the artist's image as the playlist cover",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "cover",
				Usage: "Set a playlist cover from an image URL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Image URL (JPEG, PNG, GIF or WebP)",
						Required: true,
					},
				},
				Action: r.PlaylistCover,
			},
			{
				Name:  "history",
				Usage: "List recorded playlist builds",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of builds to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistHistory,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive flow.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Search setlists and build playlists interactively",
		Action:  r.TUI,
	}
}
