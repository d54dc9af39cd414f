package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/setlistify/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin connects the CLI session to Spotify.
//
// Starts a local callback listener, opens the browser for authorization and stores the token for the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	if r.config.Session.Store == "memory" {
		r.logger.Warn("session.store is memory; the token is forgotten when this command exits")
	}

	sessionID := r.sessionID()
	r.logger.Info("starting authorization", "session", sessionID, "addr", r.config.Server.Addr())

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	if err := r.connect(ctx, sessionID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrAuthFailed)
		}
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("You can now use: setlistify playlist create \"artist\"\n")
	return nil
}

// AuthLogout evicts the session's token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	sessionID := r.config.Session.ID
	if sessionID == "" {
		return r.writePlain("Not connected\n")
	}

	if err := r.sessions.Disconnect(ctx, sessionID); err != nil {
		return err
	}
	return r.writePlain("✓ Disconnected from Spotify\n")
}

// AuthStatus reports whether the session has a usable Spotify token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	sessionID := r.config.Session.ID
	if sessionID == "" || !r.auth.Connected(ctx, sessionID) {
		return r.writePlain("Spotify: ✗ Not connected\n")
	}

	catalog, err := r.auth.Catalog(ctx, sessionID)
	if err != nil {
		return err
	}

	userID, err := catalog.CurrentUserID(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrTokenExpired) {
			return r.writePlain("Spotify: ⚠ Token expired, run 'setlistify auth login'\n")
		}
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	r.writePlain("Spotify: ✓ Connected\n")
	r.writePlain("User: %s\n", userID)
	r.writePlain("Session: %s\n", sessionID)
	return nil
}
