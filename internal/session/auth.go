package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlistify/internal/services"
	"github.com/desertthunder/setlistify/internal/shared"
	"golang.org/x/oauth2"
)

// Authenticator performs the OAuth exchange and binds tokens to catalog clients.
//
// [services.SpotifyService] implements it.
type Authenticator interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Bind(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) services.Catalog
}

// AuthProvider supplies per-session catalog access.
type AuthProvider struct {
	auth   Authenticator
	store  TokenStore
	logger *log.Logger
}

// NewAuthProvider creates an AuthProvider.
func NewAuthProvider(auth Authenticator, store TokenStore, logger *log.Logger) *AuthProvider {
	if logger == nil {
		logger = log.Default()
	}
	return &AuthProvider{
		auth:   auth,
		store:  store,
		logger: shared.WithLogger(logger, "component", "auth"),
	}
}

// AuthURL returns the authorization URL carrying state.
func (p *AuthProvider) AuthURL(state string) string {
	return p.auth.GetAuthURL(state)
}

// Complete exchanges code and stores the token for sessionID.
func (p *AuthProvider) Complete(ctx context.Context, sessionID, code string) error {
	token, err := p.auth.Exchange(ctx, code)
	if err != nil {
		return err
	}

	if err := p.store.Save(ctx, sessionID, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	p.logger.Info("spotify account connected", "session", sessionID)
	return nil
}

// Connected reports whether sessionID has a stored token.
func (p *AuthProvider) Connected(ctx context.Context, sessionID string) bool {
	token, err := p.store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			p.logger.Warn("failed to load token", "session", sessionID, "error", err)
		}
		return false
	}
	return token != nil && token.AccessToken != ""
}

// Catalog returns a catalog client bound to the session's token.
//
// Refreshed tokens are saved back to the store.
func (p *AuthProvider) Catalog(ctx context.Context, sessionID string) (services.Catalog, error) {
	token, err := p.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	onRefresh := func(t *oauth2.Token) {
		if err := p.store.Save(context.WithoutCancel(ctx), sessionID, t); err != nil {
			p.logger.Warn("failed to store refreshed token", "session", sessionID, "error", err)
			return
		}
		p.logger.Debug("token refreshed", "session", sessionID)
	}

	return p.auth.Bind(ctx, token, onRefresh), nil
}

// Disconnect evicts the session's token.
func (p *AuthProvider) Disconnect(ctx context.Context, sessionID string) error {
	return p.store.Delete(ctx, sessionID)
}
