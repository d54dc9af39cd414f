package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlistify/internal/shared"
)

// AuthorizeOpts configures [Authorize].
type AuthorizeOpts struct {
	Addr        string // Callback listener address, matching the registered redirect URI
	RedirectURI string // Only its path is used; empty serves DefaultCallbackPath
	AuthURL     func(state string) string
	Complete    CompleteFunc
	Open        func(url string) error // Sends the user to the authorization URL, usually a browser
	Logger      *log.Logger
}

// Authorize runs the authorization code flow against a temporary callback listener.
//
// It blocks until the callback completes or ctx is done. The listener is always shut down before returning.
func Authorize(ctx context.Context, opts AuthorizeOpts) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	state := shared.GenerateID()
	handler := NewOAuthHandler(state, opts.Complete)
	handler.path = CallbackPath(opts.RedirectURI)

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan string, 1)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- Serve(ctx, opts.Addr, router, ready)
	}()

	select {
	case addr := <-ready:
		logger.Debug("callback listener ready", "addr", addr)
	case err := <-serveErr:
		return err
	}

	if err := opts.Open(opts.AuthURL(state)); err != nil {
		return fmt.Errorf("failed to open authorization url: %w", err)
	}

	select {
	case res := <-handler.Result():
		cancel()
		<-serveErr
		if err := res.Error(); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		return nil
	case err := <-serveErr:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err == nil {
			err = errors.New("callback listener stopped")
		}
		return err
	case <-ctx.Done():
		<-serveErr
		return ctx.Err()
	}
}
