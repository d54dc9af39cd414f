package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlistify/internal/shared"
	"github.com/desertthunder/setlistify/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSetlists(); err != nil {
		return err
	}
	if err := r.requireSpotify(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/setlistify-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	sess := r.sessions.Start(r.sessionID())
	defer r.endSession(context.WithoutCancel(ctx), sess.ID)

	connect := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, authTimeout)
		defer cancel()
		return r.authorize(ctx, r.tuiAuthorizeOpts(sess.ID))
	}

	model := ui.NewModel(ctx, r.engine, r.auth, sess, connect)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
