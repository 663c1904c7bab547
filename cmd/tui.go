package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stagelist/internal/metronome"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/desertthunder/stagelist/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive stage list editor.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.UI.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	pulses := make(chan metronome.Pulse, 16)
	e, err := r.open(ctx, openOpts{audio: true, hook: ui.PulseHook(pulses), offline: true, logger: fileLogger})
	if err != nil {
		return err
	}

	if e.auth != nil {
		unsubscribe := e.session.WatchAuth(ctx, e.auth)
		defer unsubscribe()
	}

	model := ui.NewModel(ctx, e.session, pulses, fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	loadCtx, cancelLoad := context.WithCancel(ctx)
	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		if e.auth == nil {
			return
		}
		_, err := e.connect(loadCtx, nil)
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return
		}
		p.Send(ui.CloudLoadedMsg(err))
	}()

	_, runErr := p.Run()
	cancelLoad()
	<-loaded
	if runErr != nil {
		runErr = fmt.Errorf("error running TUI: %w", runErr)
	}
	return errors.Join(runErr, e.Close(context.WithoutCancel(ctx)))
}
