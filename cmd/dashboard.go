package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/focusdeck/internal/tasks"
	"github.com/desertthunder/focusdeck/internal/timer"
	"github.com/desertthunder/focusdeck/internal/ui"
	"github.com/urfave/cli/v3"
)

// Dashboard launches the interactive terminal dashboard.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStore(); err != nil {
		return err
	}

	t := timer.New(r.config.Timer.FocusMinutes*60, r.config.Timer.BreakMinutes*60)
	sessions := tasks.NewSessionEngine(r.engine, r.logger)

	var poller *tasks.NowPlayingPoller
	if svc, err := r.ensureSpotify(); err == nil && svc.IsAuthenticated() {
		poller = tasks.NewNowPlayingPoller(svc, tasks.DefaultPollInterval, r.logger)
	} else if err != nil {
		r.logger.Warnf("spotify unavailable, dashboard runs without now-playing: %v", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, r.userID(), t, r.engine, sessions, poller)
	program := tea.NewProgram(model, tea.WithAltScreen())

	_, err := program.Run()
	return err
}

func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"tui"},
		Usage:   "Launch the interactive dashboard",
		Action:  r.Dashboard,
	}
}
