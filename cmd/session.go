package main

import (
	"context"

	"github.com/desertthunder/focusdeck/internal/tasks"
	"github.com/desertthunder/focusdeck/internal/timer"
	"github.com/urfave/cli/v3"
)

// SessionComplete records one completed focus session for the current user.
//
// Runs the same update cycle the dashboard timer triggers: increment
// counters, recompute achievements, persist.
func (r *Runner) SessionComplete(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStore(); err != nil {
		return err
	}

	engine := tasks.NewSessionEngine(r.engine, r.logger)
	result, err := engine.HandleCompletion(r.userID(), timer.Completion{Phase: timer.Focus})
	if err != nil {
		return err
	}

	r.writePlain("✓ Focus session recorded\n")
	r.writePlain("  Sessions: %d   Focus: %dm   Streak: %d\n",
		result.Stats.SessionsCompleted, result.Stats.TotalFocusMinutes, result.Stats.CurrentStreak)

	for _, a := range result.NewlyUnlocked {
		r.writePlain("★ Achievement unlocked: %s - %s\n", a.Title, a.Description)
	}

	return nil
}

// SessionLog lists recent completed sessions for the current user.
func (r *Runner) SessionLog(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStore(); err != nil {
		return err
	}

	records, err := r.sessions.List(map[string]any{
		"user_id": r.userID(),
		"limit":   int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		return r.writePlain("No sessions recorded yet\n")
	}

	for _, rec := range records {
		r.writePlain("%s  %s  %dm\n",
			rec.CompletedAt.Format("2006-01-02 15:04"), rec.Phase, rec.DurationSeconds/60)
	}

	return nil
}

func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Record and inspect focus sessions",
		Commands: []*cli.Command{
			{
				Name:   "complete",
				Usage:  "Record a completed focus session",
				Action: r.SessionComplete,
			},
			{
				Name:  "log",
				Usage: "List recent sessions",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of sessions to list",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SessionLog,
			},
		},
	}
}
