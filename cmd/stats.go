package main

import (
	"context"

	"github.com/desertthunder/focusdeck/internal/models"
	"github.com/desertthunder/focusdeck/internal/progress"
	"github.com/urfave/cli/v3"
)

// Stats prints the current counters and achievement table.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStore(); err != nil {
		return err
	}

	stats, achievements := r.engine.Load(r.userID())

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Stats        models.SessionStats  `json:"stats"`
			Achievements []models.Achievement `json:"achievements"`
		}{stats, achievements}, true)
	}

	r.writePlain("Sessions completed: %d\n", stats.SessionsCompleted)
	r.writePlain("Total focus time:   %dm\n", stats.TotalFocusMinutes)
	r.writePlain("Current streak:     %d\n", stats.CurrentStreak)

	unlocked, inProgress, locked := progress.Partition(achievements)

	r.writePlainln("Achievements (%d/%d unlocked)", len(unlocked), len(achievements))
	for _, a := range unlocked {
		r.writePlain("  ✓ %s - %s\n", a.Title, a.Description)
	}
	for _, a := range inProgress {
		r.writePlain("  · %s (%d/%d) - %s\n", a.Title, a.Progress, a.MaxProgress, a.Description)
	}
	for _, a := range locked {
		r.writePlain("  ○ %s - %s\n", a.Title, a.Description)
	}

	return nil
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show session counters and achievements",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Stats,
	}
}
