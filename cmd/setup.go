package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/focusdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup initializes the configuration file, database, and schema.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
		r.writePlain("✓ Created %s\n", configPath)
	} else {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		r.config = config
	}

	if err := r.ensureStore(); err != nil {
		return err
	}

	r.logger.Infof("running migrations against %v", r.config.Database.Path)
	if err := shared.RunMigrations(r.db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
	return nil
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config, database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
