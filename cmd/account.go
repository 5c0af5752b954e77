package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/focusdeck/internal/services"
	"github.com/desertthunder/focusdeck/internal/shared"
	"github.com/desertthunder/focusdeck/internal/store"
	"github.com/urfave/cli/v3"
)

// AccountLogin decodes a Google ID token and stores the identity record.
//
// The identity's id becomes the namespace for all per-user stored state.
func (r *Runner) AccountLogin(ctx context.Context, cmd *cli.Command) error {
	credential := cmd.StringArg("credential")
	if credential == "" {
		return fmt.Errorf("%w: credential", shared.ErrMissingArgument)
	}

	if err := r.ensureStore(); err != nil {
		return err
	}

	user, err := services.ParseIdentityToken(credential)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	if err := r.kv.Set(store.Key{Field: store.FieldGoogleUser}, string(encoded)); err != nil {
		return err
	}

	r.logger.Infof("signed in as %v", user.Email)
	return r.writePlain("✓ Signed in as %s <%s>\n", user.Name, user.Email)
}

// AccountStatus prints the signed-in identity, if any.
func (r *Runner) AccountStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStore(); err != nil {
		return err
	}

	user, err := r.currentUser()
	if errors.Is(err, shared.ErrNotSignedIn) {
		return r.writePlain("Not signed in\n")
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Signed in: %s <%s>\n", user.Name, user.Email)
	return nil
}

// AccountLogout removes the stored identity record.
//
// Per-user stats stay in their namespace and reappear on the next sign-in.
func (r *Runner) AccountLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStore(); err != nil {
		return err
	}

	if err := r.kv.Delete(store.Key{Field: store.FieldGoogleUser}); err != nil {
		return err
	}

	return r.writePlain("✓ Signed out\n")
}

func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage the signed-in identity",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with a Google ID token credential",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "credential",
					},
				},
				Action: r.AccountLogin,
			},
			{
				Name:  "status",
				Usage: "Show the signed-in identity",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AccountStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the signed-in identity",
				Action: r.AccountLogout,
			},
		},
	}
}
