package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/focusdeck/internal/server"
	"github.com/desertthunder/focusdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpotifyAuth performs the PKCE authorization flow.
//
// Starts a local HTTP server for the redirect, opens the browser to the
// authorization URL, and waits for the callback to exchange the code.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.ensureSpotify()
	if err != nil {
		return err
	}

	authURL, err := svc.BeginAuthorize()
	if err != nil {
		return err
	}

	callbackHandler := server.NewCallbackHandler(svc)
	router := server.NewBasicRouter()
	router.Handler(callbackHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callbackHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}
	if !result.Authenticated {
		return shared.ErrAuthFailed
	}

	r.writePlainln("✓ Spotify connected")
	return nil
}

// SpotifyNow fetches the currently playing or last played track.
func (r *Runner) SpotifyNow(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.ensureSpotify()
	if err != nil {
		return err
	}

	if !svc.IsAuthenticated() {
		return fmt.Errorf("%w: run `focusdeck spotify auth` first", shared.ErrNotAuthenticated)
	}

	track, err := svc.NowPlaying(ctx)
	if err != nil {
		return err
	}

	if track == nil {
		return r.writePlain("Nothing playing\n")
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, cmd.Bool("pretty"))
	}

	r.writePlain("♪ %s - %s\n", track.Title, track.Artist)
	if track.Album != "" {
		r.writePlain("  Album: %s\n", track.Album)
	}
	r.writePlain("  Length: %d:%02d\n", track.Duration/60, track.Duration%60)
	if track.ExternalURL != "" {
		r.writePlain("  %s\n", track.ExternalURL)
	}

	return nil
}

// SpotifyLogout discards the stored Spotify token.
func (r *Runner) SpotifyLogout(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.ensureSpotify()
	if err != nil {
		return err
	}

	if err := svc.Logout(); err != nil {
		return err
	}

	return r.writePlain("✓ Spotify disconnected\n")
}

func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify now-playing operations",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authorize with Spotify using the PKCE flow",
				Action: r.SpotifyAuth,
			},
			{
				Name:  "now",
				Usage: "Show the currently playing or last played track",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SpotifyNow,
			},
			{
				Name:   "logout",
				Usage:  "Discard the stored Spotify token",
				Action: r.SpotifyLogout,
			},
		},
	}
}
