package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/focusdeck/internal/models"
	"github.com/desertthunder/focusdeck/internal/progress"
	"github.com/desertthunder/focusdeck/internal/services"
	"github.com/desertthunder/focusdeck/internal/shared"
	"github.com/desertthunder/focusdeck/internal/store"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	db       *sql.DB
	kv       store.KV
	sessions *store.SessionLogRepository
	engine   *progress.Engine
	spotify  *services.SpotifyService
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	DB     *sql.DB
	KV     store.KV
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	runner := &Runner{
		config: opts.Config,
		db:     opts.DB,
		kv:     opts.KV,
		logger: opts.Logger,
		output: opts.Output,
	}

	if runner.db != nil && runner.kv == nil {
		runner.kv = store.NewSQLStore(runner.db)
	}
	if runner.db != nil {
		runner.sessions = store.NewSessionLogRepository(runner.db)
	}
	if runner.kv != nil {
		runner.engine = progress.NewEngine(runner.kv, runner.sessions, runner.logger)
	}

	return runner
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, accountCommand, spotifyCommand, sessionCommand, statsCommand, dashboardCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureStore opens the database and builds the store-backed dependencies on
// first use, so commands work without requiring setup to run in-process.
func (r *Runner) ensureStore() error {
	if r.kv != nil && r.engine != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return err
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.db = db
	}

	if r.kv == nil {
		r.kv = store.NewSQLStore(r.db)
	}
	if r.sessions == nil {
		r.sessions = store.NewSessionLogRepository(r.db)
	}
	if r.engine == nil {
		r.engine = progress.NewEngine(r.kv, r.sessions, r.logger)
	}

	return nil
}

// currentUser returns the signed-in identity, or shared.ErrNotSignedIn.
func (r *Runner) currentUser() (*models.User, error) {
	raw, err := r.kv.Get(store.Key{Field: store.FieldGoogleUser})
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrNotSignedIn
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: google_user: %v", shared.ErrStorageParse, err)
	}

	return &user, nil
}

// userID returns the storage namespace: the signed-in user's id, or the
// unscoped namespace when no user is known.
func (r *Runner) userID() string {
	user, err := r.currentUser()
	if err != nil {
		return ""
	}
	return user.ID
}

// ensureSpotify builds the Spotify client scoped to the current user.
func (r *Runner) ensureSpotify() (*services.SpotifyService, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	if err := r.ensureStore(); err != nil {
		return nil, err
	}

	svc, err := services.NewSpotifyService(r.config.Spotify, r.kv, r.userID(), r.logger)
	if err != nil {
		return nil, err
	}

	r.spotify = svc
	return svc, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
