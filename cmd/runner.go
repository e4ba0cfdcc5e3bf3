package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/storage"
	"github.com/desertthunder/cinex/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	session    *session.Manager
	store      storage.Store
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	exporter   *tasks.Exporter
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Session    *session.Manager
	Store      storage.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		session:    opts.Session,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if opts.API != nil {
		r.exporter = tasks.NewExporter(opts.API, opts.Logger)
	}
	return r
}

// SetLogger replaces the logger used by the runner and its dependencies.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.api != nil {
		r.api.SetLogger(shared.WithLogger(l, "component", "api"))
		r.exporter = tasks.NewExporter(r.api, l)
	}
	if r.session != nil {
		r.session.SetLogger(shared.WithLogger(l, "component", "session"))
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, recsCommand, watchlistCommand,
		historyCommand, profileCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "cinex",
		Usage:    "Browse movies, manage your watchlist and get recommendations",
		Version:  "0.1.0",
		Writer:   r.output,
		Commands: r.register(),
	}
}

// initSession computes the session state from storage on first use.
func (r *Runner) initSession(ctx context.Context) (session.State, error) {
	if r.session == nil {
		return session.StateAnonymous, fmt.Errorf("%w: session manager not initialized", shared.ErrServiceUnavailable)
	}
	return r.session.Init(ctx), nil
}

// requireAuth fails unless the session holds a validated token.
func (r *Runner) requireAuth(ctx context.Context) error {
	state, err := r.initSession(ctx)
	if err != nil {
		return err
	}
	if state != session.StateAuthenticated {
		return fmt.Errorf("%w: run 'cinex auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// observe passes err through the session so an unauthorized response ends it.
func (r *Runner) observe(ctx context.Context, err error) error {
	if err == nil || r.session == nil {
		return err
	}
	if r.session.Observe(ctx, err) {
		r.logger.Warn("session expired, log in again")
	}
	return err
}

func (r *Runner) service() error {
	if r.api == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func movieIDArg(cmd *cli.Command, name string) (int, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

// writeResult writes data as JSON when asked, otherwise the rendered text.
func (r *Runner) writeResult(cmd *cli.Command, data any, text string) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", text)
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
