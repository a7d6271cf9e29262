package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bgmx/internal/formatter"
	"github.com/desertthunder/bgmx/internal/services"
	"github.com/desertthunder/bgmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	transport http.RoundTripper
	logger    *log.Logger
	output    io.Writer
	palette   *formatter.Palette
	now       func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config    *shared.Config    // used when the --config file does not exist
	Transport http.RoundTripper // base transport for bangumi requests
	Logger    *log.Logger
	Output    io.Writer
	Now       func() time.Time
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
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:    opts.Config,
		transport: opts.Transport,
		logger:    opts.Logger,
		output:    opts.Output,
		palette:   formatter.DefaultPalette,
		now:       opts.Now,
	}
}

func (r *Runner) app() *cli.Command {
	return rootCommand(r)
}

// before applies root flags that affect every command.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){setupCommand, historyCommand} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads path when it exists, falling back to the runner's config, then applies the environment.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	var config *shared.Config
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return nil, err
		}
		r.logger.Debug("loaded config", "path", path)
	} else if errors.Is(err, fs.ErrNotExist) {
		copied := *r.config
		config = &copied
	} else {
		return nil, fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
	}

	config.ApplyEnv()
	return config, nil
}

// bangumi builds the bangumi client for config.
func (r *Runner) bangumi(config *shared.Config) *services.BangumiService {
	return services.NewBangumiServiceFromConfig(config, r.transport)
}

func (r *Runner) writeJSON(data any) error {
	return formatter.WriteJSON(r.output, data)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
