package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cratebot/cratebot/internal/announce"
	"github.com/cratebot/cratebot/internal/discovery"
	"github.com/cratebot/cratebot/internal/ingest"
	"github.com/cratebot/cratebot/internal/playlists"
	"github.com/cratebot/cratebot/internal/scheduler"
	"github.com/cratebot/cratebot/internal/shared"
	"github.com/cratebot/cratebot/internal/spotify"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		// Never http.DefaultClient: a hung request would hold the API
		// client's in-flight slot with no deadline.
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// bot is the fully wired dependency graph behind every command that talks
// to the Spotify API.
type bot struct {
	config    *shared.Config
	client    *spotify.Client
	store     *playlists.Store
	pipeline  *discovery.Pipeline
	scheduler *scheduler.Scheduler
	processor *ingest.Processor
	announcer announce.Announcer
}

// bootstrap loads and validates configuration, then wires the full service
// graph. Commands that only touch local files skip this.
func (r *Runner) bootstrap(configPath string) (*bot, error) {
	config := r.config
	if config == nil {
		var err error
		config, err = shared.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tokens := spotify.NewTokenManager(config.Credentials, r.httpClient, r.logger)
	client := spotify.NewClient(
		tokens,
		spotify.PolicyFromConfig(config.Retry),
		r.logger,
		spotify.WithHTTPClient(r.httpClient),
	)
	store := playlists.NewStore(client, r.logger)
	pipeline := discovery.New(client, store, config.Playlists, r.logger)
	announcer := announce.NewConsole(r.output)

	return &bot{
		config:    config,
		client:    client,
		store:     store,
		pipeline:  pipeline,
		scheduler: scheduler.New(pipeline, announcer, r.logger),
		processor: ingest.NewProcessor(store, client, announcer,
			config.Chat.ChannelID, config.Playlists.CollaborativeID, r.logger),
		announcer: announcer,
	}, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		startCommand, discoverCommand, statsCommand, addCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
