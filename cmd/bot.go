// submodule bot contains the command actions
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cratebot/cratebot/internal/discovery"
	"github.com/cratebot/cratebot/internal/models"
	"github.com/cratebot/cratebot/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 30 * time.Second

// Start wires the bot and runs the discovery schedule until interrupted.
func (r *Runner) Start(ctx context.Context, cmd *cli.Command) error {
	b, err := r.bootstrap(cmd.String("config"))
	if err != nil {
		return err
	}

	expression := cmd.String("cron")
	if expression == "" {
		expression = b.config.Schedule.Cron
	}

	if err := b.scheduler.Start(expression); err != nil {
		return err
	}
	if next, ok := b.scheduler.NextRun(); ok {
		r.writePlain("Scheduler running, next discovery run at %s\n", next.Format(time.RFC1123))
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	r.logger.Info("shutdown signal received")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.scheduler.Stop(stopCtx); err != nil {
		r.logger.Warn("shutdown incomplete", "err", err)
	}
	return nil
}

// Discover runs one discovery generation immediately.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	b, err := r.bootstrap(cmd.String("config"))
	if err != nil {
		return err
	}

	return b.scheduler.TriggerNow(ctx)
}

// Stats prints collaborative playlist statistics alongside discovery readiness.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	b, err := r.bootstrap(cmd.String("config"))
	if err != nil {
		return err
	}

	playlistStats, err := b.store.Stats(ctx, b.config.Playlists.CollaborativeID)
	if err != nil {
		return fmt.Errorf("failed to compute playlist stats: %w", err)
	}
	genStats, err := b.pipeline.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute generation stats: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Playlist  models.PlaylistStats      `json:"playlist"`
			Discovery discovery.GenerationStats `json:"discovery"`
		}{playlistStats, genStats}, cmd.Bool("pretty"))
	}

	r.writePlain("Collaborative playlist\n")
	r.writePlain("  Tracks:          %d\n", playlistStats.TotalTracks)
	r.writePlain("  Unique artists:  %d\n", playlistStats.UniqueArtists)
	r.writePlain("  Explicit tracks: %d\n", playlistStats.ExplicitTracks)
	r.writePlain("  Total duration:  %s\n", playlistStats.DurationFormatted())
	r.writePlain("  Avg popularity:  %.1f\n", playlistStats.AveragePopularity)
	if playlistStats.MostCommonArtist != "" {
		r.writePlain("  Top artist:      %s\n", playlistStats.MostCommonArtist)
	}
	r.writePlain("Discovery\n")
	r.writePlain("  Recent pool:     %d\n", genStats.RecentPool)
	r.writePlain("  Seeds per run:   %d\n", genStats.MaxSeeds)
	r.writePlain("  Ready:           %v\n", genStats.CanGenerate)
	return nil
}

// Add appends a single track link to the collaborative playlist.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	link := cmd.StringArg("link")
	if link == "" {
		return fmt.Errorf("%w: link", shared.ErrMissingArgument)
	}

	b, err := r.bootstrap(cmd.String("config"))
	if err != nil {
		return err
	}

	result := b.processor.AppendLink(ctx, link)
	return result.Err
}

// ConfigInit writes a starter configuration file.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlain("Wrote %s\n", path)
}
