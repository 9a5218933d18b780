// Package discovery generates the periodic discovery playlist: it samples
// seed tracks from recent additions to the collaborative playlist, expands
// each seed into similar tracks through text search, and publishes the
// deduplicated result over the discovery playlist's previous contents.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cratebot/cratebot/internal/models"
	"github.com/cratebot/cratebot/internal/shared"
)

const (
	// maxSeeds bounds one run's seed set, matching the API's seed ceiling.
	maxSeeds = 5

	// recentWindow limits seed sampling to the most recent additions.
	recentWindow = 50

	// searchLimit is how many matches one seed's similarity search returns.
	searchLimit = 10
)

// ErrNoCandidates means every seed failed to produce a single candidate.
var ErrNoCandidates = errors.New("no discovery candidates could be generated")

// InsufficientSeedsError means the source playlist cannot seed a run.
type InsufficientSeedsError struct {
	Found    int
	Required int
}

func (e *InsufficientSeedsError) Error() string {
	return fmt.Sprintf("insufficient seed tracks: found %d, need at least %d", e.Found, e.Required)
}

// API is the subset of the Spotify client the pipeline uses directly.
type API interface {
	Track(ctx context.Context, trackID string) (models.Track, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// Source is the subset of the playlist store the pipeline uses.
type Source interface {
	Tracks(ctx context.Context, playlistID string) ([]models.Track, error)
	ReplaceAll(ctx context.Context, playlistID string, trackURIs []string) error
}

// Pipeline runs discovery generation. A mutex serializes runs so scheduled
// firings and manual triggers never interleave their playlist reads and the
// final replacement write.
type Pipeline struct {
	mu sync.Mutex

	api      API
	store    Source
	sourceID string
	targetID string
	logger   *log.Logger

	// perm provides the sampling permutation; injectable for deterministic tests.
	perm func(n int) []int
}

// New creates a Pipeline reading seeds from cfg.CollaborativeID and
// publishing into cfg.DiscoveryID.
func New(api API, store Source, cfg shared.PlaylistsConfig, logger *log.Logger) *Pipeline {
	return &Pipeline{
		api:      api,
		store:    store,
		sourceID: cfg.CollaborativeID,
		targetID: cfg.DiscoveryID,
		logger:   shared.WithLogger(logger, "component", "discovery"),
		perm:     rand.Perm,
	}
}

// Run executes one full discovery cycle: fetch, seed selection, candidate
// generation, finalize, publish. No state persists between runs; the target
// playlist is rebuilt from scratch each time.
func (p *Pipeline) Run(ctx context.Context) (models.DiscoveryPlaylist, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	logger := shared.WithLogger(p.logger, "run_id", shared.GenerateID())
	logger.Info("starting discovery generation")

	sourceTracks, err := p.store.Tracks(ctx, p.sourceID)
	if err != nil {
		return models.DiscoveryPlaylist{}, fmt.Errorf("failed to list source playlist: %w", err)
	}
	if len(sourceTracks) == 0 {
		return models.DiscoveryPlaylist{}, &InsufficientSeedsError{Found: 0, Required: 1}
	}

	seeds := p.selectSeeds(sourceTracks)
	logger.Info("selected seed tracks", "seeds", len(seeds), "source_tracks", len(sourceTracks))

	candidates, err := p.generateCandidates(ctx, seeds, logger)
	if err != nil {
		return models.DiscoveryPlaylist{}, err
	}

	result := models.NewDiscoveryPlaylist(candidates, seeds)

	if err := p.store.ReplaceAll(ctx, p.targetID, result.TrackURIs()); err != nil {
		return models.DiscoveryPlaylist{}, fmt.Errorf("failed to publish discovery playlist: %w", err)
	}

	logger.Info("discovery generation complete",
		"tracks", result.TrackCount(),
		"unique_artists", result.Stats.UniqueArtists,
		"complete", result.IsComplete())

	return result, nil
}

// selectSeeds samples up to maxSeeds track IDs uniformly without replacement
// from the last recentWindow tracks of the listing. Listings are
// insertion-ordered, so the suffix is the most recent activity.
func (p *Pipeline) selectSeeds(tracks []models.Track) []string {
	window := tracks
	if len(window) > recentWindow {
		window = window[len(window)-recentWindow:]
	}

	count := maxSeeds
	if count > len(window) {
		count = len(window)
	}

	seeds := make([]string, 0, count)
	for _, idx := range p.perm(len(window))[:count] {
		seeds = append(seeds, window[idx].ID)
	}
	return seeds
}

// generateCandidates expands each seed into similar tracks via text search.
// The first search hit is discarded as the seed echoing back; the rest are
// deduplicated across seeds until the target count is reached. A failing
// seed is skipped; only a run producing zero candidates fails.
func (p *Pipeline) generateCandidates(ctx context.Context, seeds []string, logger *log.Logger) ([]models.Track, error) {
	seen := make(map[string]bool, models.TargetDiscoverySize)
	var candidates []models.Track

	for _, seedID := range seeds {
		if len(candidates) >= models.TargetDiscoverySize {
			break
		}

		seed, err := p.api.Track(ctx, seedID)
		if err != nil {
			logger.Warn("failed to fetch seed track, skipping", "seed", seedID, "err", err)
			continue
		}

		query := strings.TrimSpace(seed.PrimaryArtist() + " " + seed.Name)
		results, err := p.api.SearchTracks(ctx, query, searchLimit)
		if err != nil {
			logger.Warn("similarity search failed, skipping seed", "seed", seedID, "query", query, "err", err)
			continue
		}

		for i, track := range results {
			if i == 0 || track.ID == seedID {
				continue
			}
			if seen[track.ID] {
				continue
			}

			seen[track.ID] = true
			candidates = append(candidates, track)
			if len(candidates) >= models.TargetDiscoverySize {
				break
			}
		}
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if len(candidates) < models.TargetDiscoverySize {
		logger.Warn("generated fewer candidates than target",
			"got", len(candidates), "target", models.TargetDiscoverySize)
	}

	return candidates, nil
}

// GenerationStats describes what a run could do given the current source playlist.
type GenerationStats struct {
	SourceTracks int
	RecentPool   int
	MaxSeeds     int
	CanGenerate  bool
}

// Stats reports the pipeline's current generation capability.
func (p *Pipeline) Stats(ctx context.Context) (GenerationStats, error) {
	tracks, err := p.store.Tracks(ctx, p.sourceID)
	if err != nil {
		return GenerationStats{}, fmt.Errorf("failed to list source playlist: %w", err)
	}

	stats := GenerationStats{
		SourceTracks: len(tracks),
		RecentPool:   len(tracks),
		MaxSeeds:     len(tracks),
		CanGenerate:  len(tracks) > 0,
	}
	if stats.RecentPool > recentWindow {
		stats.RecentPool = recentWindow
	}
	if stats.MaxSeeds > maxSeeds {
		stats.MaxSeeds = maxSeeds
	}
	return stats, nil
}
