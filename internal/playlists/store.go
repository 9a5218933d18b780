// Package playlists provides the playlist mutation layer on top of the
// Spotify client: paginated listing, duplicate-checked idempotent appends,
// and atomic full replacement.
package playlists

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/cratebot/cratebot/internal/models"
	"github.com/cratebot/cratebot/internal/shared"
)

// pageSize is the page size used for playlist listings, the API's maximum.
const pageSize = 100

// API defines the client operations the store depends on.
// The abstraction allows for easier testing and decoupling from the concrete client.
type API interface {
	PlaylistTrackPage(ctx context.Context, playlistID string, offset, limit int) ([]models.Track, int, error)
	PlaylistTrackURIs(ctx context.Context, playlistID string, offset, limit int) ([]string, int, error)
	AddPlaylistTracks(ctx context.Context, playlistID string, uris []string) error
	ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) error
}

// Store implements playlist operations over an API client.
type Store struct {
	api    API
	logger *log.Logger
}

// NewStore creates a playlist store backed by the given client.
func NewStore(api API, logger *log.Logger) *Store {
	return &Store{
		api:    api,
		logger: shared.WithLogger(logger, "component", "playlist_store"),
	}
}

// Tracks lists every track in a playlist in insertion order, paging until a
// short page. Malformed entries are skipped by the client layer and do not
// fail the listing.
func (s *Store) Tracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var all []models.Track

	for offset := 0; ; offset += pageSize {
		page, rawCount, err := s.api.PlaylistTrackPage(ctx, playlistID, offset, pageSize)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		if rawCount < pageSize {
			break
		}
	}

	return all, nil
}

// Contains reports whether the playlist already holds the given track URI,
// short-circuiting on the first page containing a match.
func (s *Store) Contains(ctx context.Context, playlistID, trackURI string) (bool, error) {
	for offset := 0; ; offset += pageSize {
		uris, rawCount, err := s.api.PlaylistTrackURIs(ctx, playlistID, offset, pageSize)
		if err != nil {
			return false, err
		}

		for _, uri := range uris {
			if uri == trackURI {
				return true, nil
			}
		}

		if rawCount < pageSize {
			return false, nil
		}
	}
}

// Append adds a track to the playlist unless it is already present. A
// repeated append of the same URI is a non-error [models.AppendExists]
// outcome, so the operation is safe under at-least-once delivery.
func (s *Store) Append(ctx context.Context, playlistID, trackURI string) (models.AppendOutcome, error) {
	if trackURI == "" {
		return 0, fmt.Errorf("%w: track URI is empty", shared.ErrInvalidInput)
	}

	exists, err := s.Contains(ctx, playlistID, trackURI)
	if err != nil {
		return 0, fmt.Errorf("duplicate check failed: %w", err)
	}
	if exists {
		s.logger.Info("track already in playlist", "playlist", playlistID, "uri", trackURI)
		return models.AppendExists, nil
	}

	if err := s.api.AddPlaylistTracks(ctx, playlistID, []string{trackURI}); err != nil {
		return 0, err
	}

	s.logger.Info("added track to playlist", "playlist", playlistID, "uri", trackURI)
	return models.AppendAdded, nil
}

// ReplaceAll overwrites the playlist's entire contents with the given URIs.
// An empty list is rejected before any HTTP call is made.
func (s *Store) ReplaceAll(ctx context.Context, playlistID string, trackURIs []string) error {
	if len(trackURIs) == 0 {
		return fmt.Errorf("%w: cannot replace playlist with an empty track list", shared.ErrInvalidInput)
	}

	if err := s.api.ReplacePlaylistTracks(ctx, playlistID, trackURIs); err != nil {
		return err
	}

	s.logger.Info("replaced playlist contents", "playlist", playlistID, "tracks", len(trackURIs))
	return nil
}

// Stats lists the playlist and computes aggregate statistics over it.
func (s *Store) Stats(ctx context.Context, playlistID string) (models.PlaylistStats, error) {
	tracks, err := s.Tracks(ctx, playlistID)
	if err != nil {
		return models.PlaylistStats{}, err
	}
	return models.NewPlaylistStats(tracks), nil
}
