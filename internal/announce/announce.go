// Package announce is the outbound notification surface. The core reports
// discovery outcomes and track additions through the [Announcer] interface;
// the chat collaborator supplies its own implementation, and [Console] is
// the implementation the CLI uses.
package announce

import (
	"context"
	"errors"

	"github.com/cratebot/cratebot/internal/discovery"
	"github.com/cratebot/cratebot/internal/models"
	"github.com/cratebot/cratebot/internal/shared"
	"github.com/cratebot/cratebot/internal/spotify"
)

// Announcer receives user-facing events from the core. Implementations own
// all rendering and delivery; failures to announce must never fail the
// operation being announced.
type Announcer interface {
	DiscoveryComplete(ctx context.Context, result models.DiscoveryPlaylist)
	DiscoveryFailed(ctx context.Context, err error)
	TrackAdded(ctx context.Context, track models.Track, outcome models.AppendOutcome)
}

// Category is the human-readable failure class handed to announcers.
type Category string

const (
	CategoryDuplicate    Category = "duplicate"
	CategoryRateLimited  Category = "rate-limited"
	CategoryPermission   Category = "permission"
	CategoryNetwork      Category = "network"
	CategoryNotFound     Category = "not-found"
	CategoryAuth         Category = "auth"
	CategoryInvalidInput Category = "invalid-input"
	CategoryGeneric      Category = "generic"
)

// Categorize maps an error onto its announcement category using the typed
// classification carried from the point of origin.
func Categorize(err error) Category {
	var apiErr *spotify.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case spotify.KindRateLimited:
			return CategoryRateLimited
		case spotify.KindAccessDenied:
			return CategoryPermission
		case spotify.KindNetwork:
			return CategoryNetwork
		case spotify.KindNotFound:
			return CategoryNotFound
		case spotify.KindTokenExpired:
			return CategoryAuth
		default:
			return CategoryGeneric
		}
	}

	var authErr *spotify.AuthError
	if errors.As(err, &authErr) {
		return CategoryAuth
	}

	var seedsErr *discovery.InsufficientSeedsError
	if errors.As(err, &seedsErr) {
		return CategoryInvalidInput
	}

	switch {
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidLink):
		return CategoryInvalidInput
	case errors.Is(err, shared.ErrRefreshFailed), errors.Is(err, shared.ErrNoRefreshToken), errors.Is(err, shared.ErrNotAuthenticated):
		return CategoryAuth
	case errors.Is(err, shared.ErrTrackNotFound), errors.Is(err, shared.ErrPlaylistNotFound):
		return CategoryNotFound
	default:
		return CategoryGeneric
	}
}
