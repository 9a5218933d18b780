// package models defines the data model for the playlist bot
package models

import (
	"fmt"
	"strings"
	"time"
)

// Track represents a Spotify track.
type Track struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Popularity *int     `json:"popularity,omitempty"`
	PreviewURL string   `json:"preview_url,omitempty"`
	Explicit   bool     `json:"explicit"`
}

// PrimaryArtist returns the first credited artist, or "" for a track with no artists.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// ArtistsString returns all artists as a comma-separated string.
func (t Track) ArtistsString() string {
	return strings.Join(t.Artists, ", ")
}

// DurationFormatted returns the track duration as "m:ss".
func (t Track) DurationFormatted() string {
	total := t.DurationMS / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// AppendOutcome is the result of an idempotent append to a playlist.
type AppendOutcome int

const (
	// AppendAdded means the track was written to the playlist.
	AppendAdded AppendOutcome = iota
	// AppendExists means the track was already present and no write was issued.
	AppendExists
)

func (o AppendOutcome) String() string {
	switch o {
	case AppendAdded:
		return "added"
	case AppendExists:
		return "already_exists"
	default:
		return ""
	}
}

// PlaylistStats holds aggregate statistics over a track listing, computed
// once at construction.
type PlaylistStats struct {
	TotalTracks       int
	UniqueArtists     int
	TotalDurationMS   int64
	ExplicitTracks    int
	AveragePopularity float64 // 0 when no track reports popularity
	MostCommonArtist  string
	ComputedAt        time.Time
}

// NewPlaylistStats calculates statistics from a list of tracks.
func NewPlaylistStats(tracks []Track) PlaylistStats {
	stats := PlaylistStats{
		TotalTracks: len(tracks),
		ComputedAt:  time.Now(),
	}

	artistCounts := make(map[string]int)
	popularitySum := 0
	popularityCount := 0

	for _, track := range tracks {
		stats.TotalDurationMS += int64(track.DurationMS)

		for _, artist := range track.Artists {
			artistCounts[artist]++
		}

		if track.Popularity != nil {
			popularitySum += *track.Popularity
			popularityCount++
		}

		if track.Explicit {
			stats.ExplicitTracks++
		}
	}

	stats.UniqueArtists = len(artistCounts)
	if popularityCount > 0 {
		stats.AveragePopularity = float64(popularitySum) / float64(popularityCount)
	}

	best := 0
	for artist, count := range artistCounts {
		// Ties break toward the lexically smaller name so the result is stable
		if count > best || (count == best && artist < stats.MostCommonArtist) {
			best = count
			stats.MostCommonArtist = artist
		}
	}

	return stats
}

// DurationFormatted returns the total duration as "XhYmZs", omitting hours when zero.
func (s PlaylistStats) DurationFormatted() string {
	total := s.TotalDurationMS / 1000
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// DiscoveryPlaylist is the result of one discovery generation run: the
// selected tracks, the seed track IDs that produced them, and summary stats.
type DiscoveryPlaylist struct {
	Tracks      []Track
	SeedTracks  []string
	Stats       PlaylistStats
	GeneratedAt time.Time
}

// NewDiscoveryPlaylist constructs a DiscoveryPlaylist, computing its stats.
func NewDiscoveryPlaylist(tracks []Track, seeds []string) DiscoveryPlaylist {
	return DiscoveryPlaylist{
		Tracks:      tracks,
		SeedTracks:  seeds,
		Stats:       NewPlaylistStats(tracks),
		GeneratedAt: time.Now(),
	}
}

// TrackCount returns the number of tracks in the generated playlist.
func (d DiscoveryPlaylist) TrackCount() int {
	return len(d.Tracks)
}

// TrackURIs returns the URIs of the generated tracks in order.
func (d DiscoveryPlaylist) TrackURIs() []string {
	uris := make([]string, 0, len(d.Tracks))
	for _, track := range d.Tracks {
		uris = append(uris, track.URI)
	}
	return uris
}

// IsComplete reports whether the playlist reached the target length of 20 tracks.
func (d DiscoveryPlaylist) IsComplete() bool {
	return len(d.Tracks) == TargetDiscoverySize
}

// TargetDiscoverySize is the number of tracks a discovery run aims to produce.
const TargetDiscoverySize = 20
