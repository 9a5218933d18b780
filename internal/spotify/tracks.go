package spotify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cratebot/cratebot/internal/models"
	"github.com/cratebot/cratebot/internal/shared"
)

// trackFields is the field-selection parameter used when listing playlist
// tracks, keeping page payloads to the attributes the bot actually reads.
const trackFields = "items(track(id,uri,name,artists(name),album(name),duration_ms,popularity,preview_url,explicit))"

type artistPayload struct {
	Name string `json:"name"`
}

type albumPayload struct {
	Name string `json:"name"`
}

// trackPayload is the wire shape of a track object.
type trackPayload struct {
	ID         string          `json:"id"`
	URI        string          `json:"uri"`
	Name       string          `json:"name"`
	Artists    []artistPayload `json:"artists"`
	Album      albumPayload    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity *int            `json:"popularity"`
	PreviewURL string          `json:"preview_url"`
	Explicit   bool            `json:"explicit"`
}

// toTrack converts the payload, reporting false for entries missing the
// identifying fields (local files and removed tracks come back hollow).
func (p *trackPayload) toTrack() (models.Track, bool) {
	if p == nil || p.ID == "" || p.URI == "" || p.Name == "" {
		return models.Track{}, false
	}

	artists := make([]string, 0, len(p.Artists))
	for _, a := range p.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	return models.Track{
		ID:         p.ID,
		URI:        p.URI,
		Name:       p.Name,
		Artists:    artists,
		Album:      p.Album.Name,
		DurationMS: p.DurationMS,
		Popularity: p.Popularity,
		PreviewURL: p.PreviewURL,
		Explicit:   p.Explicit,
	}, true
}

type playlistItemPayload struct {
	Track *trackPayload `json:"track"`
}

type playlistPagePayload struct {
	Items []playlistItemPayload `json:"items"`
}

// Track retrieves a single track by ID.
func (c *Client) Track(ctx context.Context, trackID string) (models.Track, error) {
	if trackID == "" {
		return models.Track{}, fmt.Errorf("%w: track ID is empty", shared.ErrInvalidInput)
	}

	var payload trackPayload
	if err := c.Get(ctx, "/tracks/"+url.PathEscape(trackID), &payload); err != nil {
		return models.Track{}, err
	}

	track, ok := payload.toTrack()
	if !ok {
		return models.Track{}, &APIError{Kind: KindBadPayload, Message: "track response missing identifying fields"}
	}
	return track, nil
}

// SearchTracks runs a free-text track search and returns up to limit matches
// in ranking order. Malformed entries are skipped.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	path := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var payload struct {
		Tracks struct {
			Items []trackPayload `json:"items"`
		} `json:"tracks"`
	}
	if err := c.Get(ctx, path, &payload); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(payload.Tracks.Items))
	for i := range payload.Tracks.Items {
		if track, ok := payload.Tracks.Items[i].toTrack(); ok {
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// PlaylistTrackPage retrieves one page of a playlist's tracks. It returns
// the parsed tracks, the raw item count of the page (which drives
// pagination; malformed entries are skipped from the parsed slice but still
// counted), and any error.
func (c *Client) PlaylistTrackPage(ctx context.Context, playlistID string, offset, limit int) ([]models.Track, int, error) {
	path := fmt.Sprintf("/playlists/%s/tracks?offset=%d&limit=%d&fields=%s",
		url.PathEscape(playlistID), offset, limit, url.QueryEscape(trackFields))

	var payload playlistPagePayload
	if err := c.Get(ctx, path, &payload); err != nil {
		return nil, 0, err
	}

	tracks := make([]models.Track, 0, len(payload.Items))
	for _, item := range payload.Items {
		if track, ok := item.Track.toTrack(); ok {
			tracks = append(tracks, track)
		}
	}
	return tracks, len(payload.Items), nil
}

// PlaylistTrackURIs retrieves one page of track URIs only, for duplicate
// checks that don't need full track objects.
func (c *Client) PlaylistTrackURIs(ctx context.Context, playlistID string, offset, limit int) ([]string, int, error) {
	path := fmt.Sprintf("/playlists/%s/tracks?offset=%d&limit=%d&fields=%s",
		url.PathEscape(playlistID), offset, limit, url.QueryEscape("items(track(uri))"))

	var payload playlistPagePayload
	if err := c.Get(ctx, path, &payload); err != nil {
		return nil, 0, err
	}

	uris := make([]string, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.Track != nil && item.Track.URI != "" {
			uris = append(uris, item.Track.URI)
		}
	}
	return uris, len(payload.Items), nil
}

// AddPlaylistTracks appends the given URIs to a playlist.
func (c *Client) AddPlaylistTracks(ctx context.Context, playlistID string, uris []string) error {
	path := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string][]string{"uris": uris}
	return c.Post(ctx, path, body, nil)
}

// ReplacePlaylistTracks overwrites a playlist's full contents with the given URIs.
func (c *Client) ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) error {
	path := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string][]string{"uris": uris}
	return c.Put(ctx, path, body, nil)
}
