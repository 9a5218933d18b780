// Package ingest is the inbound collaborator surface: the chat event loop
// hands it raw message text and channel identity, and it turns track links
// into idempotent appends on the collaborative playlist.
package ingest

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/cratebot/cratebot/internal/announce"
	"github.com/cratebot/cratebot/internal/links"
	"github.com/cratebot/cratebot/internal/models"
	"github.com/cratebot/cratebot/internal/shared"
)

// Store is the playlist operation ingest depends on.
type Store interface {
	Append(ctx context.Context, playlistID, trackURI string) (models.AppendOutcome, error)
}

// TrackLookup fetches track metadata for announcements.
type TrackLookup interface {
	Track(ctx context.Context, trackID string) (models.Track, error)
}

// Result is the outcome of processing one link from a message.
type Result struct {
	Link    links.Link
	Track   models.Track
	Outcome models.AppendOutcome
	Err     error
}

// Processor handles inbound messages for one channel and one target playlist.
type Processor struct {
	store      Store
	api        TrackLookup
	announcer  announce.Announcer
	channelID  string
	playlistID string
	logger     *log.Logger
}

// NewProcessor creates a Processor appending into playlistID. When channelID
// is non-empty, messages from other channels are ignored.
func NewProcessor(store Store, api TrackLookup, announcer announce.Announcer, channelID, playlistID string, logger *log.Logger) *Processor {
	return &Processor{
		store:      store,
		api:        api,
		announcer:  announcer,
		channelID:  channelID,
		playlistID: playlistID,
		logger:     shared.WithLogger(logger, "component", "ingest"),
	}
}

// HandleMessage extracts track links from a message and appends each one.
// Bot-authored messages and messages from non-target channels are dropped.
// Per-link failures are recorded in the returned results, not fatal.
func (p *Processor) HandleMessage(ctx context.Context, text, channelID string, authorIsBot bool) []Result {
	if authorIsBot {
		return nil
	}
	if p.channelID != "" && channelID != p.channelID {
		return nil
	}

	var results []Result
	for _, link := range links.Extract(text) {
		if !link.Addable() {
			p.logger.Debug("skipping non-track link", "type", link.Type.String(), "raw", link.Raw)
			continue
		}
		results = append(results, p.appendLink(ctx, link))
	}
	return results
}

// AppendLink parses a single pasted link and appends it; used by the CLI.
func (p *Processor) AppendLink(ctx context.Context, raw string) Result {
	link, err := links.ParseTrack(raw)
	if err != nil {
		return Result{Link: link, Err: err}
	}
	return p.appendLink(ctx, link)
}

func (p *Processor) appendLink(ctx context.Context, link links.Link) Result {
	result := Result{Link: link}

	track, err := p.api.Track(ctx, link.ID)
	if err != nil {
		p.logger.Error("failed to look up track", "id", link.ID, "err", err)
		result.Err = err
		return result
	}
	result.Track = track

	outcome, err := p.store.Append(ctx, p.playlistID, link.TrackURI())
	if err != nil {
		p.logger.Error("failed to append track", "uri", link.TrackURI(), "err", err)
		result.Err = err
		return result
	}
	result.Outcome = outcome

	if p.announcer != nil {
		p.announcer.TrackAdded(ctx, track, outcome)
	}
	return result
}
