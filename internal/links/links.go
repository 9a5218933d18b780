// Package links extracts and parses Spotify links from free-form chat text.
// It is the surface the chat-ingestion collaborator calls before handing
// track URIs to the playlist layer.
package links

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cratebot/cratebot/internal/shared"
)

// LinkType identifies what a Spotify link points at.
type LinkType int

const (
	TypeTrack LinkType = iota
	TypeAlbum
	TypePlaylist
	TypeArtist
	TypeUnsupported
)

func (t LinkType) String() string {
	switch t {
	case TypeTrack:
		return "track"
	case TypeAlbum:
		return "album"
	case TypePlaylist:
		return "playlist"
	case TypeArtist:
		return "artist"
	default:
		return "unsupported"
	}
}

// Link is a parsed Spotify link.
type Link struct {
	Type LinkType
	ID   string
	Raw  string
}

// Addable reports whether the link can be appended to a playlist.
func (l Link) Addable() bool {
	return l.Type == TypeTrack
}

// TrackURI returns the spotify:track: URI for a track link.
func (l Link) TrackURI() string {
	if l.Type != TypeTrack {
		return ""
	}
	return "spotify:track:" + l.ID
}

var (
	// Matches open.spotify.com URLs, including intl- prefixes and the
	// legacy /user/<name>/playlist/<id> form.
	urlPattern = regexp.MustCompile(
		`https?://(?:open\.)?spotify\.com/(?:intl-[a-z]{2}/)?(?:user/[^/\s]+/)?(track|album|playlist|artist)/([a-zA-Z0-9]+)(?:\?[^\s]*)?`)

	// Matches spotify:track:id style URIs.
	uriPattern = regexp.MustCompile(`spotify:(track|album|playlist|artist):([a-zA-Z0-9]+)`)
)

// Extract returns every Spotify link found in the text, in order of
// appearance, with duplicates removed.
func Extract(text string) []Link {
	var found []Link
	seen := make(map[string]bool)

	add := func(raw, kind, id string) {
		cleaned := cleanRaw(raw)
		if seen[cleaned] {
			return
		}
		seen[cleaned] = true
		found = append(found, Link{Type: typeFromString(kind), ID: id, Raw: cleaned})
	}

	for _, m := range urlPattern.FindAllStringSubmatch(text, -1) {
		add(m[0], m[1], m[2])
	}
	for _, m := range uriPattern.FindAllStringSubmatch(text, -1) {
		add(m[0], m[1], m[2])
	}

	return found
}

// Parse parses a single Spotify URL or URI.
func Parse(raw string) (Link, error) {
	raw = cleanRaw(strings.TrimSpace(raw))

	if m := uriPattern.FindStringSubmatch(raw); m != nil && m[0] == raw {
		return Link{Type: typeFromString(m[1]), ID: m[2], Raw: raw}, nil
	}
	if m := urlPattern.FindStringSubmatch(raw); m != nil {
		return Link{Type: typeFromString(m[1]), ID: m[2], Raw: raw}, nil
	}

	return Link{}, fmt.Errorf("%w: %q", shared.ErrInvalidLink, raw)
}

// ParseTrack parses a link and requires it to be an addable track link with
// a well-formed 22 character ID.
func ParseTrack(raw string) (Link, error) {
	link, err := Parse(raw)
	if err != nil {
		return Link{}, err
	}
	if link.Type != TypeTrack {
		return Link{}, fmt.Errorf("%w: %s links cannot be added to a playlist", shared.ErrInvalidLink, link.Type)
	}
	if len(link.ID) != trackIDLength {
		return Link{}, fmt.Errorf("%w: track ID %q should be %d characters", shared.ErrInvalidLink, link.ID, trackIDLength)
	}
	return link, nil
}

// trackIDLength is the length of a base62 Spotify track ID.
const trackIDLength = 22

func typeFromString(s string) LinkType {
	switch s {
	case "track":
		return TypeTrack
	case "album":
		return TypeAlbum
	case "playlist":
		return TypePlaylist
	case "artist":
		return TypeArtist
	default:
		return TypeUnsupported
	}
}

// cleanRaw strips punctuation that chat clients commonly glue onto pasted links.
func cleanRaw(raw string) string {
	raw = strings.TrimRight(raw, ".,!?)]};:")
	return strings.TrimLeft(raw, "([{")
}
