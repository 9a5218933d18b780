package links

import (
	"errors"
	"strings"
	"testing"

	"github.com/cratebot/cratebot/internal/shared"
)

const trackID = "4iV5W9uYEdYUVa79Axb7Rh"

func TestExtract(t *testing.T) {
	t.Run("Single Track URL", func(t *testing.T) {
		found := Extract("check this out https://open.spotify.com/track/" + trackID)
		if len(found) != 1 {
			t.Fatalf("expected 1 link, got %d", len(found))
		}
		if found[0].Type != TypeTrack || found[0].ID != trackID {
			t.Errorf("expected track %s, got %+v", trackID, found[0])
		}
	})

	t.Run("URL With Query String", func(t *testing.T) {
		found := Extract("https://open.spotify.com/track/" + trackID + "?si=abc123")
		if len(found) != 1 || found[0].ID != trackID {
			t.Fatalf("expected track ID without query string, got %+v", found)
		}
	})

	t.Run("Intl Prefixed URL", func(t *testing.T) {
		found := Extract("https://open.spotify.com/intl-de/track/" + trackID)
		if len(found) != 1 || found[0].Type != TypeTrack {
			t.Fatalf("expected track link, got %+v", found)
		}
	})

	t.Run("Spotify URI", func(t *testing.T) {
		found := Extract("spotify:track:" + trackID)
		if len(found) != 1 || found[0].ID != trackID {
			t.Fatalf("expected track link, got %+v", found)
		}
	})

	t.Run("Multiple Links In Order", func(t *testing.T) {
		text := strings.Join([]string{
			"https://open.spotify.com/track/" + trackID,
			"https://open.spotify.com/album/1ATL5GLyefJaxhQzSPVrLX",
			"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
		}, " and ")

		found := Extract(text)
		if len(found) != 3 {
			t.Fatalf("expected 3 links, got %d", len(found))
		}
		want := []LinkType{TypeTrack, TypeAlbum, TypePlaylist}
		for i, link := range found {
			if link.Type != want[i] {
				t.Errorf("link %d: expected %s, got %s", i, want[i], link.Type)
			}
		}
	})

	t.Run("Duplicates Removed", func(t *testing.T) {
		url := "https://open.spotify.com/track/" + trackID
		found := Extract(url + " again: " + url)
		if len(found) != 1 {
			t.Errorf("expected 1 deduplicated link, got %d", len(found))
		}
	})

	t.Run("Trailing Punctuation Stripped", func(t *testing.T) {
		found := Extract("(https://open.spotify.com/track/" + trackID + ")")
		if len(found) != 1 {
			t.Fatalf("expected 1 link, got %d", len(found))
		}
		if strings.HasSuffix(found[0].Raw, ")") {
			t.Errorf("expected trailing parenthesis stripped, got %q", found[0].Raw)
		}
	})

	t.Run("No Links", func(t *testing.T) {
		if found := Extract("just chatting, no music here"); len(found) != 0 {
			t.Errorf("expected no links, got %+v", found)
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("Track URL", func(t *testing.T) {
		link, err := Parse("https://open.spotify.com/track/" + trackID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if link.TrackURI() != "spotify:track:"+trackID {
			t.Errorf("expected track URI, got %q", link.TrackURI())
		}
	})

	t.Run("Legacy User Playlist URL", func(t *testing.T) {
		link, err := Parse("https://open.spotify.com/user/someone/playlist/37i9dQZF1DXcBWIGoYBM5M")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if link.Type != TypePlaylist {
			t.Errorf("expected playlist, got %s", link.Type)
		}
	})

	t.Run("Invalid Input", func(t *testing.T) {
		for _, raw := range []string{"", "not a link", "https://example.com/track/abc"} {
			if _, err := Parse(raw); !errors.Is(err, shared.ErrInvalidLink) {
				t.Errorf("Parse(%q): expected ErrInvalidLink, got %v", raw, err)
			}
		}
	})
}

func TestParseTrack(t *testing.T) {
	t.Run("Accepts Track Link", func(t *testing.T) {
		link, err := ParseTrack("spotify:track:" + trackID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !link.Addable() {
			t.Error("expected track link to be addable")
		}
	})

	t.Run("Rejects Non Track Links", func(t *testing.T) {
		_, err := ParseTrack("https://open.spotify.com/album/1ATL5GLyefJaxhQzSPVrLX")
		if !errors.Is(err, shared.ErrInvalidLink) {
			t.Errorf("expected ErrInvalidLink, got %v", err)
		}
	})

	t.Run("Rejects Malformed Track ID", func(t *testing.T) {
		_, err := ParseTrack("spotify:track:short")
		if !errors.Is(err, shared.ErrInvalidLink) {
			t.Errorf("expected ErrInvalidLink, got %v", err)
		}
	})
}
