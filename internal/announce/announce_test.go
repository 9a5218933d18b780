package announce

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cratebot/cratebot/internal/discovery"
	"github.com/cratebot/cratebot/internal/models"
	"github.com/cratebot/cratebot/internal/shared"
	"github.com/cratebot/cratebot/internal/spotify"
	tu "github.com/cratebot/cratebot/internal/testing"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Category
	}{
		{"Rate Limited", &spotify.APIError{Kind: spotify.KindRateLimited, Status: 429}, CategoryRateLimited},
		{"Access Denied", &spotify.APIError{Kind: spotify.KindAccessDenied, Status: 403}, CategoryPermission},
		{"Network", &spotify.APIError{Kind: spotify.KindNetwork}, CategoryNetwork},
		{"Not Found", &spotify.APIError{Kind: spotify.KindNotFound, Status: 404}, CategoryNotFound},
		{"Token Expired", &spotify.APIError{Kind: spotify.KindTokenExpired, Status: 401}, CategoryAuth},
		{"Server Error", &spotify.APIError{Kind: spotify.KindServerError, Status: 502}, CategoryGeneric},
		{"Auth Failure", &spotify.AuthError{Status: 400, Body: "invalid_grant"}, CategoryAuth},
		{"Insufficient Seeds", &discovery.InsufficientSeedsError{Found: 0, Required: 1}, CategoryInvalidInput},
		{"Invalid Link", fmt.Errorf("%w: nope", shared.ErrInvalidLink), CategoryInvalidInput},
		{"No Refresh Token", shared.ErrNoRefreshToken, CategoryAuth},
		{"Plain Error", errors.New("something else"), CategoryGeneric},
		{"Wrapped API Error", fmt.Errorf("request failed: %w", &spotify.APIError{Kind: spotify.KindRateLimited}), CategoryRateLimited},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Categorize(tc.err); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestConsole(t *testing.T) {
	t.Run("Discovery Complete", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewConsole(&buf)

		tracks := []models.Track{
			tu.MakeTrack("a", "First", "Artist A"),
			tu.MakeTrack("b", "Second", "Artist A"),
		}
		c.DiscoveryComplete(context.Background(), models.NewDiscoveryPlaylist(tracks, []string{"seed"}))

		out := buf.String()
		if !strings.Contains(out, "Discovery playlist updated") {
			t.Errorf("expected header in output, got %q", out)
		}
		if !strings.Contains(out, "2 tracks from 1 seed tracks") {
			t.Errorf("expected track summary in output, got %q", out)
		}
		if !strings.Contains(out, "Artist A") {
			t.Errorf("expected most frequent artist in output, got %q", out)
		}
	})

	t.Run("Discovery Failed Includes Category", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewConsole(&buf)

		c.DiscoveryFailed(context.Background(), &spotify.APIError{Kind: spotify.KindRateLimited, Status: 429})

		out := buf.String()
		if !strings.Contains(out, "rate-limited") {
			t.Errorf("expected category in output, got %q", out)
		}
	})

	t.Run("Track Added", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewConsole(&buf)
		track := tu.MakeTrack("a", "Song", "Artist")

		c.TrackAdded(context.Background(), track, models.AppendAdded)
		if !strings.Contains(buf.String(), "Added:") {
			t.Errorf("expected add confirmation, got %q", buf.String())
		}

		buf.Reset()
		c.TrackAdded(context.Background(), track, models.AppendExists)
		if !strings.Contains(buf.String(), "Already in playlist:") {
			t.Errorf("expected duplicate notice, got %q", buf.String())
		}
	})
}
