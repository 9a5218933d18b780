package announce

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/cratebot/cratebot/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// Console renders announcements to a terminal. It backs the CLI commands;
// the chat collaborator replaces it with its own Announcer.
type Console struct {
	w io.Writer
}

// NewConsole creates a console announcer writing to w, defaulting to stdout.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (c *Console) DiscoveryComplete(_ context.Context, result models.DiscoveryPlaylist) {
	fmt.Fprintln(c.w, titleStyle.Render("Discovery playlist updated"))
	fmt.Fprintf(c.w, "  %s %d tracks from %d seed tracks\n",
		okStyle.Render("✓"), result.TrackCount(), len(result.SeedTracks))
	fmt.Fprintf(c.w, "  unique artists: %d\n", result.Stats.UniqueArtists)
	fmt.Fprintf(c.w, "  total duration: %s\n", result.Stats.DurationFormatted())
	fmt.Fprintf(c.w, "  explicit tracks: %d\n", result.Stats.ExplicitTracks)
	if result.Stats.MostCommonArtist != "" {
		fmt.Fprintf(c.w, "  most frequent artist: %s\n", result.Stats.MostCommonArtist)
	}
	if result.Stats.AveragePopularity > 0 {
		fmt.Fprintf(c.w, "  average popularity: %.1f\n", result.Stats.AveragePopularity)
	}
}

func (c *Console) DiscoveryFailed(_ context.Context, err error) {
	fmt.Fprintf(c.w, "%s %v %s\n",
		errStyle.Render("Discovery generation failed:"),
		err,
		dimStyle.Render("("+string(Categorize(err))+")"))
}

func (c *Console) TrackAdded(_ context.Context, track models.Track, outcome models.AppendOutcome) {
	switch outcome {
	case models.AppendAdded:
		fmt.Fprintf(c.w, "%s %s - %s\n", okStyle.Render("Added:"), track.Name, track.ArtistsString())
	case models.AppendExists:
		fmt.Fprintf(c.w, "%s %s - %s\n", dimStyle.Render("Already in playlist:"), track.Name, track.ArtistsString())
	}
}
