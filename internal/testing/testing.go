// package testing contains shared testing utilities
package testing

import (
	"net/http"
	"os"
	"testing"

	"github.com/cratebot/cratebot/internal/models"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// MakeTrack builds a minimal valid track for tests.
func MakeTrack(id, name, artist string) models.Track {
	return models.Track{
		ID:      id,
		URI:     "spotify:track:" + id,
		Name:    name,
		Artists: []string{artist},
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
