package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Debug("hidden message")
	SetLogLevel(logger, log.DebugLevel)
	logger.Debug("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Error("expected debug output to be suppressed at the default level")
	}
	if !strings.Contains(out, "visible message") {
		t.Error("expected debug output after lowering the level")
	}
	if logger.GetLevel() != log.DebugLevel {
		t.Errorf("expected debug level, got %v", logger.GetLevel())
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", a, b)
	}
}
