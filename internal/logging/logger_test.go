package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		env      string
		expected slog.Level
	}{
		{"debug level", "DEBUG", "", slog.LevelDebug},
		{"warning level", "WARNING", "", slog.LevelWarn},
		{"lowercase error", "error", "", slog.LevelError},
		{"flag wins over env", "info", "DEBUG", slog.LevelInfo},
		{"env fallback", "", "warn", slog.LevelWarn},
		{"invalid everywhere", "LOUD", "QUIET", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvLevel, tt.env)
			if got := ParseLevel(tt.value); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	t.Setenv(EnvLevel, "")
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Info("hidden")
	log.Warn("shown", "model", "lorentz")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "model=lorentz") {
		t.Errorf("missing attribute in %q", out)
	}
}
