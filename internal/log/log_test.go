package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("text format includes message and attrs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, Config{})

		logger.Info("hello", "key", "value")

		out := buf.String()
		if !strings.Contains(out, "hello") {
			t.Errorf("output %q missing message", out)
		}
		if !strings.Contains(out, "key=value") {
			t.Errorf("output %q missing attribute", out)
		}
	})

	t.Run("JSON format emits JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, Config{JSON: true})

		logger.Info("hello")

		out := buf.String()
		if !strings.HasPrefix(out, "{") {
			t.Errorf("output %q is not JSON", out)
		}
		if !strings.Contains(out, `"msg":"hello"`) {
			t.Errorf("output %q missing msg field", out)
		}
	})

	t.Run("level filters lower severities", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

		logger.Info("dropped")
		logger.Warn("kept")

		out := buf.String()
		if strings.Contains(out, "dropped") {
			t.Errorf("output %q contains filtered message", out)
		}
		if !strings.Contains(out, "kept") {
			t.Errorf("output %q missing warn message", out)
		}
	})
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	// Must not panic and must swallow everything.
	logger.Error("discarded", "key", "value")
}
