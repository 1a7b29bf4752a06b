package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRedactByKey(t *testing.T) {
	cases := []struct {
		key    string
		redact bool
	}{
		{"api_key", true},
		{"openrouter_key", true},
		{"Authorization", true},
		{"password", true},
		{"file", false},
		{"pages", false},
		{"provider", false},
	}

	for _, c := range cases {
		a := Redact(nil, slog.String(c.key, "value"))
		got := a.Value.String() == "[REDACTED]"
		if got != c.redact {
			t.Errorf("Redact(%q): redacted=%v, want %v", c.key, got, c.redact)
		}
	}
}

func TestRedactByValue(t *testing.T) {
	cases := []struct {
		value  string
		redact bool
	}{
		{"sk-or-v1-0123456789abcdef", true},
		{"AIzaSyD-0123456789abcdef", true},
		{"Bearer abc123def456", true},
		{"document.pdf", false},
		{"zh-CN", false},
	}

	for _, c := range cases {
		a := Redact(nil, slog.String("detail", c.value))
		got := a.Value.String() == "[REDACTED]"
		if got != c.redact {
			t.Errorf("Redact(value %q): redacted=%v, want %v", c.value, got, c.redact)
		}
	}
}

func TestRedactLeavesNonStringValues(t *testing.T) {
	a := Redact(nil, slog.Int("pages", 12))
	if a.Value.Kind() != slog.KindInt64 || a.Value.Int64() != 12 {
		t.Errorf("Redact changed a plain int attr: %v", a)
	}
}

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, &slog.HandlerOptions{Level: LevelInfo, ReplaceAttr: Redact}, false)

	r := slog.NewRecord(time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC), slog.LevelInfo, "translated page", 0)
	r.AddAttrs(slog.Int("page", 3), slog.String("api_key", "sk-or-v1-secret123456"))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "09:30:00 INFO  translated page") {
		t.Errorf("unexpected line prefix: %q", out)
	}
	if !strings.Contains(out, "page=3") {
		t.Errorf("missing attribute in output: %q", out)
	}
	if strings.Contains(out, "sk-or-v1") {
		t.Errorf("credential leaked into output: %q", out)
	}
	if !strings.Contains(out, "api_key=[REDACTED]") {
		t.Errorf("expected redacted attribute, got: %q", out)
	}
}

func TestConsoleHandlerLevelGate(t *testing.T) {
	h := newConsoleHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: LevelWarn}, false)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestInitWithLogFile(t *testing.T) {
	var file bytes.Buffer
	Init(LevelDebug, &file)
	defer Init(LevelInfo, nil)

	Debug("scratch dir swept", "removed", 2)

	if !strings.Contains(file.String(), `"msg":"scratch dir swept"`) {
		t.Errorf("log file did not receive JSONL record: %q", file.String())
	}
}
