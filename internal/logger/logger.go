package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/term"
)

// Level aliases so callers do not have to import log/slog.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var global *slog.Logger
var isTerminal = term.IsTerminal

// Attribute keys that always carry credential material.
var secretKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"bearer":        true,
	"password":      true,
	"secret":        true,
	"token":         true,
}

var secretKeySubstrings = []string{
	"key",
	"token",
	"secret",
	"password",
	"bearer",
}

// Values that look like API keys get masked even under harmless keys.
var secretValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsk-[A-Za-z0-9_-]{10,}\b`),
	regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{10,}\b`),
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*\b`),
}

// Redact is a slog.ReplaceAttr function that masks credential material.
func Redact(_ []string, a slog.Attr) slog.Attr {
	if shouldRedact(a) {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}

func shouldRedact(a slog.Attr) bool {
	key := strings.ToLower(a.Key)
	if secretKeys[key] {
		return true
	}
	for _, sub := range secretKeySubstrings {
		if strings.Contains(key, sub) {
			return true
		}
	}

	if a.Value.Kind() != slog.KindString {
		return false
	}
	value := a.Value.String()
	if value == "" {
		return false
	}
	for _, re := range secretValuePatterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

func init() {
	Init(LevelInfo, nil)
}

// Init configures the package logger. level is the minimum level to emit.
// logFile is an optional writer that additionally receives JSONL records.
func Init(level slog.Level, logFile io.Writer) {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: Redact,
	}

	useColor := isTerminal(int(os.Stderr.Fd()))
	var handler slog.Handler = newConsoleHandler(os.Stderr, opts, useColor)

	if logFile != nil {
		handler = &teeHandler{
			handlers: []slog.Handler{handler, slog.NewJSONHandler(logFile, opts)},
		}
	}

	global = slog.New(handler)
	slog.SetDefault(global)
}

func Debug(msg string, args ...any) { global.Debug(msg, args...) }
func Info(msg string, args ...any)  { global.Info(msg, args...) }
func Warn(msg string, args ...any)  { global.Warn(msg, args...) }
func Error(msg string, args ...any) { global.Error(msg, args...) }

// Fatal logs an error and exits
func Fatal(msg string, args ...any) {
	global.Error(msg, args...)
	os.Exit(1)
}

type consoleHandler struct {
	w      io.Writer
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	groups []string
	color  bool
}

func newConsoleHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *consoleHandler {
	return &consoleHandler{w: w, opts: opts, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	levelColor := ""
	reset := ""
	if h.color {
		switch r.Level {
		case slog.LevelDebug:
			levelColor = "\033[90m"
		case slog.LevelInfo:
			levelColor = "\033[32m"
		case slog.LevelWarn:
			levelColor = "\033[33m"
		case slog.LevelError:
			levelColor = "\033[31m"
		}
		reset = "\033[0m"
	}

	fmt.Fprintf(h.w, "%s %s%-5s%s %s",
		r.Time.Format("15:04:05"),
		levelColor, r.Level.String(), reset,
		r.Message,
	)

	for _, a := range h.attrs {
		h.printAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.printAttr(a)
		return true
	})

	fmt.Fprintln(h.w)
	return nil
}

func (h *consoleHandler) printAttr(a slog.Attr) {
	if h.opts != nil && h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(h.groups, a)
	}
	if a.Key == "" {
		return
	}

	key := a.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}

	if h.color {
		fmt.Fprintf(h.w, " \033[90m%s=\033[0m%v", key, a.Value)
		return
	}
	fmt.Fprintf(h.w, " %s=%v", key, a.Value)
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append(h2.attrs[:len(h2.attrs):len(h2.attrs)], attrs...)
	return &h2
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(h2.groups[:len(h2.groups):len(h2.groups)], name)
	return &h2
}

type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range t.handlers {
		if err := h.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: handlers}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: handlers}
}
