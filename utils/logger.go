package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// Logger provides structured, leveled logging throughout the application.
// Records go to stdout through tint (or JSON) and, when configured, to Fluent Bit.
type Logger struct {
	sl *slog.Logger
}

// LoggerConfig controls where and how log records are written.
type LoggerConfig struct {
	Writer  io.Writer
	Level   slog.Level
	JSON    bool
	NoColor bool

	// Fluent, when set, receives a copy of every record at or above FluentLevel.
	Fluent      *fluent.Fluent
	FluentLevel slog.Level
}

// NewLogger creates a Logger from cfg. A zero config logs INFO and above to stdout.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Writer, &slog.HandlerOptions{Level: cfg.Level})
	} else {
		handler = tint.NewHandler(cfg.Writer, &tint.Options{
			Level:      cfg.Level,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    cfg.NoColor,
		})
	}

	if cfg.Fluent != nil {
		handler = &multiHandler{handlers: []slog.Handler{
			handler,
			&fluentHandler{client: cfg.Fluent, minLevel: cfg.FluentLevel, fields: map[string]any{}},
		}}
	}

	return &Logger{sl: slog.New(handler)}
}

// NewDiscardLogger returns a Logger that drops everything. Used by tests.
func NewDiscardLogger() *Logger {
	return NewLogger(LoggerConfig{Writer: io.Discard, Level: slog.LevelError + 4})
}

// NewFluentClient connects to a Fluent Bit forward input. Posting is lazy, so a
// successful return does not guarantee the collector is reachable.
func NewFluentClient(host string, port int, tagPrefix string) (*fluent.Fluent, error) {
	if tagPrefix == "" {
		return nil, fmt.Errorf("fluent: tag prefix is required")
	}
	client, err := fluent.New(fluent.Config{
		FluentHost: host,
		FluentPort: port,
		TagPrefix:  tagPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("fluent: connect %s:%d: %w", host, port, err)
	}
	return client, nil
}

// ParseLevel maps a textual level to slog.Level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Info(msg string, args ...any)  { l.sl.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.sl.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.sl.Error(msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.sl.Debug(msg, args...) }

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sl: l.sl.With(args...)}
}

// Slog exposes the underlying slog.Logger for libraries that want one.
func (l *Logger) Slog() *slog.Logger {
	return l.sl
}

// multiHandler fans a record out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}

// fluentHandler posts flattened records to Fluent Bit, tagged by level.
type fluentHandler struct {
	client   *fluent.Fluent
	minLevel slog.Level
	fields   map[string]any
	group    string
}

func (f *fluentHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= f.minLevel
}

func (f *fluentHandler) Handle(_ context.Context, r slog.Record) error {
	data := make(map[string]any, len(f.fields)+r.NumAttrs()+3)
	for k, v := range f.fields {
		data[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		data[f.key(a.Key)] = a.Value.Resolve().Any()
		return true
	})
	level := strings.ToLower(r.Level.String())
	data["level"] = level
	data["message"] = r.Message
	data["timestamp"] = r.Time.UTC().Format(time.RFC3339Nano)

	// A failed post must not take the caller down with it.
	_ = f.client.Post(level, data)
	return nil
}

func (f *fluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make(map[string]any, len(f.fields)+len(attrs))
	for k, v := range f.fields {
		fields[k] = v
	}
	for _, a := range attrs {
		fields[f.key(a.Key)] = a.Value.Resolve().Any()
	}
	return &fluentHandler{client: f.client, minLevel: f.minLevel, fields: fields, group: f.group}
}

func (f *fluentHandler) WithGroup(name string) slog.Handler {
	return &fluentHandler{client: f.client, minLevel: f.minLevel, fields: f.fields, group: f.key(name)}
}

func (f *fluentHandler) key(k string) string {
	if f.group == "" {
		return k
	}
	return f.group + "." + k
}
