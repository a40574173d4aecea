package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"meetnotes/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer defaults to stdout.
	Writer io.Writer
	// File, when set, receives a copy of every line.
	File        string
	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	// Caller locations only when debugging.
	withCaller := opts.Development || level <= slog.LevelDebug

	out := opts.Writer
	if out == nil {
		out = os.Stdout
	}
	if opts.File != "" {
		file, err := openLogFile(opts.File)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(out, file)
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return slog.New(&lineHandler{out: out, mu: new(sync.Mutex), level: level, caller: withCaller}), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:       level,
			AddSource:   withCaller,
			ReplaceAttr: jsonKeys,
		})), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates a logger that writes to stdout and, when a log
// directory is configured, to meetnotes.log inside it.
func NewFromConfig(cfg *config.Config, development bool) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Development: development})
	}
	opts := Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: development,
	}
	if cfg.Paths.LogDir != "" {
		opts.File = filepath.Join(cfg.Paths.LogDir, "meetnotes.log")
	}
	return New(opts)
}

// parseLevel accepts slog level names plus "warning". Anything else is info.
func parseLevel(level string) slog.Level {
	level = strings.TrimSpace(level)
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return parsed
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

// jsonKeys renames the time key to ts and shortens levels and sources.
func jsonKeys(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		if level, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, strings.ToLower(level.String()))
		}
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String(slog.SourceKey, filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
		}
	}
	return attr
}

// lineHandler writes one human-readable line per record:
//
//	2026-02-18T10:30:00Z INFO workflow [job 1a2b3c4d]: stage completed stage=transcribe
//
// The component and job_id attributes become the line prefix instead of
// trailing fields.
type lineHandler struct {
	out    io.Writer
	mu     *sync.Mutex
	level  slog.Level
	caller bool
	prefix string
	fields []slog.Attr
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *lineHandler) Handle(_ context.Context, record slog.Record) error {
	var component, jobID string
	var tail strings.Builder
	add := func(prefix string, attr slog.Attr) {
		key, value := prefix+attr.Key, attr.Value.Resolve()
		switch {
		case key == FieldComponent && component == "":
			component = value.String()
		case key == FieldJobID && jobID == "":
			jobID = value.String()
		case attr.Key != "":
			tail.WriteString(" " + key + "=" + renderValue(value))
		}
	}
	for _, attr := range h.fields {
		add("", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		add(h.prefix, attr)
		return true
	})

	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}
	var line strings.Builder
	line.WriteString(when.UTC().Format(time.RFC3339) + " " + levelName(record.Level) + " ")
	if head := strings.TrimSpace(component + " " + jobTag(jobID)); head != "" {
		line.WriteString(head + ": ")
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	line.WriteString(message)
	if h.caller && record.PC != 0 {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&line, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	line.WriteString(tail.String())
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line.String())
	return err
}

// WithAttrs keeps the attributes unrendered so component and job_id can
// still be lifted into the prefix.
func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = make([]slog.Attr, 0, len(h.fields)+len(attrs))
	next.fields = append(next.fields, h.fields...)
	for _, attr := range attrs {
		if attr.Key != "" {
			attr.Key = h.prefix + attr.Key
		}
		next.fields = append(next.fields, attr)
	}
	return &next
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func renderValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		s = v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, attr := range v.Group() {
			parts = append(parts, attr.Key+"="+renderValue(attr.Value.Resolve()))
		}
		s = "{" + strings.Join(parts, " ") + "}"
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\r\n=\"") {
		return strconv.Quote(s)
	}
	return s
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

// jobTag shortens UUID job ids to their first block.
func jobTag(id string) string {
	if id == "" {
		return ""
	}
	if i := strings.IndexByte(id, '-'); i > 0 {
		id = id[:i]
	}
	return "[job " + id + "]"
}
