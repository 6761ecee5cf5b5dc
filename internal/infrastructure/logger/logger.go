package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
)

const colorReset = "\033[0m"

// levelColors maps the TextHandler level token to its ANSI colour.
var levelColors = []struct {
	token []byte
	color string
}{
	{[]byte("level=DEBUG"), "\033[36m"},
	{[]byte("level=INFO"), "\033[32m"},
	{[]byte("level=WARN"), "\033[33m"},
	{[]byte("level=ERROR"), "\033[31m"},
}

// Options configures New.
type Options struct {
	AppName     string
	Level       string
	Environment string
	// Format forces "text" or "json"; empty picks text for development
	// environments and JSON elsewhere.
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
}

// colorWriter paints the level token of each TextHandler line when the
// destination is a terminal.
type colorWriter struct {
	writer io.Writer
}

func (cw *colorWriter) Write(p []byte) (int, error) {
	out := p
	for _, lc := range levelColors {
		if bytes.Contains(out, lc.token) {
			painted := append([]byte(lc.color), lc.token...)
			painted = append(painted, colorReset...)
			out = bytes.Replace(out, lc.token, painted, 1)
			break
		}
	}
	if _, err := cw.writer.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// isTerminal checks if the writer is a terminal (TTY).
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// New builds a structured slog logger honoring the configured level and
// environment. Development environments (local, dev, development) get text
// output, coloured on a terminal; everything else gets JSON.
func New(appName, level, environment string) *slog.Logger {
	return NewWithOptions(Options{AppName: appName, Level: level, Environment: environment})
}

// NewWithOptions is New with an explicit format and destination.
func NewWithOptions(o Options) *slog.Logger {
	out := o.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level:     parseLevel(o.Level),
		AddSource: true,
	}

	var handler slog.Handler
	switch resolveFormat(o.Format, o.Environment) {
	case "text":
		if isTerminal(out) {
			out = &colorWriter{writer: out}
		}
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler).With("app", o.AppName)
}

func resolveFormat(format, environment string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "text", "json":
		return f
	}
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "local", "dev", "development":
		return "text"
	default:
		return "json"
	}
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
