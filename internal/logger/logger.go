package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config controls how a Logger formats and where it writes.
type Config struct {
	Level  string    // debug, info, warn, error
	Format string    // text or json
	Output io.Writer // defaults to os.Stderr
}

// DefaultConfig returns the configuration used before flags and settings are read.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Output: os.Stderr,
	}
}

// Logger wraps slog.Logger with helpers for the attributes Avalanche logs most.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from config. Unknown levels fall back to info and
// unknown formats fall back to text.
func New(config Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(config.Level)}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// With returns a Logger that adds attrs to every record.
func (l *Logger) With(attrs ...any) *Logger {
	return &Logger{Logger: l.Logger.With(attrs...)}
}

// WithComponent tags every record with the emitting package.
func (l *Logger) WithComponent(component string) *Logger {
	return l.With("component", component)
}

// WithOperation tags every record with the operation being performed.
func (l *Logger) WithOperation(operation string) *Logger {
	return l.With("operation", operation)
}

// WithError attaches err to every record.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With("error", err.Error())
}

func (l *Logger) DebugOperation(operation string, attrs ...any) {
	l.Debug("operation", append([]any{"operation", operation}, attrs...)...)
}

func (l *Logger) InfoOperation(operation string, attrs ...any) {
	l.Info("operation", append([]any{"operation", operation}, attrs...)...)
}

func (l *Logger) ErrorOperation(operation string, err error, attrs ...any) {
	all := []any{"operation", operation}
	if err != nil {
		all = append(all, "error", err.Error())
	}
	l.Error("operation failed", append(all, attrs...)...)
}

// GitCommand logs a git invocation at debug level.
func (l *Logger) GitCommand(command string, args []string, attrs ...any) {
	l.Debug("executing git command",
		append([]any{"command", command, "args", strings.Join(args, " ")}, attrs...)...)
}

// GitResult logs the outcome of a git invocation. Output is truncated so
// large porcelain listings do not flood the log.
func (l *Logger) GitResult(command string, success bool, output string, attrs ...any) {
	all := []any{"command", command, "success", success}
	if output = strings.TrimSpace(output); output != "" {
		all = append(all, "output", truncate(output, 500))
	}
	all = append(all, attrs...)

	if success {
		l.Debug("git command completed", all...)
		return
	}
	l.Debug("git command failed", all...)
}

// Performance logs how long an operation took.
func (l *Logger) Performance(operation string, duration interface{}, attrs ...any) {
	if d, ok := duration.(time.Duration); ok {
		duration = d.String()
	}
	l.Debug("performance", append([]any{"operation", operation, "duration", duration}, attrs...)...)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
