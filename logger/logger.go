package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Format represents the log format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Logger represents a logger instance. The stdio transport owns stdout,
// so diagnostics default to stderr plus any configured files.
type Logger struct {
	*slog.Logger
	mu      sync.Mutex
	writers []io.Writer
	level   slog.Level
	format  Format
}

// New creates a new logger writing to the given destinations.
func New(level slog.Level, format Format, writers ...io.Writer) *Logger {
	l := &Logger{
		writers: writers,
		level:   level,
		format:  format,
	}
	l.rebuild()
	return l
}

func (l *Logger) rebuild() {
	multiWriter := io.MultiWriter(l.writers...)
	opts := &slog.HandlerOptions{Level: l.level}

	var handler slog.Handler
	switch l.format {
	case FormatJSON:
		handler = slog.NewJSONHandler(multiWriter, opts)
	default:
		handler = slog.NewTextHandler(multiWriter, opts)
	}
	l.Logger = slog.New(handler)
}

// SetLevel sets the logging level.
func (l *Logger) SetLevel(level slog.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.rebuild()
}

// Level returns the current log level.
func (l *Logger) Level() slog.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Close closes all file writers, keeping stderr/stdout open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, writer := range l.writers {
		if file, ok := writer.(*os.File); ok {
			if file != os.Stdout && file != os.Stderr {
				if err := file.Close(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// defaultLogger is the package-level logger instance.
var defaultLogger = New(slog.LevelInfo, FormatText, os.Stderr)

// Init initializes the default logger. Paths are optional log files that
// are created along with their parent directories.
func Init(level slog.Level, format Format, paths ...string) error {
	writers := []io.Writer{os.Stderr}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}

	defaultLogger = New(level, format, writers...)
	return nil
}

// SetLevel adjusts the default logger's level at runtime.
func SetLevel(level slog.Level) {
	defaultLogger.SetLevel(level)
}

// Level returns the default logger's current level.
func Level() slog.Level {
	return defaultLogger.Level()
}

// GetLevelFromString returns the log level from a string.
func GetLevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for common logging patterns
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}
