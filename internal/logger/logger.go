// Package logger wraps zerolog for the monitor's components.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger with helpers for the fields the monitor tags
// its events with.
type Logger struct {
	zerolog.Logger
}

// New logs to the console and, when logFile is set, appends JSON lines to
// that file. Unknown or empty levels mean info.
func New(level string, logFile string) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"},
	}
	if logFile != "" {
		f, err := openLogFile(logFile)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()

	return &Logger{zl}, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// NewWriter creates a JSON logger writing to w. Used by tests that
// assert on log output.
func NewWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{l.With().Str("component", name).Logger()}
}

// ForMessage returns a child logger tagged with the Telegram chat and
// message an event belongs to.
func (l *Logger) ForMessage(chatID int64, messageID int) *Logger {
	return &Logger{l.With().Int64("chat_id", chatID).Int("message_id", messageID).Logger()}
}

var global atomic.Pointer[Logger]

var nop = &Logger{zerolog.Nop()}

// Init builds the process-wide logger returned by Get.
func Init(level string, logFile string) error {
	l, err := New(level, logFile)
	if err != nil {
		return err
	}
	global.Store(l)
	return nil
}

// Get returns the process-wide logger, or a no-op logger before Init.
func Get() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return nop
}
