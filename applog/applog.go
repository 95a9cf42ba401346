// Package applog is a thin wrapper around github.com/joeycumines/logiface,
// giving every package in this module a shared category taxonomy and a
// timestamped log-file sink, instead of each package constructing its own
// logger.
package applog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/rs/zerolog"
)

// Category is a log source within this module, matching spec.md §7's
// category taxonomy.
type Category string

const (
	CategoryECS      Category = "ecs"
	CategoryService  Category = "service"
	CategoryInput    Category = "input"
	CategoryMainLoop Category = "mainloop"
	CategoryAsync    Category = "async"
)

// Logger embeds a logiface.Logger, adding the category-scoping convenience
// this module's packages use instead of threading raw logiface.Option
// values around.
type Logger[E logiface.Event] struct {
	*logiface.Logger[E]
}

// For returns a child logger with category permanently attached as a field,
// the way a host assigns one logger per subsystem.
func (l *Logger[E]) For(category Category) *logiface.Logger[E] {
	return l.Clone().Str("category", string(category)).Logger()
}

// NewZerolog builds a Logger backed by github.com/rs/zerolog via
// github.com/joeycumines/izerolog — the default backend for a real host
// process, grounded on izerolog.WithZerolog's documented usage.
func NewZerolog(writer io.Writer, level logiface.Level) *Logger[*izerolog.Event] {
	z := zerolog.New(writer).With().Timestamp().Logger()
	return &Logger[*izerolog.Event]{
		Logger: logiface.New[*izerolog.Event](
			izerolog.L.WithZerolog(z),
			logiface.WithLevel[*izerolog.Event](level),
		),
	}
}

// NewStumpy builds a Logger backed by github.com/joeycumines/stumpy, the
// dependency-light alternative suited to embedding contexts that don't want
// zerolog in their closure.
func NewStumpy(writer io.Writer, level logiface.Level) *Logger[*stumpy.Event] {
	return &Logger[*stumpy.Event]{
		Logger: logiface.New[*stumpy.Event](
			stumpy.L.WithStumpy(stumpy.WithWriter(writer)),
			logiface.WithLevel[*stumpy.Event](level),
		),
	}
}

// NewFileSink opens a timestamped log file under the platform's local
// application-data directory (<LocalAppData>/nau/logs on Windows; the
// platform-equivalent cache directory elsewhere, via os.UserCacheDir),
// named "<stem>.<YYYY-MM-DD>.<HH-MM-SS>.log". The caller is responsible for
// closing the returned writer.
func NewFileSink(stem string) (io.WriteCloser, error) {
	dir, err := logDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("applog: create log directory: %w", err)
	}
	name := fmt.Sprintf("%s.%s.log", stem, time.Now().Format("2006-01-02.15-04-05"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("applog: open log file: %w", err)
	}
	return f, nil
}

func logDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("applog: resolve local app data directory: %w", err)
	}
	return filepath.Join(base, "nau", "logs"), nil
}
