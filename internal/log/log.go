// Package log provides categorized structured logging for partymix.
//
// Logging is disabled until Init is called so that terminal UIs are not
// corrupted by stray output.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
)

// Category groups log lines by subsystem.
type Category string

// Log categories.
const (
	CatAudio   Category = "audio"
	CatBank    Category = "bank"
	CatAssets  Category = "assets"
	CatConfig  Category = "config"
	CatUI      Category = "ui"
	CatTrace   Category = "trace"
	CatHistory Category = "history"
)

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Init directs logging to the file at path. An empty path logs to stderr.
// The returned cleanup closes the file.
func Init(path string, debugEnabled bool) (func(), error) {
	w := io.Writer(os.Stderr)
	cleanup := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return cleanup, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		cleanup = func() { _ = f.Close() }
	}
	SetOutput(w, debugEnabled)
	return cleanup, nil
}

// SetOutput directs logging to w.
func SetOutput(w io.Writer, debugEnabled bool) {
	level := slog.LevelInfo
	if debugEnabled {
		level = slog.LevelDebug
	}
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Disable discards all further log output.
func Disable() {
	SetOutput(io.Discard, false)
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs at debug level.
func Debug(cat Category, msg string, kv ...any) {
	current().Debug(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// Info logs at info level.
func Info(cat Category, msg string, kv ...any) {
	current().Info(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// Warn logs at warn level.
func Warn(cat Category, msg string, kv ...any) {
	current().Warn(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// Error logs at error level.
func Error(cat Category, msg string, kv ...any) {
	current().Error(msg, append([]any{"cat", string(cat)}, kv...)...)
}

// ErrorErr logs err at error level.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	Error(cat, msg, append([]any{"error", err}, kv...)...)
}

// SafeGo runs fn on a new goroutine, logging instead of crashing on panic.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Error(CatAudio, "Recovered panic in goroutine",
					"goroutine", name,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
