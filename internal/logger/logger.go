package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.Mutex
	global *slog.Logger
)

// Config holds logger configuration.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json, text
	AddSource bool
}

// ParseLevel maps a level name to a slog.Level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init installs the process-wide logger on stderr and makes it the slog
// default.
func Init(cfg Config) *slog.Logger {
	l := New(cfg, os.Stderr)
	mu.Lock()
	global = l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

// Get returns the process-wide logger, initializing it at info level on first
// use.
func Get() *slog.Logger {
	mu.Lock()
	l := global
	mu.Unlock()
	if l == nil {
		return Init(Config{Level: "info", Format: "text"})
	}
	return l
}

// Adapter exposes a slog.Logger through printf-style methods, as expected by
// the client and provisioning packages.
type Adapter struct {
	l *slog.Logger
}

// ClientLogger adapts l. A nil l uses the process-wide logger.
func ClientLogger(l *slog.Logger) *Adapter {
	if l == nil {
		l = Get()
	}
	return &Adapter{l: l}
}

func (a *Adapter) Debugf(format string, args ...any) {
	a.l.Debug(fmt.Sprintf(format, args...))
}

func (a *Adapter) Infof(format string, args ...any) {
	a.l.Info(fmt.Sprintf(format, args...))
}

func (a *Adapter) Warnf(format string, args ...any) {
	a.l.Warn(fmt.Sprintf(format, args...))
}

func (a *Adapter) Errorf(format string, args ...any) {
	a.l.Error(fmt.Sprintf(format, args...))
}
