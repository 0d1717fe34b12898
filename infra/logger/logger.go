package logger

import (
	"os"

	"github.com/rs/zerolog"

	corelogger "github.com/kfranzke/leitstelle/core/logger"
)

// Logger aliases the core interface so callers import one package.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// Configure sets the global log level and output format. Console forces the
// human-readable writer regardless of APP_ENV.
func Configure(level string, console bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if console {
		_ = os.Setenv("APP_ENV", "dev")
	}
}
