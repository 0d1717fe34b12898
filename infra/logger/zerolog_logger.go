package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts rs/zerolog to the core logging interface. Each
// subsystem gets its own component field, so a shift's output can be
// filtered down to dispatch, incident or patrol traffic.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger builds a logger for the named subsystem. APP_ENV=dev
// selects the human-readable console writer; anything else emits JSON.
func NewZerologLogger(component string) Logger {
	base := zerolog.New(os.Stdout)
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	z := base.With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
