// Package logging wraps zerolog with the handful of levels and fields
// nado actually emits: run-level progress, per-case diagnostics, and
// failure summaries.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is one of the four supported log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the wire shape of emitted log lines.
type Format string

const (
	// FormatConsole is a human-readable, colorized single-line format,
	// suited to an interactive terminal.
	FormatConsole Format = "console"
	// FormatJSON is structured JSON, suited to log aggregation.
	FormatJSON Format = "json"
)

// Config controls logger construction.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer // defaults to os.Stderr
}

// Logger is a thin, leveled wrapper over a zerolog.Logger.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if cfg.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	z := zerolog.New(w).With().Timestamp().Logger().Level(levelOf(cfg.Level))
	return &Logger{z: z}
}

func levelOf(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// With returns a child Logger carrying an additional structured field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{z: l.z.With().Interface(key, value).Logger()}
}

func (l *Logger) Debug(msg string) { l.z.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.z.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.z.Warn().Msg(msg) }

// Error logs msg at error level, attaching err when non-nil.
func (l *Logger) Error(msg string, err error) {
	ev := l.z.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
}

// CaseFailure logs one differential failure at warn level with
// structured fields a reader can grep for.
func (l *Logger) CaseFailure(caseIndex int, candidate, reason string) {
	l.z.Warn().
		Int("case", caseIndex).
		Str("candidate", candidate).
		Str("reason", reason).
		Msg("candidate diverged from origin")
}

// RunSummary logs one line at info level summarizing a completed run:
// how many cases were evaluated, how many failures (candidate or
// infrastructure) were retained, and how long the run took.
func (l *Logger) RunSummary(casesTotal, failuresTotal int, duration time.Duration) {
	l.z.Info().
		Int("cases_total", casesTotal).
		Int("failures_total", failuresTotal).
		Dur("duration", duration).
		Msg("run complete")
}
