// Package log provides scoped structured loggers on top of zerolog.
//
// A logger is obtained with [New] (a named scope on the global logger) or [Ctx] (the logger
// stored in a context). Attributes such as [NS], [Count] or [Size] are attached with
// [Logger.With].
package log

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

const timeFormat = "2006-01-02 15:04:05.000"

// Logger is a scoped structured logger.
type Logger struct {
	zl zerolog.Logger
}

// InitGlobals configures the global logger and returns it. Output goes to stderr: stdout is
// reserved for the progress indicator and the summary line.
func InitGlobals(level zerolog.Level, json, noColor bool) *Logger {
	return initGlobals(os.Stderr, level, json, noColor)
}

func initGlobals(out io.Writer, level zerolog.Level, json, noColor bool) *Logger {
	if !json {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    noColor,
			TimeFormat: timeFormat,
		}
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	zl := zerolog.New(out).With().Timestamp().Logger()
	zlog.Logger = zl
	zerolog.DefaultContextLogger = &zl

	return &Logger{zl: zl}
}

// New returns a logger for the given scope.
func New(scope string) *Logger {
	return &Logger{zl: zlog.Logger.With().Str("s", scope).Logger()}
}

// Ctx returns the logger stored in ctx, or the global one.
func Ctx(ctx context.Context) *Logger {
	return &Logger{zl: *zerolog.Ctx(ctx)}
}

// WithContext returns a copy of ctx that carries l.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.zl.WithContext(ctx)
}

// With returns a child logger with the attributes attached.
func (l *Logger) With(attrs ...Attr) *Logger {
	c := l.zl.With()
	for _, attr := range attrs {
		c = attr(c)
	}

	return &Logger{zl: c.Logger()}
}

func (l *Logger) Trace(msg string) {
	l.zl.Trace().Msg(msg)
}

func (l *Logger) Tracef(format string, vals ...any) {
	l.zl.Trace().Msgf(format, vals...)
}

func (l *Logger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
}

func (l *Logger) Debugf(format string, vals ...any) {
	l.zl.Debug().Msgf(format, vals...)
}

func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

func (l *Logger) Infof(format string, vals ...any) {
	l.zl.Info().Msgf(format, vals...)
}

func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}

func (l *Logger) Warnf(format string, vals ...any) {
	l.zl.Warn().Msgf(format, vals...)
}

// Error logs err at error level.
func (l *Logger) Error(err error, msg string) {
	l.zl.Error().Err(err).Msg(msg)
}

func (l *Logger) Errorf(err error, format string, vals ...any) {
	l.zl.Error().Err(err).Msgf(format, vals...)
}
