// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// LogFormat selects how log lines are rendered.
type LogFormat string

const (
	FormatConsole LogFormat = "console"
	FormatJSON    LogFormat = "json"
)

// tagField carries the short level tag ("INF", "VRB", ...) because
// zerolog has no level between debug and info.
const tagField = "tag"

// Logger writes levelled messages to stderr.  It is a thin facade over
// zerolog: console output renders as "[INF] message", JSON output as
// one object per line.
type Logger struct {
	level      LogLevel
	format     LogFormat
	output     io.Writer
	timestamps bool
	fields     map[string]string

	mu *sync.Mutex
	zl zerolog.Logger
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	l := &Logger{
		level:      LogLevel(verbosity),
		format:     FormatConsole,
		output:     os.Stderr,
		timestamps: verbosity >= 3, // auto-enable timestamps in debug mode
		mu:         &sync.Mutex{},
	}
	l.rebuild()
	return l
}

// ParseLogFormat validates a --log-format value.
func ParseLogFormat(s string) (LogFormat, error) {
	switch f := LogFormat(strings.ToLower(s)); f {
	case FormatConsole, FormatJSON:
		return f, nil
	case "":
		return FormatConsole, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want console or json)", s)
	}
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.timestamps = on
	l.rebuild()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.rebuild()
}

// SetFormat switches between console and JSON rendering.
func (l *Logger) SetFormat(f LogFormat) {
	l.format = f
	l.rebuild()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// With returns a child logger that attaches key=value to every JSON
// line.  Console output stays unchanged.  The child shares the
// parent's writer lock.
func (l *Logger) With(key, value string) *Logger {
	child := *l
	child.fields = make(map[string]string, len(l.fields)+1)
	for k, v := range l.fields {
		child.fields[k] = v
	}
	child.fields[key] = value
	child.rebuild()
	return &child
}

func (l *Logger) rebuild() {
	var w io.Writer = l.output
	if l.format == FormatConsole {
		parts := []string{tagField, zerolog.MessageFieldName}
		if l.timestamps {
			parts = append([]string{zerolog.TimestampFieldName}, parts...)
		}
		w = zerolog.ConsoleWriter{
			Out:        l.output,
			NoColor:    true,
			TimeFormat: "15:04:05.000",
			PartsOrder: parts,
			FormatFieldValue: func(i interface{}) string {
				return fmt.Sprintf("[%v]", i)
			},
			FieldsExclude: l.consoleExcludes(),
		}
	}

	ctx := zerolog.New(w).Level(zerolog.DebugLevel).With()
	if l.timestamps || l.format == FormatJSON {
		ctx = ctx.Timestamp()
	}
	for k, v := range l.fields {
		ctx = ctx.Str(k, v)
	}
	l.zl = ctx.Logger()
}

func (l *Logger) consoleExcludes() []string {
	out := []string{tagField}
	for k := range l.fields {
		out = append(out, k)
	}
	return out
}

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write(zerolog.InfoLevel, "INF", format, args...)
	}
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write(zerolog.WarnLevel, "WRN", format, args...)
	}
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	if l.level >= LogVerbose {
		l.write(zerolog.DebugLevel, "VRB", format, args...)
	}
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogDebug {
		l.write(zerolog.DebugLevel, "DBG", format, args...)
	}
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(zerolog.ErrorLevel, "ERR", format, args...)
}

func (l *Logger) write(lvl zerolog.Level, tag, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.zl.WithLevel(lvl).Str(tagField, tag).Msgf(format, args...)
}
