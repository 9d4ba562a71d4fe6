package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin structured wrapper over zerolog.
type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	}

	zl := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// NewWriter builds a JSON logger on w, mostly for tests.
func NewWriter(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return &Logger{zl: zerolog.New(w).Level(lvl)}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger that stamps every event with component.
func (l *Logger) With(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { emit(l.zl.Error(), msg, fields) }

func emit(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		f.AddTo(event)
	}
	event.Msg(msg)
}

// Field is a typed key/value attached to a log event.
type Field interface {
	AddTo(event *zerolog.Event)
}

type stringField struct{ key, value string }

func (f stringField) AddTo(e *zerolog.Event) { e.Str(f.key, f.value) }

type intField struct {
	key   string
	value int64
}

func (f intField) AddTo(e *zerolog.Event) { e.Int64(f.key, f.value) }

type floatField struct {
	key   string
	value float64
}

func (f floatField) AddTo(e *zerolog.Event) { e.Float64(f.key, f.value) }

type boolField struct {
	key   string
	value bool
}

func (f boolField) AddTo(e *zerolog.Event) { e.Bool(f.key, f.value) }

type errorField struct{ err error }

func (f errorField) AddTo(e *zerolog.Event) { e.Err(f.err) }

type durationField struct {
	key   string
	value time.Duration
}

func (f durationField) AddTo(e *zerolog.Event) { e.Dur(f.key, f.value) }

type anyField struct {
	key   string
	value interface{}
}

func (f anyField) AddTo(e *zerolog.Event) { e.Interface(f.key, f.value) }

func String(key, value string) Field          { return stringField{key, value} }
func Int(key string, value int) Field         { return intField{key, int64(value)} }
func Int64(key string, value int64) Field     { return intField{key, value} }
func Float64(key string, value float64) Field { return floatField{key, value} }
func Bool(key string, value bool) Field       { return boolField{key, value} }
func Error(err error) Field                   { return errorField{err} }
func Any(key string, value interface{}) Field { return anyField{key, value} }

// Duration is rendered in milliseconds.
func Duration(key string, value time.Duration) Field { return durationField{key, value} }

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}
