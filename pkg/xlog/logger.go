package xlog

import (
	"log/slog"
	"time"
)

// Level is the severity of a log entry.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String renders the level's conventional uppercase name.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Field is one piece of structured context attached to a log entry.
type Field struct {
	Key   string
	Value any
}

func Str(key, value string) Field      { return Field{Key: key, Value: value} }
func Int(key string, value int) Field  { return Field{Key: key, Value: value} }
func Err(err error) Field              { return Field{Key: "error", Value: err} }
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d}
}

// Entry is one fully-formed log record passed to a Formatter/Output.
type Entry struct {
	Level     Level
	Message   string
	Fields    map[string]any
	Timestamp time.Time
}

// Logger is pubsubd's logging facade.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	WithComponent(name string) Logger

	SetLevel(level Level)
	GetLevel() Level

	// Slog exposes the underlying slog.Logger for libraries that expect
	// one directly (e.g. a third-party client that accepts *slog.Logger).
	Slog() *slog.Logger
}

// Formatter renders an Entry to bytes.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Output writes a formatted entry somewhere.
type Output interface {
	Write(entry *Entry, formatted []byte) error
	Close() error
}

// Option configures a Logger built by New.
type Option func(*baseLogger)

// WithLevel sets the minimum level that will be emitted.
func WithLevel(level Level) Option {
	return func(l *baseLogger) { l.level = level }
}

// WithFormatter sets the entry formatter. Defaults to JSONFormatter.
func WithFormatter(f Formatter) Option {
	return func(l *baseLogger) { l.formatter = f }
}

// WithOutput adds an output. Defaults to a single ConsoleOutput if none is
// configured.
func WithOutput(o Output) Option {
	return func(l *baseLogger) { l.outputs = append(l.outputs, o) }
}

type baseLogger struct {
	level     Level
	fields    map[string]any
	formatter Formatter
	outputs   []Output
	slog      *slog.Logger
}

// New builds a Logger from the given options.
func New(opts ...Option) Logger {
	l := &baseLogger{
		level:     InfoLevel,
		fields:    map[string]any{},
		formatter: &JSONFormatter{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.outputs) == 0 {
		l.outputs = []Output{NewConsoleOutput()}
	}
	l.slog = slog.New(newBridgeHandler(l))
	return l
}

func (l *baseLogger) log(level Level, msg string, fields ...Field) {
	if level < l.level {
		return
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	entry := &Entry{Level: level, Message: msg, Fields: merged, Timestamp: time.Now()}
	formatted, err := l.formatter.Format(entry)
	if err != nil {
		return
	}
	for _, out := range l.outputs {
		_ = out.Write(entry, formatted)
	}
}

func (l *baseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }
func (l *baseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields...) }
func (l *baseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields...) }
func (l *baseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

func (l *baseLogger) With(fields ...Field) Logger {
	nl := *l
	nl.fields = make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		nl.fields[k] = v
	}
	for _, f := range fields {
		nl.fields[f.Key] = f.Value
	}
	nl.slog = slog.New(newBridgeHandler(&nl))
	return &nl
}

func (l *baseLogger) WithComponent(name string) Logger {
	return l.With(Str("component", name))
}

func (l *baseLogger) SetLevel(level Level) { l.level = level }
func (l *baseLogger) GetLevel() Level      { return l.level }
func (l *baseLogger) Slog() *slog.Logger   { return l.slog }
