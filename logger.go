package store

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	// LogLevelDebug for detailed diagnostic information
	LogLevelDebug LogLevel = iota
	// LogLevelInfo for general informational messages
	LogLevelInfo
	// LogLevelWarn for warning messages
	LogLevelWarn
	// LogLevelError for error messages
	LogLevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel accepts debug, info, warn/warning and error in any case.
// Unknown names fall back to info.
func ParseLogLevel(name string) LogLevel {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return LogLevelInfo
	}
	switch lvl {
	case logrus.DebugLevel, logrus.TraceLevel:
		return LogLevelDebug
	case logrus.WarnLevel:
		return LogLevelWarn
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return LogLevelError
	}
	return LogLevelInfo
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	}
	return logrus.InfoLevel
}

// Logger is the interface for structured logging in the storefront packages.
// The default implementation is logrus; anything else (zap, zerolog, ...)
// can be plugged in.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With creates a new logger with the given fields pre-populated
	With(fields ...Field) Logger

	// SetLevel sets the minimum log level
	SetLevel(level LogLevel)
}

// Field represents a structured logging field (key-value pair)
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand constructor for Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Common field constructors for convenience
func String(key, value string) Field             { return Field{key, value} }
func Int(key string, value int) Field            { return Field{key, value} }
func Int64(key string, value int64) Field        { return Field{key, value} }
func Float64(key string, value float64) Field    { return Field{key, value} }
func Bool(key string, value bool) Field          { return Field{key, value} }
func Error(err error) Field                      { return Field{"error", err} }
func Duration(key string, d time.Duration) Field { return Field{key, d} }
func Any(key string, value interface{}) Field    { return Field{key, value} }

// DefaultLogger implements Logger on top of a logrus entry.
type DefaultLogger struct {
	entry *logrus.Entry
}

// NewDefaultLogger creates a logrus-backed logger writing text lines to
// stdout at the given minimum level.
func NewDefaultLogger(minLevel LogLevel) *DefaultLogger {
	return NewLoggerWithWriter(os.Stdout, minLevel)
}

// NewLoggerWithWriter is NewDefaultLogger with a custom destination.
func NewLoggerWithWriter(w io.Writer, minLevel LogLevel) *DefaultLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(minLevel.logrus())
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return &DefaultLogger{entry: logrus.NewEntry(l)}
}

// NewLogrusLogger adapts an existing logrus logger.
func NewLogrusLogger(l *logrus.Logger) *DefaultLogger {
	return &DefaultLogger{entry: logrus.NewEntry(l)}
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.withFields(fields).Debug(msg)
}

func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.withFields(fields).Info(msg)
}

func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.withFields(fields).Warn(msg)
}

func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.withFields(fields).Error(msg)
}

// With creates a new logger with pre-populated fields
func (l *DefaultLogger) With(fields ...Field) Logger {
	return &DefaultLogger{entry: l.withFields(fields)}
}

// SetLevel sets the minimum log level. The level lives on the underlying
// logrus logger, so loggers derived with With share it.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.entry.Logger.SetLevel(level.logrus())
}

func (l *DefaultLogger) withFields(fields []Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		if f.Key == "error" {
			if err, ok := f.Value.(error); ok {
				lf[logrus.ErrorKey] = err
				continue
			}
		}
		lf[f.Key] = f.Value
	}
	return l.entry.WithFields(lf)
}

// NewNoopLogger creates a logger that doesn't log anything (useful for testing)
func NewNoopLogger() Logger {
	return &NoopLogger{}
}

// NoopLogger is a logger that doesn't log anything
type NoopLogger struct{}

func (n *NoopLogger) Debug(msg string, fields ...Field) {}
func (n *NoopLogger) Info(msg string, fields ...Field)  {}
func (n *NoopLogger) Warn(msg string, fields ...Field)  {}
func (n *NoopLogger) Error(msg string, fields ...Field) {}
func (n *NoopLogger) With(fields ...Field) Logger       { return n }
func (n *NoopLogger) SetLevel(level LogLevel)           {}

// Global default logger - can be replaced by applications
var defaultLogger Logger = NewDefaultLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger used when a façade is
// built without one.
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		logger = NewNoopLogger()
	}
	defaultLogger = logger
}

// GetDefaultLogger returns the current default logger
func GetDefaultLogger() Logger {
	return defaultLogger
}
