package app

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Logger interface for app layer
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the level name written to log files
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// LogLevelFromString converts a string to LogLevel, defaulting to INFO
func LogLevelFromString(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// TimestampLayout matches the asctime layout of the run log
const TimestampLayout = "2006-01-02 15:04:05,000"

// Sink is one destination of a RunLogger
type Sink struct {
	Writer    io.Writer
	MinLevel  LogLevel
	ShowLevel bool // include the level name after the timestamp
}

// RunLogger writes every message to each sink whose level admits it.
// The run log file gets full detail while the console gets a coarser view.
type RunLogger struct {
	mu    sync.Mutex
	sinks []Sink
	now   func() time.Time
}

// NewRunLogger creates a logger over the given sinks
func NewRunLogger(sinks ...Sink) *RunLogger {
	return &RunLogger{
		sinks: sinks,
		now:   time.Now,
	}
}

// FileSink logs timestamp, level and message
func FileSink(w io.Writer, minLevel LogLevel) Sink {
	return Sink{Writer: w, MinLevel: minLevel, ShowLevel: true}
}

// ConsoleSink logs timestamp and message
func ConsoleSink(w io.Writer, minLevel LogLevel) Sink {
	return Sink{Writer: w, MinLevel: minLevel}
}

// SetClock overrides the timestamp source
func (l *RunLogger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Debug logs a debug message
func (l *RunLogger) Debug(format string, args ...interface{}) {
	l.log(LogLevelDebug, format, args...)
}

// Info logs an info message
func (l *RunLogger) Info(format string, args ...interface{}) {
	l.log(LogLevelInfo, format, args...)
}

// Warn logs a warning message
func (l *RunLogger) Warn(format string, args ...interface{}) {
	l.log(LogLevelWarn, format, args...)
}

// Error logs an error message
func (l *RunLogger) Error(format string, args ...interface{}) {
	l.log(LogLevelError, format, args...)
}

func (l *RunLogger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	ts := l.now().Format(TimestampLayout)
	for _, s := range l.sinks {
		if s.Writer == nil || level < s.MinLevel {
			continue
		}
		if s.ShowLevel {
			fmt.Fprintf(s.Writer, "%s %s %s\n", ts, level, msg)
		} else {
			fmt.Fprintf(s.Writer, "%s %s\n", ts, msg)
		}
	}
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debug(format string, args ...interface{}) {}
func (NopLogger) Info(format string, args ...interface{})  {}
func (NopLogger) Warn(format string, args ...interface{})  {}
func (NopLogger) Error(format string, args ...interface{}) {}
