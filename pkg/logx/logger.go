package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Format represents the output format
type Format string

const (
	// FormatConsole outputs colored console logs (default)
	FormatConsole Format = "console"
	// FormatJSON outputs JSON formatted logs
	FormatJSON Format = "json"
)

// Fields is a map of structured data
type Fields map[string]interface{}

// Config holds the logger configuration
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format
	Format Format

	// EnableColors enables colored output (only for console format)
	EnableColors bool

	// TimeFormat is the time format to use (defaults to RFC3339)
	TimeFormat string

	// Output is where to write logs (defaults to os.Stdout)
	Output io.Writer
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Level:        LevelInfo,
		Format:       FormatConsole,
		EnableColors: true,
		TimeFormat:   time.RFC3339,
		Output:       os.Stdout,
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = ParseLevel(level)
	}

	if format := os.Getenv("LOG_FORMAT"); strings.ToLower(format) == "json" {
		config.Format = FormatJSON
	}

	if color := os.Getenv("LOG_COLOR"); color != "" {
		config.EnableColors = strings.ToLower(color) == "true" || color == "1"
	}

	return config
}

// LogEntry represents a single log entry
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Timestamp time.Time
}

// Formatter is the interface for log formatters
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// Logger is the main logger instance
type Logger struct {
	config    *Config
	formatter Formatter
	mu        sync.Mutex
	writer    io.Writer
	exitFunc  func(int)
}

// NewLogger creates a new logger with the given config
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	var formatter Formatter
	switch config.Format {
	case FormatJSON:
		formatter = &jsonFormatter{config: config}
	default:
		formatter = &consoleFormatter{config: config}
	}

	writer := config.Output
	if writer == nil {
		writer = os.Stdout
	}

	return &Logger{
		config:    config,
		formatter: formatter,
		writer:    writer,
		exitFunc:  os.Exit,
	}
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// WithField creates a new entry with a field
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithFields creates a new entry with fields
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithError creates a new entry with an error
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

// log is the internal logging method
func (l *Logger) log(level Level, msg string, fields Fields, err error) {
	if !l.config.Level.Enabled(level) {
		return
	}

	entry := &LogEntry{
		Level:     level,
		Message:   msg,
		Fields:    fields,
		Error:     err,
		Timestamp: time.Now(),
	}

	formatted, formatErr := l.formatter.Format(entry)
	if formatErr != nil {
		fmt.Fprintf(os.Stderr, "Error formatting log: %v\n", formatErr)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, writeErr := l.writer.Write(formatted); writeErr != nil {
		fmt.Fprintf(os.Stderr, "Error writing log: %v\n", writeErr)
	}
}

// exit calls the exit function (useful for testing)
func (l *Logger) exit(code int) {
	l.exitFunc(code)
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorBold   = "\033[1;97m"
)

// consoleFormatter formats logs for console output with colors
type consoleFormatter struct {
	config *Config
}

func (f *consoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	timestamp := entry.Timestamp.Format(f.config.TimeFormat)
	if f.config.EnableColors {
		b.WriteString(colorGray + timestamp + colorReset)
	} else {
		b.WriteString(timestamp)
	}
	b.WriteString(" ")

	level := fmt.Sprintf("%-5s", entry.Level.String())
	if f.config.EnableColors {
		b.WriteString(f.levelColor(entry.Level) + level + colorReset)
	} else {
		b.WriteString(level)
	}
	b.WriteString(" ")

	b.WriteString(entry.Message)

	if entry.Error != nil {
		if f.config.EnableColors {
			b.WriteString(" " + colorRed + "error=" + entry.Error.Error() + colorReset)
		} else {
			b.WriteString(" error=" + entry.Error.Error())
		}
	}

	for k, v := range entry.Fields {
		if k == "error" && entry.Error != nil {
			continue
		}
		if f.config.EnableColors {
			b.WriteString(fmt.Sprintf(" %s%s=%s%v", colorCyan, k, colorReset, v))
		} else {
			b.WriteString(fmt.Sprintf(" %s=%v", k, v))
		}
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

func (f *consoleFormatter) levelColor(level Level) string {
	switch level {
	case LevelDebug:
		return colorGray
	case LevelInfo:
		return colorGreen
	case LevelWarn:
		return colorYellow
	case LevelError, LevelFatal:
		return colorRed
	default:
		return colorBold
	}
}

// jsonFormatter formats logs as JSON
type jsonFormatter struct {
	config *Config
}

func (f *jsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+4)

	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	data["timestamp"] = entry.Timestamp.Format(time.RFC3339Nano)

	for k, v := range entry.Fields {
		data[k] = v
	}

	if entry.Error != nil {
		data["error"] = entry.Error.Error()
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return append(bytes, '\n'), nil
}
