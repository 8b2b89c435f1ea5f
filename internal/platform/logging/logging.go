// Package logging builds the process logger.
//
// Every record is written twice, once to the console and once to an
// append-only file, using the line layout
//
//	<timestamp> <LEVEL> [<service>] <message> <fields>
//
// so both sinks can be shipped by the same collector configuration.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout is the timestamp layout of every log line.
const TimeLayout = "2006-01-02 15:04:05,000"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Config describes the logger sinks.
type Config struct {
	// ServiceName names the logger and the log file.
	ServiceName string
	// Dir is the directory holding <ServiceName>.log. It is created if absent.
	Dir string
	// Level is the minimum level (debug, info, warn, error). Empty means info.
	Level string
	// Console receives the console copy of each record. Nil means stdout.
	Console io.Writer
}

// Logger is a zap logger that owns its file sink.
type Logger struct {
	*zap.Logger
	file *os.File
}

// New creates the log directory and file and returns a logger writing to
// both sinks. A failure to create either is returned; there is no fallback
// to console-only logging.
func New(cfg Config) (*Logger, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		return nil, errors.New("service name is required")
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("log directory is required")
	}
	level := zapcore.InfoLevel
	if strings.TrimSpace(cfg.Level) != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	if err := os.MkdirAll(cfg.Dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(cfg.Dir, FileName(name))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	enabler := zap.NewAtomicLevelAt(level)
	core := zapcore.NewTee(
		zapcore.NewCore(newEncoder(), zapcore.Lock(zapcore.AddSync(console)), enabler),
		zapcore.NewCore(newEncoder(), zapcore.Lock(file), enabler),
	)
	return &Logger{
		Logger: zap.New(core).Named(name),
		file:   file,
	}, nil
}

// FileName returns the log file name for a service.
func FileName(serviceName string) string {
	return serviceName + ".log"
}

// DefaultDir returns the logs directory next to the running executable,
// falling back to ./logs when the executable path is unknown.
func DefaultDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(exe), "logs")
}

// Path returns the log file path.
func (l *Logger) Path() string {
	if l == nil || l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close flushes buffered records and closes the file sink.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	// Syncing a terminal stdout fails on some platforms; only the file matters.
	_ = l.Logger.Sync()
	return l.file.Close()
}

func newEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout(TimeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       bracketNameEncoder,
		ConsoleSeparator: " ",
	})
}

func bracketNameEncoder(name string, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + name + "]")
}
