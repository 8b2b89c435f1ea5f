package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} INFO \[api-backend\] hello$`)

func newTestLogger(t *testing.T, dir string, console *bytes.Buffer) *Logger {
	t.Helper()
	logger, err := New(Config{ServiceName: "api-backend", Dir: dir, Console: console})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return logger
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestNewWritesSameLineToBothSinks(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer
	logger := newTestLogger(t, dir, &console)

	logger.Info("hello")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if logger.Path() != filepath.Join(dir, "api-backend.log") {
		t.Fatalf("path = %q", logger.Path())
	}
	fileLines := readLines(t, logger.Path())
	if len(fileLines) != 1 || !linePattern.MatchString(fileLines[0]) {
		t.Fatalf("file lines = %q", fileLines)
	}
	consoleLine := strings.TrimRight(console.String(), "\n")
	if !linePattern.MatchString(consoleLine) {
		t.Fatalf("console line = %q", consoleLine)
	}
}

func TestNewFiltersBelowInfo(t *testing.T) {
	var console bytes.Buffer
	logger := newTestLogger(t, t.TempDir(), &console)
	defer logger.Close()

	logger.Debug("quiet")
	if console.Len() != 0 {
		t.Fatalf("expected debug to be dropped, got %q", console.String())
	}
}

func TestNewRendersFieldsAfterMessage(t *testing.T) {
	var console bytes.Buffer
	logger := newTestLogger(t, t.TempDir(), &console)
	defer logger.Close()

	logger.Info("/version called", zap.String("version", "1.2.3"))
	line := console.String()
	if !strings.Contains(line, `INFO [api-backend] /version called {"version": "1.2.3"}`) {
		t.Fatalf("line = %q", line)
	}
}

func TestNewAppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName("api-backend"))
	if err := os.WriteFile(path, []byte("previous run\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	logger := newTestLogger(t, dir, &bytes.Buffer{})
	logger.Info("hello")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if lines[0] != "previous run" {
		t.Fatalf("expected previous content preserved, got %q", lines[0])
	}
	if !linePattern.MatchString(lines[1]) {
		t.Fatalf("appended line = %q", lines[1])
	}
}

func TestNewFailsWhenDirCannotBeCreated(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("seed blocker: %v", err)
	}

	_, err := New(Config{ServiceName: "api-backend", Dir: filepath.Join(blocker, "logs")})
	if err == nil {
		t.Fatal("expected error when log dir is under a regular file")
	}
	if !strings.Contains(err.Error(), "create log dir") {
		t.Fatalf("expected create log dir error, got %v", err)
	}
}

func TestNewRejectsInvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing service", cfg: Config{Dir: t.TempDir()}},
		{name: "missing dir", cfg: Config{ServiceName: "api-backend"}},
		{name: "bad level", cfg: Config{ServiceName: "api-backend", Dir: t.TempDir(), Level: "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDefaultDirEndsInLogs(t *testing.T) {
	if filepath.Base(DefaultDir()) != "logs" {
		t.Fatalf("default dir = %q", DefaultDir())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	if logger.Path() != "" {
		t.Fatal("expected empty path")
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
