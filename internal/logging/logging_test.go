package logging

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestInit_TextHandlerByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Init(Config{Writer: &buf, Level: slog.LevelInfo})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("output = %q, want text-formatted msg=hello", buf.String())
	}
}

func TestInit_JSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Init(Config{Writer: &buf, Format: FormatJSON, Level: slog.LevelInfo})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Fatalf("output = %q, want JSON-formatted msg field", buf.String())
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Init(Config{Writer: &buf, Level: slog.LevelWarn})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info below warn level to be filtered, got %q", buf.String())
	}
	logger.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("output = %q, want the warn line", buf.String())
	}
}

func TestInit_SetsDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Init(Config{Writer: &buf, Level: slog.LevelInfo}); err != nil {
		t.Fatal(err)
	}
	slog.Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Fatalf("expected slog.SetDefault to route through Init's writer, got %q", buf.String())
	}
}

func TestInit_LogFileRoutesThroughRotatelog(t *testing.T) {
	dir := t.TempDir()
	logFile := dir + "/app.log"
	logger, err := Init(Config{LogFile: logFile, Level: slog.LevelInfo})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("on disk")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "on disk") {
		t.Fatalf("log file contents = %q, want it to contain the logged line", data)
	}
}
