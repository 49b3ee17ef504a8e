package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/config"
	"github.com/ComittmentIssues/esp32-error-decoder/internal/logging"
)

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "consumer").Info("status updated", logging.Int(logging.FieldStatusCode, 5))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
	if !strings.Contains(line, "INFO consumer: status updated status_code=5") {
		t.Fatalf("unexpected console line %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleQuotesValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "quoted.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("informational field", logging.String("value", `say "hi"`), logging.String("empty", ""))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `value="say \"hi\""`) || !strings.Contains(string(content), `empty=""`) {
		t.Fatalf("expected quoted values, got %q", content)
	}
}

func TestFilePathReceivesJSONCopy(t *testing.T) {
	dir := t.TempDir()
	consolePath := filepath.Join(dir, "console.log")
	filePath := filepath.Join(dir, "nested", "blinkcode.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{consolePath},
		FilePath:    filePath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "status rejected", "status_rejected", logging.Int(logging.FieldCandidate, 16))

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("read json log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("decode json log %q: %v", data, err)
	}
	if record["level"] != "warn" || record["msg"] != "status rejected" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
	if record[logging.FieldEventType] != "status_rejected" || record[logging.FieldImpact] != "status unchanged" {
		t.Fatalf("expected injected warning fields, got %v", record)
	}
	if record[logging.FieldCandidate] != float64(16) {
		t.Fatalf("expected candidate 16, got %v", record[logging.FieldCandidate])
	}
	if console, _ := os.ReadFile(consolePath); !strings.Contains(string(console), "WARN status rejected") {
		t.Fatalf("expected console copy, got %q", console)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Logging.Format = "json"
	logger, err := logging.NewFromConfig(&cfg, true)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started")
	if _, err := os.Stat(cfg.LogPath()); err != nil {
		t.Fatalf("expected log file at %s: %v", cfg.LogPath(), err)
	}
}

func TestErrorWithContextKeepsExplicitHint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.ErrorWithContext(logger, "indicator failed", "indicator_failed",
		logging.String(logging.FieldErrorHint, "check gpio permissions"),
		logging.Error(errors.New("permission denied")),
	)
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldErrorHint] != "check gpio permissions" {
		t.Fatalf("explicit hint overwritten: %v", record)
	}
	if record[logging.FieldEventType] != "indicator_failed" {
		t.Fatalf("expected event type, got %v", record)
	}
}

func TestWithContextAddsMessageSeq(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := logging.WithMessageSeq(context.Background(), 42)

	logging.WithContext(ctx, logger).Info("payload received")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldMessageSeq] != float64(42) {
		t.Fatalf("expected message_seq 42, got %v", record)
	}
	if logging.WithContext(context.Background(), logger) != logger {
		t.Fatal("expected logger unchanged without context fields")
	}
}

func TestArgsFeedsLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	args := logging.Args(logging.String(logging.FieldComponent, "consumer"), logging.Int(logging.FieldStatusCode, 9))
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}

	logger.With(args...).Info("status updated")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldComponent] != "consumer" || record[logging.FieldStatusCode] != float64(9) {
		t.Fatalf("expected attrs on record, got %v", record)
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected nop logger to be disabled")
	}
	logging.NewComponentLogger(nil, "x").Info("discarded")
}
