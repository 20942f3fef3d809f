package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"ludex/internal/logging"
)

func TestNewConsoleIncludesComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logging.WithComponent(logger, "store").Info("gate acquired", logging.Duration("wait", 0))

	line := buf.String()
	if !strings.Contains(line, "INFO store: gate acquired") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "wait=0s") {
		t.Fatalf("expected wait attr in line: %q", line)
	}
}

func TestNewJSONLowercasesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Warn("slow acquisition", logging.Int("ms", 512))

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("expected lowercase level in %q", out)
	}
	if !strings.Contains(out, `"msg":"slow acquisition"`) {
		t.Fatalf("expected msg key in %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}
