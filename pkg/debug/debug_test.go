package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.DebugLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogWritesToRotatedFile(t *testing.T) {
	prevEnabled := enabled
	t.Cleanup(func() {
		Init(Options{})
		SetEnabled(prevEnabled)
	})

	path := filepath.Join(t.TempDir(), "debug.log")
	Init(Options{File: path})
	SetEnabled(true)

	Log("fetched %d nodes", 42)
	With("stale response", "kind", "tree")
	LogTiming("list_nodes", 1500*time.Microsecond)
	LogIf(true, "empty result for %s", "search")
	LogIf(false, "skipped %s", "branch")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "fetched 42 nodes") {
		t.Errorf("log missing formatted message: %q", out)
	}
	if !strings.Contains(out, "stale response") {
		t.Errorf("log missing structured message: %q", out)
	}
	if !strings.Contains(out, "timing") || !strings.Contains(out, "list_nodes") {
		t.Errorf("log missing timing entry: %q", out)
	}
	if !strings.Contains(out, "empty result for search") {
		t.Errorf("log missing conditional message: %q", out)
	}
	if strings.Contains(out, "skipped branch") {
		t.Errorf("false condition should not log: %q", out)
	}
}

func TestDisabledIsNoop(t *testing.T) {
	prevEnabled := enabled
	t.Cleanup(func() {
		Init(Options{})
		SetEnabled(prevEnabled)
	})

	path := filepath.Join(t.TempDir(), "debug.log")
	Init(Options{File: path})
	SetEnabled(false)

	Log("should not appear")
	LogEnterExit("noop")()
	Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "should not appear") {
		t.Errorf("disabled logger wrote output: %q", data)
	}
}
