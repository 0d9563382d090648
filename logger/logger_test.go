package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		level        Level
		messageLevel Level
		shouldLog    bool
	}{
		{"DEBUG logs at DEBUG level", DEBUG, DEBUG, true},
		{"INFO logs at DEBUG level", DEBUG, INFO, true},
		{"DEBUG doesn't log at INFO level", INFO, DEBUG, false},
		{"ERROR logs at INFO level", INFO, ERROR, true},
		{"WARN doesn't log at ERROR level", ERROR, WARN, false},
		{"ERROR logs at ERROR level", ERROR, ERROR, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			result := logger.shouldLog(tt.messageLevel, "plain message")
			if result != tt.shouldLog {
				t.Errorf("shouldLog(%v) = %v, want %v", tt.messageLevel, result, tt.shouldLog)
			}
		})
	}
}

func TestLoggerPackageOverride(t *testing.T) {
	logger := New(ERROR)
	logger.packageLevels = map[string]Level{"helmet": DEBUG}

	if !logger.shouldLog(DEBUG, "[helmet] scan started") {
		t.Error("helmet override should allow DEBUG")
	}
	if logger.shouldLog(DEBUG, "[flow] state changed") {
		t.Error("non-overridden component should keep global level")
	}
	if logger.shouldLog(DEBUG, "no component prefix") {
		t.Error("message without prefix should keep global level")
	}
}

func TestExtractComponent(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"[helmet] connected", "helmet"},
		{"[api] request", "api"},
		{"no prefix", ""},
		{"[unterminated", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractComponent(tt.msg); got != tt.want {
			t.Errorf("extractComponent(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestLoggerFormat(t *testing.T) {
	logger := New(INFO)
	formatted := logger.format(INFO, "test message")

	if !strings.Contains(formatted, "[INFO ]") {
		t.Errorf("formatted message should contain '[INFO ]', got: %s", formatted)
	}
	if !strings.Contains(formatted, "test message") {
		t.Errorf("formatted message should contain 'test message', got: %s", formatted)
	}
}

func TestGlobalOutputCapture(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel(INFO)

	Info("[test] captured %d", 42)
	if !strings.Contains(buf.String(), "[test] captured 42") {
		t.Errorf("output should contain message, got: %s", buf.String())
	}

	buf.Reset()
	Debug("[test] hidden")
	if buf.Len() != 0 {
		t.Errorf("DEBUG should be filtered at INFO level, got: %s", buf.String())
	}
}
