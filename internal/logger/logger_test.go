package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{" info ", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"ERROR", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr && err == nil {
				t.Errorf("expected error for input %q", tt.input)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for input %q: %v", tt.input, err)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("expected %v, got %v for input %q", tt.expected, got, tt.input)
			}
		})
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelWarn)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()
	for _, hidden := range []string{"debug message", "info message"} {
		if strings.Contains(output, hidden) {
			t.Errorf("%q should not be logged at WARN level", hidden)
		}
	}
	for _, shown := range []string{"[WARN] warn message", "[ERROR] error message"} {
		if !strings.Contains(output, shown) {
			t.Errorf("output should contain %q, got %q", shown, output)
		}
	}
}

func TestLogger_EnvVars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railbook.log")
	t.Setenv(EnvLevel, "debug")
	t.Setenv(EnvFile, path)

	l := New()
	defer l.Close()
	if l.level != LevelDebug {
		t.Errorf("expected debug level from env var, got %v", l.level)
	}

	l.Debug("reservation %s created", "ABCD1234")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "[DEBUG] reservation ABCD1234 created") {
		t.Errorf("log file should contain the message, got %q", content)
	}
}

func TestLogger_BadEnvLevelKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railbook.log")
	t.Setenv(EnvLevel, "loud")
	t.Setenv(EnvFile, path)

	l := New()
	defer l.Close()
	if l.level != LevelInfo {
		t.Errorf("expected default level, got %v", l.level)
	}
	if l.file == nil {
		t.Error("log file should still be opened")
	}
}

func TestLogger_Setup(t *testing.T) {
	t.Setenv(EnvLevel, "")
	t.Setenv(EnvFile, "")
	dir := t.TempDir()

	l := New()
	if err := l.Setup("shout", ""); err == nil {
		t.Error("expected error for bad level")
	}
	if err := l.Setup("error", filepath.Join(dir, "a.log")); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := l.Setup("", filepath.Join(dir, "b.log")); err != nil {
		t.Fatalf("setup: %v", err)
	}
	l.Error("goes to b")
	if err := l.Close(); err != nil {
		t.Errorf("unexpected error closing logger: %v", err)
	}
	l.Error("discarded")

	a, _ := os.ReadFile(filepath.Join(dir, "a.log"))
	b, _ := os.ReadFile(filepath.Join(dir, "b.log"))
	if len(a) != 0 {
		t.Errorf("a.log should be empty, got %q", a)
	}
	if !strings.Contains(string(b), "goes to b") || strings.Contains(string(b), "discarded") {
		t.Errorf("unexpected b.log content %q", b)
	}
}

func TestLogger_CloseWithoutFile(t *testing.T) {
	t.Setenv(EnvFile, "")
	if err := New().Close(); err != nil {
		t.Errorf("unexpected error closing logger: %v", err)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	Default.SetOutput(&buf)
	Default.SetLevel(LevelDebug)

	Debug("debug %s", "test")
	Info("info %s", "test")
	Warn("warn %s", "test")
	Error("error %s", "test")

	output := buf.String()
	for _, want := range []string{"debug test", "info test", "warn test", "error test"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q", want)
		}
	}
}
