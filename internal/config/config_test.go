package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/seantiz/ordersim/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(envListenAddr, "")
	t.Setenv(envDBPath, "")
	t.Setenv(envLogLevel, "")
	t.Setenv(envMode, "")
	t.Setenv(envRate, "")

	cfg := Load()

	if cfg.ListenAddr != defaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, defaultListenAddr)
	}
	if cfg.DBPath != defaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, defaultDBPath)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if cfg.LogFormat != LogFormatJSON {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, LogFormatJSON)
	}
	if cfg.Sim.Mode != model.ModeSteady {
		t.Errorf("Mode = %q, want %q", cfg.Sim.Mode, model.ModeSteady)
	}
	if cfg.Sim.Rate != defaultRate {
		t.Errorf("Rate = %d, want %d", cfg.Sim.Rate, defaultRate)
	}
	if cfg.Sim.ShutdownTimeout != defaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.Sim.ShutdownTimeout, defaultShutdownTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(envListenAddr, ":9090")
	t.Setenv(envDBPath, "/tmp/test.db")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envLogFormat, "console")
	t.Setenv(envMode, "bursty")
	t.Setenv(envRate, "1000")
	t.Setenv(envWorkers, "8")
	t.Setenv(envRetainedProb, "0.5")
	t.Setenv(envMaxActive, "100")
	t.Setenv(envItemLifetime, "750ms")
	t.Setenv(envBurstMultiplier, "2.5")

	cfg := Load()

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9090")
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/tmp/test.db")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.LogFormat != LogFormatConsole {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, LogFormatConsole)
	}
	if cfg.Sim.Mode != model.ModeBursty {
		t.Errorf("Mode = %q, want %q", cfg.Sim.Mode, model.ModeBursty)
	}
	if cfg.Sim.Rate != 1000 {
		t.Errorf("Rate = %d, want 1000", cfg.Sim.Rate)
	}
	if cfg.Sim.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Sim.Workers)
	}
	if cfg.Sim.RetainedProbability != 0.5 {
		t.Errorf("RetainedProbability = %v, want 0.5", cfg.Sim.RetainedProbability)
	}
	if cfg.Sim.MaxActive != 100 {
		t.Errorf("MaxActive = %d, want 100", cfg.Sim.MaxActive)
	}
	if cfg.Sim.ItemLifetime != 750*time.Millisecond {
		t.Errorf("ItemLifetime = %v, want 750ms", cfg.Sim.ItemLifetime)
	}
	if cfg.Sim.BurstMultiplier != 2.5 {
		t.Errorf("BurstMultiplier = %v, want 2.5", cfg.Sim.BurstMultiplier)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv(envRate, "not-a-number")
	t.Setenv(envRetainedProb, "half")
	t.Setenv(envItemLifetime, "soon")

	cfg := Load()

	if cfg.Sim.Rate != defaultRate {
		t.Errorf("Rate = %d, want default %d", cfg.Sim.Rate, defaultRate)
	}
	if cfg.Sim.RetainedProbability != defaultRetained {
		t.Errorf("RetainedProbability = %v, want default %v", cfg.Sim.RetainedProbability, defaultRetained)
	}
	if cfg.Sim.ItemLifetime != defaultItemLifetime {
		t.Errorf("ItemLifetime = %v, want default %v", cfg.Sim.ItemLifetime, defaultItemLifetime)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		got := parseLogLevel(tt.input)
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"steady", model.ModeSteady},
		{"bursty", model.ModeBursty},
		{"BURSTY", model.ModeBursty},
		{"chaotic", model.ModeSteady},
	}

	for _, tt := range tests {
		if got := parseMode(tt.input); got != tt.want {
			t.Errorf("parseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerOutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, LogFormatJSON)
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}

	logger.Info("test message", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("logger output is not valid JSON: %v\noutput: %s", err, buf.String())
	}

	for _, key := range []string{"time", "level", "msg"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("JSON output missing expected key %q", key)
		}
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}

func TestNewLoggerConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, LogFormatConsole)

	logger.Info("console message")

	out := buf.String()
	if out == "" {
		t.Fatal("console logger produced no output")
	}
	if json.Valid(buf.Bytes()) {
		t.Errorf("console output should not be JSON: %s", out)
	}
}
