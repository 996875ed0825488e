package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joshharrison/planloom/internal/config"
)

func TestBuild_SplitsByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger, err := Build(config.LoggerConfig{Level: "debug", Encoding: "json"}, &out, &errOut)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	logger.Debug("recomputed", zap.String("schedule_id", "s1"))
	logger.Error("rejected", zap.String("schedule_id", "s1"))
	_ = logger.Sync()

	if !strings.Contains(out.String(), `"msg":"recomputed"`) {
		t.Errorf("expected debug entry on out, got %q", out.String())
	}
	if strings.Contains(out.String(), "rejected") {
		t.Errorf("error entry leaked to out: %q", out.String())
	}
	if !strings.Contains(errOut.String(), `"schedule_id":"s1"`) {
		t.Errorf("expected error entry on errOut, got %q", errOut.String())
	}
}

func TestSetLevel(t *testing.T) {
	var out bytes.Buffer
	logger, err := Build(config.LoggerConfig{Level: "info", Encoding: "console"}, &out, &out)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	logger.Debug("hidden")
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	logger.Debug("shown")

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug entry written at info level")
	}
	if !strings.Contains(out.String(), "shown") {
		t.Error("debug entry missing after SetLevel(debug)")
	}
	if Level() != zapcore.DebugLevel {
		t.Errorf("Level() = %v, want debug", Level())
	}
	if err := SetLevel("nonsense"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestBuild_BadLevel(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Build(config.LoggerConfig{Level: "loud"}, &buf, &buf); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestBuildOrNop(t *testing.T) {
	l := BuildOrNop(config.LoggerConfig{Level: "loud"})
	if l == nil {
		t.Fatal("expected a logger for an unknown level")
	}
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected a no-op logger for an unknown level")
	}

	l = BuildOrNop(config.LoggerConfig{Level: "info", Encoding: "console"})
	if !l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info enabled")
	}
}
