package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewModes(t *testing.T) {
	dev, err := New("dev", "")
	if err != nil {
		t.Fatalf("dev: %v", err)
	}
	if !dev.Development() || !dev.With("k", "v").Development() {
		t.Fatalf("dev logger should report development")
	}

	prod, err := New("production", "warn")
	if err != nil {
		t.Fatalf("prod: %v", err)
	}
	if prod.Development() {
		t.Fatalf("prod logger reported development")
	}
	if prod.sugar.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug enabled at warn level")
	}

	test, err := New("test", "")
	if err != nil || test.Development() {
		t.Fatalf("test mode: dev=%v err=%v", test.Development(), err)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("prod", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
