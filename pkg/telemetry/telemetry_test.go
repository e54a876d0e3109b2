// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestConfigureSlogLevelVar(t *testing.T) {
	var buf bytes.Buffer
	logger, levelVar := ConfigureSlog(&buf, "warn", "text")

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be suppressed at warn level, got %q", buf.String())
	}

	levelVar.Set(slog.LevelDebug)
	logger.Info("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected info record after lowering level, got %q", buf.String())
	}
}

func TestConfigureSlogJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := ConfigureSlog(&buf, "info", "json")

	logger.Error("boom", "operation", "read_query")
	out := buf.String()
	if !strings.Contains(out, `"operation":"read_query"`) {
		t.Errorf("expected JSON attributes, got %q", out)
	}
}

func TestInitStdoutAndMetrics(t *testing.T) {
	shutdown, err := Init("varlog-test", "0.0.0", Config{Exporter: "stdout"})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	}()

	dm, err := NewDispatchMetrics()
	if err != nil {
		t.Fatalf("metrics creation failed: %v", err)
	}

	ctx := context.Background()
	dm.RecordInvocation(ctx, "read-logs")
	dm.RecordFailure(ctx, "read_query", nil) // nil errors are ignored
	dm.RecordInsight(ctx)
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	if _, err := Init("varlog-test", "0.0.0", Config{Exporter: "carrier-pigeon"}); err == nil {
		t.Errorf("expected unknown exporter to fail")
	}
}

func TestInitOTLPRequiresEndpoint(t *testing.T) {
	if _, err := Init("varlog-test", "0.0.0", Config{Exporter: "otlp"}); err == nil {
		t.Errorf("expected missing otlp endpoint to fail")
	}
}
