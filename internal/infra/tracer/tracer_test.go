package tracer

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"mockview/internal/infra/config"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	if _, ok := otel.GetTracerProvider().(noop.TracerProvider); !ok {
		t.Errorf("expected noop provider, got %T", otel.GetTracerProvider())
	}
}

func TestSetupStdout(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "stdout"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())
}

func TestSetupUnsupportedExporter(t *testing.T) {
	_, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "jaeger"})
	if err == nil {
		t.Error("expected error for unsupported exporter")
	}
}

func TestSpanHelpers(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())

	ctx, span := StartSpan(context.Background(), "orchestrator.process")
	if ctx == nil {
		t.Fatal("context should not be nil")
	}
	SetOK(span)
	RecordError(span, errors.New("provider timeout"))
	span.End()

	if k := FloatAttr("confidence", 0.8); string(k.Key) != "confidence" {
		t.Errorf("FloatAttr key = %q", k.Key)
	}
	if k := IntAttr("agents", 3); string(k.Key) != "agents" {
		t.Errorf("IntAttr key = %q", k.Key)
	}
	if k := StringAttr("agent", "search"); string(k.Key) != "agent" {
		t.Errorf("StringAttr key = %q", k.Key)
	}
}
