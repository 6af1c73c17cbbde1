package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInit_Disabled(t *testing.T) {
	if err := Init(Config{Enabled: false}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Fatalf("expected a noop span")
	}
	span.End()
	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestInit_EnabledRecordsSpans(t *testing.T) {
	if err := Init(Config{Enabled: true, Endpoint: "http://127.0.0.1:1/api/traces", ServiceVersion: "test"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = Init(Config{}) })

	_, span := otel.Tracer("test").Start(context.Background(), "spin")
	if !span.SpanContext().IsValid() {
		t.Fatalf("expected a recording span")
	}
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// エクスポート先はいないので結果は問わない
	_ = Shutdown(ctx)
}
