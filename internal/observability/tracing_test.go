package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"learnhub-service/internal/logging"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false}, logging.NewNop())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestEnabledTracingExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{Enabled: true, ServiceName: "learnhub-test", Writer: &buf}, logging.NewNop())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "grade")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"Name":"grade"`) || !strings.Contains(out, "learnhub-test") {
		t.Fatalf("span not exported: %s", out)
	}
}
