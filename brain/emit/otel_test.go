package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// attributeMap flattens span attributes into a map for assertions.
func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestOTelEmitter_Emit(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	emitter.Emit(Event{
		RunID: "run-001",
		Step:  2,
		Stage: "analyze",
		Msg:   "stage_end",
		Meta: map[string]interface{}{
			"cycles": 17,
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.Name != "stage_end" {
		t.Errorf("span name = %q, want %q", span.Name, "stage_end")
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["braincycle.run_id"]; got != "run-001" {
		t.Errorf("run_id = %v, want %q", got, "run-001")
	}
	if got := attrs["braincycle.step"]; got != int64(2) {
		t.Errorf("step = %v, want %d", got, 2)
	}
	if got := attrs["braincycle.stage"]; got != "analyze" {
		t.Errorf("stage = %v, want %q", got, "analyze")
	}
	if got := attrs["braincycle.cycles"]; got != int64(17) {
		t.Errorf("cycles = %v, want %d", got, 17)
	}

	if !span.EndTime.After(span.StartTime) {
		t.Error("span was not ended")
	}
}

func TestOTelEmitter_EmitWithError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(otel.Tracer("test"))

	emitter.Emit(Event{
		RunID: "run-001",
		Step:  2,
		Stage: "analyze",
		Msg:   "stage_error",
		Meta: map[string]interface{}{
			"error": "cycle detection timed out",
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("status code = %v, want Error", spans[0].Status.Code)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected a recorded error event on span")
	}
}

func TestOTelEmitter_EmitBatch(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(otel.Tracer("test"))

	events := []Event{
		{RunID: "run-001", Step: 1, Stage: "process", Msg: "stage_start"},
		{RunID: "run-001", Step: 1, Stage: "process", Msg: "stage_end"},
		{RunID: "run-001", Step: 2, Stage: "analyze", Msg: "stage_start"},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}

	if got := len(exporter.GetSpans()); got != 3 {
		t.Errorf("expected 3 spans, got %d", got)
	}

	if err := emitter.EmitBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch should not error, got %v", err)
	}
}
