// Copyright 2026 fanjia1024

package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type slowFlusher struct{ delay time.Duration }

func (s slowFlusher) ForceFlush(ctx context.Context) error {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
	return nil
}

func TestFlush_Bounded(t *testing.T) {
	start := time.Now()
	Flush(context.Background(), slowFlusher{delay: 5 * time.Second}, 50*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)

	Flush(context.Background(), nil, time.Second)
}

func TestStartProviderSpan_Attributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := StartProviderSpan(context.Background(), Tracer(tp), "ai.plan", "anthropic", "claude-x",
		map[string]string{"phase": "initial"})
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ai.plan.provider_call", spans[0].Name())
	found := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		found[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "anthropic", found["llm.provider"])
	assert.Equal(t, "initial", found["llm.meta.phase"])
}

func TestTracer_NilProviderIsNoop(t *testing.T) {
	_, span := StartPlanSpan(context.Background(), Tracer(nil), "ai.plan", "b1", "u1")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}
