// Copyright 2026 fanjia1024
// OpenTelemetry integration for distributed tracing

package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName tracer 名称
const InstrumentationName = "caseboard-ai"

// OTelConfig OpenTelemetry 配置
type OTelConfig struct {
	ServiceName    string
	ExportEndpoint string
	Insecure       bool
}

// InitTracer 初始化 OpenTelemetry tracer provider 并设为全局
func InitTracer(config OTelConfig) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.ExportEndpoint),
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// Tracer 返回 tp 的 tracer；tp 为 nil 时返回 no-op tracer
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		return noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	return tp.Tracer(InstrumentationName)
}

// StartPlanSpan 开始一次规划请求 span
func StartPlanSpan(ctx context.Context, tracer trace.Tracer, runName, boardID, actorID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, runName,
		trace.WithAttributes(
			attribute.String("board.id", boardID),
			attribute.String("actor.id", actorID),
		),
	)
}

// StartProviderSpan 开始一次 provider 调用 span；metadata 作为 span 属性
func StartProviderSpan(ctx context.Context, tracer trace.Tracer, runName, provider, model string, metadata map[string]string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	}
	for k, v := range metadata {
		attrs = append(attrs, attribute.String("llm.meta."+k, v))
	}
	return tracer.Start(ctx, runName+".provider_call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// Flusher sdktrace.TracerProvider 满足此接口
type Flusher interface {
	ForceFlush(ctx context.Context) error
}

// Flush best-effort 刷新，最多阻塞 timeout；错误忽略
func Flush(ctx context.Context, f Flusher, timeout time.Duration) {
	if f == nil || timeout <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = f.ForceFlush(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
