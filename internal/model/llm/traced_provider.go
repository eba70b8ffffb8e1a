// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"caseboard-ai/pkg/tracing"
)

// TracedProvider 为每次 provider 调用记录一个 span
type TracedProvider struct {
	inner   Provider
	tracer  trace.Tracer
	runName string
}

// NewTracedProvider runName 作为 span 名前缀
func NewTracedProvider(inner Provider, tracer trace.Tracer, runName string) *TracedProvider {
	return &TracedProvider{inner: inner, tracer: tracer, runName: runName}
}

// Name 实现 Provider
func (p *TracedProvider) Name() string { return p.inner.Name() }

// Available 实现 Provider
func (p *TracedProvider) Available() bool { return p.inner.Available() }

// Complete 实现 Provider
func (p *TracedProvider) Complete(ctx context.Context, req ToolRequest) (*ToolResponse, error) {
	ctx, span := tracing.StartProviderSpan(ctx, p.tracer, p.runName, p.inner.Name(), req.Model, req.Metadata)
	defer span.End()

	resp, err := p.inner.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("llm.rate_limited", IsRateLimited(err)))
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("llm.tool_calls", len(resp.ToolCalls)),
		attribute.String("llm.stop_reason", resp.StopReason),
		attribute.Int("llm.usage.input_tokens", resp.Usage.InputTokens),
		attribute.Int("llm.usage.output_tokens", resp.Usage.OutputTokens),
	)
	return resp, nil
}
