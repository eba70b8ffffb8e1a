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

package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"caseboard-ai/internal/board"
	"caseboard-ai/internal/model"
	"caseboard-ai/internal/model/llm"
	"caseboard-ai/internal/planner/classifier"
	"caseboard-ai/internal/planner/router"
	"caseboard-ai/internal/tool"
	"caseboard-ai/internal/tool/registry"
	"caseboard-ai/pkg/errors"
	"caseboard-ai/pkg/tracing"
)

type step func(req llm.ToolRequest) (*llm.ToolResponse, error)

// scriptedProvider 按顺序返回预设响应并记录请求
type scriptedProvider struct {
	name     string
	disabled bool

	mu       sync.Mutex
	steps    []step
	requests []llm.ToolRequest
}

func (s *scriptedProvider) Name() string    { return s.name }
func (s *scriptedProvider) Available() bool { return !s.disabled }

func (s *scriptedProvider) Complete(ctx context.Context, req llm.ToolRequest) (*llm.ToolResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	s.mu.Unlock()
	if i >= len(s.steps) {
		return nil, fmt.Errorf("unexpected call %d to %s", i+1, s.name)
	}
	return s.steps[i](req)
}

func (s *scriptedProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func respond(calls ...tool.Call) step {
	return func(llm.ToolRequest) (*llm.ToolResponse, error) {
		return &llm.ToolResponse{ToolCalls: calls, StopReason: "tool_use", Text: "done"}, nil
	}
}

func fail(status int) step {
	return func(llm.ToolRequest) (*llm.ToolResponse, error) {
		return nil, &llm.StatusError{Provider: "fake", StatusCode: status, Body: "upstream said no, key=sk-secret"}
	}
}

func stickies(n int) []tool.Call {
	out := make([]tool.Call, n)
	for i := range out {
		out[i] = tool.Call{
			ID:    fmt.Sprintf("call_%d", i),
			Name:  "createStickyNote",
			Input: map[string]any{"text": fmt.Sprintf("note %d", i), "x": float64(i * 220), "y": 0.0},
		}
	}
	return out
}

func newTestGenerator(t *testing.T, mode string, providers ...llm.Provider) *Generator {
	t.Helper()
	set := model.NewProviders(providers...)
	r, err := router.New(router.Config{Mode: mode}, set.Available)
	require.NoError(t, err)
	return NewGenerator(set, r, classifier.New(), registry.Canvas(), Config{
		MaxBoardObjects: 200,
		MaxBoardChars:   24000,
		MaxTokens:       1024,
	})
}

func TestGenerate_GridScenarioExpandsOnce(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{
		respond(stickies(2)...),
		respond(stickies(6)...),
	}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic)

	res, err := g.Generate(context.Background(), PlanRequest{Prompt: "Create a 2x3 grid of sticky notes", BoardID: "b1", ActorID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 2, anthropic.calls())
	assert.Len(t, res.ToolCalls, 6)
	assert.Empty(t, res.Issues)
	assert.True(t, res.Expanded)
	assert.Equal(t, -6, res.Score)
	assert.Equal(t, llm.ProviderAnthropic, res.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", res.Model)
	assert.Equal(t, 6, res.Classification.MinToolCalls)

	exp := anthropic.requests[1].Messages[0].Content
	assert.Contains(t, exp, "Create a 2x3 grid of sticky notes")
	assert.Contains(t, exp, "at least 6 tool calls but the plan has 2")
	prev, err := json.Marshal(stickies(2))
	require.NoError(t, err)
	assert.Contains(t, exp, string(prev))
	assert.Equal(t, "expansion", anthropic.requests[1].Metadata["phase"])
	assert.Equal(t, complexInstructions, anthropic.requests[1].System)
}

func TestGenerate_SimpleValidPlanSkipsExpansion(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{respond(stickies(1)...)}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic)

	res, err := g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, anthropic.calls())
	assert.False(t, res.Expanded)
	assert.Equal(t, "claude-3-5-haiku-latest", res.Model)
	assert.Equal(t, simpleInstructions, anthropic.requests[0].System)
	assert.Equal(t, 1024, anthropic.requests[0].MaxTokens)
	assert.Len(t, anthropic.requests[0].Tools, len(registry.Canvas().Names()))
}

func TestGenerate_RateLimitNeverFallsBack(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{fail(429)}}
	openai := &scriptedProvider{name: llm.ProviderOpenAI, steps: []step{respond(stickies(1)...)}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic, openai)

	_, err := g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a"})
	require.Error(t, err)
	assert.Equal(t, errors.KindUpstreamRateLimit, errors.KindOf(err))
	assert.Equal(t, 429, errors.HTTPStatus(err))
	assert.Equal(t, 1, anthropic.calls())
	assert.Equal(t, 0, openai.calls())
}

func TestGenerate_FallbackOnUpstreamFailure(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{fail(500)}}
	openai := &scriptedProvider{name: llm.ProviderOpenAI, steps: []step{respond(stickies(1)...)}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic, openai)

	res, err := g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a"})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, res.Provider)
	assert.Equal(t, "gpt-4o-mini", res.Model)
	assert.Equal(t, 1, anthropic.calls())
	assert.Equal(t, 1, openai.calls())
}

func TestGenerate_FallbackRunsBothPhases(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{fail(503)}}
	openai := &scriptedProvider{name: llm.ProviderOpenAI, steps: []step{
		respond(stickies(1)...),
		respond(stickies(6)...),
	}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic, openai)

	res, err := g.Generate(context.Background(), PlanRequest{Prompt: "Create a 2x3 grid of sticky notes", BoardID: "b", ActorID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, openai.calls())
	assert.Len(t, res.ToolCalls, 6)
	assert.Equal(t, "gpt-4.1", res.Model)
}

func TestGenerate_FailureWithoutFallbackIsGeneric(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{fail(500)}}
	openai := &scriptedProvider{name: llm.ProviderOpenAI, disabled: true}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic, openai)

	_, err := g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a"})
	require.Error(t, err)
	assert.Equal(t, errors.KindUpstreamFailure, errors.KindOf(err))
	assert.Equal(t, 500, errors.HTTPStatus(err))
	assert.NotContains(t, errors.PublicMessage(err), "sk-secret")
	assert.Equal(t, 0, openai.calls())
}

func TestGenerate_BothProvidersFail(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{fail(500)}}
	openai := &scriptedProvider{name: llm.ProviderOpenAI, steps: []step{fail(502)}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic, openai)

	_, err := g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a"})
	require.Error(t, err)
	assert.Equal(t, errors.KindUpstreamFailure, errors.KindOf(err))
	assert.Equal(t, 1, anthropic.calls())
	assert.Equal(t, 1, openai.calls())
}

func TestGenerate_FallbackRateLimitedSurfacesRateLimit(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{fail(500)}}
	openai := &scriptedProvider{name: llm.ProviderOpenAI, steps: []step{fail(429)}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic, openai)

	_, err := g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a"})
	assert.Equal(t, errors.KindUpstreamRateLimit, errors.KindOf(err))
}

func TestGenerate_TieKeepsInitial(t *testing.T) {
	initial := tool.Call{ID: "i1", Name: "sprayPaint", Input: map[string]any{}}
	expanded := tool.Call{ID: "e1", Name: "teleport", Input: map[string]any{}}
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{
		respond(initial),
		respond(expanded),
	}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic)

	res, err := g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, anthropic.calls())
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "i1", res.ToolCalls[0].ID)
	assert.False(t, res.Expanded)
	assert.Len(t, res.Issues, 1)
	assert.Equal(t, 99, res.Score)
	assert.Contains(t, anthropic.requests[1].Messages[0].Content, "unknown tool")
}

func TestGenerate_WorseExpansionIsDiscarded(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{
		respond(stickies(3)...),
		respond(tool.Call{ID: "x", Name: "createStickyNote"}),
	}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic)

	res, err := g.Generate(context.Background(), PlanRequest{Prompt: "Create a 2x3 grid of sticky notes", BoardID: "b", ActorID: "a"})
	require.NoError(t, err)
	assert.Len(t, res.ToolCalls, 3)
	assert.False(t, res.Expanded)
}

func TestGenerate_ExpansionFailureDegradesToInitial(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{
		respond(stickies(2)...),
		fail(500),
	}}
	openai := &scriptedProvider{name: llm.ProviderOpenAI}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic, openai)

	res, err := g.Generate(context.Background(), PlanRequest{Prompt: "Create a 2x3 grid of sticky notes", BoardID: "b", ActorID: "a"})
	require.NoError(t, err)
	assert.Len(t, res.ToolCalls, 2)
	assert.Equal(t, llm.ProviderAnthropic, res.Provider)
	assert.Equal(t, 0, openai.calls())
}

func TestGenerate_OverridePinsProviderAndModel(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic}
	openai := &scriptedProvider{name: llm.ProviderOpenAI, steps: []step{respond(stickies(1)...)}}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic, openai)

	res, err := g.Generate(context.Background(), PlanRequest{
		Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a",
		Provider: llm.ProviderOpenAI, Model: "gpt-test",
	})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, res.Provider)
	assert.Equal(t, "gpt-test", res.Model)
	assert.Equal(t, "gpt-test", openai.requests[0].Model)
	assert.Equal(t, 0, anthropic.calls())
}

func TestGenerate_RejectsBadInput(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic}
	g := newTestGenerator(t, router.ModeAnthropic, anthropic)

	_, err := g.Generate(context.Background(), PlanRequest{Prompt: "   ", BoardID: "b"})
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))

	_, err = g.Generate(context.Background(), PlanRequest{Prompt: "hi", BoardID: "b", Provider: "gemini"})
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	assert.Equal(t, 0, anthropic.calls())
}

func TestGenerate_NoProvidersIsConfigurationError(t *testing.T) {
	g := newTestGenerator(t, router.ModeSplit,
		&scriptedProvider{name: llm.ProviderAnthropic, disabled: true},
		&scriptedProvider{name: llm.ProviderOpenAI, disabled: true},
	)
	_, err := g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note", BoardID: "b", ActorID: "a"})
	assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))
	assert.Equal(t, 500, errors.HTTPStatus(err))
}

func TestGenerate_UnregisteredProviderKeepsInternalsPrivate(t *testing.T) {
	set := model.NewProviders()
	r, err := router.New(router.Config{Mode: router.ModeAnthropic}, func(string) bool { return true })
	require.NoError(t, err)
	g := NewGenerator(set, r, classifier.New(), registry.Canvas(), Config{MaxBoardObjects: 200, MaxBoardChars: 24000})

	_, err = g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note", BoardID: "b", ActorID: "a"})
	require.Error(t, err)
	assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))
	assert.Equal(t, "AI provider is not configured", errors.PublicMessage(err))
	assert.NotContains(t, errors.PublicMessage(err), "not registered")
	assert.Contains(t, err.Error(), "not registered", "cause stays available for logs")
}

func TestGenerate_BoardSnapshotIsCapped(t *testing.T) {
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{respond(stickies(1)...)}}
	set := model.NewProviders(anthropic)
	r, err := router.New(router.Config{Mode: router.ModeAnthropic}, set.Available)
	require.NoError(t, err)
	g := NewGenerator(set, r, classifier.New(), registry.Canvas(), Config{MaxBoardObjects: 2, MaxBoardChars: 24000})

	snap := board.Snapshot{
		json.RawMessage(`{"id":"keep-1"}`),
		json.RawMessage(`{"id":"keep-2"}`),
		json.RawMessage(`{"id":"drop-3"}`),
	}
	_, err = g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a", Board: snap})
	require.NoError(t, err)

	user := anthropic.requests[0].Messages[0].Content
	assert.Contains(t, user, "keep-2")
	assert.NotContains(t, user, "drop-3")
	assert.Contains(t, user, "truncated")
	assert.Len(t, snap, 3)
}

func TestGenerate_RecordsPlanSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{respond(stickies(1)...)}}
	set := model.NewProviders(llm.NewTracedProvider(anthropic, tracing.Tracer(tp), "bench.plan"))
	r, err := router.New(router.Config{Mode: router.ModeAnthropic}, set.Available)
	require.NoError(t, err)
	g := NewGenerator(set, r, classifier.New(), registry.Canvas(),
		Config{RunName: "bench.plan", FlushTimeout: 100 * time.Millisecond},
		WithTracing(tracing.Tracer(tp), tp))

	_, err = g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a"})
	require.NoError(t, err)

	var names []string
	for _, s := range rec.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"bench.plan", "bench.plan.provider_call"}, names)
}

func TestGenerate_RemainingIssuesAreRecordedOnSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	broken := tool.Call{ID: "x", Name: "createStickyNote"}
	anthropic := &scriptedProvider{name: llm.ProviderAnthropic, steps: []step{respond(broken), respond(broken)}}
	set := model.NewProviders(anthropic)
	r, err := router.New(router.Config{Mode: router.ModeAnthropic}, set.Available)
	require.NoError(t, err)
	g := NewGenerator(set, r, classifier.New(), registry.Canvas(),
		Config{RunName: "bench.plan", FlushTimeout: 100 * time.Millisecond},
		WithTracing(tracing.Tracer(tp), tp))

	res, err := g.Generate(context.Background(), PlanRequest{Prompt: "Add a sticky note that says hello", BoardID: "b", ActorID: "a"})
	require.NoError(t, err, "structural problems never block the response")
	require.NotEmpty(t, res.Issues)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	span := ended[0]
	assert.Equal(t, "Unset", span.Status().Code.String())
	var messages []string
	for _, ev := range span.Events() {
		for _, kv := range ev.Attributes {
			if string(kv.Key) == "exception.message" {
				messages = append(messages, kv.Value.AsString())
			}
		}
	}
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "plan_structural")
}

func TestExpansionPrompt_NoPreviousText(t *testing.T) {
	p := expansionPrompt("make a kanban", "", nil, []string{"missing columns"})
	assert.Contains(t, p, "(none)")
	assert.Contains(t, p, "[]")
	assert.True(t, strings.Contains(p, "- missing columns"))
}
