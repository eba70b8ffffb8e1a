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

// Package planner 把一次自然语言编辑请求转换为经过结构校验的画布工具调用序列。
// 每个请求最多两次 provider 调用（首次 + 一次扩展），首次调用失败时整体切到备用 provider 再跑一遍。
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"caseboard-ai/internal/board"
	"caseboard-ai/internal/model"
	"caseboard-ai/internal/model/llm"
	"caseboard-ai/internal/planner/classifier"
	"caseboard-ai/internal/planner/router"
	"caseboard-ai/internal/planner/validator"
	"caseboard-ai/internal/tool"
	"caseboard-ai/internal/tool/registry"
	"caseboard-ai/pkg/errors"
	"caseboard-ai/pkg/log"
	"caseboard-ai/pkg/metrics"
	"caseboard-ai/pkg/tracing"
)

const (
	phaseInitial   = "initial"
	phaseExpansion = "expansion"
)

// PlanRequest 一次规划请求
type PlanRequest struct {
	Prompt   string
	BoardID  string
	ActorID  string
	Board    board.Snapshot
	Provider string // 仅 benchmark 使用的 provider 覆盖
	Model    string // 仅 benchmark 使用的模型覆盖
}

// PlanResult 返回给调用方的计划；Score/Expanded/Issues/Classification 只在内部使用
type PlanResult struct {
	ToolCalls  []tool.Call `json:"toolCalls"`
	Message    string      `json:"message"`
	StopReason string      `json:"stopReason"`
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`

	Score          int               `json:"-"`
	Expanded       bool              `json:"-"`
	Issues         []validator.Issue `json:"-"`
	Classification classifier.Result `json:"-"`
}

// Config 生成器参数
type Config struct {
	MaxBoardObjects int
	MaxBoardChars   int
	MaxTokens       int
	Temperature     float64
	RunName         string
	FlushTimeout    time.Duration
}

// Generator 规划生成器；无跨请求状态，可并发使用
type Generator struct {
	providers  *model.Providers
	router     *router.Router
	classifier *classifier.Classifier
	validator  *validator.Validator
	tools      []registry.ToolSchemaForLLM
	cfg        Config
	logger     *log.Logger
	tracer     trace.Tracer
	flusher    tracing.Flusher
}

// Option 生成器选项
type Option func(*Generator)

// WithLogger 设置日志
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTracing 设置 tracer 与请求结束时 best-effort flush 的目标
func WithTracing(tracer trace.Tracer, flusher tracing.Flusher) Option {
	return func(g *Generator) {
		if tracer != nil {
			g.tracer = tracer
		}
		g.flusher = flusher
	}
}

// NewGenerator 创建生成器
func NewGenerator(providers *model.Providers, r *router.Router, c *classifier.Classifier, reg *registry.Registry, cfg Config, opts ...Option) *Generator {
	if cfg.RunName == "" {
		cfg.RunName = "ai.plan"
	}
	g := &Generator{
		providers:  providers,
		router:     r,
		classifier: c,
		validator:  validator.New(reg),
		tools:      reg.SchemasForLLM(),
		cfg:        cfg,
		logger:     log.Discard(),
		tracer:     tracing.Tracer(nil),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate 生成计划。限流错误立即返回 UpstreamRateLimit；其它失败在 fallback 之后返回 UpstreamFailure
func (g *Generator) Generate(ctx context.Context, req PlanRequest) (res *PlanResult, err error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.Validation("prompt is required")
	}
	sel, err := g.router.Select(req.BoardID, req.ActorID, router.Override{Provider: req.Provider, Model: req.Model})
	if err != nil {
		metrics.PlanRequestsTotal.WithLabelValues("none", "rejected").Inc()
		return nil, err
	}
	cls := g.classifier.Classify(req.Prompt)

	ctx, span := tracing.StartPlanSpan(ctx, g.tracer, g.cfg.RunName, req.BoardID, req.ActorID)
	start := time.Now()
	defer func() {
		provider := sel.Primary
		outcome := "ok"
		if res != nil {
			provider = res.Provider
			span.SetAttributes(
				attribute.String("llm.provider", res.Provider),
				attribute.String("llm.model", res.Model),
				attribute.Int("plan.tool_calls", len(res.ToolCalls)),
				attribute.Int("plan.score", res.Score),
				attribute.Bool("plan.expanded", res.Expanded),
			)
			// 残留结构问题不阻断响应，只记录到 span
			if len(res.Issues) > 0 {
				span.RecordError(errors.PlanStructural(fmt.Sprintf("%d structural issues remain", len(res.Issues))))
			}
		}
		if err != nil {
			outcome = "failed"
			if errors.IsKind(err, errors.KindUpstreamRateLimit) {
				outcome = "rate_limited"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, errors.PublicMessage(err))
		}
		metrics.PlanRequestsTotal.WithLabelValues(provider, outcome).Inc()
		metrics.PlanDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
		span.End()
		tracing.Flush(ctx, g.flusher, g.cfg.FlushTimeout)
	}()

	span.SetAttributes(
		attribute.Bool("plan.complex", cls.Complex),
		attribute.Int("plan.min_tool_calls", cls.MinToolCalls),
		attribute.String("plan.classifier_reason", cls.Reason),
		attribute.String("plan.primary", sel.Primary),
	)
	logger := g.logger.With("board_id", req.BoardID, "actor_id", req.ActorID, "primary", sel.Primary)

	res, err = g.attempt(ctx, logger, sel.Primary, sel, req, cls)
	if err == nil {
		return res, nil
	}
	if llm.IsRateLimited(err) {
		logger.Warn("AI provider 限流", "provider", sel.Primary, "error", err)
		return nil, errors.UpstreamRateLimit(err)
	}
	if sel.Fallback == "" {
		logger.Error("AI 规划失败，无可用备用 provider", "provider", sel.Primary, "error", err)
		return nil, upstreamFailure(err)
	}

	logger.Warn("主 provider 调用失败，切换备用 provider", "from", sel.Primary, "to", sel.Fallback, "error", err)
	metrics.ProviderFallbackTotal.WithLabelValues(sel.Primary, sel.Fallback).Inc()
	span.AddEvent("provider_fallback", trace.WithAttributes(attribute.String("to", sel.Fallback)))

	res, err = g.attempt(ctx, logger, sel.Fallback, sel, req, cls)
	if err == nil {
		return res, nil
	}
	if llm.IsRateLimited(err) {
		logger.Warn("备用 provider 限流", "provider", sel.Fallback, "error", err)
		return nil, errors.UpstreamRateLimit(err)
	}
	logger.Error("AI 规划失败（已尝试备用 provider）", "provider", sel.Fallback, "error", err)
	return nil, upstreamFailure(err)
}

// upstreamFailure 配置类错误保持原类别，其余归为 UpstreamFailure
func upstreamFailure(err error) error {
	if errors.IsKind(err, errors.KindConfiguration) {
		return err
	}
	return errors.UpstreamFailure(err)
}

// attempt 针对单个 provider 执行首次调用 + 最多一次扩展；只有首次调用的错误会返回
func (g *Generator) attempt(ctx context.Context, logger *log.Logger, providerName string, sel router.Selection, req PlanRequest, cls classifier.Result) (*PlanResult, error) {
	p, err := g.providers.Get(providerName)
	if err != nil {
		return nil, errors.WithCause(errors.KindConfiguration, "AI provider is not configured", err)
	}
	modelName := g.router.ResolveModel(providerName, cls.Complex, sel.ModelOverride(providerName))
	snap, truncated := req.Board.Cap(g.cfg.MaxBoardObjects, g.cfg.MaxBoardChars)
	system := instructionsFor(cls)

	resp, err := g.call(ctx, p, phaseInitial, g.toolRequest(modelName, system, initialPrompt(req.Prompt, snap, truncated), cls))
	if err != nil {
		return nil, err
	}
	best := g.evaluate(resp, providerName, modelName, cls)

	trigger := ""
	switch {
	case len(best.Issues) > 0:
		trigger = "issues"
	case cls.Complex && len(best.ToolCalls) < cls.MinToolCalls:
		trigger = "too_few_calls"
	}
	if trigger == "" {
		return best, nil
	}

	reasons := deficiencies(cls, len(best.ToolCalls), validator.Reasons(best.Issues))
	logger.Info("计划不完整，发起扩展调用", "provider", providerName, "trigger", trigger, "tool_calls", len(best.ToolCalls), "issues", len(best.Issues))
	expReq := g.toolRequest(modelName, system, expansionPrompt(req.Prompt, resp.Text, resp.ToolCalls, reasons), cls)
	expResp, err := g.call(ctx, p, phaseExpansion, expReq)
	if err != nil {
		logger.Warn("扩展调用失败，保留首次结果", "provider", providerName, "error", err)
		metrics.PlanExpansionsTotal.WithLabelValues(trigger, "error").Inc()
		return best, nil
	}
	candidate := g.evaluate(expResp, providerName, modelName, cls)
	candidate.Expanded = true
	if candidate.Score < best.Score {
		metrics.PlanExpansionsTotal.WithLabelValues(trigger, "expansion").Inc()
		metrics.ValidationIssuesTotal.Add(float64(len(candidate.Issues)))
		return candidate, nil
	}
	metrics.PlanExpansionsTotal.WithLabelValues(trigger, "initial").Inc()
	metrics.ValidationIssuesTotal.Add(float64(len(best.Issues)))
	return best, nil
}

func (g *Generator) toolRequest(modelName, system, user string, cls classifier.Result) llm.ToolRequest {
	complexity := "simple"
	if cls.Complex {
		complexity = "complex"
	}
	return llm.ToolRequest{
		Model:       modelName,
		System:      system,
		Messages:    []llm.Message{{Role: "user", Content: user}},
		Tools:       g.tools,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Metadata: map[string]string{
			"complexity": complexity,
			"classifier": cls.Reason,
		},
	}
}

func (g *Generator) call(ctx context.Context, p llm.Provider, phase string, req llm.ToolRequest) (*llm.ToolResponse, error) {
	req.Metadata["phase"] = phase
	start := time.Now()
	resp, err := p.Complete(ctx, req)
	metrics.ProviderCallDuration.WithLabelValues(p.Name(), phase).Observe(time.Since(start).Seconds())
	outcome := "ok"
	switch {
	case llm.IsRateLimited(err):
		outcome = "rate_limited"
	case err != nil:
		outcome = "error"
	}
	metrics.ProviderCallsTotal.WithLabelValues(p.Name(), phase, outcome).Inc()
	return resp, err
}

func (g *Generator) evaluate(resp *llm.ToolResponse, providerName, modelName string, cls classifier.Result) *PlanResult {
	calls := resp.ToolCalls
	if calls == nil {
		calls = []tool.Call{}
	}
	issues := g.validator.Validate(calls)
	return &PlanResult{
		ToolCalls:      calls,
		Message:        resp.Text,
		StopReason:     resp.StopReason,
		Provider:       providerName,
		Model:          modelName,
		Score:          validator.Score(issues, calls),
		Issues:         issues,
		Classification: cls,
	}
}
