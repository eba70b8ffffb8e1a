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

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"caseboard-ai/internal/access"
	"caseboard-ai/internal/board"
	"caseboard-ai/internal/model/llm"
	"caseboard-ai/internal/planner"
	"caseboard-ai/pkg/auth"
	"caseboard-ai/pkg/errors"
	"caseboard-ai/pkg/metrics"
)

const (
	HeaderAIProvider = "X-AI-Provider"
	HeaderAIModel    = "X-AI-Model"
)

// Planner 规划生成器接口，便于测试替换
type Planner interface {
	Generate(ctx context.Context, req planner.PlanRequest) (*planner.PlanResult, error)
}

// HealthChecker 依赖健康状态
type HealthChecker interface {
	AnyAvailable() bool
	Available(name string) bool
}

// HandlerConfig handler 参数
type HandlerConfig struct {
	MaxPromptChars     int
	AllowModelOverride bool
	RoutingMode        string
}

// Handler HTTP 处理器
type Handler struct {
	planner Planner
	access  access.Resolver
	boards  board.Store
	health  HealthChecker
	cfg     HandlerConfig
}

// NewHandler 创建 HTTP 处理器
func NewHandler(p Planner, resolver access.Resolver, boards board.Store, health HealthChecker, cfg HandlerConfig) *Handler {
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = 2000
	}
	if resolver == nil {
		resolver = access.AllowAll{}
	}
	return &Handler{planner: p, access: resolver, boards: boards, health: health, cfg: cfg}
}

type planRequestBody struct {
	Prompt     string          `json:"prompt"`
	BoardID    string          `json:"boardId"`
	BoardState json.RawMessage `json:"boardState,omitempty"`
	Provider   string          `json:"provider,omitempty"`
	Model      string          `json:"model,omitempty"`
}

// writeError 按错误类别输出稳定状态码与安全文案
func writeError(ctx context.Context, c *app.RequestContext, err error) {
	status := errors.HTTPStatus(err)
	if status >= consts.StatusInternalServerError {
		hlog.CtxErrorf(ctx, "plan request failed: %v", err)
	}
	c.JSON(status, map[string]string{"error": errors.PublicMessage(err)})
}

// Plan POST /api/ai/plan
func (h *Handler) Plan(ctx context.Context, c *app.RequestContext) {
	actorID := auth.GetActorID(ctx)
	if actorID == "" {
		writeError(ctx, c, errors.Auth("authentication required"))
		return
	}

	var body planRequestBody
	if err := json.Unmarshal(c.Request.Body(), &body); err != nil {
		writeError(ctx, c, errors.Validation("request body must be a JSON object"))
		return
	}
	req, err := h.planRequest(ctx, actorID, body)
	if err != nil {
		metrics.PlanRequestsTotal.WithLabelValues("none", "rejected").Inc()
		writeError(ctx, c, err)
		return
	}

	res, err := h.planner.Generate(ctx, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.Header(HeaderAIProvider, res.Provider)
	c.Header(HeaderAIModel, res.Model)
	c.JSON(consts.StatusOK, res)
}

// planRequest 校验输入并组装 PlanRequest；校验顺序决定同时存在多个问题时返回哪个状态码
func (h *Handler) planRequest(ctx context.Context, actorID string, body planRequestBody) (planner.PlanRequest, error) {
	prompt := strings.TrimSpace(body.Prompt)
	if prompt == "" {
		return planner.PlanRequest{}, errors.Validation("prompt is required")
	}
	if utf8.RuneCountInString(prompt) > h.cfg.MaxPromptChars {
		return planner.PlanRequest{}, errors.Validation("prompt is too long")
	}
	boardID := strings.TrimSpace(body.BoardID)
	if boardID == "" {
		return planner.PlanRequest{}, errors.Validation("boardId is required")
	}

	provider := strings.ToLower(strings.TrimSpace(body.Provider))
	modelName := strings.TrimSpace(body.Model)
	if provider != "" || modelName != "" {
		if !h.cfg.AllowModelOverride {
			return planner.PlanRequest{}, errors.Authorization("model override is disabled")
		}
		if provider == "" || !llm.IsKnownProvider(provider) {
			return planner.PlanRequest{}, errors.Validation("override requires provider anthropic or openai")
		}
	}

	ok, err := h.access.CanInvokeAI(ctx, boardID, actorID)
	if err != nil {
		return planner.PlanRequest{}, errors.Wrap(err, "resolve board access")
	}
	if !ok {
		return planner.PlanRequest{}, errors.Authorization("you do not have AI access to this board")
	}

	snap, err := h.snapshot(ctx, boardID, body.BoardState)
	if err != nil {
		return planner.PlanRequest{}, err
	}
	return planner.PlanRequest{
		Prompt:   prompt,
		BoardID:  boardID,
		ActorID:  actorID,
		Board:    snap,
		Provider: provider,
		Model:    modelName,
	}, nil
}

// snapshot 请求自带快照优先，否则从快照存储读取
func (h *Handler) snapshot(ctx context.Context, boardID string, raw json.RawMessage) (board.Snapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		var snap board.Snapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, errors.Validation("boardState must be an array of objects")
		}
		return snap, nil
	}
	if h.boards == nil {
		return board.Snapshot{}, nil
	}
	snap, err := board.Load(ctx, h.boards, boardID)
	if err != nil {
		return nil, errors.Wrap(err, "load board snapshot")
	}
	return snap, nil
}

// HealthCheck GET /api/health；没有可用 provider 时返回 503
func (h *Handler) HealthCheck(ctx context.Context, c *app.RequestContext) {
	providers := map[string]bool{}
	status, code := "ok", consts.StatusOK
	if h.health != nil {
		for _, name := range []string{llm.ProviderAnthropic, llm.ProviderOpenAI} {
			providers[name] = h.health.Available(name)
		}
		if !h.health.AnyAvailable() {
			status, code = "no AI provider configured", consts.StatusServiceUnavailable
		}
	}
	c.JSON(code, map[string]interface{}{
		"status":    status,
		"providers": providers,
		"routing":   h.cfg.RoutingMode,
	})
}

// Metrics GET /metrics
func (h *Handler) Metrics(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		hlog.CtxErrorf(ctx, "write prometheus metrics: %v", err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	c.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

// CreateBoard POST /api/boards，为 benchmark 分配空画板
func (h *Handler) CreateBoard(ctx context.Context, c *app.RequestContext) {
	if h.boards == nil {
		c.JSON(consts.StatusNotImplemented, map[string]string{"error": "board store is not configured"})
		return
	}
	id, err := h.boards.Create(ctx)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, map[string]string{"boardId": id})
}

// PutSnapshot POST /api/boards/:id/snapshot，body 为对象数组
func (h *Handler) PutSnapshot(ctx context.Context, c *app.RequestContext) {
	if h.boards == nil {
		c.JSON(consts.StatusNotImplemented, map[string]string{"error": "board store is not configured"})
		return
	}
	boardID := c.Param("id")
	var snap board.Snapshot
	if err := json.Unmarshal(c.Request.Body(), &snap); err != nil {
		writeError(ctx, c, errors.Validation("snapshot must be an array of objects"))
		return
	}
	if err := h.boards.Put(ctx, boardID, snap); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{"boardId": boardID, "objects": len(snap)})
}

// MethodNotAllowed 已注册路径上的其它方法
func (h *Handler) MethodNotAllowed(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

// NotFound 未注册路径
func (h *Handler) NotFound(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusNotFound, map[string]string{"error": "not found"})
}
