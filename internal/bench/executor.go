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

package bench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"caseboard-ai/internal/tool"
	"caseboard-ai/pkg/utils"
)

// 与服务端 internal/api/http 保持一致
const (
	headerAIProvider = "X-AI-Provider"
	headerAIModel    = "X-AI-Model"
	planPath         = "/api/ai/plan"
)

// Executor 执行一个矩阵单元；实现不得 panic，失败以 Row 表达
type Executor interface {
	Execute(ctx context.Context, item Item) Row
}

type planRequest struct {
	Prompt   string `json:"prompt"`
	BoardID  string `json:"boardId"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

type planResponse struct {
	ToolCalls  []tool.Call `json:"toolCalls"`
	Message    string      `json:"message"`
	StopReason string      `json:"stopReason"`
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPExecutor 通过 POST /api/ai/plan 驱动被测服务
type HTTPExecutor struct {
	client  *resty.Client
	target  string
	token   string
	timeout time.Duration
}

// NewHTTPExecutor 创建执行器；timeout 为单次调用上限，<=0 表示只受 ctx 约束
func NewHTTPExecutor(client *resty.Client, target, token string, timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		client:  client,
		target:  strings.TrimRight(target, "/"),
		token:   token,
		timeout: timeout,
	}
}

// Execute 实现 Executor
func (e *HTTPExecutor) Execute(ctx context.Context, item Item) Row {
	row := Row{Item: item, Provider: item.Provider, Model: item.Model}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.client.R().
		SetContext(ctx).
		SetAuthToken(e.token).
		SetBody(planRequest{Prompt: item.Prompt, BoardID: item.BoardID, Provider: item.Provider, Model: item.Model}).
		Post(e.target + planPath)
	row.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			row.Error = fmt.Sprintf("timeout after %s", e.timeout)
		} else {
			row.Error = err.Error()
		}
		return row
	}
	row.Status = resp.StatusCode()
	if !resp.IsSuccess() {
		var apiErr errorResponse
		if json.Unmarshal(resp.Body(), &apiErr) == nil {
			row.Error = apiErr.Error
		}
		if row.Error == "" {
			row.Error = resp.Status()
		}
		return row
	}

	// 成功只取决于 HTTP 结果；响应体无法解析时记 0 分并保留原因
	row.Success = true
	var body planResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		row.Error = fmt.Sprintf("decode plan response: %v", err)
		row.Provider = utils.CoalesceString(resp.Header().Get(headerAIProvider), item.Provider)
		row.Model = utils.CoalesceString(resp.Header().Get(headerAIModel), item.Model)
		return row
	}
	row.ToolCallCount = len(body.ToolCalls)
	row.Accuracy = Score(item.PromptID, body.ToolCalls)
	row.Provider = utils.CoalesceString(resp.Header().Get(headerAIProvider), body.Provider, item.Provider)
	row.Model = utils.CoalesceString(resp.Header().Get(headerAIModel), body.Model, item.Model)
	return row
}
