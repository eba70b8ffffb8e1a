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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"caseboard-ai/internal/tool"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
	defaultTimeout          = 60 * time.Second
)

// ClientConfig provider 客户端配置
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func newRestyClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New()
	client.SetTimeout(timeout)
	// 重试与 fallback 由 planner 统一决定，这里不做传输层重试
	client.SetRetryCount(0)
	return client
}

// AnthropicClient Anthropic Messages API 客户端
type AnthropicClient struct {
	apiKey  string
	baseURL string
	client  *resty.Client
}

// NewAnthropicClient 创建 Anthropic 客户端；APIKey 为空时 Available 返回 false
func NewAnthropicClient(cfg ClientConfig) *AnthropicClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &AnthropicClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  newRestyClient(cfg.Timeout),
	}
}

// Name 实现 Provider
func (c *AnthropicClient) Name() string { return ProviderAnthropic }

// Available 实现 Provider
func (c *AnthropicClient) Available() bool { return c.apiKey != "" }

type anthropicTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"input_schema"`
}

type anthropicRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []Message       `json:"messages"`
	Tools       []anthropicTool `json:"tools,omitempty"`
	ToolChoice  map[string]any  `json:"tool_choice,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete 实现 Provider
func (c *AnthropicClient) Complete(ctx context.Context, req ToolRequest) (*ToolResponse, error) {
	if !c.Available() {
		return nil, ErrNotConfigured
	}
	body := anthropicRequest{
		Model:       req.Model,
		System:      req.System,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = 4096
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: t.Parameters})
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = map[string]any{"type": "auto"}
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", c.apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetBody(body).
		Post(c.baseURL + "/messages")
	if err != nil {
		return nil, fmt.Errorf("调用 Anthropic API 失败: %w", err)
	}
	if !response.IsSuccess() {
		return nil, &StatusError{Provider: ProviderAnthropic, StatusCode: response.StatusCode(), Body: response.String()}
	}

	var result anthropicResponse
	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return nil, fmt.Errorf("解析 Anthropic 响应失败: %w", err)
	}

	out := &ToolResponse{
		StopReason: result.StopReason,
		Model:      result.Model,
		Usage:      Usage{InputTokens: result.Usage.InputTokens, OutputTokens: result.Usage.OutputTokens},
	}
	var texts []string
	for _, block := range result.Content {
		switch block.Type {
		case "text":
			if s := strings.TrimSpace(block.Text); s != "" {
				texts = append(texts, s)
			}
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, tool.Call{
				ID:    idOrNew(block.ID),
				Name:  block.Name,
				Input: decodeInput(block.Input),
			})
		}
	}
	out.Text = strings.Join(texts, "\n")
	return out, nil
}

// decodeInput 非对象或非法 JSON 返回 nil，交给校验器记为缺字段
func decodeInput(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return "call_" + uuid.NewString()
}
