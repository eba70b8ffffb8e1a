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
	"errors"
	"fmt"

	"caseboard-ai/internal/tool"
	"caseboard-ai/internal/tool/registry"
)

// Provider 名称
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// IsKnownProvider provider 名称是否受支持
func IsKnownProvider(name string) bool {
	return name == ProviderAnthropic || name == ProviderOpenAI
}

// Message 聊天消息
type Message struct {
	Role    string `json:"role"` // user, assistant
	Content string `json:"content"`
}

// ToolRequest 一次带工具定义的补全请求
type ToolRequest struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []registry.ToolSchemaForLLM
	MaxTokens   int
	Temperature float64
	// Metadata 仅用于 tracing 等装饰器，不发送给 provider
	Metadata map[string]string
}

// Usage token 用量
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// ToolResponse provider 返回的文本、工具调用与停止原因
type ToolResponse struct {
	Text       string
	ToolCalls  []tool.Call
	StopReason string
	Model      string
	Usage      Usage
}

// Provider 支持工具调用的 LLM 客户端
type Provider interface {
	// Name 返回 provider 名称（anthropic | openai）
	Name() string
	// Available 是否配置了凭据
	Available() bool
	// Complete 发送一次补全请求
	Complete(ctx context.Context, req ToolRequest) (*ToolResponse, error)
}

// ErrRateLimited provider 返回 429
var ErrRateLimited = errors.New("llm: provider rate limited")

// ErrNotConfigured provider 没有配置凭据
var ErrNotConfigured = errors.New("llm: provider not configured")

// StatusError provider 返回非 2xx
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, body)
}

// Is 429 视为 ErrRateLimited
func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == 429
}

// IsRateLimited err 链上是否有限流错误
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
