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
	"time"

	"caseboard-ai/pkg/metrics"
)

// RateLimitedProvider 在真实调用前执行本地限流
type RateLimitedProvider struct {
	inner       Provider
	rateLimiter *LLMRateLimiter
}

// NewRateLimitedProvider rateLimiter 为 nil 时直接透传
func NewRateLimitedProvider(inner Provider, rateLimiter *LLMRateLimiter) *RateLimitedProvider {
	return &RateLimitedProvider{inner: inner, rateLimiter: rateLimiter}
}

// Name 实现 Provider
func (p *RateLimitedProvider) Name() string { return p.inner.Name() }

// Available 实现 Provider
func (p *RateLimitedProvider) Available() bool { return p.inner.Available() }

// Complete 实现 Provider
func (p *RateLimitedProvider) Complete(ctx context.Context, req ToolRequest) (*ToolResponse, error) {
	if p.rateLimiter == nil {
		return p.inner.Complete(ctx, req)
	}
	name := p.inner.Name()
	start := time.Now()
	if err := p.rateLimiter.Wait(ctx, name, estimateTokens(req)); err != nil {
		return nil, err
	}
	if waited := time.Since(start); waited > 100*time.Millisecond {
		metrics.RateLimitWaitSeconds.WithLabelValues(name).Observe(waited.Seconds())
	}
	defer p.rateLimiter.Release(name)
	return p.inner.Complete(ctx, req)
}

// estimateTokens 粗略估算请求 token 数（4 字符 ≈ 1 token）
func estimateTokens(req ToolRequest) int {
	n := len(req.System)
	for _, m := range req.Messages {
		n += len(m.Content)
	}
	estimated := n/4 + req.MaxTokens
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}
