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

package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"caseboard-ai/internal/model"
	"caseboard-ai/internal/model/llm"
	"caseboard-ai/pkg/config"
	"caseboard-ai/pkg/log"
	"caseboard-ai/pkg/secrets"
)

// NewProvidersFromConfig 为 anthropic/openai 创建客户端并依次包装限流与追踪。
// api_key 解析失败不阻断启动，该 provider 视为不可用，由路由层回落或返回配置错误。
func NewProvidersFromConfig(ctx context.Context, cfg *config.Config, store secrets.Store, tracer trace.Tracer, logger *log.Logger) (*model.Providers, error) {
	limits := make(map[string]llm.LLMLimitConfig, len(cfg.RateLimits.LLM))
	for name, rl := range cfg.RateLimits.LLM {
		limits[name] = llm.LLMLimitConfig{
			TokensPerMinute:   rl.TokensPerMinute,
			RequestsPerMinute: rl.RequestsPerMinute,
			MaxConcurrent:     rl.MaxConcurrent,
		}
	}
	limiter := llm.NewLLMRateLimiter(limits, nil)

	var ps []llm.Provider
	for _, name := range []string{llm.ProviderAnthropic, llm.ProviderOpenAI} {
		pc := cfg.Model.LLM.Providers[name]
		apiKey, err := secrets.Resolve(ctx, store, pc.APIKey)
		if err != nil {
			logger.Warn("解析 provider 凭据失败，provider 不可用", "provider", name, "error", err)
			apiKey = ""
		}
		clientCfg := llm.ClientConfig{
			APIKey:  apiKey,
			BaseURL: pc.BaseURL,
			Timeout: parseDuration(pc.Timeout, 60*time.Second),
		}

		var p llm.Provider
		switch name {
		case llm.ProviderAnthropic:
			p = llm.NewAnthropicClient(clientCfg)
		case llm.ProviderOpenAI:
			p = llm.NewOpenAIClient(clientCfg)
		}
		p = llm.NewRateLimitedProvider(p, limiter)
		if tracer != nil {
			p = llm.NewTracedProvider(p, tracer, cfg.Planner.RunName)
		}
		if !p.Available() {
			logger.Info("provider 未配置凭据", "provider", name)
		}
		ps = append(ps, p)
	}
	return model.NewProviders(ps...), nil
}
