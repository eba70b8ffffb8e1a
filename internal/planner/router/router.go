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

// Package router 选择本次请求使用的 LLM provider 与模型。
//
// 固定模式总是选同一个 provider；split 模式按 boardID+actorID 的稳定哈希分桶，
// 同一用户在同一画板上的请求总是落到同一个 provider。
package router

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"caseboard-ai/internal/model/llm"
	"caseboard-ai/pkg/errors"
)

// 路由模式
const (
	ModeAnthropic = llm.ProviderAnthropic
	ModeOpenAI    = llm.ProviderOpenAI
	ModeSplit     = "split"
)

// 内置默认模型，配置未给出时使用
var defaultModels = map[string]ModelNames{
	llm.ProviderAnthropic: {Simple: "claude-3-5-haiku-latest", Complex: "claude-sonnet-4-20250514"},
	llm.ProviderOpenAI:    {Simple: "gpt-4o-mini", Complex: "gpt-4.1"},
}

// ModelNames 某 provider 的简单/复杂模型名
type ModelNames struct {
	Simple  string
	Complex string
}

// Config 路由配置
type Config struct {
	Mode         string
	SplitPercent int // split 模式下分到 openai 的百分比 [0,100]
	Models       map[string]ModelNames
}

// AvailabilityFunc 报告 provider 是否配置了可用凭据
type AvailabilityFunc func(provider string) bool

// Override 仅 benchmark 使用的 provider/model 覆盖
type Override struct {
	Provider string
	Model    string
}

// Selection 路由结果
type Selection struct {
	Primary  string
	Fallback string // 为空表示没有可用的备用 provider
	Bucket   int    // split 模式下的分桶值，其它模式为 -1
	override Override
}

// ModelOverride 覆盖模型只作用于被覆盖的 provider
func (s Selection) ModelOverride(provider string) string {
	if s.override.Provider == provider {
		return s.override.Model
	}
	return ""
}

// Router provider 路由器；构造后只读
type Router struct {
	mode         string
	splitPercent int
	models       map[string]ModelNames
	available    AvailabilityFunc
}

// New 创建路由器
func New(cfg Config, available AvailabilityFunc) (*Router, error) {
	switch cfg.Mode {
	case ModeAnthropic, ModeOpenAI, ModeSplit:
	case "":
		cfg.Mode = ModeAnthropic
	default:
		return nil, errors.Configuration(fmt.Sprintf("unknown routing mode %q", cfg.Mode))
	}
	if cfg.SplitPercent < 0 {
		cfg.SplitPercent = 0
	}
	if cfg.SplitPercent > 100 {
		cfg.SplitPercent = 100
	}
	if available == nil {
		available = func(string) bool { return false }
	}
	models := make(map[string]ModelNames, len(defaultModels))
	for p, d := range defaultModels {
		m := cfg.Models[p]
		if m.Simple == "" {
			m.Simple = d.Simple
		}
		if m.Complex == "" {
			m.Complex = d.Complex
		}
		models[p] = m
	}
	return &Router{mode: cfg.Mode, splitPercent: cfg.SplitPercent, models: models, available: available}, nil
}

// Bucket boardID+actorID 的稳定分桶值 [0,100)
func Bucket(boardID, actorID string) int {
	return int(xxhash.Sum64String(boardID+":"+actorID) % 100)
}

// Preferred 不考虑可用性时的首选 provider
func (r *Router) Preferred(boardID, actorID string) (string, int) {
	switch r.mode {
	case ModeSplit:
		b := Bucket(boardID, actorID)
		if b < r.splitPercent {
			return llm.ProviderOpenAI, b
		}
		return llm.ProviderAnthropic, b
	default:
		return r.mode, -1
	}
}

// Other 另一个 provider
func Other(provider string) string {
	if provider == llm.ProviderOpenAI {
		return llm.ProviderAnthropic
	}
	return llm.ProviderOpenAI
}

// Select 选择主 provider 与备用 provider。首选不可用时静默切换到另一个；两者都不可用返回 ConfigurationError
func (r *Router) Select(boardID, actorID string, ov Override) (Selection, error) {
	preferred, bucket := r.Preferred(boardID, actorID)
	if ov.Provider != "" {
		if !llm.IsKnownProvider(ov.Provider) {
			return Selection{}, errors.Validation(fmt.Sprintf("unknown provider %q", ov.Provider))
		}
		preferred, bucket = ov.Provider, -1
	}
	other := Other(preferred)
	sel := Selection{Bucket: bucket, override: ov}
	switch {
	case r.available(preferred):
		sel.Primary = preferred
		if r.available(other) {
			sel.Fallback = other
		}
	case r.available(other):
		sel.Primary = other
	default:
		return Selection{}, errors.Configuration("no AI provider is configured")
	}
	return sel, nil
}

// ResolveModel 模型选择优先级：请求覆盖 > 配置的简单/复杂模型 > 内置默认
func (r *Router) ResolveModel(provider string, complex bool, override string) string {
	if override != "" {
		return override
	}
	m := r.models[provider]
	if complex {
		return m.Complex
	}
	return m.Simple
}

// Mode 当前路由模式
func (r *Router) Mode() string { return r.mode }
