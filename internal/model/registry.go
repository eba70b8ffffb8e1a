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

package model

import (
	"fmt"
	"sort"

	"caseboard-ai/internal/model/llm"
)

// Providers 按名称索引的 LLM provider 集合，启动时构建后只读，由调用方注入
type Providers struct {
	byName map[string]llm.Provider
}

// NewProviders 构建 provider 集合；重名时后者覆盖前者
func NewProviders(ps ...llm.Provider) *Providers {
	m := make(map[string]llm.Provider, len(ps))
	for _, p := range ps {
		if p == nil {
			continue
		}
		m[p.Name()] = p
	}
	return &Providers{byName: m}
}

// Get 按名称获取 provider
func (r *Providers) Get(name string) (llm.Provider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("LLM not registered: %s", name)
	}
	return p, nil
}

// Available 已注册且配置了凭据
func (r *Providers) Available(name string) bool {
	p, ok := r.byName[name]
	return ok && p.Available()
}

// Names 已注册的 provider 名称（排序）
func (r *Providers) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AnyAvailable 至少有一个 provider 可用，健康检查使用
func (r *Providers) AnyAvailable() bool {
	for _, p := range r.byName {
		if p.Available() {
			return true
		}
	}
	return false
}
