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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"caseboard-ai/internal/model/llm"
)

// LoadSuite 读取 JSON prompt 集：对象数组 {id, category, prompt} 或字符串数组，可混用。
// 空集合视为致命的准备错误。
func LoadSuite(path string) ([]Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt suite: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite 解析 prompt 集内容
func ParseSuite(data []byte) ([]Prompt, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("prompt suite must be a JSON array: %w", err)
	}
	out := make([]Prompt, 0, len(raw))
	for i, r := range raw {
		var p Prompt
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			p.Prompt = s
		} else if err := json.Unmarshal(r, &p); err != nil {
			return nil, fmt.Errorf("prompt suite entry %d: %w", i, err)
		}
		p.Prompt = strings.TrimSpace(p.Prompt)
		if p.Prompt == "" {
			return nil, fmt.Errorf("prompt suite entry %d has empty prompt", i)
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("prompt-%d", i+1)
		}
		if p.Category == "" {
			p.Category = "uncategorized"
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("prompt suite is empty")
	}
	return out, nil
}

// ParseMatrix 解析 "provider:model[,provider:model...]"
func ParseMatrix(s string) ([]MatrixEntry, error) {
	var out []MatrixEntry
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		provider, model, ok := strings.Cut(part, ":")
		provider = strings.TrimSpace(provider)
		model = strings.TrimSpace(model)
		if !ok || provider == "" || model == "" {
			return nil, fmt.Errorf("invalid matrix entry %q, want provider:model", part)
		}
		if !llm.IsKnownProvider(provider) {
			return nil, fmt.Errorf("unknown provider %q in matrix entry %q", provider, part)
		}
		out = append(out, MatrixEntry{Provider: provider, Model: model})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("matrix is empty")
	}
	return out, nil
}

// BuildItems 按 round × board × prompt × matrix 展开请求列表；limit>0 时截断为 min(limit, 总数)
func BuildItems(boards []string, suite []Prompt, matrix []MatrixEntry, rounds, limit int) []Item {
	if rounds <= 0 {
		rounds = 1
	}
	total := rounds * len(boards) * len(suite) * len(matrix)
	if limit > 0 && limit < total {
		total = limit
	}
	items := make([]Item, 0, total)
	for r := 1; r <= rounds; r++ {
		for _, b := range boards {
			for _, p := range suite {
				for _, m := range matrix {
					if len(items) == total {
						return items
					}
					items = append(items, Item{
						Round:    r,
						BoardID:  b,
						PromptID: p.ID,
						Category: p.Category,
						Prompt:   p.Prompt,
						Provider: m.Provider,
						Model:    m.Model,
					})
				}
			}
		}
	}
	return items
}
