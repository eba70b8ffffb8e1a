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

// Package validator 对模型返回的工具调用做纯结构校验：工具是否存在、必填字段是否齐全。
// 不检查取值范围或格式。
package validator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"caseboard-ai/internal/tool"
	"caseboard-ai/internal/tool/registry"
)

// Issue 单个工具调用的结构问题
type Issue struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Reason     string `json:"reason"`
}

// Validator 绑定一个工具注册表
type Validator struct {
	reg *registry.Registry
}

// New 创建校验器
func New(reg *registry.Registry) *Validator {
	return &Validator{reg: reg}
}

// Validate 每个未知工具一条 issue；已知工具的缺失、空白或非有限数值字段合并为一条 issue
func (v *Validator) Validate(calls []tool.Call) []Issue {
	var issues []Issue
	for _, c := range calls {
		if !v.reg.Has(c.Name) {
			issues = append(issues, Issue{
				ToolCallID: c.ID,
				ToolName:   c.Name,
				Reason:     fmt.Sprintf("unknown tool %q", c.Name),
			})
			continue
		}
		bad := badFields(c.Input, v.reg.Required(c.Name))
		if len(bad) == 0 {
			continue
		}
		issues = append(issues, Issue{
			ToolCallID: c.ID,
			ToolName:   c.Name,
			Reason:     fmt.Sprintf("%s is missing required fields: %s", c.Name, strings.Join(bad, ", ")),
		})
	}
	return issues
}

func badFields(input map[string]any, required []string) []string {
	var bad []string
	for _, field := range required {
		if !present(input[field]) {
			bad = append(bad, field)
		}
	}
	sort.Strings(bad)
	return bad
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case float64:
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		f := float64(x)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return true
	}
}

// Score 计划质量分，越低越好：任何结构问题都压过调用数量
func Score(issues []Issue, calls []tool.Call) int {
	return len(issues)*100 - len(calls)
}

// Reasons 提取 issue 描述，用于扩展请求
func Reasons(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Reason)
	}
	return out
}
