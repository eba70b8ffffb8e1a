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

// Package bench 规划接口的基准压测：矩阵构建、有界并发执行、逐 prompt 打分、聚合与报告
package bench

import "time"

// Prompt 压测 prompt；bare string 形式加载时 ID 为 prompt-<序号>
type Prompt struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

// MatrixEntry 一个被评测的 provider/model 组合
type MatrixEntry struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Item 矩阵中的一个单元，即一次请求
type Item struct {
	Round    int    `json:"round"`
	BoardID  string `json:"boardId"`
	PromptID string `json:"promptId"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Row 单次请求的结果。Success 只反映传输与 HTTP 状态（2xx），与 Accuracy 无关
type Row struct {
	Item          Item    `json:"item"`
	Success       bool    `json:"success"`
	Status        int     `json:"status"`
	LatencyMS     int64   `json:"latencyMs"`
	ToolCallCount int     `json:"toolCallCount"`
	Accuracy      float64 `json:"accuracy"`
	Provider      string  `json:"provider"` // 实际应答的 provider（X-AI-Provider），失败时为请求值
	Model         string  `json:"model"`
	Error         string  `json:"error,omitempty"`
}

// Stats 一个聚合维度下的统计
type Stats struct {
	Key          string  `json:"key"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model,omitempty"`
	PromptID     string  `json:"promptId,omitempty"`
	Requests     int     `json:"requests"`
	Successes    int     `json:"successes"`
	Failures     int     `json:"failures"`
	AvgLatencyMS float64 `json:"avgLatencyMs"`
	AvgToolCalls float64 `json:"avgToolCalls"`
	AvgAccuracy  float64 `json:"avgAccuracy"`
}

// Failure 单条失败记录，字段足以复现该请求
type Failure struct {
	Round    int    `json:"round"`
	BoardID  string `json:"boardId"`
	PromptID string `json:"promptId"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Status   int    `json:"status"`
	Error    string `json:"error"`
}

// Report 一次压测的完整结果
type Report struct {
	RunID          string    `json:"runId,omitempty"`
	Target         string    `json:"target,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	Concurrency    int       `json:"concurrency,omitempty"`
	TotalRequests  int       `json:"totalRequests"`
	TotalSuccesses int       `json:"totalSuccesses"`
	TotalFailures  int       `json:"totalFailures"`
	ByProvider     []Stats   `json:"byProvider"`
	ByModel        []Stats   `json:"byModel"`
	ByPrompt       []Stats   `json:"byPrompt"`
	Failures       []Failure `json:"failures"`
	// FailuresTruncated 失败数超过上限时为 true，Failures 只保留前若干条
	FailuresTruncated bool  `json:"failuresTruncated,omitempty"`
	Rows              []Row `json:"rows"`
}
