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
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"caseboard-ai/internal/bench/pool"
	"caseboard-ai/pkg/config"
	"caseboard-ai/pkg/log"
	"caseboard-ai/pkg/utils"
)

// Config 一次压测的参数
type Config struct {
	Target      string
	Token       string
	SuitePath   string
	Matrix      string
	Boards      []string
	Provision   int
	Rounds      int
	Concurrency int
	Timeout     time.Duration
	Delay       time.Duration
	WaitReady   time.Duration
	Limit       int
	OutDir      string
	MaxFailures int
}

// ConfigFromBench 由 bench 配置段转换；时长字段无效时返回错误
func ConfigFromBench(bc config.BenchConfig) (Config, error) {
	cfg := Config{
		Target:      bc.Target,
		Token:       bc.Token,
		SuitePath:   bc.Suite,
		Matrix:      bc.Matrix,
		Boards:      bc.Boards,
		Provision:   bc.Provision,
		Rounds:      bc.Rounds,
		Concurrency: bc.Concurrency,
		Limit:       bc.Limit,
		OutDir:      bc.OutDir,
		MaxFailures: bc.MaxFailures,
	}
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeout", bc.Timeout, &cfg.Timeout},
		{"delay", bc.Delay, &cfg.Delay},
		{"wait_ready", bc.WaitReady, &cfg.WaitReady},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return Config{}, fmt.Errorf("bench.%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return cfg, nil
}

// Runner 组织一次完整压测：准备 → 就绪等待 → 执行 → 聚合 → 写报告
type Runner struct {
	cfg      Config
	client   *resty.Client
	executor Executor
	logger   *log.Logger
	now      func() time.Time
}

// RunnerOption Runner 可选项
type RunnerOption func(*Runner)

// WithExecutor 替换默认的 HTTP 执行器
func WithExecutor(e Executor) RunnerOption {
	return func(r *Runner) { r.executor = e }
}

// WithClock 替换时钟，报告文件名依赖它
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner 创建 Runner
func NewRunner(cfg Config, logger *log.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = log.Discard()
	}
	cfg.Target = strings.TrimRight(cfg.Target, "/")
	r := &Runner{
		cfg:    cfg,
		client: resty.New(),
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.executor == nil {
		r.executor = NewHTTPExecutor(r.client, cfg.Target, cfg.Token, cfg.Timeout)
	}
	return r
}

// Result Run 的产出
type Result struct {
	Report   Report
	JSONPath string
	MDPath   string
}

// Run 执行压测。只有准备阶段的错误（空 prompt 集、缺少 token、画板准备失败、目标未就绪）
// 会在发出任何请求前中止；单行失败只记录，不中止整批。
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.cfg.Target == "" {
		return nil, fmt.Errorf("bench target is required")
	}
	if strings.TrimSpace(r.cfg.Token) == "" {
		return nil, fmt.Errorf("bench token is required")
	}
	suite, err := LoadSuite(r.cfg.SuitePath)
	if err != nil {
		return nil, err
	}
	matrix, err := ParseMatrix(r.cfg.Matrix)
	if err != nil {
		return nil, err
	}
	if err := WaitReady(ctx, r.client, r.cfg.Target, r.cfg.WaitReady, time.Second); err != nil {
		return nil, err
	}
	boards, err := NewProvisioner(r.client, r.cfg.Target, r.cfg.Token).Boards(ctx, r.cfg.Boards, r.cfg.Provision)
	if err != nil {
		return nil, err
	}

	items := BuildItems(boards, suite, matrix, r.cfg.Rounds, r.cfg.Limit)
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	logger.Info("benchmark started",
		"target", r.cfg.Target,
		"requests", len(items),
		"boards", len(boards),
		"prompts", len(suite),
		"matrix", len(matrix),
		"concurrency", utils.DefaultInt(r.cfg.Concurrency, 1),
	)

	started := r.now()
	concurrency := utils.DefaultInt(r.cfg.Concurrency, 1)
	rows, err := pool.Run(ctx, len(items), concurrency, r.cfg.Delay, func(ctx context.Context, i int) Row {
		row := r.executor.Execute(ctx, items[i])
		if !row.Success {
			logger.Warn("benchmark request failed",
				"prompt_id", row.Item.PromptID,
				"board_id", row.Item.BoardID,
				"provider", row.Item.Provider,
				"status", row.Status,
				"error", row.Error,
			)
		}
		return row
	})
	if err != nil {
		return nil, fmt.Errorf("benchmark interrupted: %w", err)
	}
	finished := r.now()

	rep := Aggregate(rows, r.cfg.MaxFailures)
	rep.RunID = runID
	rep.Target = r.cfg.Target
	rep.StartedAt = started
	rep.FinishedAt = finished
	rep.Concurrency = concurrency

	res := &Result{Report: rep}
	if r.cfg.OutDir != "" {
		res.JSONPath, res.MDPath, err = WriteReports(r.cfg.OutDir, rep, finished)
		if err != nil {
			return nil, err
		}
	}
	logger.Info("benchmark finished",
		"requests", rep.TotalRequests,
		"failures", rep.TotalFailures,
		"json_report", res.JSONPath,
		"markdown_report", res.MDPath,
	)
	return res, nil
}
