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

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caseboard-ai/internal/bench"
	"caseboard-ai/pkg/log"
)

func newBenchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark POST /api/ai/plan across providers, models and prompts",
		Long: `Builds the board × prompt × provider:model × round matrix, executes it against the
target with bounded concurrency and per-request timeouts, scores each response and
writes bench-<UTC timestamp>.json and .md reports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, v)
		},
	}
	f := cmd.Flags()
	f.String("suite", "", "Prompt suite JSON file")
	f.StringP("matrix", "m", "", "provider:model[,provider:model...]")
	f.StringSlice("boards", nil, "Explicit board ids")
	f.Int("provision", 0, "Number of boards to provision when --boards is empty")
	f.IntP("rounds", "r", 1, "Rounds over the full matrix")
	f.IntP("concurrency", "j", 1, "Number of concurrent workers")
	f.String("timeout", "60s", "Per-request timeout")
	f.String("delay", "", "Per-worker delay between requests")
	f.String("wait-ready", "", "Poll /api/health for up to this long before starting")
	f.Int("limit", 0, "Cap the number of requests (smoke test)")
	f.StringP("out", "o", "bench-results", "Report output directory")
	f.Int("max-failures", 50, "Maximum failures listed individually in the report")

	for key, flag := range map[string]string{
		"bench.suite":        "suite",
		"bench.matrix":       "matrix",
		"bench.boards":       "boards",
		"bench.provision":    "provision",
		"bench.rounds":       "rounds",
		"bench.concurrency":  "concurrency",
		"bench.timeout":      "timeout",
		"bench.delay":        "delay",
		"bench.wait_ready":   "wait-ready",
		"bench.limit":        "limit",
		"bench.out_dir":      "out",
		"bench.max_failures": "max-failures",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

func runBench(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(cmd, v)
	if err != nil {
		return err
	}
	benchCfg, err := bench.ConfigFromBench(cfg.Bench)
	if err != nil {
		return err
	}
	logger, err := log.NewLogger(&log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := bench.NewRunner(benchCfg, logger).Run(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, bench.Markdown(res.Report))
	if res.JSONPath != "" {
		fmt.Fprintf(out, "\nreports: %s, %s\n", res.JSONPath, res.MDPath)
	}
	return nil
}
