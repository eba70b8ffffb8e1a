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
	"path/filepath"
	"strings"
	"time"
)

// Slug 报告文件名使用的 UTC 时间戳
func Slug(now time.Time) string {
	return now.UTC().Format("20060102T150405Z")
}

// WriteReports 写出 bench-<slug>.json（完整行与聚合）与 bench-<slug>.md（表格摘要），返回两个路径
func WriteReports(dir string, rep Report, now time.Time) (jsonPath, mdPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}
	base := filepath.Join(dir, "bench-"+Slug(now))
	jsonPath, mdPath = base+".json", base+".md"

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write json report: %w", err)
	}
	if err := os.WriteFile(mdPath, []byte(Markdown(rep)), 0o644); err != nil {
		return "", "", fmt.Errorf("write markdown report: %w", err)
	}
	return jsonPath, mdPath, nil
}

// Markdown 人读摘要
func Markdown(rep Report) string {
	var b strings.Builder
	b.WriteString("# AI Plan Benchmark\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	if rep.RunID != "" {
		fmt.Fprintf(&b, "| Run | %s |\n", rep.RunID)
	}
	if rep.Target != "" {
		fmt.Fprintf(&b, "| Target | %s |\n", rep.Target)
	}
	if !rep.StartedAt.IsZero() {
		fmt.Fprintf(&b, "| Started | %s |\n", rep.StartedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, "| Duration | %s |\n", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
	}
	if rep.Concurrency > 0 {
		fmt.Fprintf(&b, "| Concurrency | %d |\n", rep.Concurrency)
	}
	fmt.Fprintf(&b, "| Requests | %d |\n", rep.TotalRequests)
	fmt.Fprintf(&b, "| Successes | %d |\n", rep.TotalSuccesses)
	fmt.Fprintf(&b, "| Failures | %d |\n", rep.TotalFailures)

	writeStats(&b, "By provider", rep.ByProvider, false, false)
	writeStats(&b, "By provider and model", rep.ByModel, true, false)
	writeStats(&b, "By prompt", rep.ByPrompt, true, true)

	if len(rep.Failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		b.WriteString("| Round | Board | Prompt | Provider | Model | Status | Error |\n|---|---|---|---|---|---|---|\n")
		for _, f := range rep.Failures {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %d | %s |\n",
				f.Round, f.BoardID, f.PromptID, f.Provider, f.Model, f.Status, cell(f.Error))
		}
		if rep.FailuresTruncated {
			fmt.Fprintf(&b, "\n_Showing %d of %d failures._\n", len(rep.Failures), rep.TotalFailures)
		}
	}
	return b.String()
}

func writeStats(b *strings.Builder, title string, stats []Stats, withModel, withPrompt bool) {
	if len(stats) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	header, sep := "|", "|"
	if withPrompt {
		header += " Prompt |"
		sep += "---|"
	}
	header += " Provider |"
	sep += "---|"
	if withModel {
		header += " Model |"
		sep += "---|"
	}
	header += " Requests | Success | Failures | Avg latency (ms) | Avg tool calls | Avg accuracy |"
	sep += "---|---|---|---|---|---|"
	b.WriteString(header + "\n" + sep + "\n")
	for _, s := range stats {
		row := "|"
		if withPrompt {
			row += " " + s.PromptID + " |"
		}
		row += " " + s.Provider + " |"
		if withModel {
			row += " " + s.Model + " |"
		}
		fmt.Fprintf(b, "%s %d | %d | %d | %.0f | %.1f | %.2f |\n",
			row, s.Requests, s.Successes, s.Failures, s.AvgLatencyMS, s.AvgToolCalls, s.AvgAccuracy)
	}
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
