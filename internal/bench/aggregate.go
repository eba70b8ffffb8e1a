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

import "sort"

type accumulator struct {
	stats      Stats
	latencySum int64
	callSum    int
	accSum     float64
}

func (a *accumulator) add(r Row) {
	a.stats.Requests++
	a.accSum += r.Accuracy
	if !r.Success {
		a.stats.Failures++
		return
	}
	a.stats.Successes++
	a.latencySum += r.LatencyMS
	a.callSum += r.ToolCallCount
}

// finish 延迟与工具调用数按成功请求平均；准确率按全部请求平均，失败计 0
func (a *accumulator) finish() Stats {
	s := a.stats
	if s.Successes > 0 {
		s.AvgLatencyMS = float64(a.latencySum) / float64(s.Successes)
		s.AvgToolCalls = float64(a.callSum) / float64(s.Successes)
	}
	if s.Requests > 0 {
		s.AvgAccuracy = a.accSum / float64(s.Requests)
	}
	return s
}

type rollup map[string]*accumulator

func (r rollup) add(key string, seed Stats, row Row) {
	acc, ok := r[key]
	if !ok {
		seed.Key = key
		acc = &accumulator{stats: seed}
		r[key] = acc
	}
	acc.add(row)
}

func (r rollup) sorted() []Stats {
	out := make([]Stats, 0, len(r))
	for _, acc := range r {
		out = append(out, acc.finish())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Aggregate 一次遍历 rows，按 provider、provider+model、prompt+provider+model 三个维度汇总。
// 维度取请求的矩阵单元而非实际应答方，fallback 不会把请求挪到另一组。
// 失败明细最多保留 maxFailures 条（<=0 不限）。
func Aggregate(rows []Row, maxFailures int) Report {
	byProvider, byModel, byPrompt := rollup{}, rollup{}, rollup{}
	rep := Report{Rows: rows, Failures: []Failure{}}
	for _, r := range rows {
		it := r.Item
		rep.TotalRequests++
		if r.Success {
			rep.TotalSuccesses++
		} else {
			rep.TotalFailures++
			if maxFailures <= 0 || len(rep.Failures) < maxFailures {
				rep.Failures = append(rep.Failures, Failure{
					Round:    it.Round,
					BoardID:  it.BoardID,
					PromptID: it.PromptID,
					Provider: it.Provider,
					Model:    it.Model,
					Status:   r.Status,
					Error:    r.Error,
				})
			} else {
				rep.FailuresTruncated = true
			}
		}
		byProvider.add(it.Provider, Stats{Provider: it.Provider}, r)
		byModel.add(it.Provider+":"+it.Model, Stats{Provider: it.Provider, Model: it.Model}, r)
		byPrompt.add(it.PromptID+"|"+it.Provider+":"+it.Model, Stats{Provider: it.Provider, Model: it.Model, PromptID: it.PromptID}, r)
	}
	rep.ByProvider = byProvider.sorted()
	rep.ByModel = byModel.sorted()
	rep.ByPrompt = byPrompt.sorted()
	return rep
}
