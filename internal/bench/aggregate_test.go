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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func row(promptID, provider, model string, ok bool, latency int64, calls int, acc float64) Row {
	r := Row{
		Item:          Item{Round: 1, BoardID: "b1", PromptID: promptID, Provider: provider, Model: model},
		Success:       ok,
		Status:        200,
		LatencyMS:     latency,
		ToolCallCount: calls,
		Accuracy:      acc,
		Provider:      provider,
		Model:         model,
	}
	if !ok {
		r.Status = 500
		r.Error = "AI planning failed"
	}
	return r
}

func TestAggregate_Rollups(t *testing.T) {
	rows := []Row{
		row("p1", "anthropic", "haiku", true, 100, 2, 1.0),
		row("p1", "anthropic", "haiku", true, 300, 4, 0.5),
		row("p2", "anthropic", "sonnet", false, 50, 0, 0),
		row("p1", "openai", "mini", true, 200, 6, 0.75),
	}
	rep := Aggregate(rows, 10)

	assert.Equal(t, 4, rep.TotalRequests)
	assert.Equal(t, 3, rep.TotalSuccesses)
	assert.Equal(t, 1, rep.TotalFailures)

	wantProvider := []Stats{
		{Key: "anthropic", Provider: "anthropic", Requests: 3, Successes: 2, Failures: 1, AvgLatencyMS: 200, AvgToolCalls: 3, AvgAccuracy: 0.5},
		{Key: "openai", Provider: "openai", Requests: 1, Successes: 1, AvgLatencyMS: 200, AvgToolCalls: 6, AvgAccuracy: 0.75},
	}
	if diff := cmp.Diff(wantProvider, rep.ByProvider, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("by provider mismatch (-want +got):\n%s", diff)
	}

	wantModel := []Stats{
		{Key: "anthropic:haiku", Provider: "anthropic", Model: "haiku", Requests: 2, Successes: 2, AvgLatencyMS: 200, AvgToolCalls: 3, AvgAccuracy: 0.75},
		{Key: "anthropic:sonnet", Provider: "anthropic", Model: "sonnet", Requests: 1, Failures: 1},
		{Key: "openai:mini", Provider: "openai", Model: "mini", Requests: 1, Successes: 1, AvgLatencyMS: 200, AvgToolCalls: 6, AvgAccuracy: 0.75},
	}
	if diff := cmp.Diff(wantModel, rep.ByModel, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("by model mismatch (-want +got):\n%s", diff)
	}

	keys := make([]string, 0, len(rep.ByPrompt))
	for _, s := range rep.ByPrompt {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"p1|anthropic:haiku", "p1|openai:mini", "p2|anthropic:sonnet"}, keys)

	wantFailures := []Failure{{Round: 1, BoardID: "b1", PromptID: "p2", Provider: "anthropic", Model: "sonnet", Status: 500, Error: "AI planning failed"}}
	if diff := cmp.Diff(wantFailures, rep.Failures); diff != "" {
		t.Errorf("failures mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_GroupsByRequestedEntry(t *testing.T) {
	r := row("p1", "anthropic", "haiku", true, 10, 1, 1)
	r.Provider, r.Model = "openai", "gpt-4o-mini"
	rep := Aggregate([]Row{r}, 0)
	assert.Len(t, rep.ByProvider, 1)
	assert.Equal(t, "anthropic", rep.ByProvider[0].Key)
}

func TestAggregate_FailureCap(t *testing.T) {
	var rows []Row
	for i := 0; i < 5; i++ {
		rows = append(rows, row("p1", "openai", "mini", false, 0, 0, 0))
	}
	rep := Aggregate(rows, 2)
	assert.Equal(t, 5, rep.TotalFailures)
	assert.Len(t, rep.Failures, 2)
	assert.True(t, rep.FailuresTruncated)

	rep = Aggregate(rows, 0)
	assert.Len(t, rep.Failures, 5)
	assert.False(t, rep.FailuresTruncated)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	rows := []Row{
		row("p1", "anthropic", "haiku", true, 100, 2, 1.0),
		row("p2", "openai", "mini", false, 0, 0, 0),
		row("p3", "anthropic", "haiku", true, 50, 3, 0.5),
	}
	reversed := []Row{rows[2], rows[1], rows[0]}
	a, b := Aggregate(rows, 0), Aggregate(reversed, 0)
	assert.Empty(t, cmp.Diff(a.ByProvider, b.ByProvider, cmpopts.EquateApprox(0, 1e-9)))
	assert.Empty(t, cmp.Diff(a.ByPrompt, b.ByPrompt, cmpopts.EquateApprox(0, 1e-9)))
}

func TestAggregate_Empty(t *testing.T) {
	rep := Aggregate(nil, 10)
	assert.Zero(t, rep.TotalRequests)
	assert.Empty(t, rep.ByProvider)
	assert.NotNil(t, rep.Failures)
}
