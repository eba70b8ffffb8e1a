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

	"github.com/stretchr/testify/assert"

	"caseboard-ai/internal/tool"
)

func sticky(id string, x, y float64) tool.Call {
	return tool.Call{ID: id, Name: "createStickyNote", Input: map[string]any{"text": "note", "x": x, "y": y}}
}

func TestScore_FailuresAndEmptyScoreZero(t *testing.T) {
	assert.Zero(t, Score("grid-2x3", nil))
	assert.Zero(t, Score("unknown-id", []tool.Call{}))
}

func TestScore_StickyNote(t *testing.T) {
	full := tool.Call{ID: "1", Name: "createStickyNote", Input: map[string]any{
		"text": "User Research", "x": 10.0, "y": 20.0, "color": "yellow",
	}}
	assert.InDelta(t, 1.0, Score("sticky-note", []tool.Call{full}), 1e-9)

	bare := tool.Call{ID: "1", Name: "createStickyNote", Input: map[string]any{"text": "something"}}
	assert.InDelta(t, 0.5, Score("sticky-note", []tool.Call{bare}), 1e-9)

	wrong := tool.Call{ID: "1", Name: "createShape", Input: map[string]any{}}
	assert.Zero(t, Score("sticky-note", []tool.Call{wrong}))
}

func TestScore_GridCountsPlacedNotes(t *testing.T) {
	var calls []tool.Call
	for i := 0; i < 3; i++ {
		calls = append(calls, sticky("n", float64(i*100), 0))
	}
	assert.InDelta(t, 0.5, Score("grid-2x3", calls), 1e-9)

	for i := 0; i < 5; i++ {
		calls = append(calls, sticky("n", float64(i*100), 100))
	}
	assert.Equal(t, 1.0, Score("grid-2x3", calls), "clamped")

	unplaced := []tool.Call{{ID: "u", Name: "createStickyNote", Input: map[string]any{"text": "x"}}}
	assert.Zero(t, Score("grid-2x3", unplaced))
}

func TestScore_Kanban(t *testing.T) {
	frame := func(title string) tool.Call {
		return tool.Call{Name: "createFrame", Input: map[string]any{"title": title, "x": 0.0, "y": 0.0, "width": 300.0, "height": 600.0}}
	}
	calls := []tool.Call{frame("To Do"), frame("In Progress"), frame("Done")}
	assert.InDelta(t, 1.0, Score("kanban", calls), 1e-9)
	assert.InDelta(t, 0.5, Score("kanban", []tool.Call{frame("A"), frame("B"), frame("C")}), 1e-9)
}

func TestScore_Flowchart(t *testing.T) {
	shape := func() tool.Call {
		return tool.Call{Name: "createShape", Input: map[string]any{"type": "rectangle", "x": 0.0, "y": 0.0, "width": 10.0, "height": 10.0}}
	}
	conn := tool.Call{Name: "createConnector", Input: map[string]any{"fromId": "a", "toId": "b"}}
	assert.InDelta(t, 1.0, Score("flowchart", []tool.Call{shape(), shape(), shape(), conn, conn}), 1e-9)
	assert.InDelta(t, 0.5, Score("flowchart", []tool.Call{shape(), shape(), shape()}), 1e-9)
}

func TestScore_GenericUsesStructuralValidity(t *testing.T) {
	calls := []tool.Call{
		sticky("ok", 0, 0),
		{ID: "bad", Name: "createStickyNote", Input: map[string]any{"x": 0.0}},
		{ID: "unknown", Name: "launchRocket", Input: map[string]any{}},
		{ID: "ok2", Name: "deleteObject", Input: map[string]any{"objectId": "o1"}},
	}
	assert.InDelta(t, 0.5, Score("not-in-table", calls), 1e-9)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.2))
	assert.Equal(t, 1.0, clamp01(3))
	assert.Equal(t, 0.25, clamp01(0.25))
}
