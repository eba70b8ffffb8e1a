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
	"math"
	"strings"

	"caseboard-ai/internal/planner/validator"
	"caseboard-ai/internal/tool"
	"caseboard-ai/internal/tool/registry"
)

// scorer 只看工具调用的形状：调用了哪些工具、坐标是否齐全、数量是否达到模板要求
type scorer func(calls []tool.Call) float64

var genericValidator = validator.New(registry.Canvas())

// scorers 以 prompt id 为 key，对应 configs/prompts.json
var scorers = map[string]scorer{
	"sticky-note": func(calls []tool.Call) float64 {
		c := firstCall(calls, "createStickyNote")
		if c == nil {
			return 0
		}
		return 0.5 + bonus(hasCoords(c), 0.2) + bonus(textContains(c, "text", "user research"), 0.2) +
			bonus(textContains(c, "color", "yellow"), 0.1)
	},
	"rectangle": func(calls []tool.Call) float64 {
		c := firstCall(calls, "createShape")
		if c == nil {
			return 0
		}
		return 0.4 + bonus(textContains(c, "type", "rect"), 0.2) + bonus(numberNear(c, "x", 100, 10), 0.15) +
			bonus(numberNear(c, "y", 200, 10), 0.15) + bonus(textContains(c, "color", "blue"), 0.1)
	},
	"frame": func(calls []tool.Call) float64 {
		c := firstCall(calls, "createFrame")
		if c == nil {
			return 0
		}
		return 0.6 + bonus(textContains(c, "title", "sprint planning"), 0.3) + bonus(hasCoords(c), 0.1)
	},
	"change-color": func(calls []tool.Call) float64 {
		c := firstCall(calls, "changeColor")
		if c == nil {
			return 0
		}
		return 0.6 + bonus(textContains(c, "color", "green"), 0.4)
	},
	"grid-2x3": func(calls []tool.Call) float64 {
		return atLeast(countPlaced(calls, "createStickyNote"), 6)
	},
	"swot": func(calls []tool.Call) float64 {
		quadrants := count(calls, "createFrame") + count(calls, "createShape")
		labels := count(calls, "createText") + count(calls, "createStickyNote")
		return 0.6*atLeast(quadrants, 4) + 0.4*atLeast(quadrants+labels, 5)
	},
	"kanban": func(calls []tool.Call) float64 {
		return columnScore(calls, []string{"to do", "in progress", "done"})
	},
	"retro": func(calls []tool.Call) float64 {
		return columnScore(calls, []string{"went well", "didn", "action"})
	},
	"journey-map": func(calls []tool.Call) float64 {
		return atLeast(countPlaced(calls, "createFrame", "createStickyNote", "createShape", "createText"), 5)
	},
	"arrange-grid": func(calls []tool.Call) float64 {
		return atLeast(countPlaced(calls, "moveObject"), 2)
	},
	"move-pink": func(calls []tool.Call) float64 {
		return atLeast(countPlaced(calls, "moveObject"), 1)
	},
	"flowchart": func(calls []tool.Call) float64 {
		steps := countPlaced(calls, "createShape", "createStickyNote", "createText")
		return 0.5*atLeast(steps, 3) + 0.5*atLeast(count(calls, "createConnector"), 2)
	},
}

// Score 按 prompt id 打分，结果截断到 [0,1]；未知 id 使用结构有效调用占比
func Score(promptID string, calls []tool.Call) float64 {
	if len(calls) == 0 {
		return 0
	}
	s, ok := scorers[promptID]
	if !ok {
		s = genericScore
	}
	return clamp01(s(calls))
}

func genericScore(calls []tool.Call) float64 {
	bad := make(map[string]bool)
	for _, issue := range genericValidator.Validate(calls) {
		bad[issue.ToolCallID] = true
	}
	valid := 0
	for _, c := range calls {
		if !bad[c.ID] {
			valid++
		}
	}
	return float64(valid) / float64(len(calls))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func bonus(ok bool, w float64) float64 {
	if ok {
		return w
	}
	return 0
}

func atLeast(n, want int) float64 {
	if want <= 0 {
		return 1
	}
	return float64(n) / float64(want)
}

func firstCall(calls []tool.Call, name string) *tool.Call {
	for i := range calls {
		if calls[i].Name == name {
			return &calls[i]
		}
	}
	return nil
}

func count(calls []tool.Call, names ...string) int {
	n := 0
	for _, c := range calls {
		for _, name := range names {
			if c.Name == name {
				n++
				break
			}
		}
	}
	return n
}

// countPlaced 统计带 x/y 坐标的指定工具调用
func countPlaced(calls []tool.Call, names ...string) int {
	n := 0
	for i := range calls {
		if count(calls[i:i+1], names...) == 1 && hasCoords(&calls[i]) {
			n++
		}
	}
	return n
}

// columnScore 每列一个 frame；每命中一个列名加分
func columnScore(calls []tool.Call, columns []string) float64 {
	var titles []string
	for i := range calls {
		if calls[i].Name == "createFrame" {
			titles = append(titles, strings.ToLower(stringField(&calls[i], "title")))
		}
	}
	matched := 0
	for _, col := range columns {
		for _, t := range titles {
			if strings.Contains(t, col) {
				matched++
				break
			}
		}
	}
	return 0.5*atLeast(len(titles), len(columns)) + 0.5*atLeast(matched, len(columns))
}

func number(c *tool.Call, field string) (float64, bool) {
	switch v := c.Input[field].(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func hasCoords(c *tool.Call) bool {
	_, okX := number(c, "x")
	_, okY := number(c, "y")
	return okX && okY
}

func numberNear(c *tool.Call, field string, want, tolerance float64) bool {
	v, ok := number(c, field)
	return ok && math.Abs(v-want) <= tolerance
}

func stringField(c *tool.Call, field string) string {
	s, _ := c.Input[field].(string)
	return s
}

func textContains(c *tool.Call, field, substr string) bool {
	return strings.Contains(strings.ToLower(stringField(c, field)), substr)
}
