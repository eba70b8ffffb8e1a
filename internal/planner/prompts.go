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

package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"caseboard-ai/internal/board"
	"caseboard-ai/internal/planner/classifier"
	"caseboard-ai/internal/tool"
)

const sharedInstructions = `You are the planning assistant of a collaborative whiteboard.
Translate the user's request into calls to the provided canvas tools. Do not describe the calls in prose; invoke the tools.
Coordinates are in board pixels with the origin at the top-left. Keep new objects clear of existing ones unless asked to overlap.
Reference existing objects by their id from the board state. Never invent ids for objects that do not exist yet.
Always supply every required field of a tool.`

const simpleInstructions = sharedInstructions + `

The request is a single, direct edit. Use the fewest tool calls that satisfy it, usually one.`

const complexInstructions = sharedInstructions + `

The request needs several coordinated objects (a template, a layout, or multiple steps).
Emit the complete plan in one response: every object, frame and connector the result needs.
Lay objects out on an even grid with consistent spacing (at least 20px gaps) and sizes.
When the request names a grid like NxM, create exactly N*M items arranged in N columns and M rows.
Templates need their full structure, for example a SWOT analysis needs a title plus four quadrants.`

// instructionsFor 按复杂度选择 system 指令
func instructionsFor(cls classifier.Result) string {
	if cls.Complex {
		return complexInstructions
	}
	return simpleInstructions
}

// initialPrompt 首次调用的 user 消息：请求 + 截断后的画布快照
func initialPrompt(prompt string, snap board.Snapshot, truncated bool) string {
	var b strings.Builder
	b.WriteString("Request: ")
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\nCurrent board state (JSON array of objects")
	if truncated {
		b.WriteString(", truncated")
	}
	b.WriteString("):\n")
	b.WriteString(snapshotJSON(snap))
	return b.String()
}

// expansionPrompt 扩展调用的 user 消息：原请求、上一轮文本、上一轮工具调用（原样 JSON）与缺陷列表
func expansionPrompt(prompt, previousText string, previousCalls []tool.Call, deficiencies []string) string {
	calls, err := json.Marshal(previousCalls)
	if err != nil || previousCalls == nil {
		calls = []byte("[]")
	}
	var b strings.Builder
	b.WriteString("Original request: ")
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\nYour previous response text:\n")
	if strings.TrimSpace(previousText) == "" {
		b.WriteString("(none)")
	} else {
		b.WriteString(previousText)
	}
	b.WriteString("\n\nYour previous tool calls:\n")
	b.Write(calls)
	b.WriteString("\n\nThat plan is incomplete or invalid:\n")
	for _, d := range deficiencies {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	b.WriteString("\nReturn a corrected, complete plan as tool calls. Include every object the request needs, not only the missing ones.")
	return b.String()
}

// deficiencies 生成扩展原因列表
func deficiencies(cls classifier.Result, callCount int, issueReasons []string) []string {
	var out []string
	if cls.Complex && callCount < cls.MinToolCalls {
		out = append(out, fmt.Sprintf("the request needs at least %d tool calls but the plan has %d", cls.MinToolCalls, callCount))
	}
	return append(out, issueReasons...)
}

func snapshotJSON(snap board.Snapshot) string {
	if len(snap) == 0 {
		return "[]"
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return "[]"
	}
	return string(b)
}
