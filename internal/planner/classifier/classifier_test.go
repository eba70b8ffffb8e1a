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

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_GridTokenSetsMinimum(t *testing.T) {
	c := New()
	for n := 1; n <= 9; n++ {
		for m := 1; m <= 9; m++ {
			prompts := []string{
				fmt.Sprintf("Create a %dx%d grid of sticky notes", n, m),
				fmt.Sprintf("make a %d x %d layout of frames please", n, m),
				fmt.Sprintf("Lay out notes %d×%d", n, m),
				fmt.Sprintf("a %d by %d matrix for the SWOT review", n, m),
			}
			for _, p := range prompts {
				r := c.Classify(p)
				assert.True(t, r.Complex, p)
				assert.Equal(t, n*m, r.MinToolCalls, p)
			}
		}
	}
}

func TestClassify_GridPromptScenario(t *testing.T) {
	r := New().Classify("Create a 2x3 grid of sticky notes")
	assert.True(t, r.Complex)
	assert.Equal(t, 6, r.MinToolCalls)
	assert.Equal(t, "grid_token", r.Reason)
}

func TestClassify_Rules(t *testing.T) {
	c := New(WithPromptCache(false))
	cases := []struct {
		prompt  string
		complex bool
		min     int
		reason  string
	}{
		{"Add a sticky note that says hello", false, 1, "single_primitive"},
		{"Please draw a red circle at 40, 80", false, 1, "single_primitive"},
		{"Add a yellow sticky note with the text 'Draw a circle and then an arrow'", false, 1, "single_primitive"},
		{"create a SWOT analysis", true, 5, "template:swot"},
		{"Build a kanban board for the launch", true, 4, "template:kanban"},
		{"Make a customer journey map", true, 6, "template:journey_map"},
		{"list the pros and cons of remote work", true, 3, "template:pros_cons"},
		{"Arrange the notes neatly", true, 2, "layout"},
		{"Make every note blue", true, 2, "multi_object"},
		{"Add a frame then put a note inside it", true, 2, "multi_step"},
		{"Add three sticky notes", true, 2, "default"},
		{"Add a sticky note and a circle", true, 2, "default"},
		{"Add several shapes", true, 2, "default"},
		{"Summarise what is on this board for me", true, 2, "default"},
		{"Delete the frame", true, 2, "default"},
	}
	for _, tc := range cases {
		r := c.Classify(tc.prompt)
		assert.Equal(t, tc.complex, r.Complex, tc.prompt)
		assert.Equal(t, tc.min, r.MinToolCalls, tc.prompt)
		assert.Equal(t, tc.reason, r.Reason, tc.prompt)
	}
}

func TestClassify_LongSinglePrimitiveIsComplex(t *testing.T) {
	r := New().Classify("Add a sticky note near the top left corner of the board right beside the big frame we made yesterday afternoon")
	assert.True(t, r.Complex)
}

func TestClassify_CuratedCache(t *testing.T) {
	prompt := "  change the sticky NOTE color to green!! "
	assert.Equal(t, Result{Complex: false, MinToolCalls: 1, Reason: "curated"}, New().Classify(prompt))

	// 关闭缓存后走规则：change 不是简单动词
	r := New(WithPromptCache(false)).Classify(prompt)
	assert.True(t, r.Complex)

	custom := New(WithCuratedPrompts(map[string]Result{"Do the thing": {Complex: true, MinToolCalls: 7}}))
	assert.Equal(t, 7, custom.Classify("do the thing.").MinToolCalls)
}

func TestCuratedPrompts_ConsistentWithGridTokens(t *testing.T) {
	for prompt, want := range curatedPrompts {
		if n, m, ok := GridToken(prompt); ok {
			assert.True(t, want.Complex, prompt)
			assert.Equal(t, n*m, want.MinToolCalls, prompt)
		}
	}
}

func TestGridToken(t *testing.T) {
	n, m, ok := GridToken("a 3x4 grid")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, 4, m)

	_, _, ok = GridToken("a 1920x1080 frame")
	assert.False(t, ok)
	_, _, ok = GridToken("add 3 boxes")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "add a note", Normalize("  Add   a\tNOTE. "))
}
