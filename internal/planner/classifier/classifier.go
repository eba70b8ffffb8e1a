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

// Package classifier 判定一次 AI 请求是简单（单个原语）还是复杂（多步骤/布局/模板），
// 并给出复杂请求期望的最少工具调用数。纯函数，无外部依赖。
package classifier

import (
	"regexp"
	"strconv"
	"strings"
)

// Result 分类结果
type Result struct {
	Complex      bool   `json:"complex"`
	MinToolCalls int    `json:"minToolCalls"`
	Reason       string `json:"reason"`
}

const (
	defaultComplexMin = 2
	simpleMin         = 1
	maxSimpleWords    = 16
)

// Classifier 规则分类器；精选 prompt 缓存为可选的快速路径
type Classifier struct {
	cache map[string]Result
}

// Option 构造选项
type Option func(*Classifier)

// WithPromptCache 开关精选 prompt 精确匹配缓存
func WithPromptCache(enabled bool) Option {
	return func(c *Classifier) {
		if !enabled {
			c.cache = nil
		}
	}
}

// WithCuratedPrompts 追加或覆盖缓存条目，key 会先 Normalize
func WithCuratedPrompts(entries map[string]Result) Option {
	return func(c *Classifier) {
		if c.cache == nil {
			return
		}
		for k, v := range entries {
			c.cache[Normalize(k)] = v
		}
	}
}

// New 创建分类器，默认启用内置精选缓存
func New(opts ...Option) *Classifier {
	c := &Classifier{cache: make(map[string]Result, len(curatedPrompts))}
	for k, v := range curatedPrompts {
		c.cache[Normalize(k)] = v
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var (
	spaceRe        = regexp.MustCompile(`\s+`)
	doubleQuotedRe = regexp.MustCompile(`"[^"]*"|“[^”]*”`)
	singleQuotedRe = regexp.MustCompile(`(^|\s)'[^']*'`)
	gridTokenRe    = regexp.MustCompile(`\b([1-9]\d?)\s*(?:x|×)\s*([1-9]\d?)\b|\b([1-9]\d?)\s+by\s+([1-9]\d?)\b`)
	layoutRe       = regexp.MustCompile(`\b(grid|layout|lay out|arrange|align|organi[sz]e|columns?|rows?|matrix|distribute|evenly|cluster|group)\b`)
	multiObjectRe  = regexp.MustCompile(`\b(all|these|every|each)\b`)
	multiStepRe    = regexp.MustCompile(`\b(then|after that|afterwards|followed by)\b|\bnext,`)
	simpleVerbRe   = regexp.MustCompile(`^(?:please\s+)?(add|create|make|put|place|draw|insert|write)\b`)
	qualifierRe    = regexp.MustCompile(`\b(several|multiple|some|few|various|list|including|plus|both|many|couple|along with|as well as|for each)\b`)
	primitiveRe    = regexp.MustCompile(`\b(sticky notes?|stickies|sticky|notes?|rectangles?|squares?|circles?|ellipses?|triangles?|diamonds?|shapes?|text boxes|text box|texts?|labels?|headings?|frames?|connectors?|arrows?|lines?)\b`)
)

var (
	descriptivePrimitive = map[string]bool{"text": true, "label": true, "heading": true}
	pluralPrimitive      = map[string]bool{
		"sticky notes": true, "stickies": true, "notes": true, "rectangles": true, "squares": true,
		"circles": true, "ellipses": true, "triangles": true, "diamonds": true, "shapes": true,
		"text boxes": true, "texts": true, "labels": true, "headings": true, "frames": true,
		"connectors": true, "arrows": true, "lines": true,
	}
)

type template struct {
	name string
	re   *regexp.Regexp
	min  int
}

// 顺序即匹配优先级，更具体的模板在前
var templates = []template{
	{"business_model_canvas", regexp.MustCompile(`\bbusiness model canvas\b`), 10},
	{"lean_canvas", regexp.MustCompile(`\blean canvas\b`), 10},
	{"swot", regexp.MustCompile(`\bswot\b`), 5},
	{"eisenhower", regexp.MustCompile(`\beisenhower\b`), 5},
	{"journey_map", regexp.MustCompile(`\b(user journey|customer journey|journey map)\b`), 6},
	{"retrospective", regexp.MustCompile(`\b(retrospective|retro)\b`), 4},
	{"kanban", regexp.MustCompile(`\bkanban\b`), 4},
	{"pros_cons", regexp.MustCompile(`\bpros and cons\b`), 3},
	{"mind_map", regexp.MustCompile(`\b(mind ?map)\b`), 5},
	{"flowchart", regexp.MustCompile(`\b(flow ?chart)\b`), 4},
	{"timeline", regexp.MustCompile(`\btimeline\b`), 5},
	{"org_chart", regexp.MustCompile(`\b(org chart|organi[sz]ation chart)\b`), 4},
}

// Normalize 小写、压缩空白、去掉末尾标点；缓存 key 与规则匹配共用
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimRight(s, ".!?;: ")
}

// GridToken 查找显式 NxM 记号（每个因子 1–2 位数字）
func GridToken(text string) (n, m int, ok bool) {
	sub := gridTokenRe.FindStringSubmatch(strings.ToLower(text))
	if sub == nil {
		return 0, 0, false
	}
	a, b := sub[1], sub[2]
	if a == "" {
		a, b = sub[3], sub[4]
	}
	n, _ = strconv.Atoi(a)
	m, _ = strconv.Atoi(b)
	return n, m, true
}

// Classify 分类。顺序：精选缓存 → 强制复杂触发 → 明确简单 → 默认复杂
func (c *Classifier) Classify(text string) Result {
	norm := Normalize(text)
	if c.cache != nil {
		if r, ok := c.cache[norm]; ok {
			r.Reason = "curated"
			return r
		}
	}

	if n, m, ok := GridToken(norm); ok {
		return Result{Complex: true, MinToolCalls: n * m, Reason: "grid_token"}
	}
	body := stripQuoted(norm)
	for _, t := range templates {
		if t.re.MatchString(body) {
			return Result{Complex: true, MinToolCalls: t.min, Reason: "template:" + t.name}
		}
	}
	switch {
	case layoutRe.MatchString(body):
		return Result{Complex: true, MinToolCalls: defaultComplexMin, Reason: "layout"}
	case multiObjectRe.MatchString(body):
		return Result{Complex: true, MinToolCalls: defaultComplexMin, Reason: "multi_object"}
	case multiStepRe.MatchString(body):
		return Result{Complex: true, MinToolCalls: defaultComplexMin, Reason: "multi_step"}
	}
	if isDefiniteSimple(body) {
		return Result{Complex: false, MinToolCalls: simpleMin, Reason: "single_primitive"}
	}
	return Result{Complex: true, MinToolCalls: defaultComplexMin, Reason: "default"}
}

// stripQuoted 去掉引号内的用户文本，避免便签内容影响判定
func stripQuoted(s string) string {
	s = doubleQuotedRe.ReplaceAllString(s, " ")
	s = singleQuotedRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func isDefiniteSimple(s string) bool {
	if s == "" || !simpleVerbRe.MatchString(s) {
		return false
	}
	if len(strings.Fields(s)) > maxSimpleWords {
		return false
	}
	if qualifierRe.MatchString(s) {
		return false
	}
	prims := primitiveRe.FindAllString(s, -1)
	if len(prims) > 1 {
		// "sticky note with the text ..." 里的 text/label 只是修饰
		kept := prims[:0]
		for _, p := range prims {
			if !descriptivePrimitive[p] {
				kept = append(kept, p)
			}
		}
		prims = kept
	}
	if len(prims) != 1 {
		return false
	}
	return !pluralPrimitive[prims[0]]
}
