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

package registry

import (
	"sort"

	"caseboard-ai/internal/tool"
)

// Registry 画布工具注册表：构造后只读，可被任意 goroutine 并发访问
type Registry struct {
	tools map[string]tool.Definition
	names []string
}

// New 用给定定义构造注册表；同名定义保留第一个
func New(defs ...tool.Definition) *Registry {
	r := &Registry{tools: make(map[string]tool.Definition, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			continue
		}
		if _, ok := r.tools[d.Name]; ok {
			continue
		}
		r.tools[d.Name] = d.Clone()
		r.names = append(r.names, d.Name)
	}
	sort.Strings(r.names)
	return r
}

// Lookup 按名称获取工具定义（副本）
func (r *Registry) Lookup(name string) (tool.Definition, bool) {
	d, ok := r.tools[name]
	if !ok {
		return tool.Definition{}, false
	}
	return d.Clone(), true
}

// Has 工具名是否已注册
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Required 返回工具的必填字段；未知工具返回 nil
func (r *Registry) Required(name string) []string {
	d, ok := r.tools[name]
	if !ok {
		return nil
	}
	return append([]string(nil), d.Required...)
}

// PropertyType 返回字段声明类型；未声明时 ok=false
func (r *Registry) PropertyType(name, field string) (tool.PropertyType, bool) {
	d, ok := r.tools[name]
	if !ok {
		return "", false
	}
	p, ok := d.Properties[field]
	return p.Type, ok
}

// Names 按字典序返回所有工具名
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// List 按名称顺序返回所有工具定义
func (r *Registry) List() []tool.Definition {
	list := make([]tool.Definition, 0, len(r.names))
	for _, n := range r.names {
		d, _ := r.Lookup(n)
		list = append(list, d)
	}
	return list
}

// ToolSchemaForLLM 单个工具供 LLM 使用的描述（name, description, parameters）
type ToolSchemaForLLM struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  tool.Schema `json:"parameters"`
}

// SchemasForLLM 返回所有工具的 Schema 列表，两个 provider 客户端各自转换为自己的 wire 格式
func (r *Registry) SchemasForLLM() []ToolSchemaForLLM {
	list := make([]ToolSchemaForLLM, 0, len(r.names))
	for _, n := range r.names {
		d := r.tools[n]
		list = append(list, ToolSchemaForLLM{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Schema(),
		})
	}
	return list
}
