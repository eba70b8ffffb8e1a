package tool

// PropertyType 工具参数的 JSON 类型
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
)

// Schema 表示工具的 JSON Schema（供 LLM function-calling 使用）
type Schema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

// SchemaProperty 表示 Schema 中单个属性的描述
type SchemaProperty struct {
	Type        PropertyType `json:"type"`
	Description string       `json:"description,omitempty"`
	Enum        []string     `json:"enum,omitempty"`
}

// Definition 画布操作工具定义；注册表加载后不可变
type Definition struct {
	Name        string
	Description string
	Properties  map[string]SchemaProperty
	Required    []string
}

// Clone 深拷贝，Properties 与 Enum 均不与原值共享
func (d Definition) Clone() Definition {
	props := make(map[string]SchemaProperty, len(d.Properties))
	for k, p := range d.Properties {
		if p.Enum != nil {
			p.Enum = append([]string(nil), p.Enum...)
		}
		props[k] = p
	}
	d.Properties = props
	d.Required = append([]string(nil), d.Required...)
	return d
}

// Schema 返回供 LLM 使用的参数 Schema（深拷贝）
func (d Definition) Schema() Schema {
	c := d.Clone()
	return Schema{Type: "object", Properties: c.Properties, Required: append([]string{}, c.Required...)}
}

// Call 模型返回的一次工具调用；Input 为模型给出的原始参数
type Call struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}
