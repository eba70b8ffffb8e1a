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

import "caseboard-ai/internal/tool"

var (
	propX        = tool.SchemaProperty{Type: tool.TypeNumber, Description: "Canvas x coordinate of the top-left corner"}
	propY        = tool.SchemaProperty{Type: tool.TypeNumber, Description: "Canvas y coordinate of the top-left corner"}
	propWidth    = tool.SchemaProperty{Type: tool.TypeNumber, Description: "Width in canvas units"}
	propHeight   = tool.SchemaProperty{Type: tool.TypeNumber, Description: "Height in canvas units"}
	propColor    = tool.SchemaProperty{Type: tool.TypeString, Description: "Color name or hex value"}
	propObjectID = tool.SchemaProperty{Type: tool.TypeString, Description: "Id of an existing board object"}
)

// CanvasTools 内置画布操作工具目录
func CanvasTools() []tool.Definition {
	return []tool.Definition{
		{
			Name:        "createStickyNote",
			Description: "Create a sticky note with text at a position on the board.",
			Properties: map[string]tool.SchemaProperty{
				"text":  {Type: tool.TypeString, Description: "Text shown on the note"},
				"x":     propX,
				"y":     propY,
				"color": propColor,
			},
			Required: []string{"text", "x", "y"},
		},
		{
			Name:        "createShape",
			Description: "Create a geometric shape.",
			Properties: map[string]tool.SchemaProperty{
				"type":   {Type: tool.TypeString, Description: "Shape kind", Enum: []string{"rectangle", "circle", "ellipse", "triangle", "diamond", "line"}},
				"x":      propX,
				"y":      propY,
				"width":  propWidth,
				"height": propHeight,
				"color":  propColor,
			},
			Required: []string{"type", "x", "y", "width", "height"},
		},
		{
			Name:        "createFrame",
			Description: "Create a titled frame that groups an area of the board.",
			Properties: map[string]tool.SchemaProperty{
				"title":  {Type: tool.TypeString, Description: "Frame title"},
				"x":      propX,
				"y":      propY,
				"width":  propWidth,
				"height": propHeight,
			},
			Required: []string{"title", "x", "y", "width", "height"},
		},
		{
			Name:        "createConnector",
			Description: "Connect two existing objects with a line or arrow.",
			Properties: map[string]tool.SchemaProperty{
				"fromId": {Type: tool.TypeString, Description: "Source object id"},
				"toId":   {Type: tool.TypeString, Description: "Target object id"},
				"style":  {Type: tool.TypeString, Description: "Connector style", Enum: []string{"line", "arrow", "dashed"}},
				"label":  {Type: tool.TypeString, Description: "Optional connector label"},
			},
			Required: []string{"fromId", "toId"},
		},
		{
			Name:        "createText",
			Description: "Create a free-standing text element.",
			Properties: map[string]tool.SchemaProperty{
				"text":     {Type: tool.TypeString, Description: "Text content"},
				"x":        propX,
				"y":        propY,
				"fontSize": {Type: tool.TypeNumber, Description: "Font size in points"},
				"color":    propColor,
			},
			Required: []string{"text", "x", "y"},
		},
		{
			Name:        "moveObject",
			Description: "Move an existing object to a new position.",
			Properties: map[string]tool.SchemaProperty{
				"objectId": propObjectID,
				"x":        propX,
				"y":        propY,
			},
			Required: []string{"objectId", "x", "y"},
		},
		{
			Name:        "resizeObject",
			Description: "Resize an existing object.",
			Properties: map[string]tool.SchemaProperty{
				"objectId": propObjectID,
				"width":    propWidth,
				"height":   propHeight,
			},
			Required: []string{"objectId", "width", "height"},
		},
		{
			Name:        "updateText",
			Description: "Replace the text of an existing note, text element or frame title.",
			Properties: map[string]tool.SchemaProperty{
				"objectId": propObjectID,
				"newText":  {Type: tool.TypeString, Description: "Replacement text"},
			},
			Required: []string{"objectId", "newText"},
		},
		{
			Name:        "changeColor",
			Description: "Change the color of an existing object.",
			Properties: map[string]tool.SchemaProperty{
				"objectId": propObjectID,
				"color":    propColor,
			},
			Required: []string{"objectId", "color"},
		},
		{
			Name:        "deleteObject",
			Description: "Delete an existing object from the board.",
			Properties: map[string]tool.SchemaProperty{
				"objectId": propObjectID,
			},
			Required: []string{"objectId"},
		},
		{
			Name:        "getBoardState",
			Description: "Return the current objects on the board.",
			Properties:  map[string]tool.SchemaProperty{},
		},
	}
}

// Canvas 内置画布工具注册表
func Canvas() *Registry {
	return New(CanvasTools()...)
}
