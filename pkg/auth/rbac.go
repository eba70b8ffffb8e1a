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

package auth

// Permission 画板权限
type Permission string

const (
	PermissionBoardView Permission = "board:view"
	PermissionBoardEdit Permission = "board:edit"
	PermissionAIInvoke  Permission = "ai:invoke"
)

// Role 画板角色
type Role string

const (
	RoleOwner     Role = "owner"
	RoleEditor    Role = "editor"
	RoleCommenter Role = "commenter"
	RoleViewer    Role = "viewer"
	RoleNone      Role = ""
)

// RolePermissions 角色与权限映射；只有能编辑画板的角色可以调用 AI
var RolePermissions = map[Role][]Permission{
	RoleOwner:     {PermissionBoardView, PermissionBoardEdit, PermissionAIInvoke},
	RoleEditor:    {PermissionBoardView, PermissionBoardEdit, PermissionAIInvoke},
	RoleCommenter: {PermissionBoardView},
	RoleViewer:    {PermissionBoardView},
}

// ParseRole 解析外部存储中的角色字符串，未知值视为无角色
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleOwner, RoleEditor, RoleCommenter, RoleViewer:
		return r
	default:
		return RoleNone
	}
}

// HasPermission 检查角色是否包含指定权限
func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// Stronger 返回两个角色中权限更大的一个（成员角色与分享链接角色取并集时使用）
func Stronger(a, b Role) Role {
	rank := func(r Role) int {
		switch r {
		case RoleOwner:
			return 4
		case RoleEditor:
			return 3
		case RoleCommenter:
			return 2
		case RoleViewer:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
