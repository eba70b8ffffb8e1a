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

// Package access 将画板归属、分享模式和成员角色折算为“能否调用 AI”的能力判断。
// 规划链路只消费这个布尔值，不自行推导权限。
package access

import (
	"context"

	"caseboard-ai/pkg/auth"
)

// Sharing 画板分享模式
type Sharing string

const (
	SharingPrivate  Sharing = "private"
	SharingLinkView Sharing = "link_view"
	SharingLinkEdit Sharing = "link_edit"
)

// Resolver 访问能力解析器
type Resolver interface {
	CanInvokeAI(ctx context.Context, boardID, actorID string) (bool, error)
}

// BoardAccess 单个画板的访问元数据
type BoardAccess struct {
	OwnerID string
	Sharing Sharing
	Members map[string]auth.Role
}

// EffectiveRole 成员角色与分享链接角色取较强者，owner 恒为 RoleOwner
func (b BoardAccess) EffectiveRole(actorID string) auth.Role {
	if actorID == "" {
		return auth.RoleNone
	}
	if b.OwnerID == actorID {
		return auth.RoleOwner
	}
	role := b.Members[actorID]
	switch b.Sharing {
	case SharingLinkEdit:
		role = auth.Stronger(role, auth.RoleEditor)
	case SharingLinkView:
		role = auth.Stronger(role, auth.RoleViewer)
	}
	return role
}

// CanInvokeAI 是否具备 AI 调用能力
func (b BoardAccess) CanInvokeAI(actorID string) bool {
	return auth.HasPermission(b.EffectiveRole(actorID), auth.PermissionAIInvoke)
}

// AllowAll 开发环境使用，任何已认证的 actor 均可调用
type AllowAll struct{}

// CanInvokeAI 实现 Resolver
func (AllowAll) CanInvokeAI(ctx context.Context, boardID, actorID string) (bool, error) {
	return actorID != "", nil
}
