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

package access

import (
	"context"
	"sync"

	"caseboard-ai/pkg/auth"
)

// MemoryResolver 内存实现，测试与本地开发使用；未登记的画板视为无权限
type MemoryResolver struct {
	mu     sync.RWMutex
	boards map[string]BoardAccess
}

// NewMemoryResolver 创建内存解析器
func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{boards: make(map[string]BoardAccess)}
}

// SetBoard 登记或覆盖画板访问元数据
func (m *MemoryResolver) SetBoard(boardID string, access BoardAccess) {
	members := make(map[string]auth.Role, len(access.Members))
	for k, v := range access.Members {
		members[k] = v
	}
	access.Members = members
	m.mu.Lock()
	m.boards[boardID] = access
	m.mu.Unlock()
}

// CanInvokeAI 实现 Resolver
func (m *MemoryResolver) CanInvokeAI(ctx context.Context, boardID, actorID string) (bool, error) {
	m.mu.RLock()
	b, ok := m.boards[boardID]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return b.CanInvokeAI(actorID), nil
}
