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

// Package board 画布快照存储。规划链路只读取快照并截断后放进 prompt，从不修改画布。
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"caseboard-ai/internal/storage/cache"
	"caseboard-ai/pkg/errors"
)

// Snapshot 画布当前对象列表；对象结构由前端定义，这里保持原样
type Snapshot []json.RawMessage

// Cap 按对象数与序列化字符数截断快照，返回截断后的快照与是否发生截断
func (s Snapshot) Cap(maxObjects, maxChars int) (Snapshot, bool) {
	out := s
	truncated := false
	if maxObjects > 0 && len(out) > maxObjects {
		out = out[:maxObjects]
		truncated = true
	}
	if maxChars <= 0 {
		return out, truncated
	}
	size := 2
	for i, obj := range out {
		size += len(obj) + 1
		if size > maxChars {
			return out[:i], true
		}
	}
	return out, truncated
}

// Store 画布快照存储接口
type Store interface {
	// Get 返回画板快照；不存在时返回 errors.ErrNotFound
	Get(ctx context.Context, boardID string) (Snapshot, error)
	// Put 覆盖画板快照
	Put(ctx context.Context, boardID string, snap Snapshot) error
	// Create 分配新的空画板
	Create(ctx context.Context) (string, error)
}

type cacheStore struct {
	cache cache.Store
	ttl   time.Duration
}

// NewStore 基于缓存创建快照存储；ttl<=0 表示不过期
func NewStore(c cache.Store, ttl time.Duration) Store {
	return &cacheStore{cache: c, ttl: ttl}
}

func snapshotKey(boardID string) string {
	return "board:" + boardID + ":snapshot"
}

func (s *cacheStore) Get(ctx context.Context, boardID string) (Snapshot, error) {
	var snap Snapshot
	if err := s.cache.Get(ctx, snapshotKey(boardID), &snap); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, fmt.Errorf("board %s: %w", boardID, errors.ErrNotFound)
		}
		return nil, errors.Wrap(err, "load board snapshot")
	}
	return snap, nil
}

func (s *cacheStore) Put(ctx context.Context, boardID string, snap Snapshot) error {
	if boardID == "" {
		return errors.ErrInvalidArg
	}
	if snap == nil {
		snap = Snapshot{}
	}
	return errors.Wrap(s.cache.Set(ctx, snapshotKey(boardID), snap, s.ttl), "store board snapshot")
}

func (s *cacheStore) Create(ctx context.Context) (string, error) {
	id := "board-" + uuid.NewString()
	if err := s.Put(ctx, id, Snapshot{}); err != nil {
		return "", err
	}
	return id, nil
}

// Load 读取快照；画板尚无快照时视为空画布
func Load(ctx context.Context, s Store, boardID string) (Snapshot, error) {
	snap, err := s.Get(ctx, boardID)
	if errors.Is(err, errors.ErrNotFound) {
		return Snapshot{}, nil
	}
	return snap, err
}
