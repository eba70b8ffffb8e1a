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
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"caseboard-ai/pkg/config"
)

// NewResolver 根据配置创建解析器；postgres 模式返回的 close 需在退出时调用
func NewResolver(ctx context.Context, cfg config.AccessConfig) (Resolver, func(), error) {
	switch cfg.Type {
	case "", "allow_all":
		return AllowAll{}, func() {}, nil
	case "memory":
		return NewMemoryResolver(), func() {}, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("access.dsn is required for postgres resolver")
		}
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect access database: %w", err)
		}
		return NewPostgresResolver(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported access resolver: %s", cfg.Type)
	}
}
