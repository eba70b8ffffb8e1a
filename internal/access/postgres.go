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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caseboard-ai/pkg/auth"
)

// rowQuerier pgxpool.Pool 与 pgx.Conn 都满足
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const boardAccessQuery = `SELECT b.owner_id, b.sharing, COALESCE(m.role, '')
FROM boards b
LEFT JOIN board_members m ON m.board_id = b.id AND m.user_id = $2
WHERE b.id = $1`

// PostgresResolver 从 boards / board_members 表解析访问能力
type PostgresResolver struct {
	db rowQuerier
}

// NewPostgresResolver 使用已有连接池创建解析器
func NewPostgresResolver(pool *pgxpool.Pool) *PostgresResolver {
	return &PostgresResolver{db: pool}
}

// CanInvokeAI 实现 Resolver；画板不存在视为无权限
func (p *PostgresResolver) CanInvokeAI(ctx context.Context, boardID, actorID string) (bool, error) {
	var owner, sharing, role string
	err := p.db.QueryRow(ctx, boardAccessQuery, boardID, actorID).Scan(&owner, &sharing, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query board access: %w", err)
	}
	b := BoardAccess{OwnerID: owner, Sharing: Sharing(sharing)}
	if r := auth.ParseRole(role); r != auth.RoleNone {
		b.Members = map[string]auth.Role{actorID: r}
	}
	return b.CanInvokeAI(actorID), nil
}
