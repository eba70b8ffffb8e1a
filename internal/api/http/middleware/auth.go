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

package middleware

import (
	"context"
	stderrors "errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"caseboard-ai/pkg/auth"
)

// Auth 认证中间件：Bearer 凭据 -> actor id，写入 context 供后续 handler 使用
func (m *Middleware) Auth() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if m.authenticator == nil {
			c.Next(auth.WithActorID(ctx, AnonymousActor))
			return
		}
		token := auth.BearerToken(c.Request.Header.Get("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]string{
				"error": "authentication required",
			})
			return
		}
		actorID, err := m.authenticator.Authenticate(ctx, token)
		if err != nil {
			if !stderrors.Is(err, auth.ErrUnauthenticated) {
				hlog.CtxWarnf(ctx, "authenticate bearer token: %v", err)
			}
			c.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]string{
				"error": "invalid credentials",
			})
			return
		}
		ctx = auth.WithActorID(ctx, actorID)
		c.Next(ctx)
	}
}
