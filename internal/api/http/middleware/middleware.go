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
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"golang.org/x/time/rate"

	"caseboard-ai/pkg/auth"
)

// Config 中间件配置
type Config struct {
	// Authenticator 为 nil 时不做认证，所有请求以 AnonymousActor 身份访问
	Authenticator auth.Authenticator
	RateLimitRPS  int
	CORSOrigins   []string
}

// AnonymousActor 关闭认证时使用的 actor id
const AnonymousActor = "anonymous"

// Middleware 中间件管理器
type Middleware struct {
	authenticator auth.Authenticator
	limiter       *rate.Limiter
	origins       []string
}

// NewMiddleware 创建中间件管理器
func NewMiddleware(cfg Config) *Middleware {
	m := &Middleware{authenticator: cfg.Authenticator, origins: cfg.CORSOrigins}
	if cfg.RateLimitRPS > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitRPS)
	}
	return m
}

// CORS CORS 中间件；未配置 origin 时允许任意来源
func (m *Middleware) CORS() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		origin := c.Request.Header.Get("Origin")
		allow := "*"
		if len(m.origins) > 0 {
			allow = ""
			for _, o := range m.origins {
				if o == "*" || strings.EqualFold(o, origin) {
					allow = origin
					break
				}
			}
		}
		if allow != "" {
			c.Header("Access-Control-Allow-Origin", allow)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")
			c.Header("Access-Control-Expose-Headers", "X-AI-Provider, X-AI-Model")
			c.Header("Access-Control-Max-Age", "86400")
		}
		if string(c.Method()) == consts.MethodOptions {
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}
		c.Next(ctx)
	}
}

// RateLimit 进程级入站限流，超出时返回 429
func (m *Middleware) RateLimit() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if m.limiter != nil && !m.limiter.Allow() {
			c.Header("Retry-After", strconv.Itoa(1))
			c.AbortWithStatusJSON(consts.StatusTooManyRequests, map[string]string{
				"error": "too many requests, please retry shortly",
			})
			return
		}
		c.Next(ctx)
	}
}
