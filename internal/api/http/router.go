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

package http

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"caseboard-ai/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler    *Handler
	middleware *middleware.Middleware
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{handler: handler, middleware: mw}
}

// Build 创建 Hertz 服务并注册路由；opts 可追加 tracer 等选项
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	opts = append([]config.Option{
		server.WithHostPorts(addr),
		server.WithHandleMethodNotAllowed(true),
	}, opts...)
	h := server.Default(opts...)
	r.Register(h)
	return h
}

// Register 在已有 Hertz 实例上注册路由
func (r *Router) Register(h *server.Hertz) {
	h.Use(r.middleware.AccessLog(), r.middleware.CORS())
	h.NoRoute(r.handler.NotFound)
	h.NoMethod(r.handler.MethodNotAllowed)

	h.GET("/metrics", r.handler.Metrics)

	api := h.Group("/api")
	api.GET("/health", r.handler.HealthCheck)

	authed := api.Group("", r.middleware.Auth())
	authed.POST("/ai/plan", r.middleware.RateLimit(), r.handler.Plan)
	authed.POST("/boards", r.handler.CreateBoard)
	authed.POST("/boards/:id/snapshot", r.handler.PutSnapshot)
}
