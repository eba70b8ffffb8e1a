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

package api

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"caseboard-ai/internal/api/http"
	"caseboard-ai/internal/api/http/middleware"
	"caseboard-ai/internal/app"
	"caseboard-ai/pkg/auth"
	"caseboard-ai/pkg/config"
	"caseboard-ai/pkg/log"
)

// App API 应用（装配 HTTP Router、Handler、Middleware；规划链路全部来自 Bootstrap）
type App struct {
	bootstrap *app.Bootstrap
	router    *http.Router
	hertz     *server.Hertz
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	cfg := bootstrap.Config

	authn, err := NewAuthenticator(cfg.API.Middleware)
	if err != nil {
		return nil, fmt.Errorf("初始化认证失败: %w", err)
	}
	mwCfg := middleware.Config{Authenticator: authn}
	if cfg.API.Middleware.RateLimit {
		mwCfg.RateLimitRPS = cfg.API.Middleware.RateLimitRPS
	}
	if cfg.API.CORS.Enable {
		mwCfg.CORSOrigins = cfg.API.CORS.AllowOrigins
	}
	if !cfg.API.Middleware.Auth {
		bootstrap.Logger.Warn("API 认证未开启，所有请求以匿名身份访问", "actor", middleware.AnonymousActor)
	}

	handler := http.NewHandler(
		bootstrap.Generator,
		bootstrap.Access,
		bootstrap.Boards,
		bootstrap.Providers,
		http.HandlerConfig{
			MaxPromptChars:     cfg.API.MaxPromptChars,
			AllowModelOverride: cfg.API.AllowModelOverride,
			RoutingMode:        bootstrap.Router.Mode(),
		},
	)
	return &App{
		bootstrap: bootstrap,
		router:    http.NewRouter(handler, middleware.NewMiddleware(mwCfg)),
	}, nil
}

// NewAuthenticator 按配置组装认证链：JWT 优先，其次静态 token；未开启认证时返回 nil
func NewAuthenticator(cfg config.MiddlewareConfig) (auth.Authenticator, error) {
	if !cfg.Auth {
		return nil, nil
	}
	var chain auth.Chain
	if cfg.JWTKey != "" {
		j, err := auth.NewJWTAuthenticator(auth.JWTConfig{Key: cfg.JWTKey, Issuer: cfg.JWTIssuer})
		if err != nil {
			return nil, err
		}
		chain = append(chain, j)
	}
	if len(cfg.StaticTokens) > 0 {
		chain = append(chain, auth.NewStaticTokenAuthenticator(cfg.StaticTokens))
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("middleware.auth 已开启但未配置 jwt_key 或 static_tokens")
	}
	return chain, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr, "routing_mode", a.bootstrap.Router.Mode())

	// 使用 Hertz slog 扩展，与 bootstrap 配置对齐
	var output io.Writer = os.Stdout
	if a.bootstrap.Config.Log.File != "" {
		f, err := os.OpenFile(a.bootstrap.Config.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		output = f
	}
	levelVar := log.LevelVar(a.bootstrap.Config.Log.Level)
	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	))

	// 规划链路的 tracer provider 同时作为 Hertz server tracer 的全局 provider
	if a.bootstrap.TracingEnabled() {
		tracerOpt, cfg := hertztracing.NewServerTracer()
		a.hertz = a.router.Build(addr, tracerOpt)
		a.hertz.Use(hertztracing.ServerMiddleware(cfg))
	} else {
		a.hertz = a.router.Build(addr)
	}
	return a.hertz.Run()
}

// Shutdown 优雅关闭（传入 ctx 以支持超时，如 cmd 层 WithTimeout）
func (a *App) Shutdown(ctx context.Context) error {
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	return a.bootstrap.Close(ctx)
}
