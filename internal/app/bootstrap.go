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

package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"caseboard-ai/internal/access"
	"caseboard-ai/internal/board"
	"caseboard-ai/internal/model"
	"caseboard-ai/internal/planner"
	"caseboard-ai/internal/planner/classifier"
	"caseboard-ai/internal/planner/router"
	"caseboard-ai/internal/storage/cache"
	"caseboard-ai/internal/tool/registry"
	"caseboard-ai/pkg/config"
	"caseboard-ai/pkg/log"
	"caseboard-ai/pkg/secrets"
	"caseboard-ai/pkg/tracing"
)

// Bootstrap 统一初始化：供 api 与 boardctl 复用，cmd 内不写装配逻辑
type Bootstrap struct {
	Config    *config.Config
	Logger    *log.Logger
	Secrets   secrets.Store
	Providers *model.Providers
	Router    *router.Router
	Generator *planner.Generator
	Cache     cache.Store
	Boards    board.Store
	Access    access.Resolver

	accessClose func()

	tracingOnce    sync.Once
	tracerProvider *sdktrace.TracerProvider
}

// NewBootstrap 根据配置创建 Bootstrap（Logger/Secrets/Providers/Planner/Storage/Access）
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}
	logger, err := log.NewLogger(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	b := &Bootstrap{Config: cfg, Logger: logger}

	b.Secrets, err = secrets.NewStore(secrets.Config{Provider: cfg.Secrets.Provider, Config: cfg.Secrets.Config})
	if err != nil {
		return nil, fmt.Errorf("初始化 secret store 失败: %w", err)
	}

	tracer, flusher := b.Tracing()
	var providerTracer trace.Tracer
	if b.tracerProvider != nil {
		providerTracer = tracer
	}
	b.Providers, err = NewProvidersFromConfig(ctx, cfg, b.Secrets, providerTracer, logger)
	if err != nil {
		return nil, err
	}

	b.Router, err = router.New(RouterConfig(cfg), b.Providers.Available)
	if err != nil {
		return nil, fmt.Errorf("初始化 provider 路由失败: %w", err)
	}

	b.Generator = planner.NewGenerator(
		b.Providers,
		b.Router,
		classifier.New(classifier.WithPromptCache(cfg.Planner.PromptCacheEnabled())),
		registry.Canvas(),
		planner.Config{
			MaxBoardObjects: cfg.Planner.MaxBoardObjects,
			MaxBoardChars:   cfg.Planner.MaxBoardChars,
			MaxTokens:       cfg.Planner.MaxTokens,
			Temperature:     cfg.Planner.Temperature,
			RunName:         cfg.Planner.RunName,
			FlushTimeout:    parseDuration(cfg.Monitoring.Tracing.FlushTimeout, 500*time.Millisecond),
		},
		planner.WithLogger(logger),
		planner.WithTracing(tracer, flusher),
	)

	b.Cache, err = cache.NewCache(cfg.Storage.Cache)
	if err != nil {
		return nil, fmt.Errorf("初始化缓存失败: %w", err)
	}
	b.Boards = board.NewStore(b.Cache, parseDuration(cfg.Storage.Cache.TTL, 0))

	b.Access, b.accessClose, err = access.NewResolver(ctx, cfg.Access)
	if err != nil {
		_ = b.Cache.Close()
		return nil, fmt.Errorf("初始化画板权限解析失败: %w", err)
	}

	logger.Info("bootstrap 完成",
		"routing_mode", b.Router.Mode(),
		"providers", b.Providers.Names(),
		"access", cfg.Access.Type,
		"cache", cfg.Storage.Cache.Type,
	)
	return b, nil
}

// Tracing 首次调用时按配置初始化 tracer provider；未开启或初始化失败时返回 no-op tracer
func (b *Bootstrap) Tracing() (trace.Tracer, tracing.Flusher) {
	b.tracingOnce.Do(func() {
		tc := b.Config.Monitoring.Tracing
		if !tc.Enable || tc.ExportEndpoint == "" {
			return
		}
		tp, err := tracing.InitTracer(tracing.OTelConfig{
			ServiceName:    tc.ServiceName,
			ExportEndpoint: tc.ExportEndpoint,
			Insecure:       tc.Insecure,
		})
		if err != nil {
			b.Logger.Warn("初始化链路追踪失败，继续运行", "error", err)
			return
		}
		b.tracerProvider = tp
		b.Logger.Info("链路追踪已启用", "service_name", tc.ServiceName, "endpoint", tc.ExportEndpoint)
	})
	if b.tracerProvider == nil {
		return tracing.Tracer(nil), nil
	}
	return tracing.Tracer(b.tracerProvider), b.tracerProvider
}

// TracingEnabled tracer provider 是否已成功初始化
func (b *Bootstrap) TracingEnabled() bool {
	b.Tracing()
	return b.tracerProvider != nil
}

// Close 释放外部资源：tracer provider、缓存连接与 access 连接池
func (b *Bootstrap) Close(ctx context.Context) error {
	var firstErr error
	if b.tracerProvider != nil {
		if err := b.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if b.Cache != nil {
		if err := b.Cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if b.accessClose != nil {
		b.accessClose()
	}
	return firstErr
}

// RouterConfig 从配置提取路由参数与各 provider 的模型名
func RouterConfig(cfg *config.Config) router.Config {
	models := make(map[string]router.ModelNames, len(cfg.Model.LLM.Providers))
	for name, pc := range cfg.Model.LLM.Providers {
		models[name] = router.ModelNames{
			Simple:  pc.Models["simple"].Name,
			Complex: pc.Models["complex"].Name,
		}
	}
	return router.Config{
		Mode:         cfg.Planner.Routing.Mode,
		SplitPercent: cfg.Planner.Routing.SplitPercent,
		Models:       models,
	}
}

// parseDuration 解析时长字符串，无效或空时返回 defaultVal
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
