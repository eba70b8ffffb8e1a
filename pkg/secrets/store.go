// Copyright 2026 fanjia1024
// Secret management abstraction

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Store Secret 存储接口；provider API key 等凭据统一经此解析
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config Secret Store 配置
type Config struct {
	Provider string            `mapstructure:"provider"` // env | memory | vault | file
	Config   map[string]string `mapstructure:"config"`
}

// NewStore 按 provider 创建 Secret Store；空 provider 等同 env
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "", "env":
		return NewEnvStore(), nil
	case "memory":
		return NewMemoryStore(), nil
	case "vault":
		return NewVaultStore(VaultConfig{
			Address:    config.Config["address"],
			Token:      config.Config["token"],
			PathPrefix: config.Config["path_prefix"],
		})
	case "file":
		return NewFileStore(config.Config["dir"]), nil
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Provider)
	}
}

// Resolve 解析凭据引用：
//   - "secret:<key>" 从 store 读取
//   - "${ENV}" 读取环境变量
//   - 其它按字面值返回
//
// 引用存在但取不到值时返回空串与错误，调用方据此判定 provider 不可用。
func Resolve(ctx context.Context, store Store, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", nil
	case strings.HasPrefix(ref, "secret:"):
		if store == nil {
			return "", fmt.Errorf("secret store not configured for %q", ref)
		}
		return store.Get(ctx, strings.TrimPrefix(ref, "secret:"))
	case strings.HasPrefix(ref, "${") && strings.HasSuffix(ref, "}"):
		name := strings.TrimSuffix(strings.TrimPrefix(ref, "${"), "}")
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("environment variable not set: %s", name)
	default:
		return ref, nil
	}
}
