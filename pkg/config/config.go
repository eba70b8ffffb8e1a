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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Model      ModelConfig      `mapstructure:"model"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Access     AccessConfig     `mapstructure:"access"`
	Storage    StorageConfig    `mapstructure:"storage"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Bench      BenchConfig      `mapstructure:"bench"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port               int              `mapstructure:"port"`
	Host               string           `mapstructure:"host"`
	Timeout            string           `mapstructure:"timeout"`
	MaxPromptChars     int              `mapstructure:"max_prompt_chars"`     // prompt 长度上限（字符）
	AllowModelOverride bool             `mapstructure:"allow_model_override"` // 仅 benchmark 环境开启
	CORS               CORSConfig       `mapstructure:"cors"`
	Middleware         MiddlewareConfig `mapstructure:"middleware"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	Auth         bool              `mapstructure:"auth"`
	RateLimit    bool              `mapstructure:"rate_limit"`
	RateLimitRPS int               `mapstructure:"rate_limit_rps"`
	JWTKey       string            `mapstructure:"jwt_key"`
	JWTIssuer    string            `mapstructure:"jwt_issuer"`
	StaticTokens map[string]string `mapstructure:"static_tokens"` // token -> actor id，开发与压测使用
}

// PlannerConfig 规划链路配置
type PlannerConfig struct {
	Routing         RoutingConfig `mapstructure:"routing"`
	MaxBoardObjects int           `mapstructure:"max_board_objects"` // 发送给模型的画布对象数上限
	MaxBoardChars   int           `mapstructure:"max_board_chars"`   // 画布快照序列化后的字符上限
	MaxTokens       int           `mapstructure:"max_tokens"`
	Temperature     float64       `mapstructure:"temperature"`
	PromptCache     *bool         `mapstructure:"prompt_cache"` // 精选 prompt 精确匹配缓存，未配置时默认开启
	RunName         string        `mapstructure:"run_name"`     // tracing span 名称
}

// RoutingConfig provider 路由
type RoutingConfig struct {
	Mode         string `mapstructure:"mode"`          // anthropic | openai | split
	SplitPercent int    `mapstructure:"split_percent"` // split 模式下路由到 openai 的百分比
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM LLMConfig `mapstructure:"llm"`
}

// LLMConfig LLM 模型配置
type LLMConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig 模型提供商配置
type ProviderConfig struct {
	APIKey  string               `mapstructure:"api_key"` // 字面值、${ENV} 或 secret:<key>
	BaseURL string               `mapstructure:"base_url"`
	Timeout string               `mapstructure:"timeout"`
	Models  map[string]ModelInfo `mapstructure:"models"` // simple | complex
}

// ModelInfo 模型信息
type ModelInfo struct {
	Name      string `mapstructure:"name"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// SecretsConfig Secret Store 配置
type SecretsConfig struct {
	Provider string            `mapstructure:"provider"` // env | memory | vault | file
	Config   map[string]string `mapstructure:"config"`
}

// AccessConfig 画板访问能力解析
type AccessConfig struct {
	Type string `mapstructure:"type"` // allow_all | memory | postgres
	DSN  string `mapstructure:"dsn"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Cache CacheConfig `mapstructure:"cache"`
}

// CacheConfig 画布快照缓存配置
type CacheConfig struct {
	Type     string `mapstructure:"type"` // memory | redis
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
	TTL      string `mapstructure:"ttl"`
}

// RateLimitsConfig 限流配置
type RateLimitsConfig struct {
	LLM map[string]LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 单个 LLM Provider 的限流配置
type LLMRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
	FlushTimeout   string `mapstructure:"flush_timeout"` // 每次规划后 best-effort flush 的上限，如 "500ms"
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// BenchConfig benchmark 配置；boardctl bench 的 flag 会覆盖同名字段
type BenchConfig struct {
	Target      string   `mapstructure:"target"`
	Token       string   `mapstructure:"token"`
	Suite       string   `mapstructure:"suite"`
	Matrix      string   `mapstructure:"matrix"`
	Boards      []string `mapstructure:"boards"`
	Provision   int      `mapstructure:"provision"`
	Rounds      int      `mapstructure:"rounds"`
	Concurrency int      `mapstructure:"concurrency"`
	Timeout     string   `mapstructure:"timeout"`
	Delay       string   `mapstructure:"delay"`
	WaitReady   string   `mapstructure:"wait_ready"`
	Limit       int      `mapstructure:"limit"`
	OutDir      string   `mapstructure:"out_dir"`
	MaxFailures int      `mapstructure:"max_failures"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}
	return Decode(v)
}

// Decode 从已填充的 viper 实例解析配置，CLI 绑定 flag 后复用
func Decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}
	replaceEnvVars(&config)
	config.ApplyDefaults()
	return &config, nil
}

// replaceEnvVars 替换配置中的 ${ENV} 引用；secret:<key> 形式留给 secrets.Resolve
func replaceEnvVars(config *Config) {
	for provider, providerConfig := range config.Model.LLM.Providers {
		providerConfig.APIKey = expandEnv(providerConfig.APIKey)
		config.Model.LLM.Providers[provider] = providerConfig
	}
	config.API.Middleware.JWTKey = expandEnv(config.API.Middleware.JWTKey)
	config.Access.DSN = expandEnv(config.Access.DSN)
	config.Storage.Cache.Password = expandEnv(config.Storage.Cache.Password)
	config.Bench.Token = expandEnv(config.Bench.Token)
}

func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return s
	}
	envVar := strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}")
	return os.Getenv(envVar)
}

// ApplyDefaults 为零值字段填默认值
func (c *Config) ApplyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.MaxPromptChars <= 0 {
		c.API.MaxPromptChars = 2000
	}
	if c.API.Middleware.RateLimitRPS <= 0 {
		c.API.Middleware.RateLimitRPS = 20
	}
	if c.Planner.Routing.Mode == "" {
		c.Planner.Routing.Mode = "anthropic"
	}
	if c.Planner.Routing.SplitPercent < 0 {
		c.Planner.Routing.SplitPercent = 0
	}
	if c.Planner.Routing.SplitPercent > 100 {
		c.Planner.Routing.SplitPercent = 100
	}
	if c.Planner.MaxBoardObjects <= 0 {
		c.Planner.MaxBoardObjects = 200
	}
	if c.Planner.MaxBoardChars <= 0 {
		c.Planner.MaxBoardChars = 24000
	}
	if c.Planner.MaxTokens <= 0 {
		c.Planner.MaxTokens = 4096
	}
	if c.Planner.RunName == "" {
		c.Planner.RunName = "ai.plan"
	}
	if c.Access.Type == "" {
		c.Access.Type = "allow_all"
	}
	if c.Storage.Cache.Type == "" {
		c.Storage.Cache.Type = "memory"
	}
	if c.Monitoring.Tracing.ServiceName == "" {
		c.Monitoring.Tracing.ServiceName = "caseboard-ai"
	}
	if c.Monitoring.Tracing.FlushTimeout == "" {
		c.Monitoring.Tracing.FlushTimeout = "500ms"
	}
	if c.Bench.Rounds <= 0 {
		c.Bench.Rounds = 1
	}
	if c.Bench.Concurrency <= 0 {
		c.Bench.Concurrency = 1
	}
	if c.Bench.Timeout == "" {
		c.Bench.Timeout = "60s"
	}
	if c.Bench.OutDir == "" {
		c.Bench.OutDir = "bench-results"
	}
	if c.Bench.MaxFailures <= 0 {
		c.Bench.MaxFailures = 50
	}
}

// PromptCacheEnabled 精选 prompt 缓存开关
func (p PlannerConfig) PromptCacheEnabled() bool {
	return p.PromptCache == nil || *p.PromptCache
}

// LoadAPIConfig 加载 API 配置（configs/api.yaml）
func LoadAPIConfig() (*Config, error) {
	return LoadConfig("configs/api.yaml")
}

// LoadBenchConfig 加载 benchmark 配置（configs/bench.yaml）
func LoadBenchConfig() (*Config, error) {
	return LoadConfig("configs/bench.yaml")
}
