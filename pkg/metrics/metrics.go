package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		PlanRequestsTotal, PlanDuration,
		ProviderCallsTotal, ProviderCallDuration,
		PlanExpansionsTotal, ProviderFallbackTotal,
		ValidationIssuesTotal, RateLimitWaitSeconds,
	)
}

// PlanRequestsTotal 规划请求总数
var PlanRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "caseboard_ai_plan_requests_total",
		Help: "AI 规划请求总数",
	},
	[]string{"provider", "outcome"}, // outcome: ok | rate_limited | failed | rejected
)

// PlanDuration 规划端到端耗时（秒）
var PlanDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "caseboard_ai_plan_duration_seconds",
		Help:    "AI 规划端到端耗时（秒）",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	},
	[]string{"provider"},
)

// ProviderCallsTotal 单次 provider 调用
var ProviderCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "caseboard_ai_provider_calls_total",
		Help: "LLM provider 调用次数",
	},
	[]string{"provider", "phase", "outcome"}, // phase: initial | expansion
)

// ProviderCallDuration 单次 provider 调用耗时（秒）
var ProviderCallDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "caseboard_ai_provider_call_duration_seconds",
		Help:    "LLM provider 调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "phase"},
)

// PlanExpansionsTotal 触发扩展调用的次数
var PlanExpansionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "caseboard_ai_plan_expansions_total",
		Help: "触发计划扩展调用的次数",
	},
	[]string{"trigger", "kept"}, // trigger: too_few_calls | issues；kept: initial | expansion | error
)

// ProviderFallbackTotal fallback 次数
var ProviderFallbackTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "caseboard_ai_provider_fallback_total",
		Help: "主 provider 失败后切换到备用 provider 的次数",
	},
	[]string{"from", "to"},
)

// ValidationIssuesTotal 最终返回计划中的结构问题数
var ValidationIssuesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "caseboard_ai_validation_issues_total",
		Help: "返回计划中遗留的结构问题数",
	},
)

// RateLimitWaitSeconds 本地限流等待耗时
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "caseboard_ai_rate_limit_wait_seconds",
		Help:    "本地 LLM 限流等待耗时（秒）",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"provider"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
