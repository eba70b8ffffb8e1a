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

// Package errors 提供统一错误辅助与 AI 规划链路的错误分类，不依赖 internal
package errors

import (
	"errors"
	"fmt"
)

// 常用哨兵错误
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidArg = errors.New("invalid argument")
)

// Kind 错误类别；HTTP 层按 Kind 映射稳定状态码
type Kind string

const (
	KindUnknown           Kind = ""
	KindConfiguration     Kind = "configuration"
	KindAuth              Kind = "auth"
	KindAuthorization     Kind = "authorization"
	KindValidation        Kind = "validation"
	KindUpstreamRateLimit Kind = "upstream_rate_limit"
	KindUpstreamFailure   Kind = "upstream_failure"
	KindPlanStructural    Kind = "plan_structural"
)

// Error 带类别的错误。Message 可直接返回给调用方，Cause 只进日志
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is 同 Kind 即视为匹配，便于 errors.Is(err, &Error{Kind: KindAuth})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New 创建指定类别的错误
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WithCause 创建指定类别并携带底层原因的错误
func WithCause(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Configuration 缺少凭据、无可用 provider 等部署问题
func Configuration(msg string) *Error { return New(KindConfiguration, msg) }

// Auth 未认证
func Auth(msg string) *Error { return New(KindAuth, msg) }

// Authorization 已认证但无权限
func Authorization(msg string) *Error { return New(KindAuthorization, msg) }

// Validation 请求参数不合法
func Validation(msg string) *Error { return New(KindValidation, msg) }

// UpstreamRateLimit 上游 provider 限流，不做 fallback
func UpstreamRateLimit(cause error) *Error {
	return WithCause(KindUpstreamRateLimit, "AI provider is rate limited, please retry shortly", cause)
}

// UpstreamFailure 上游调用失败（含 fallback 之后），对外只暴露通用信息
func UpstreamFailure(cause error) *Error {
	return WithCause(KindUpstreamFailure, "AI planning failed", cause)
}

// PlanStructural 计划存在结构问题；仅用于内部信号，不会阻断响应
func PlanStructural(msg string) *Error { return New(KindPlanStructural, msg) }

// As 提取 *Error
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf 返回 err 链上第一个 *Error 的类别，没有则为 KindUnknown
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// IsKind 判断 err 是否属于某类别
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus 类别到 HTTP 状态码的稳定映射
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return 400
	case KindAuth:
		return 401
	case KindAuthorization:
		return 403
	case KindUpstreamRateLimit:
		return 429
	default:
		return 500
	}
}

// PublicMessage 可以返回给调用方的信息；未分类错误一律返回通用文案
func PublicMessage(err error) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

// Is 同标准库 errors.Is，便于只引入本包
func Is(err, target error) bool { return errors.Is(err, target) }

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
