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

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	gjwt "github.com/golang-jwt/jwt/v4"
	hzjwt "github.com/hertz-contrib/jwt"
)

// ErrUnauthenticated bearer 缺失或无效
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator 将 bearer token 解析为 actor id
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (string, error)
}

// BearerToken 从 Authorization 头提取 token；格式不对返回空串
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// StaticTokenAuthenticator 固定 token 表，开发与 benchmark 环境使用
type StaticTokenAuthenticator struct {
	tokens map[string]string
}

// NewStaticTokenAuthenticator tokens: token -> actor id
func NewStaticTokenAuthenticator(tokens map[string]string) *StaticTokenAuthenticator {
	cp := make(map[string]string, len(tokens))
	for k, v := range tokens {
		cp[k] = v
	}
	return &StaticTokenAuthenticator{tokens: cp}
}

// Authenticate 实现 Authenticator
func (s *StaticTokenAuthenticator) Authenticate(ctx context.Context, bearer string) (string, error) {
	if bearer == "" {
		return "", ErrUnauthenticated
	}
	for token, actor := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(bearer)) == 1 {
			return actor, nil
		}
	}
	return "", ErrUnauthenticated
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Key         string
	Issuer      string
	IdentityKey string // actor id 所在 claim，默认 sub
}

// JWTAuthenticator 基于 hertz-contrib/jwt 的 HS256 校验
type JWTAuthenticator struct {
	mw          *hzjwt.HertzJWTMiddleware
	issuer      string
	identityKey string
}

// NewJWTAuthenticator 创建 JWT 认证器
func NewJWTAuthenticator(cfg JWTConfig) (*JWTAuthenticator, error) {
	if cfg.Key == "" {
		return nil, errors.New("jwt key is required")
	}
	identityKey := cfg.IdentityKey
	if identityKey == "" {
		identityKey = "sub"
	}
	mw, err := hzjwt.New(&hzjwt.HertzJWTMiddleware{
		Realm:            "caseboard",
		Key:              []byte(cfg.Key),
		SigningAlgorithm: "HS256",
		IdentityKey:      identityKey,
		TokenLookup:      "header: Authorization",
		TokenHeadName:    "Bearer",
	})
	if err != nil {
		return nil, fmt.Errorf("init jwt middleware: %w", err)
	}
	return &JWTAuthenticator{mw: mw, issuer: cfg.Issuer, identityKey: identityKey}, nil
}

// Authenticate 实现 Authenticator
func (j *JWTAuthenticator) Authenticate(ctx context.Context, bearer string) (string, error) {
	if bearer == "" {
		return "", ErrUnauthenticated
	}
	token, err := j.mw.ParseTokenString(bearer)
	if err != nil || token == nil || !token.Valid {
		return "", ErrUnauthenticated
	}
	claims, ok := token.Claims.(gjwt.MapClaims)
	if !ok {
		return "", ErrUnauthenticated
	}
	if j.issuer != "" && !claims.VerifyIssuer(j.issuer, true) {
		return "", ErrUnauthenticated
	}
	actor, _ := claims[j.identityKey].(string)
	if actor == "" {
		return "", ErrUnauthenticated
	}
	return actor, nil
}

// Chain 依次尝试多个认证器，任一成功即返回
type Chain []Authenticator

// Authenticate 实现 Authenticator
func (c Chain) Authenticate(ctx context.Context, bearer string) (string, error) {
	for _, a := range c {
		if actor, err := a.Authenticate(ctx, bearer); err == nil {
			return actor, nil
		}
	}
	return "", ErrUnauthenticated
}
