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
	"bytes"
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseboard-ai/internal/app"
	"caseboard-ai/pkg/auth"
	"caseboard-ai/pkg/config"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "error"
	if mutate != nil {
		mutate(cfg)
	}
	cfg.ApplyDefaults()
	b, err := app.NewBootstrap(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	a, err := NewApp(b)
	require.NoError(t, err)
	return a
}

func perform(a *App, method, path, body string, headers ...ut.Header) *ut.ResponseRecorder {
	h := a.router.Build(":0")
	return ut.PerformRequest(h.Engine, method, path, &ut.Body{Body: bytes.NewReader([]byte(body)), Len: len(body)}, headers...)
}

func TestNewAuthenticator(t *testing.T) {
	a, err := NewAuthenticator(config.MiddlewareConfig{})
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = NewAuthenticator(config.MiddlewareConfig{Auth: true})
	assert.Error(t, err)

	a, err = NewAuthenticator(config.MiddlewareConfig{
		Auth:         true,
		JWTKey:       "test-signing-key",
		StaticTokens: map[string]string{"tok-1": "alice"},
	})
	require.NoError(t, err)
	actor, err := a.Authenticate(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", actor)

	_, err = a.Authenticate(context.Background(), "tok-unknown")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestApp_NoProviderConfigured(t *testing.T) {
	a := newTestApp(t, nil)

	w := perform(a, "GET", "/api/health", "")
	assert.Equal(t, 503, w.Code)

	w = perform(a, "POST", "/api/ai/plan", `{"prompt":"add a sticky note","boardId":"b1"}`)
	assert.Equal(t, 500, w.Code)
}

func TestApp_AuthEnabled(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.API.Middleware.Auth = true
		cfg.API.Middleware.StaticTokens = map[string]string{"tok-1": "alice"}
	})

	w := perform(a, "POST", "/api/ai/plan", `{"prompt":"add a sticky note","boardId":"b1"}`)
	assert.Equal(t, 401, w.Code)

	w = perform(a, "POST", "/api/boards", "", ut.Header{Key: "Authorization", Value: "Bearer tok-1"})
	assert.Equal(t, 201, w.Code)
}
