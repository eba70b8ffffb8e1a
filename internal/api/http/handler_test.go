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
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseboard-ai/internal/access"
	"caseboard-ai/internal/api/http/middleware"
	"caseboard-ai/internal/board"
	"caseboard-ai/internal/model/llm"
	"caseboard-ai/internal/planner"
	"caseboard-ai/internal/storage/cache"
	"caseboard-ai/internal/tool"
	"caseboard-ai/pkg/auth"
	"caseboard-ai/pkg/errors"
)

const testToken = "tok-alice"

type fakePlanner struct {
	err  error
	got  []planner.PlanRequest
	resp *planner.PlanResult
}

func (f *fakePlanner) Generate(ctx context.Context, req planner.PlanRequest) (*planner.PlanResult, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &planner.PlanResult{
		ToolCalls:  []tool.Call{{ID: "c1", Name: "createStickyNote", Input: map[string]any{"text": "hi", "x": 0.0, "y": 0.0}}},
		Message:    "done",
		StopReason: "tool_use",
		Provider:   llm.ProviderAnthropic,
		Model:      "claude-3-5-haiku-latest",
		Score:      -1,
	}, nil
}

type fakeHealth struct{ up map[string]bool }

func (f fakeHealth) Available(name string) bool { return f.up[name] }
func (f fakeHealth) AnyAvailable() bool {
	for _, v := range f.up {
		if v {
			return true
		}
	}
	return false
}

type testServer struct {
	h        *server.Hertz
	planner  *fakePlanner
	resolver *access.MemoryResolver
	boards   board.Store
}

func newTestServer(t *testing.T, cfg HandlerConfig) *testServer {
	t.Helper()
	p := &fakePlanner{}
	resolver := access.NewMemoryResolver()
	resolver.SetBoard("b1", access.BoardAccess{OwnerID: "alice", Sharing: access.SharingPrivate})
	resolver.SetBoard("b2", access.BoardAccess{OwnerID: "bob", Sharing: access.SharingLinkView})
	boards := board.NewStore(cache.NewMemoryStore(), 0)
	handler := NewHandler(p, resolver, boards, fakeHealth{up: map[string]bool{"anthropic": true}}, cfg)
	mw := middleware.NewMiddleware(middleware.Config{
		Authenticator: auth.NewStaticTokenAuthenticator(map[string]string{testToken: "alice"}),
	})
	return &testServer{h: NewRouter(handler, mw).Build(":0"), planner: p, resolver: resolver, boards: boards}
}

func (s *testServer) do(method, path, body string, headers ...ut.Header) *ut.ResponseRecorder {
	return ut.PerformRequest(s.h.Engine, method, path, &ut.Body{Body: bytes.NewReader([]byte(body)), Len: len(body)}, headers...)
}

func bearer(token string) ut.Header {
	return ut.Header{Key: "Authorization", Value: "Bearer " + token}
}

func errorBody(t *testing.T, w *ut.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Result().Body(), &body))
	return body["error"]
}

func TestPlan_Success(t *testing.T) {
	s := newTestServer(t, HandlerConfig{})
	w := s.do("POST", "/api/ai/plan", `{"prompt":"Add a sticky note","boardId":"b1","boardState":[{"id":"o1"}]}`, bearer(testToken))
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode(), string(resp.Body()))
	assert.Equal(t, "anthropic", resp.Header.Get(HeaderAIProvider))
	assert.Equal(t, "claude-3-5-haiku-latest", resp.Header.Get(HeaderAIModel))

	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body(), &out))
	assert.Equal(t, "done", out["message"])
	assert.Equal(t, "tool_use", out["stopReason"])
	assert.Len(t, out["toolCalls"], 1)
	assert.NotContains(t, out, "Score")
	assert.NotContains(t, out, "score")

	require.Len(t, s.planner.got, 1)
	got := s.planner.got[0]
	assert.Equal(t, "alice", got.ActorID)
	assert.Equal(t, "b1", got.BoardID)
	assert.Len(t, got.Board, 1)
}

func TestPlan_LoadsSnapshotFromStore(t *testing.T) {
	s := newTestServer(t, HandlerConfig{})
	w := s.do("POST", "/api/boards/b1/snapshot", `[{"id":"a"},{"id":"b"}]`, bearer(testToken))
	require.Equal(t, 200, w.Result().StatusCode())

	w = s.do("POST", "/api/ai/plan", `{"prompt":"Add a sticky note","boardId":"b1"}`, bearer(testToken))
	require.Equal(t, 200, w.Result().StatusCode())
	assert.Len(t, s.planner.got[0].Board, 2)
}

func TestPlan_RejectedInputs(t *testing.T) {
	s := newTestServer(t, HandlerConfig{MaxPromptChars: 10})
	cases := []struct {
		name   string
		body   string
		token  string
		status int
	}{
		{"no credentials", `{"prompt":"hi","boardId":"b1"}`, "", 401},
		{"bad credentials", `{"prompt":"hi","boardId":"b1"}`, "nope", 401},
		{"malformed json", `{"prompt":`, testToken, 400},
		{"missing prompt", `{"boardId":"b1"}`, testToken, 400},
		{"oversized prompt", `{"prompt":"this prompt is far too long","boardId":"b1"}`, testToken, 400},
		{"missing board", `{"prompt":"hi"}`, testToken, 400},
		{"override disabled", `{"prompt":"hi","boardId":"b1","provider":"openai"}`, testToken, 403},
		{"no ai capability", `{"prompt":"hi","boardId":"b2"}`, testToken, 403},
		{"bad board state", `{"prompt":"hi","boardId":"b1","boardState":{"id":1}}`, testToken, 400},
	}
	for _, c := range cases {
		var headers []ut.Header
		if c.token != "" {
			headers = append(headers, bearer(c.token))
		}
		w := s.do("POST", "/api/ai/plan", c.body, headers...)
		assert.Equal(t, c.status, w.Result().StatusCode(), c.name)
		assert.NotEmpty(t, errorBody(t, w), c.name)
	}
	assert.Empty(t, s.planner.got)
}

func TestPlan_OverrideValidation(t *testing.T) {
	s := newTestServer(t, HandlerConfig{AllowModelOverride: true})

	w := s.do("POST", "/api/ai/plan", `{"prompt":"hi","boardId":"b1","provider":"gemini","model":"x"}`, bearer(testToken))
	assert.Equal(t, 400, w.Result().StatusCode())
	w = s.do("POST", "/api/ai/plan", `{"prompt":"hi","boardId":"b1","model":"gpt-4.1"}`, bearer(testToken))
	assert.Equal(t, 400, w.Result().StatusCode())

	w = s.do("POST", "/api/ai/plan", `{"prompt":"hi","boardId":"b1","provider":"OpenAI","model":"gpt-4.1"}`, bearer(testToken))
	require.Equal(t, 200, w.Result().StatusCode())
	require.Len(t, s.planner.got, 1)
	assert.Equal(t, "openai", s.planner.got[0].Provider)
	assert.Equal(t, "gpt-4.1", s.planner.got[0].Model)
}

func TestPlan_UpstreamErrorsMapToStableStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{errors.UpstreamRateLimit(&llm.StatusError{StatusCode: 429}), 429, "AI provider is rate limited, please retry shortly"},
		{errors.UpstreamFailure(&llm.StatusError{StatusCode: 500, Body: "sk-live-secret"}), 500, "AI planning failed"},
		{errors.Configuration("no AI provider is configured"), 500, "no AI provider is configured"},
	}
	for _, c := range cases {
		s := newTestServer(t, HandlerConfig{})
		s.planner.err = c.err
		w := s.do("POST", "/api/ai/plan", `{"prompt":"hi","boardId":"b1"}`, bearer(testToken))
		assert.Equal(t, c.status, w.Result().StatusCode())
		assert.Equal(t, c.msg, errorBody(t, w))
		assert.NotContains(t, string(w.Result().Body()), "sk-live-secret")
	}
}

func TestPlan_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, HandlerConfig{})
	for _, m := range []string{"GET", "PUT", "DELETE"} {
		w := s.do(m, "/api/ai/plan", "", bearer(testToken))
		assert.Equal(t, 405, w.Result().StatusCode(), m)
	}
}

func TestPlan_InboundRateLimit(t *testing.T) {
	p := &fakePlanner{}
	handler := NewHandler(p, access.AllowAll{}, nil, nil, HandlerConfig{})
	mw := middleware.NewMiddleware(middleware.Config{RateLimitRPS: 1})
	h := NewRouter(handler, mw).Build(":0")

	body := `{"prompt":"hi","boardId":"b1"}`
	first := ut.PerformRequest(h.Engine, "POST", "/api/ai/plan", &ut.Body{Body: bytes.NewReader([]byte(body)), Len: len(body)})
	assert.Equal(t, 200, first.Result().StatusCode())
	second := ut.PerformRequest(h.Engine, "POST", "/api/ai/plan", &ut.Body{Body: bytes.NewReader([]byte(body)), Len: len(body)})
	assert.Equal(t, 429, second.Result().StatusCode())
	require.Len(t, p.got, 1)
	assert.Equal(t, middleware.AnonymousActor, p.got[0].ActorID)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, HandlerConfig{RoutingMode: "split"})
	w := s.do("GET", "/api/health", "")
	resp := w.Result()
	assert.Equal(t, 200, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), `"status":"ok"`)

	down := NewRouter(NewHandler(&fakePlanner{}, nil, nil, fakeHealth{}, HandlerConfig{}), middleware.NewMiddleware(middleware.Config{})).Build(":0")
	w = ut.PerformRequest(down.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	assert.Equal(t, 503, w.Result().StatusCode())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, HandlerConfig{})
	_ = s.do("POST", "/api/ai/plan", `{"boardId":"b1"}`, bearer(testToken))
	w := s.do("GET", "/metrics", "")
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), "caseboard_ai_plan_requests_total")
}

func TestBoards(t *testing.T) {
	s := newTestServer(t, HandlerConfig{})
	w := s.do("POST", "/api/boards", "", bearer(testToken))
	require.Equal(t, 201, w.Result().StatusCode())
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Result().Body(), &created))
	assert.NotEmpty(t, created["boardId"])

	w = s.do("POST", "/api/boards/"+created["boardId"]+"/snapshot", `{"not":"an array"}`, bearer(testToken))
	assert.Equal(t, 400, w.Result().StatusCode())

	w = s.do("POST", "/api/boards", "")
	assert.Equal(t, 401, w.Result().StatusCode())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, HandlerConfig{})
	w := s.do("OPTIONS", "/api/ai/plan", "", ut.Header{Key: "Origin", Value: "https://board.example"})
	assert.Equal(t, 204, w.Result().StatusCode())
	assert.Equal(t, "*", w.Result().Header.Get("Access-Control-Allow-Origin"))
}
