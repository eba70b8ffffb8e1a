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

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

func apiBaseURL(target string) string {
	if target != "" {
		return strings.TrimRight(target, "/")
	}
	if u := os.Getenv("CASEBOARD_API_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return "http://localhost:8080"
}

func newClient(target, token string, timeout time.Duration) *resty.Client {
	c := resty.New().
		SetBaseURL(apiBaseURL(target)).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return c
}

type planInput struct {
	Prompt   string          `json:"prompt"`
	BoardID  string          `json:"boardId"`
	Board    json.RawMessage `json:"boardState,omitempty"`
	Provider string          `json:"provider,omitempty"`
	Model    string          `json:"model,omitempty"`
}

type planOutput struct {
	ToolCalls  []map[string]interface{} `json:"toolCalls"`
	Message    string                   `json:"message"`
	StopReason string                   `json:"stopReason"`
	Provider   string                   `json:"provider"`
	Model      string                   `json:"model"`
}

func postPlan(c *resty.Client, in planInput) (*planOutput, error) {
	var out planOutput
	resp, err := c.R().
		SetBody(in).
		SetResult(&out).
		Post("/api/ai/plan")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/ai/plan: %s %s", resp.Status(), resp.String())
	}
	return &out, nil
}

func getHealth(c *resty.Client) (map[string]interface{}, int, error) {
	var out map[string]interface{}
	resp, err := c.R().
		SetResult(&out).
		SetError(&out).
		Get("/api/health")
	if err != nil {
		return nil, 0, err
	}
	return out, resp.StatusCode(), nil
}
