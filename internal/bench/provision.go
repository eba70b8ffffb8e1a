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

package bench

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const boardsPath = "/api/boards"

// Provisioner 准备压测画板：显式给定则直接使用，否则在目标服务上申请
type Provisioner struct {
	client *resty.Client
	target string
	token  string
}

// NewProvisioner 创建 Provisioner
func NewProvisioner(client *resty.Client, target, token string) *Provisioner {
	return &Provisioner{client: client, target: strings.TrimRight(target, "/"), token: token}
}

// Boards explicit 非空时原样返回；否则通过 POST /api/boards 申请 count 个画板（至少 1 个）。
// 目标服务没有该接口（404/405）时退化为本地生成 bench-<uuid>。
func (p *Provisioner) Boards(ctx context.Context, explicit []string, count int) ([]string, error) {
	var ids []string
	for _, b := range explicit {
		if b = strings.TrimSpace(b); b != "" {
			ids = append(ids, b)
		}
	}
	if len(ids) > 0 {
		return ids, nil
	}
	if count <= 0 {
		count = 1
	}
	for i := 0; i < count; i++ {
		id, err := p.create(ctx)
		if err != nil {
			return nil, fmt.Errorf("provision board %d/%d: %w", i+1, count, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *Provisioner) create(ctx context.Context) (string, error) {
	var body struct {
		BoardID string `json:"boardId"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.token).
		SetResult(&body).
		Post(p.target + boardsPath)
	if err != nil {
		return "", err
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusMethodNotAllowed:
		return LocalBoardID(), nil
	case !resp.IsSuccess():
		return "", fmt.Errorf("unexpected status %s", resp.Status())
	case body.BoardID == "":
		return "", fmt.Errorf("response has no boardId")
	}
	return body.BoardID, nil
}

// LocalBoardID 本地生成的压测画板 id
func LocalBoardID() string {
	return "bench-" + uuid.NewString()
}
