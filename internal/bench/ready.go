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
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const healthPath = "/api/health"

// WaitReady 轮询 GET /api/health 直到返回 200 或超时；timeout<=0 时不等待
func WaitReady(ctx context.Context, client *resty.Client, target string, timeout, interval time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := strings.TrimRight(target, "/") + healthPath
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var last string
	for {
		resp, err := client.R().SetContext(ctx).Get(url)
		switch {
		case err != nil:
			last = err.Error()
		case resp.StatusCode() == 200:
			return nil
		default:
			last = resp.Status()
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("target %s not ready after %s: %s", target, timeout, last)
		case <-ticker.C:
		}
	}
}
