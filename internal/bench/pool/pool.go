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

// Package pool 固定 worker 数的有界并发执行：共享原子游标，结果按下标写入预分配槽位
package pool

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Func 执行第 i 个任务并返回其结果；不应返回错误，失败由结果值自身表达
type Func[T any] func(ctx context.Context, i int) T

// Run 以 concurrency 个 worker 执行 n 个任务，每个下标恰好执行一次。
// delay>0 时每个 worker 在两次任务之间本地 sleep，不是全局限流。
// ctx 取消时尚未领取的任务不再执行，返回 ctx 错误，已完成的槽位保留。
func Run[T any](ctx context.Context, n, concurrency int, delay time.Duration, fn Func[T]) ([]T, error) {
	results := make([]T, n)
	if n == 0 {
		return results, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > n {
		concurrency = n
	}

	var cursor atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(cursor.Add(1) - 1)
				if i >= n {
					return nil
				}
				results[i] = fn(gctx, i)
				if delay > 0 && int(cursor.Load()) < n {
					if err := sleep(gctx, delay); err != nil {
						return err
					}
				}
			}
		})
	}
	return results, g.Wait()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
