/*
 * Copyright (C) 2025 rpmtrace contributors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package preprocess

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

// ProcessAll runs ProcessCall over every call concurrently, bounded by
// parallelism (<=0 means unbounded), and returns every ResultItem
// produced. Per-call drops and per-source failures are reported through
// logf rather than aborting the run: the manifest's value is per-row
// (§7 policy 5).
func ProcessAll(ctx context.Context, stagingRoot string, calls []tracetypes.CompilerCall, parallelism int64, logf func(format string, args ...interface{})) ([]tracetypes.ResultItem, error) {
	var sem *semaphore.Weighted
	if parallelism > 0 {
		sem = semaphore.NewWeighted(parallelism)
	}

	var mu sync.Mutex
	var items []tracetypes.ResultItem

	g, gctx := errgroup.WithContext(ctx)
	for _, call := range calls {
		call := call
		g.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
			}

			res := ProcessCall(gctx, stagingRoot, call, logf)
			if res.DropReason != "" {
				logf("[%d] dropped: %s", call.PID, res.DropReason)
				return nil
			}
			for src, err := range res.SourceErrors {
				logf("[%d] %s: %v", call.PID, src, err)
			}

			mu.Lock()
			items = append(items, res.Items...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
