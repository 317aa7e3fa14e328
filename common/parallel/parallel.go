// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parallel

import (
	"context"
	"sync"

	"github.com/gorse-io/fpsg/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const chanSize = 1024

func recoverPanic() {
	if r := recover(); r != nil {
		log.Logger().Error("panic in worker goroutine", zap.Any("recover", r), zap.Stack("stack"))
		panic(r)
	}
}

/* Parallel Schedulers */

// Parallel schedules and runs tasks in parallel. nJobs is the number of tasks, nWorkers
// is the number of executors. worker is run once per job with its worker slot and job
// index. ctx allows callers to cancel outstanding work.
func Parallel(ctx context.Context, nJobs, nWorkers int, worker func(workerId, jobId int) error) error {
	if nWorkers <= 1 {
		for i := 0; i < nJobs; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			if err := worker(0, i); err != nil {
				return errors.Trace(err)
			}
		}
	} else {
		c := make(chan int, chanSize)
		// producer
		go func() {
			defer close(c)
			for i := 0; i < nJobs; i++ {
				select {
				case <-ctx.Done():
					return
				case c <- i:
				}
			}
		}()
		// consumer
		var wg sync.WaitGroup
		errs := make([]error, nJobs)
		for j := 0; j < nWorkers; j++ {
			// start workers
			workerId := j
			wg.Go(func() {
				defer recoverPanic()
				for {
					select {
					case <-ctx.Done():
						return
					case jobId, ok := <-c:
						if !ok {
							return
						}
						if err := ctx.Err(); err != nil {
							errs[jobId] = err
							return
						}
						// run job
						if err := worker(workerId, jobId); err != nil {
							errs[jobId] = err
							return
						}
					}
				}
			})
		}
		wg.Wait()
		// check errors
		for _, err := range errs {
			if err != nil {
				return errors.Trace(err)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// For runs worker once per job index in [0, nJobs), same cancellation semantics as Parallel.
func For(ctx context.Context, nJobs, nWorkers int, worker func(jobId int)) error {
	return Parallel(ctx, nJobs, nWorkers, func(_, jobId int) error {
		worker(jobId)
		return ctx.Err()
	})
}

// ForEach runs worker once per element of a, passing its index and value.
func ForEach[T any](ctx context.Context, a []T, nWorkers int, worker func(i int, v T)) error {
	return Parallel(ctx, len(a), nWorkers, func(_, jobId int) error {
		worker(jobId, a[jobId])
		return ctx.Err()
	})
}

// Split a slice into n slices and keep the order of elements.
func Split[T any](a []T, n int) [][]T {
	if len(a) == 0 {
		return nil
	}
	if n > len(a) {
		n = len(a)
	}
	minChunkSize := len(a) / n
	maxChunkNum := len(a) % n
	chunks := make([][]T, n)
	for i, j := 0, 0; i < n; i++ {
		chunkSize := minChunkSize
		if i < maxChunkNum {
			chunkSize++
		}
		chunks[i] = a[j : j+chunkSize]
		j += chunkSize
	}
	return chunks
}

type Context struct {
	sem         chan struct{}
	detachedSem chan struct{}
	detached    bool
}

func (ctx *Context) Detach() {
	if ctx == nil || ctx.detached {
		return
	}
	ctx.detachedSem <- struct{}{}
	ctx.detached = true
	<-ctx.sem
}

func (ctx *Context) Attach() {
	if ctx == nil || !ctx.detached {
		return
	}
	ctx.detached = false
	<-ctx.detachedSem
	ctx.sem <- struct{}{}
}

// Detachable runs nJobs jobs over nWorkers slots, where a worker may call
// Context.Detach to free its slot for another job (e.g. while waiting on
// I/O) and Context.Attach to reclaim one before returning. At most
// nMaxDetached jobs may be detached at once.
func Detachable(ctx context.Context, nJobs, nWorkers, nMaxDetached int, worker func(*Context, int)) error {
	sem := make(chan struct{}, nWorkers)
	detachedSem := make(chan struct{}, nMaxDetached)
	var wg sync.WaitGroup
	for i := 0; i < nJobs; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		jobId := i
		wg.Go(func() {
			defer recoverPanic()
			if ctx.Err() != nil {
				<-sem
				return
			}
			c := &Context{sem: sem, detachedSem: detachedSem}
			worker(c, jobId)
			if c.detached {
				<-c.detachedSem
			} else {
				<-sem
			}
		})
	}
	wg.Wait()
	return ctx.Err()
}
