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

package fpsg

import (
	"sync"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

// TestScheduler_NonConflictInvariant replays a small concurrent schedule
// and asserts that at every point in time the in-flight blocks are
// pairwise row- and column-disjoint, the correctness property the whole
// lock-free P/Q update scheme depends on.
func TestScheduler_NonConflictInvariant(t *testing.T) {
	const b = int32(4)
	sched := NewScheduler(b, 3, nil, 7)

	var mu sync.Mutex
	busyP := make([]int, b)
	busyQ := make([]int, b)

	worker := func(wg *sync.WaitGroup) {
		defer wg.Done()
		for {
			block, ok := sched.GetJob()
			if !ok {
				return
			}
			p, q := block/b, block%b

			mu.Lock()
			busyP[p]++
			busyQ[q]++
			assert.LessOrEqual(t, busyP[p], 1)
			assert.LessOrEqual(t, busyQ[q], 1)
			mu.Unlock()

			mu.Lock()
			busyP[p]--
			busyQ[q]--
			mu.Unlock()

			sched.PutJob(block, 1.0)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go worker(&wg)
	}

	sched.WaitForJobsDone()
	sched.Terminate()
	wg.Wait()
}

// TestScheduler_WorkerCoverage runs the same kind of concurrent schedule
// as TestScheduler_NonConflictInvariant, but records the worker IDs that
// claimed a job and the blocks in flight at any instant as mapset.Set
// values: the non-conflict check becomes a set-intersection test instead
// of a pair of per-row/column counters, and every worker ID that claimed
// a job is confirmed to be one of the worker slots started.
func TestScheduler_WorkerCoverage(t *testing.T) {
	const b = int32(4)
	const nWorkers = 3
	sched := NewScheduler(b, nWorkers, nil, 5)

	var mu sync.Mutex
	seenWorkers := mapset.NewSet[int]()
	inFlight := mapset.NewSet[int32]()

	worker := func(workerID int, wg *sync.WaitGroup) {
		defer wg.Done()
		for {
			block, ok := sched.GetJob()
			if !ok {
				return
			}

			mu.Lock()
			seenWorkers.Add(workerID)
			busyRows := mapset.NewSet[int32]()
			busyCols := mapset.NewSet[int32]()
			for other := range inFlight.Iter() {
				busyRows.Add(other / b)
				busyCols.Add(other % b)
			}
			assert.False(t, busyRows.Contains(block/b))
			assert.False(t, busyCols.Contains(block%b))
			inFlight.Add(block)
			mu.Unlock()

			mu.Lock()
			inFlight.Remove(block)
			mu.Unlock()

			sched.PutJob(block, 1.0)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < nWorkers; i++ {
		wg.Add(1)
		go worker(i, &wg)
	}

	sched.WaitForJobsDone()
	sched.Terminate()
	wg.Wait()

	assert.True(t, seenWorkers.IsSubset(mapset.NewSet(0, 1, 2)))
	assert.Equal(t, 0, inFlight.Cardinality())
}

func TestScheduler_CVBlocksNeverScheduled(t *testing.T) {
	cv := map[int32]bool{0: true, 1: true}
	sched := NewScheduler(2, 1, cv, 1)

	// PutJob pauses its worker once an epoch's B² = 4 completions are
	// done, so the jobs run on a worker goroutine while this goroutine
	// authorizes each following epoch.
	seen := map[int32]bool{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 12; i++ { // three epochs of 4 completions each
			block, ok := sched.GetJob()
			assert.True(t, ok)
			seen[block] = true
			sched.PutJob(block, 0)
		}
	}()

	sched.WaitForJobsDone()
	sched.Resume()
	sched.WaitForJobsDone()
	sched.Resume()
	sched.WaitForJobsDone()
	sched.Terminate()
	<-done
	assert.False(t, seen[0])
	assert.False(t, seen[1])
}

func TestScheduler_ResumeAllowsNextEpoch(t *testing.T) {
	sched := NewScheduler(2, 1, nil, 1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 8; i++ { // two epochs of 4 blocks each
			block, ok := sched.GetJob()
			if !ok {
				close(done)
				return
			}
			sched.PutJob(block, 0)
		}
		close(done)
	}()

	sched.WaitForJobsDone()
	sched.Resume()
	sched.WaitForJobsDone()
	sched.Terminate()
	<-done
}
