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
	"math/rand"
	"sync"

	"github.com/gorse-io/fpsg/base/heap"
)

// Scheduler hands out block jobs to SGDKernel workers while preserving the
// non-conflict invariant: at every instant the in-flight blocks are
// pairwise row-disjoint and column-disjoint. It is the only mutable state
// in this package protected by a lock; P, Q, PG and QG rely entirely on
// the invariant Scheduler enforces, not on atomics.
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond

	b         int32
	nBlocks   int32
	busyP     []bool
	busyQ     []bool
	counts    []int32
	losses    []float64
	cvBlocks  map[int32]bool
	pq        *heap.PriorityQueue
	setAside  []int32

	nrThreads     int32
	target        int32
	doneJobs      int32
	pausedThreads int32
	terminated    bool

	jitter *rand.Rand
}

// NewScheduler builds a scheduler over a B×B grid, excluding cvBlocks from
// the schedulable set (they are "never pushed into the queue", per the
// non-conflict spec). jitterSeed drives the priority tie-breaking jitter.
func NewScheduler(b, nrThreads int32, cvBlocks map[int32]bool, jitterSeed int64) *Scheduler {
	nBlocks := b * b
	s := &Scheduler{
		b:         b,
		nBlocks:   nBlocks,
		busyP:     make([]bool, b),
		busyQ:     make([]bool, b),
		counts:    make([]int32, nBlocks),
		losses:    make([]float64, nBlocks),
		cvBlocks:  cvBlocks,
		pq:        heap.NewPriorityQueue(false),
		nrThreads: nrThreads,
		// target starts at a full grid's worth of completions, so the
		// very first WaitForJobsDone call (with no prior Resume) still
		// waits for one whole epoch, matching the reference scheduler.
		target: nBlocks,
		jitter: rand.New(rand.NewSource(jitterSeed)),
	}
	s.cond = sync.NewCond(&s.mu)
	for block := int32(0); block < nBlocks; block++ {
		if cvBlocks[block] {
			continue
		}
		s.pq.Push(block, s.priority(block))
	}
	return s
}

// SchedulableBlocks returns the count of non-CV blocks. An epoch is
// always B² block completions (see Resume), so with CV blocks held out
// the schedulable blocks are run more than once per epoch.
func (s *Scheduler) SchedulableBlocks() int32 {
	return s.nBlocks - int32(len(s.cvBlocks))
}

func (s *Scheduler) priority(block int32) float32 {
	return float32(s.counts[block]) + s.jitter.Float32()*1e-3
}

// GetJob pops the least-visited feasible block, marking its row and
// column busy, and returns its index. Blocks whose row or column is
// currently busy are set aside and reinserted once a feasible block is
// found. It blocks until a feasible block exists, the caller doesn't
// need to poll.
func (s *Scheduler) GetJob() (block int32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.terminated {
			return 0, false
		}
		for s.pq.Len() > 0 {
			v, _ := s.pq.Pop()
			p, q := v/s.b, v%s.b
			if s.busyP[p] || s.busyQ[q] {
				s.setAside = append(s.setAside, v)
				continue
			}
			for _, sa := range s.setAside {
				s.pq.Push(sa, s.priority(sa))
			}
			s.setAside = s.setAside[:0]
			s.busyP[p] = true
			s.busyQ[q] = true
			s.counts[v]++
			return v, true
		}
		for _, sa := range s.setAside {
			s.pq.Push(sa, s.priority(sa))
		}
		s.setAside = s.setAside[:0]
		s.cond.Wait()
	}
}

// PutJob records a completed block's loss, frees its row/column, and
// reinserts it with a fresh priority. The calling worker then waits for
// the next epoch to be authorized by Resume (or for Terminate), matching
// mf.cpp's pause-after-every-block design that keeps all workers quiesced
// between epochs.
func (s *Scheduler) PutJob(block int32, loss float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, q := block/s.b, block%s.b
	s.busyP[p] = false
	s.busyQ[q] = false
	s.losses[block] = loss
	s.doneJobs++
	if !s.cvBlocks[block] {
		s.pq.Push(block, s.priority(block))
	}
	s.cond.Broadcast()

	s.pausedThreads++
	s.cond.Broadcast()
	for s.doneJobs >= s.target && !s.terminated {
		s.cond.Wait()
	}
	s.pausedThreads--
}

// WaitForJobsDone blocks until every worker has completed its current
// block and is paused waiting for the next epoch.
func (s *Scheduler) WaitForJobsDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !(s.doneJobs >= s.target && s.pausedThreads == s.nrThreads) {
		s.cond.Wait()
	}
}

// Resume authorizes one more epoch's worth of block completions and wakes
// every worker paused in PutJob.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target += s.nBlocks
	s.cond.Broadcast()
}

// Terminate signals every worker to exit after its current block.
func (s *Scheduler) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminated = true
	s.cond.Broadcast()
}

// Loss returns the accumulated loss recorded for block by the most recent
// PutJob call.
func (s *Scheduler) Loss(block int32) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.losses[block]
}
