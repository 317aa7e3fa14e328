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

import "github.com/chewxy/math32"

// KernelParams bundles the per-step constants SGDKernel needs; Trainer
// builds one from TrainConfig and passes it to every worker.
type KernelParams struct {
	Eta        float32
	Lambda     float32
	Alpha      float32
	DoNMF      bool
	DoImplicit bool
}

// runKernel is one worker's loop: repeatedly take a block from sched,
// run one SGD step per triple in it, and report the block's loss.
// slowOnly is read without synchronization every iteration, matching
// the non-conflict model's rule that only P/Q/PG/QG writes need the
// scheduler's protection; slowOnly is a plain bool written once by
// Trainer between epochs, after WaitForJobsDone has quiesced every
// worker, so there is no concurrent write while a worker reads it.
func runKernel(sched *Scheduler, gp *GridPartition, problem *Problem, model *Model, params KernelParams, slowOnly *bool) {
	for {
		block, ok := sched.GetJob()
		if !ok {
			return
		}
		lo, hi := gp.Ptrs[block], gp.Ptrs[block+1]
		var loss float64
		for i := lo; i < hi; i++ {
			t := problem.Triples[i]
			loss += sgdStep(model, t, params, *slowOnly)
		}
		sched.PutJob(block, loss)
	}
}

// sgdStep performs one two-lane AdaGrad update for triple t and returns
// its contribution to the block loss.
func sgdStep(m *Model, t Triple, params KernelParams, slowOnly bool) float64 {
	p := m.P.Row(int(t.U))
	q := m.Q.Row(int(t.V))
	pg := m.PG[t.U*2 : t.U*2+2]
	qg := m.QG[t.V*2 : t.V*2+2]

	pred := dot(p, q)

	var e, w float32
	if params.DoImplicit {
		pref := float32(0)
		if t.R > 0 {
			pref = 1
		}
		w = 1 + params.Alpha*t.R
		if w < 0 {
			w = 0
		}
		e = pref - pred
	} else {
		w = 1
		e = t.R - pred
	}
	eWeighted := w * e

	applyLane(p, q, pg, qg, 0, m.LaneA, eWeighted, params)
	if !slowOnly {
		applyLane(p, q, pg, qg, m.LaneA, m.KAligned, eWeighted, params)
	}

	return float64(w) * float64(e) * float64(e)
}

// applyLane runs the gradient step over dimensions [lo, hi) of p and q,
// using accumulator index 0 for the slow lane or 1 for the fast lane
// (lo == 0 selects the slow lane by construction).
func applyLane(p, q, pg, qg []float32, lo, hi int, e float32, params KernelParams) {
	width := hi - lo
	if width <= 0 {
		return
	}
	laneIdx := 0
	if lo != 0 {
		laneIdx = 1
	}
	etaP := params.Eta * rsqrt(pg[laneIdx])
	etaQ := params.Eta * rsqrt(qg[laneIdx])

	var sumGP2, sumGQ2 float32
	for d := lo; d < hi; d++ {
		gp := -e*q[d] + params.Lambda*p[d]
		gq := -e*p[d] + params.Lambda*q[d]
		sumGP2 += gp * gp
		sumGQ2 += gq * gq
		p[d] -= etaP * gp
		q[d] -= etaQ * gq
		if params.DoNMF {
			if p[d] < 0 {
				p[d] = 0
			}
			if q[d] < 0 {
				q[d] = 0
			}
		}
	}
	pg[laneIdx] += sumGP2 / float32(width)
	qg[laneIdx] += sumGQ2 / float32(width)
}

// rsqrt returns 1/sqrt(x); accuracy only needs to be good enough to scale
// a learning rate, so the plain math32 implementation is sufficient.
func rsqrt(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return 1 / math32.Sqrt(x)
}
