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
	"math"

	"github.com/gorse-io/fpsg/base"
)

// Model owns the learned factor matrices and their adaptive learning-rate
// accumulators. KAligned is the padded column width SGDKernel operates on
// during training; KReal is the caller-visible width after Shrink.
type Model struct {
	M, N     int32
	KReal    int
	KAligned int
	LaneA    int

	P, Q *AlignedBuffer

	// PG and QG hold two accumulators per row: index 0 for the slow
	// lane (columns [0, LaneA)), index 1 for the fast lane
	// (columns [LaneA, KAligned)).
	PG, QG []float32
}

// NewModel allocates P, Q, PG and QG and initializes P/Q with entries
// uniform on [0, sqrt(1/kReal)), per Trainer setup step 6. lane is the
// SIMD lane count (see common/floats.Feature.LaneCount); the slow lane
// width A equals lane, widened to kAligned if kReal is smaller than a
// full lane.
func NewModel(m, n int32, kReal, lane int, rng base.RandomGenerator) (*Model, error) {
	if kReal <= 0 {
		return nil, base.WrapMessage(base.InvalidInput, "k must be positive")
	}
	if m <= 0 || n <= 0 {
		return nil, base.WrapMessage(base.InvalidInput, "m and n must be positive")
	}
	kAligned := alignUp(kReal, lane)
	laneA := lane
	if laneA > kAligned {
		laneA = kAligned
	}

	high := float32(math.Sqrt(1 / float64(kReal)))
	p := NewAlignedBuffer(int(m), kAligned)
	for i := 0; i < int(m); i++ {
		copy(p.Row(i)[:kReal], rng.UniformVector(kReal, 0, high))
	}
	q := NewAlignedBuffer(int(n), kAligned)
	for i := 0; i < int(n); i++ {
		copy(q.Row(i)[:kReal], rng.UniformVector(kReal, 0, high))
	}

	pg := make([]float32, int(m)*2)
	qg := make([]float32, int(n)*2)
	for i := range pg {
		pg[i] = 1
	}
	for i := range qg {
		qg[i] = 1
	}

	return &Model{
		M: m, N: n,
		KReal: kReal, KAligned: kAligned, LaneA: laneA,
		P: p, Q: q,
		PG: pg, QG: qg,
	}, nil
}

// Shrink drops the trailing zero padding of P and Q, leaving rows KReal
// columns wide. Called once at Trainer teardown.
func (m *Model) Shrink() {
	if m.P.Stride == m.KReal {
		return
	}
	m.P = m.P.ShrinkWidth(m.KReal)
	m.Q = m.Q.ShrinkWidth(m.KReal)
	m.KAligned = m.KReal
}

// ScaleFactors multiplies every entry of P and Q by c, used to undo the
// rating-scale normalization Trainer applies before training (c = sqrt(sigma)).
func (m *Model) ScaleFactors(c float32) {
	for i := range m.P.Data {
		m.P.Data[i] *= c
	}
	for i := range m.Q.Data {
		m.Q.Data[i] *= c
	}
}

// Unpermute replaces P and Q with the row ordering implied by pMap/qMap:
// the returned buffer's row u holds what is currently stored at row
// pMap[u] (respectively qMap[v]). Called once at Trainer teardown to
// restore original user/item indexing after training ran against a
// permuted Problem.
func (m *Model) Unpermute(pMap, qMap []int32) {
	m.P = m.P.GatherRows(pMap)
	m.Q = m.Q.GatherRows(qMap)
}

// Predict returns P[u]·Q[v] over the first KReal dimensions, or 0 if u or
// v is out of range.
func (m *Model) Predict(u, v int32) float32 {
	if u < 0 || u >= m.M || v < 0 || v >= m.N {
		return 0
	}
	p := m.P.Row(int(u))
	q := m.Q.Row(int(v))
	var sum float32
	for d := 0; d < m.KReal; d++ {
		sum += p[d] * q[d]
	}
	return sum
}

// dot computes the full KAligned-width dot product used during training;
// the trailing zero padding contributes nothing, so this equals the
// KReal-width dot product but runs over the padded width the kernel
// expects to walk in whole lanes.
func dot(p, q []float32) float32 {
	var sum float32
	for d := range p {
		sum += p[d] * q[d]
	}
	return sum
}
