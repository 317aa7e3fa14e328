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

// Triple is one observed (user, item, rating) sample.
type Triple struct {
	U int32
	V int32
	R float32
}

// Problem owns the triple array trained against, plus the row/column
// counts it was declared with. Triples are reordered in place by
// Partition; callers that need the original order back must hold their
// own copy (Trainer.Fit takes care of this when CopyData is false).
type Problem struct {
	M, N    int32
	Triples []Triple

	// orig records, for each current position in Triples, the position
	// it held when the Problem was constructed. Partition's swaps and
	// per-block sort update it in lockstep with Triples so Restore can
	// undo both.
	orig []int32
}

// NewProblem validates and wraps a triple slice. It does not copy data;
// callers that want to keep their own slice untouched should pass a copy,
// or rely on Trainer's CopyData option.
func NewProblem(m, n int32, triples []Triple) (*Problem, error) {
	if m <= 0 || n <= 0 {
		return nil, base.WrapMessage(base.InvalidInput, "m and n must be positive")
	}
	if len(triples) == 0 {
		return nil, base.WrapMessage(base.InvalidInput, "nnz must be positive")
	}
	for i, t := range triples {
		if t.U < 0 || t.U >= m || t.V < 0 || t.V >= n {
			return nil, base.WrapMessage(base.InvalidInput, "triple out of range")
		}
		_ = i
	}
	orig := make([]int32, len(triples))
	for i := range orig {
		orig[i] = int32(i)
	}
	return &Problem{M: m, N: n, Triples: triples, orig: orig}, nil
}

// NNZ returns the number of observed triples.
func (p *Problem) NNZ() int {
	return len(p.Triples)
}

// Clone makes a deep copy, used when the caller asks the Trainer to own
// (copy) rather than borrow its input.
func (p *Problem) Clone() *Problem {
	triples := make([]Triple, len(p.Triples))
	copy(triples, p.Triples)
	orig := make([]int32, len(p.orig))
	copy(orig, p.orig)
	return &Problem{M: p.M, N: p.N, Triples: triples, orig: orig}
}

// StdDev returns the population standard deviation of the ratings, used
// by Trainer to normalize the rating scale before training.
func (p *Problem) StdDev() float64 {
	if len(p.Triples) == 0 {
		return 1
	}
	var sum, sumSq float64
	for _, t := range p.Triples {
		r := float64(t.R)
		sum += r
		sumSq += r * r
	}
	n := float64(len(p.Triples))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	sigma := math.Sqrt(variance)
	if sigma == 0 {
		return 1
	}
	return sigma
}

// ScaleRatings multiplies every rating by c in place.
func (p *Problem) ScaleRatings(c float32) {
	for i := range p.Triples {
		p.Triples[i].R *= c
	}
}

// PermuteIndices applies pMap/qMap to every triple's U/V fields in place.
func (p *Problem) PermuteIndices(pMap, qMap []int32) {
	for i := range p.Triples {
		p.Triples[i].U = pMap[p.Triples[i].U]
		p.Triples[i].V = qMap[p.Triples[i].V]
	}
}

// swap exchanges two triples, keeping orig in lockstep so Restore can
// later undo any sequence of swaps performed by Partition.
func (p *Problem) swap(i, j int) {
	p.Triples[i], p.Triples[j] = p.Triples[j], p.Triples[i]
	p.orig[i], p.orig[j] = p.orig[j], p.orig[i]
}

// Restore undoes every swap performed since construction (by Partition)
// and un-permutes U/V and R, returning the Problem to the triples and
// order it was constructed with. Used when the caller borrowed the
// Problem (CopyData == false) and expects its buffer back untouched.
func (p *Problem) Restore(pInv, qInv []int32, ratingScale float32) {
	restored := make([]Triple, len(p.Triples))
	for pos, o := range p.orig {
		t := p.Triples[pos]
		t.U = pInv[t.U]
		t.V = qInv[t.V]
		t.R *= ratingScale
		restored[o] = t
	}
	copy(p.Triples, restored)
	for i := range p.orig {
		p.orig[i] = int32(i)
	}
}
