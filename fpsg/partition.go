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
	"sort"

	"github.com/gorse-io/fpsg/base"
)

// GridPartition holds the result of partitioning a Problem into a B×B
// grid of blocks: Ptrs[b] .. Ptrs[b+1] delimits block b's triples within
// Problem.Triples.
type GridPartition struct {
	B       int32
	SegP    int32 // ceil(m/B), row span of one block
	SegQ    int32 // ceil(n/B), column span of one block
	Ptrs    []int32
}

func ceilDiv(a, b int32) int32 {
	return (a + b - 1) / b
}

// BlockOf returns the block index a (u, v) pair belongs to.
func (g *GridPartition) BlockOf(u, v int32) int32 {
	return (u/g.SegP)*g.B + v/g.SegQ
}

// BlockCoords splits a block index back into its (p, q) grid coordinates.
func (g *GridPartition) BlockCoords(b int32) (p, q int32) {
	return b / g.B, b % g.B
}

// Partition reorders problem.Triples in place, grouping them by block, and
// returns the resulting GridPartition. Within each block, triples are
// sorted by u then v if m > n, otherwise by v then u, for cache locality
// in SGDKernel's inner loop.
func Partition(problem *Problem, bins int32) (*GridPartition, error) {
	if bins < 1 {
		return nil, base.WrapMessage(base.InvalidInput, "nr_bins must be at least 1")
	}
	g := &GridPartition{
		B:    bins,
		SegP: ceilDiv(problem.M, bins),
		SegQ: ceilDiv(problem.N, bins),
	}

	nBlocks := int(bins * bins)
	counts := make([]int32, nBlocks)
	for _, t := range problem.Triples {
		counts[g.BlockOf(t.U, t.V)]++
	}
	ptrs := make([]int32, nBlocks+1)
	for b := 0; b < nBlocks; b++ {
		ptrs[b+1] = ptrs[b] + counts[b]
	}

	// Cyclic in-place bucket sort: for each block in turn, place every
	// triple that belongs there by swapping from wherever it currently
	// sits. Each swap seats at least one triple correctly, so the whole
	// pass performs at most nnz swaps and needs no extra allocation.
	cursor := make([]int32, nBlocks)
	copy(cursor, ptrs[:nBlocks])
	for b := 0; b < nBlocks; b++ {
		for cursor[b] < ptrs[b+1] {
			cur := cursor[b]
			t := problem.Triples[cur]
			tb := g.BlockOf(t.U, t.V)
			if int(tb) == b {
				cursor[b]++
				continue
			}
			problem.swap(int(cur), int(cursor[tb]))
			cursor[tb]++
		}
	}
	g.Ptrs = ptrs

	byUFirst := problem.M > problem.N
	for b := 0; b < nBlocks; b++ {
		sortBlock(problem, ptrs[b], ptrs[b+1], byUFirst)
	}
	return g, nil
}

// sortBlock orders problem.Triples[lo:hi] by u then v (or v then u),
// keeping orig in sync so Restore still undoes the reordering.
func sortBlock(p *Problem, lo, hi int32, byUFirst bool) {
	n := int(hi - lo)
	if n <= 1 {
		return
	}
	slice := p.Triples[lo:hi]
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		a, b := slice[idx[i]], slice[idx[j]]
		if byUFirst {
			if a.U != b.U {
				return a.U < b.U
			}
			return a.V < b.V
		}
		if a.V != b.V {
			return a.V < b.V
		}
		return a.U < b.U
	})
	newTriples := make([]Triple, n)
	newOrig := make([]int32, n)
	for i, j := range idx {
		newTriples[i] = slice[j]
		newOrig[i] = p.orig[int(lo)+j]
	}
	copy(p.Triples[lo:hi], newTriples)
	copy(p.orig[lo:hi], newOrig)
}
