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
	"testing"

	"github.com/stretchr/testify/assert"
)

func randomProblem(t *testing.T, m, n int32, nnz int, seed int64) *Problem {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	triples := make([]Triple, nnz)
	for i := range triples {
		triples[i] = Triple{U: int32(r.Intn(int(m))), V: int32(r.Intn(int(n))), R: r.Float32()*4 + 1}
	}
	p, err := NewProblem(m, n, triples)
	assert.NoError(t, err)
	return p
}

func TestPartition_EveryTripleInItsBlock(t *testing.T) {
	p := randomProblem(t, 37, 29, 500, 1)
	g, err := Partition(p, 5)
	assert.NoError(t, err)

	assert.Equal(t, int32(len(p.Triples)), g.Ptrs[len(g.Ptrs)-1])
	for b := int32(0); b < g.B*g.B; b++ {
		for i := g.Ptrs[b]; i < g.Ptrs[b+1]; i++ {
			tr := p.Triples[i]
			assert.Equal(t, b, g.BlockOf(tr.U, tr.V))
		}
	}
}

func TestPartition_SortedWithinBlock(t *testing.T) {
	p := randomProblem(t, 10, 40, 200, 2) // n > m: sorted by v then u
	g, err := Partition(p, 4)
	assert.NoError(t, err)

	for b := int32(0); b < g.B*g.B; b++ {
		for i := g.Ptrs[b] + 1; i < g.Ptrs[b+1]; i++ {
			prev, cur := p.Triples[i-1], p.Triples[i]
			if prev.V == cur.V {
				assert.LessOrEqual(t, prev.U, cur.U)
			} else {
				assert.Less(t, prev.V, cur.V)
			}
		}
	}
}

func TestPartition_RejectsZeroBins(t *testing.T) {
	p := randomProblem(t, 4, 4, 4, 3)
	_, err := Partition(p, 0)
	assert.Error(t, err)
}
