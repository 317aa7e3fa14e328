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

package base

import (
	"math/rand"
	"sync"
)

// RandomGenerator wraps math/rand.Rand with the vector/matrix helpers the
// solver needs for factor initialization. It is not safe for concurrent
// use; callers that need a random source shared across goroutines should
// use NewRand instead.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator seeded deterministically.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// UniformVector makes a vector filled with uniform random floats in [low, high).
func (rng RandomGenerator) UniformVector(size int, low, high float32) []float32 {
	ret := make([]float32, size)
	scale := high - low
	for i := range ret {
		ret[i] = rng.Float32()*scale + low
	}
	return ret
}

// UniformMatrix makes a matrix filled with uniform random floats in [low, high).
func (rng RandomGenerator) UniformMatrix(row, col int, low, high float32) [][]float32 {
	ret := make([][]float32, row)
	for i := range ret {
		ret[i] = rng.UniformVector(col, low, high)
	}
	return ret
}

// Permutation returns a uniformly random permutation of [0, n) and, as a
// second return value, its inverse: inverse[permutation[i]] == i.
func (rng RandomGenerator) Permutation(n int) (permutation, inverse []int32) {
	permutation = make([]int32, n)
	for i := range permutation {
		permutation[i] = int32(i)
	}
	rng.Shuffle(n, func(i, j int) {
		permutation[i], permutation[j] = permutation[j], permutation[i]
	})
	inverse = make([]int32, n)
	for i, v := range permutation {
		inverse[v] = int32(i)
	}
	return
}

// lockedSource lets a random source be shared across goroutines. It mirrors
// math/rand.lockedSource, which the standard library does not export.
type lockedSource struct {
	mut sync.Mutex
	src rand.Source
}

// NewRand returns a *rand.Rand that is safe for concurrent use by multiple
// goroutines. Trainer.Fit draws the scheduler's jitter seed from one.
func NewRand(seed int64) *rand.Rand {
	return rand.New(&lockedSource{src: rand.NewSource(seed)})
}

func (r *lockedSource) Int63() (n int64) {
	r.mut.Lock()
	n = r.src.Int63()
	r.mut.Unlock()
	return
}

func (r *lockedSource) Seed(seed int64) {
	r.mut.Lock()
	r.src.Seed(seed)
	r.mut.Unlock()
}
