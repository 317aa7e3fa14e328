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
	"testing"

	"github.com/gorse-io/fpsg/base"
	"github.com/stretchr/testify/assert"
)

func TestNewModel_PaddingIsZero(t *testing.T) {
	rng := base.NewRandomGenerator(1)
	m, err := NewModel(5, 5, 3, 4, rng)
	assert.NoError(t, err)
	assert.Equal(t, 4, m.KAligned) // alignUp(3,4)
	assert.Equal(t, 4, m.LaneA)
	for u := 0; u < 5; u++ {
		row := m.P.Row(u)
		assert.Equal(t, float32(0), row[3])
	}
}

func TestNewModel_KEqualsOne_SlowLaneIsFullRow(t *testing.T) {
	rng := base.NewRandomGenerator(1)
	m, err := NewModel(2, 2, 1, 4, rng)
	assert.NoError(t, err)
	assert.Equal(t, m.KAligned, m.LaneA)
}

func TestModel_ShrinkDropsPadding(t *testing.T) {
	rng := base.NewRandomGenerator(1)
	m, err := NewModel(3, 3, 3, 4, rng)
	assert.NoError(t, err)
	m.Shrink()
	assert.Equal(t, 3, m.P.Stride)
	assert.Equal(t, 3, m.Q.Stride)
}

func TestModel_PredictOutOfRangeIsZero(t *testing.T) {
	rng := base.NewRandomGenerator(1)
	m, err := NewModel(2, 2, 2, 4, rng)
	assert.NoError(t, err)
	m.Shrink()
	assert.Equal(t, float32(0), m.Predict(-1, 0))
	assert.Equal(t, float32(0), m.Predict(0, 2))
}

func TestModel_UnpermuteGathersRows(t *testing.T) {
	buf := NewAlignedBuffer(3, 2)
	copy(buf.Row(0), []float32{1, 1})
	copy(buf.Row(1), []float32{2, 2})
	copy(buf.Row(2), []float32{3, 3})

	m := &Model{M: 3, N: 3, KReal: 2, KAligned: 2, P: buf, Q: buf.ShrinkWidth(2)}
	pMap := []int32{2, 0, 1} // final row 0 should take trained row 2, etc.
	m.Unpermute(pMap, pMap)
	assert.Equal(t, []float32{3, 3}, m.P.Row(0))
	assert.Equal(t, []float32{1, 1}, m.P.Row(1))
	assert.Equal(t, []float32{2, 2}, m.P.Row(2))
}
