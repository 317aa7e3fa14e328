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

	"github.com/stretchr/testify/assert"
)

func TestAlignUp(t *testing.T) {
	assert.Equal(t, 8, alignUp(5, 8))
	assert.Equal(t, 8, alignUp(8, 8))
	assert.Equal(t, 1, alignUp(1, 0)) // lane <= 0 treated as 1
}

func TestAlignedBuffer_RowSharesBackingArray(t *testing.T) {
	b := NewAlignedBuffer(2, 4)
	row := b.Row(1)
	row[0] = 9
	assert.Equal(t, float32(9), b.Data[4])
}

func TestAlignedBuffer_ShrinkWidth(t *testing.T) {
	b := NewAlignedBuffer(2, 4)
	copy(b.Row(0), []float32{1, 2, 3, 0})
	copy(b.Row(1), []float32{4, 5, 6, 0})
	s := b.ShrinkWidth(3)
	assert.Equal(t, []float32{1, 2, 3}, s.Row(0))
	assert.Equal(t, []float32{4, 5, 6}, s.Row(1))
}

func TestAlignedBuffer_GatherRows(t *testing.T) {
	b := NewAlignedBuffer(3, 2)
	copy(b.Row(0), []float32{1, 1})
	copy(b.Row(1), []float32{2, 2})
	copy(b.Row(2), []float32{3, 3})
	g := b.GatherRows([]int32{2, 1, 0})
	assert.Equal(t, []float32{3, 3}, g.Row(0))
	assert.Equal(t, []float32{2, 2}, g.Row(1))
	assert.Equal(t, []float32{1, 1}, g.Row(2))
}
