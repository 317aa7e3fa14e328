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

// AlignedBuffer is a flat, row-major float32 store where every row starts
// on a Stride-aligned boundary and is padded with zeros past the caller's
// real column count. Go gives no control over the byte address a slice's
// backing array starts at, so "aligned" here means logically aligned to a
// lane count rather than physically aligned in memory; it still lets a
// future vectorized kernel walk whole lanes without a remainder loop.
type AlignedBuffer struct {
	Data   []float32
	Rows   int
	Stride int
}

// alignUp rounds n up to the next multiple of lane (lane must be >= 1).
func alignUp(n, lane int) int {
	if lane <= 0 {
		lane = 1
	}
	return (n + lane - 1) / lane * lane
}

// NewAlignedBuffer allocates a zeroed buffer with rows rows, each wide
// enough to hold stride columns.
func NewAlignedBuffer(rows, stride int) *AlignedBuffer {
	return &AlignedBuffer{
		Data:   make([]float32, rows*stride),
		Rows:   rows,
		Stride: stride,
	}
}

// Row returns row i as a slice sharing the buffer's backing array.
func (b *AlignedBuffer) Row(i int) []float32 {
	return b.Data[i*b.Stride : i*b.Stride+b.Stride]
}

// ShrinkWidth returns a new buffer holding only the first width columns of
// each row, used by Model.Shrink to drop the trailing zero padding used
// during training once k_aligned is no longer needed.
func (b *AlignedBuffer) ShrinkWidth(width int) *AlignedBuffer {
	out := NewAlignedBuffer(b.Rows, width)
	for i := 0; i < b.Rows; i++ {
		copy(out.Row(i), b.Row(i)[:width])
	}
	return out
}

// GatherRows returns a new buffer whose row i is this buffer's row
// order[i], used to undo the per-training-run row permutation of P and Q.
func (b *AlignedBuffer) GatherRows(order []int32) *AlignedBuffer {
	out := NewAlignedBuffer(len(order), b.Stride)
	for i, src := range order {
		copy(out.Row(i), b.Row(int(src)))
	}
	return out
}
