// Copyright 2022 gorse Project Authors
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

package floats

import (
	"strings"

	"golang.org/x/sys/cpu"
)

// Feature records which vector instruction sets the running CPU offers.
// golang.org/x/sys/cpu exposes cpu.X86 and cpu.ARM64 on every platform,
// zero-valued on architectures they don't describe, so detection needs
// no build tags of its own.
type Feature uint64

const (
	AVX Feature = 1 << iota
	FMA
	AVX512F
	NEON
)

var feature Feature

func init() {
	if cpu.X86.HasAVX {
		feature |= AVX
	}
	if cpu.X86.HasFMA {
		feature |= FMA
	}
	if cpu.X86.HasAVX512F {
		feature |= AVX512F
	}
	if cpu.ARM64.HasASIMD {
		feature |= NEON
	}
}

// Detected returns the vector features detected on the running CPU.
func Detected() Feature {
	return feature
}

func (f Feature) String() string {
	var names []string
	if f&AVX512F == AVX512F {
		names = append(names, "AVX512F")
	}
	if f&AVX == AVX {
		names = append(names, "AVX")
	}
	if f&FMA == FMA {
		names = append(names, "FMA")
	}
	if f&NEON == NEON {
		names = append(names, "NEON")
	}
	if len(names) == 0 {
		return "scalar"
	}
	return strings.Join(names, "+")
}

// LaneCount reports the width, in float32 lanes, that fpsg.NewModel pads
// factor-matrix rows to (k_aligned) and uses as the slow-lane width, so a
// vectorized kernel could run without a remainder loop. It is used for
// sizing only: every factor-matrix row is walked by a portable scalar loop.
func (f Feature) LaneCount() int {
	switch {
	case f&AVX512F == AVX512F:
		return 16
	case f&AVX == AVX:
		return 8
	case f&NEON == NEON:
		return 4
	default:
		return 1
	}
}
