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

// Package fpsg implements a block-partitioned, lock-free-per-block parallel
// SGD solver for sparse matrix factorization. Triples (u, v, r) are grouped
// into a B×B grid of blocks; a Scheduler hands blocks to worker goroutines
// under a non-conflict invariant (no two in-flight blocks share a row-stripe
// or column-stripe), so the shared factor matrices P and Q can be updated
// without locks or atomics.
package fpsg
