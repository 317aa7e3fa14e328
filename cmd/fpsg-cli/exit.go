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

package main

import "github.com/gorse-io/fpsg/base"

// exitCode maps an error's base.Kind to the process exit code: 0 success,
// 1 I/O error, 2 malformed input, 3 allocation failure.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch base.KindOf(err) {
	case base.InvalidInput, base.CorruptModel, base.ConfigError:
		return 2
	case base.AllocationFailure:
		return 3
	case base.Internal:
		return 1
	default:
		return 1
	}
}
