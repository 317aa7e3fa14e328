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

package modelio

import (
	"bufio"
	"io"
	"strings"

	"github.com/gorse-io/fpsg/fpsg"
	"github.com/juju/errors"
)

// WriteFactorMatrix writes buf's rows, one per line, columns
// whitespace-separated, meant for the optional P/Q export sinks. A nil
// writer or a nil buffer is a no-op.
func WriteFactorMatrix(w io.Writer, buf *fpsg.AlignedBuffer) error {
	if w == nil || buf == nil {
		return nil
	}
	bw := bufio.NewWriter(w)
	for i := 0; i < buf.Rows; i++ {
		row := buf.Row(i)
		var sb strings.Builder
		for j, x := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(formatFloat(x))
		}
		sb.WriteByte('\n')
		if _, err := bw.WriteString(sb.String()); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(bw.Flush())
}
