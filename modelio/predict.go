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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gorse-io/fpsg/base"
	"github.com/gorse-io/fpsg/fpsg"
	"github.com/juju/errors"
)

// PredictStream reads (u, v) or (u, v, r) query lines from queries and
// writes one predicted rating per line to w, in input order. A trailing
// rating column, if present, is ignored; it exists so a test set doubles
// as a query file.
func PredictStream(w io.Writer, pred *fpsg.Predictor, queries io.Reader) error {
	scanner := bufio.NewScanner(queries)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	bw := bufio.NewWriter(w)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return base.WrapMessage(base.InvalidInput, fmt.Sprintf("line %d: expected at least 2 fields, got %d", lineNo, len(fields)))
		}
		u, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return base.Wrap(base.InvalidInput, fmt.Errorf("line %d: bad user index: %w", lineNo, err))
		}
		v, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return base.Wrap(base.InvalidInput, fmt.Errorf("line %d: bad item index: %w", lineNo, err))
		}
		r := pred.Predict(int32(u), int32(v))
		if _, err := fmt.Fprintln(bw, formatFloat(r)); err != nil {
			return errors.Trace(err)
		}
	}
	if err := scanner.Err(); err != nil {
		return base.Wrap(base.InvalidInput, err)
	}
	return errors.Trace(bw.Flush())
}
