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

// Package modelio implements the text-based external interfaces a
// training run consumes and produces: the triples sink, the model file
// format, factor-matrix exports, and the prediction sink.
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

// ReadTriples parses one (u, v, r) triple per line, whitespace-separated,
// 0-based indices. It returns an InvalidInput error on any unparsable
// line, and on nnz == 0.
func ReadTriples(r io.Reader) (*fpsg.Problem, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	var triples []fpsg.Triple
	var maxU, maxV int32
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, base.WrapMessage(base.InvalidInput, fmt.Sprintf("line %d: expected 3 fields, got %d", lineNo, len(fields)))
		}
		u, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil || u < 0 {
			return nil, base.Wrap(base.InvalidInput, fmt.Errorf("line %d: bad user index: %w", lineNo, err))
		}
		v, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil || v < 0 {
			return nil, base.Wrap(base.InvalidInput, fmt.Errorf("line %d: bad item index: %w", lineNo, err))
		}
		rating, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			return nil, base.Wrap(base.InvalidInput, fmt.Errorf("line %d: bad rating: %w", lineNo, err))
		}
		if int32(u) >= maxU {
			maxU = int32(u) + 1
		}
		if int32(v) >= maxV {
			maxV = int32(v) + 1
		}
		triples = append(triples, fpsg.Triple{U: int32(u), V: int32(v), R: float32(rating)})
	}
	if err := scanner.Err(); err != nil {
		return nil, base.Wrap(base.InvalidInput, err)
	}
	if len(triples) == 0 {
		return nil, base.WrapMessage(base.InvalidInput, "no triples read")
	}
	return fpsg.NewProblem(maxU, maxV, triples)
}

// WriteTriples writes one whitespace-separated "u v r" line per triple,
// in the order given.
func WriteTriples(w io.Writer, triples []fpsg.Triple) error {
	bw := bufio.NewWriter(w)
	for _, t := range triples {
		if _, err := fmt.Fprintf(bw, "%d %d %s\n", t.U, t.V, formatFloat(t.R)); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(bw.Flush())
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', 9, 32)
}
