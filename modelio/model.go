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

// WriteModel serializes m in the text format:
//
//	m <m>
//	n <n>
//	k <k_real>
//	p0 <k floats>
//	...
//	q0 <k floats>
//	...
func WriteModel(w io.Writer, m *fpsg.Model) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "m %d\nn %d\nk %d\n", m.M, m.N, m.KReal); err != nil {
		return errors.Trace(err)
	}
	if err := writeRows(bw, "p", m.P, int(m.M), m.KReal); err != nil {
		return err
	}
	if err := writeRows(bw, "q", m.Q, int(m.N), m.KReal); err != nil {
		return err
	}
	return errors.Trace(bw.Flush())
}

func writeRows(w *bufio.Writer, prefix string, buf *fpsg.AlignedBuffer, rows, k int) error {
	for i := 0; i < rows; i++ {
		row := buf.Row(i)
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s%d", prefix, i)
		for _, x := range row[:min(len(row), k)] {
			sb.WriteByte(' ')
			sb.WriteString(formatFloat(x))
		}
		sb.WriteByte('\n')
		if _, err := w.WriteString(sb.String()); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// ReadModel parses the text format WriteModel produces. Any missing
// header token, short row, or row-count mismatch fails with CorruptModel.
func ReadModel(r io.Reader) (*fpsg.Model, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	m, err := readHeaderInt(scanner, "m")
	if err != nil {
		return nil, err
	}
	n, err := readHeaderInt(scanner, "n")
	if err != nil {
		return nil, err
	}
	k, err := readHeaderInt(scanner, "k")
	if err != nil {
		return nil, err
	}

	p := fpsg.NewAlignedBuffer(int(m), int(k))
	if err := readRows(scanner, "p", p, int(m), int(k)); err != nil {
		return nil, err
	}
	q := fpsg.NewAlignedBuffer(int(n), int(k))
	if err := readRows(scanner, "q", q, int(n), int(k)); err != nil {
		return nil, err
	}

	pg := make([]float32, m*2)
	qg := make([]float32, n*2)
	return &fpsg.Model{
		M: m, N: n, KReal: int(k), KAligned: int(k), LaneA: int(k),
		P: p, Q: q, PG: pg, QG: qg,
	}, nil
}

func readHeaderInt(scanner *bufio.Scanner, key string) (int32, error) {
	if !scanner.Scan() {
		return 0, base.WrapMessage(base.CorruptModel, "missing \""+key+"\" header")
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) != 2 || fields[0] != key {
		return 0, base.WrapMessage(base.CorruptModel, "malformed \""+key+"\" header")
	}
	v, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return 0, base.Wrap(base.CorruptModel, err)
	}
	return int32(v), nil
}

func readRows(scanner *bufio.Scanner, prefix string, buf *fpsg.AlignedBuffer, rows, k int) error {
	for i := 0; i < rows; i++ {
		if !scanner.Scan() {
			return base.WrapMessage(base.CorruptModel, fmt.Sprintf("short file: expected %d %s-rows, got %d", rows, prefix, i))
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) != k+1 || fields[0] != fmt.Sprintf("%s%d", prefix, i) {
			return base.WrapMessage(base.CorruptModel, fmt.Sprintf("malformed row %q", scanner.Text()))
		}
		row := buf.Row(i)
		for d := 0; d < k; d++ {
			x, err := strconv.ParseFloat(fields[d+1], 32)
			if err != nil {
				return base.Wrap(base.CorruptModel, err)
			}
			row[d] = float32(x)
		}
	}
	return nil
}
