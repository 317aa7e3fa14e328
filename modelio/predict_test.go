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
	"bytes"
	"strings"
	"testing"

	"github.com/gorse-io/fpsg/base"
	"github.com/gorse-io/fpsg/fpsg"
	"github.com/stretchr/testify/assert"
)

func TestPredictStream(t *testing.T) {
	rng := base.NewRandomGenerator(1)
	m, err := fpsg.NewModel(2, 2, 2, 1, rng)
	assert.NoError(t, err)
	m.Shrink()
	pred := fpsg.NewPredictor(m)

	var out bytes.Buffer
	err = PredictStream(&out, pred, strings.NewReader("0 0\n0 1 9\n1 0\n"))
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestPredictStream_RejectsBadLine(t *testing.T) {
	rng := base.NewRandomGenerator(1)
	m, err := fpsg.NewModel(2, 2, 2, 1, rng)
	assert.NoError(t, err)
	pred := fpsg.NewPredictor(m)

	var out bytes.Buffer
	err = PredictStream(&out, pred, strings.NewReader("0\n"))
	assert.Error(t, err)
	assert.Equal(t, base.InvalidInput, base.KindOf(err))
}
