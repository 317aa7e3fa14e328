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

// Predictor wraps a trained Model for read-only querying. It holds no
// mutable state of its own, so it is safe to share across goroutines
// without synchronization.
type Predictor struct {
	model *Model
}

// NewPredictor wraps m. m must not be mutated afterwards.
func NewPredictor(m *Model) *Predictor {
	return &Predictor{model: m}
}

// Predict returns P[u]·Q[v], or 0 if u or v is out of range.
func (p *Predictor) Predict(u, v int32) float32 {
	return p.model.Predict(u, v)
}

// M and N report the dimensions Predict accepts without returning 0.
func (p *Predictor) M() int32 { return p.model.M }
func (p *Predictor) N() int32 { return p.model.N }

// K reports the factor width predictions are computed over.
func (p *Predictor) K() int { return p.model.KReal }
