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

import (
	"context"
	"math"
	"sync"

	"github.com/gorse-io/fpsg/base"
	"github.com/gorse-io/fpsg/base/log"
	"github.com/gorse-io/fpsg/base/progress"
	"github.com/gorse-io/fpsg/common/floats"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// TrainConfig is the full parameter surface a caller can tune, with the
// defaults named in the external-interfaces table.
type TrainConfig struct {
	K          int
	NrThreads  int
	NrBins     int
	NrIters    int
	Lambda     float32
	Eta        float32
	Alpha      float32
	DoNMF      bool
	DoImplicit bool
	Quiet      bool
	CopyData   bool
	Seed       int64
}

// DefaultTrainConfig returns the parameter surface's documented defaults.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		K: 8, NrThreads: 1, NrBins: 20, NrIters: 20,
		Lambda: 0.1, Eta: 0.1, Alpha: 40.0,
		CopyData: true,
	}
}

// AddFlags registers the parameter surface onto a pflag.FlagSet, mirroring
// base/log.AddFlags's registration style.
func (c *TrainConfig) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.IntVar(&c.K, "k", 8, "number of latent factors")
	flagSet.IntVar(&c.NrThreads, "nr-threads", 1, "worker count")
	flagSet.IntVar(&c.NrBins, "nr-bins", 20, "grid side B (raised if below 2*nr_threads)")
	flagSet.IntVar(&c.NrIters, "nr-iters", 20, "epochs")
	flagSet.Float32Var(&c.Lambda, "cost", 0.1, "L2 regularization")
	flagSet.Float32Var(&c.Eta, "lrate", 0.1, "base learning rate")
	flagSet.Float32Var(&c.Alpha, "alpha", 40.0, "implicit-feedback confidence scale")
	flagSet.BoolVar(&c.DoNMF, "nmf", false, "constrain factors to be nonnegative")
	flagSet.BoolVar(&c.DoImplicit, "implicit", false, "use implicit-feedback loss")
	flagSet.BoolVar(&c.Quiet, "quiet", false, "suppress per-iteration logging")
	flagSet.BoolVar(&c.CopyData, "copy-data", true, "copy (vs borrow) the input problem")
	flagSet.Int64Var(&c.Seed, "seed", 0, "RNG seed")
}

// Validate checks the mutually-consistent-options rules of the error
// handling design: k, thread, and bin bounds are InvalidInput; do_nmf
// combined with do_implicit and a training set containing negative
// ratings is a ConfigError (NMF's nonnegativity clamp and a negative
// preference target are incompatible).
func (c *TrainConfig) Validate(hasNegativeRatings bool) error {
	if c.K <= 0 {
		return base.WrapMessage(base.InvalidInput, "k must be positive")
	}
	if c.NrThreads <= 0 {
		return base.WrapMessage(base.InvalidInput, "nr_threads must be positive")
	}
	if c.NrBins < 1 {
		return base.WrapMessage(base.InvalidInput, "nr_bins must be at least 1")
	}
	if c.NrIters <= 0 {
		return base.WrapMessage(base.InvalidInput, "nr_iters must be positive")
	}
	if c.DoNMF && c.DoImplicit && hasNegativeRatings {
		return base.WrapMessage(base.ConfigError, "do_nmf with do_implicit requires nonnegative ratings")
	}
	return nil
}

// EpochReport is one printed row of the per-epoch training log.
type EpochReport struct {
	Epoch     int
	TrainRMSE float64
	Reg       float64
	ValidRMSE float64
	HasValid  bool
}

// FitResult is everything Trainer.Fit hands back to the caller.
type FitResult struct {
	Model    *Model
	Epochs   []EpochReport
	CVLoss   float64
	CVCount  int64
	HasCV    bool
}

// Trainer orchestrates GridPartition, Scheduler and the SGDKernel workers
// to learn a Model from a Problem.
type Trainer struct {
	cfg TrainConfig
}

// NewTrainer builds a Trainer from a validated TrainConfig.
func NewTrainer(cfg TrainConfig) *Trainer {
	return &Trainer{cfg: cfg}
}

// Fit trains a Model against problem, optionally reporting validation
// RMSE against valid each epoch, and optionally holding out cvBlocks
// (used by CrossValidate). ctx is checked between epochs; cancelling it
// stops training after the in-flight epoch finishes.
func (tr *Trainer) Fit(ctx context.Context, problem, valid *Problem, cvBlocks map[int32]bool) (*FitResult, error) {
	cfg := tr.cfg
	hasNeg := false
	for _, t := range problem.Triples {
		if t.R < 0 {
			hasNeg = true
			break
		}
	}
	if err := cfg.Validate(hasNeg); err != nil {
		return nil, err
	}

	// Setup step 1: B >= 2*nr_threads guarantees the scheduler can
	// always find a non-conflicting block.
	bins := int32(cfg.NrBins)
	if bins < int32(2*cfg.NrThreads) {
		bins = int32(2 * cfg.NrThreads)
	}

	// Setup step 2: copy or borrow.
	if cfg.CopyData {
		problem = problem.Clone()
		if valid != nil {
			valid = valid.Clone()
		}
	}
	// Exact ratings of a borrowed problem/valid, handed back at teardown.
	var keptR [2][]float32
	for j, p := range []*Problem{problem, valid} {
		if !cfg.CopyData && p != nil {
			keptR[j] = make([]float32, p.NNZ())
			for i, t := range p.Triples {
				keptR[j][p.orig[i]] = t.R
			}
		}
	}

	rng :=base.NewRandomGenerator(cfg.Seed)
	jitter := base.NewRand(cfg.Seed + 1)

	// Setup step 3: permute indices.
	pMap, pInv := rng.Permutation(int(problem.M))
	qMap, qInv := rng.Permutation(int(problem.N))
	problem.PermuteIndices(pMap, qMap)
	if valid != nil {
		valid.PermuteIndices(pMap, qMap)
	}

	// Setup step 4: normalize the rating scale.
	sigma := problem.StdDev()
	invSigma := float32(1 / sigma)
	problem.ScaleRatings(invSigma)
	if valid != nil {
		valid.ScaleRatings(invSigma)
	}
	lambda := cfg.Lambda / float32(sigma)

	// Setup step 5: partition.
	gp, err := Partition(problem, bins)
	if err != nil {
		return nil, err
	}

	// Setup step 6-7: initialize the model.
	lane := floats.Detected().LaneCount()
	model, err := NewModel(problem.M, problem.N, cfg.K, lane, rng)
	if err != nil {
		return nil, base.Wrap(base.AllocationFailure, err)
	}

	// Setup step 8: regularization weights.
	omegaP := make([]int32, problem.M)
	omegaQ := make([]int32, problem.N)
	for _, t := range problem.Triples {
		omegaP[t.U]++
		omegaQ[t.V]++
	}

	// Setup step 9-10: launch workers.
	slowOnly := true
	sched := NewScheduler(bins, int32(cfg.NrThreads), cvBlocks, jitter.Int63())
	params := KernelParams{Eta: cfg.Eta, Lambda: lambda, Alpha: cfg.Alpha, DoNMF: cfg.DoNMF, DoImplicit: cfg.DoImplicit}

	ctx, span := progress.Start(ctx, "fpsg.Fit", cfg.NrIters)
	var wg sync.WaitGroup
	for i := 0; i < cfg.NrThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Logger().Error("panic in SGDKernel worker", zap.Any("recover", r))
					panic(r)
				}
			}()
			runKernel(sched, gp, problem, model, params, &slowOnly)
		}()
	}

	result := &FitResult{Model: model}
	for iter := 0; iter < cfg.NrIters; iter++ {
		sched.WaitForJobsDone()

		if !cfg.Quiet {
			report := EpochReport{Epoch: iter}
			report.Reg = calcReg(model, omegaP, omegaQ) * float64(lambda) * sigma * sigma
			var trainLoss float64
			for b := int32(0); b < bins*bins; b++ {
				if cvBlocks[b] {
					continue
				}
				trainLoss += sched.Loss(b)
			}
			trainLoss *= sigma * sigma
			report.TrainRMSE = math.Sqrt(trainLoss / float64(problem.NNZ()))
			if valid != nil && valid.NNZ() > 0 {
				report.HasValid = true
				report.ValidRMSE = calcRMSE(valid, model) * sigma
			}
			result.Epochs = append(result.Epochs, report)
			log.Logger().Debug("fpsg epoch", zap.Int("epoch", iter), zap.Float64("train_rmse", report.TrainRMSE))
		}
		span.Add(1)

		if iter == 0 {
			slowOnly = false
		}
		if err := ctx.Err(); err != nil {
			sched.Terminate()
			wg.Wait()
			span.Fail(err)
			return nil, err
		}
		sched.Resume()
	}
	sched.Terminate()
	wg.Wait()
	span.End()

	// Teardown: cross-validation accounting.
	if len(cvBlocks) > 0 {
		result.HasCV = true
		for b := range cvBlocks {
			lo, hi := gp.Ptrs[b], gp.Ptrs[b+1]
			result.CVLoss += calcBlockLoss(problem, model, lo, hi, params)
			result.CVCount += int64(hi - lo)
		}
		result.CVLoss *= sigma * sigma
	}

	// Teardown: restore the caller's buffer if it was borrowed.
	if !cfg.CopyData {
		problem.Restore(pInv, qInv, float32(sigma))
		if valid != nil {
			valid.Restore(pInv, qInv, float32(sigma))
		}
		for j, p := range []*Problem{problem, valid} {
			for i := range keptR[j] {
				p.Triples[i].R = keptR[j][i]
			}
		}
	}

	model.ScaleFactors(float32(math.Sqrt(sigma)))
	model.Shrink()
	model.Unpermute(pMap, qMap)

	return result, nil
}

// calcReg computes the regularization term Σ_u ω_p[u]·‖P[u]‖² + Σ_v
// ω_q[v]·‖Q[v]‖² (unscaled by λσ², which the caller multiplies in).
func calcReg(m *Model, omegaP, omegaQ []int32) float64 {
	var reg float64
	for u := 0; u < int(m.M); u++ {
		row := m.P.Row(u)
		var normSq float32
		for _, x := range row {
			normSq += x * x
		}
		reg += float64(omegaP[u]) * float64(normSq)
	}
	for v := 0; v < int(m.N); v++ {
		row := m.Q.Row(v)
		var normSq float32
		for _, x := range row {
			normSq += x * x
		}
		reg += float64(omegaQ[v]) * float64(normSq)
	}
	return reg
}

// calcRMSE computes RMSE of m's predictions (at training-time, k_aligned
// width) against problem's triples.
func calcRMSE(problem *Problem, m *Model) float64 {
	var sumSq float64
	for _, t := range problem.Triples {
		pred := dot(m.P.Row(int(t.U)), m.Q.Row(int(t.V)))
		diff := float64(t.R) - float64(pred)
		sumSq += diff * diff
	}
	if problem.NNZ() == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(problem.NNZ()))
}

// calcBlockLoss computes the same loss SGDKernel would accumulate for the
// triples in [lo, hi), without mutating the model; used for cv_loss.
func calcBlockLoss(problem *Problem, m *Model, lo, hi int32, params KernelParams) float64 {
	var loss float64
	for i := lo; i < hi; i++ {
		t := problem.Triples[i]
		pred := dot(m.P.Row(int(t.U)), m.Q.Row(int(t.V)))
		var e, w float32
		if params.DoImplicit {
			pref := float32(0)
			if t.R > 0 {
				pref = 1
			}
			w = 1 + params.Alpha*t.R
			if w < 0 {
				w = 0
			}
			e = pref - pred
		} else {
			w = 1
			e = t.R - pred
		}
		loss += float64(w) * float64(e) * float64(e)
	}
	return loss
}
