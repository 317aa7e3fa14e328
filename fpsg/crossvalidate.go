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

	"github.com/gorse-io/fpsg/base"
	"github.com/gorse-io/fpsg/base/progress"
	"github.com/gorse-io/fpsg/common/parallel"
)

// FoldReport is one fold's held-out RMSE.
type FoldReport struct {
	Fold int
	RMSE float64
}

// CVReport is CrossValidate's full result: one RMSE per fold plus the
// RMSE aggregated over every fold's held-out loss.
type CVReport struct {
	Folds        []FoldReport
	AggregateRMSE float64
}

// CrossValidate re-uses Trainer nfold times, each time holding out a
// distinct roughly-equal slice of the B² grid's blocks as validation
// data, and reports per-fold and aggregate RMSE; an nfold above B² is
// capped at B² folds of one block each. A fold whose RMSE comes out NaN
// (divergence at a high learning rate) is dropped; if every fold drops,
// CrossValidate fails with InvalidInput.
func CrossValidate(ctx context.Context, cfg TrainConfig, problem *Problem, nfold int) (*CVReport, error) {
	if nfold < 2 {
		return nil, base.WrapMessage(base.InvalidInput, "nfold must be at least 2")
	}
	bins := int32(cfg.NrBins)
	if bins < int32(2*cfg.NrThreads) {
		bins = int32(2 * cfg.NrThreads)
	}
	nBlocks := int(bins * bins)

	rng := base.NewRandomGenerator(cfg.Seed)
	shuffled, _ := rng.Permutation(nBlocks)
	slices := parallel.Split(shuffled, nfold)

	ctx, span := progress.Start(ctx, "fpsg.CrossValidate", len(slices))
	outcomes := make([]*FoldReport, len(slices))
	losses := make([]float64, len(slices))
	counts := make([]int64, len(slices))
	err := parallel.Parallel(ctx, len(slices), cfg.NrThreads, func(_, fold int) error {
		slice := slices[fold]
		cvBlocks := make(map[int32]bool, len(slice))
		for _, b := range slice {
			cvBlocks[b] = true
		}
		foldCfg := cfg
		foldCfg.Seed = cfg.Seed + int64(fold)
		// Folds train concurrently; each needs its own working copy of
		// problem regardless of the caller's CopyData preference, since
		// Fit mutates and restores the triple array in place.
		foldCfg.CopyData = true
		result, fitErr := NewTrainer(foldCfg).Fit(ctx, problem, nil, cvBlocks)
		span.Add(1)
		if fitErr != nil {
			return fitErr
		}
		if result.CVCount == 0 {
			return nil
		}
		rmse := math.Sqrt(result.CVLoss / float64(result.CVCount))
		if math.IsNaN(rmse) {
			return nil
		}
		outcomes[fold] = &FoldReport{Fold: fold, RMSE: rmse}
		losses[fold] = result.CVLoss
		counts[fold] = result.CVCount
		return nil
	})
	if err != nil {
		span.Fail(err)
		return nil, err
	}
	span.End()

	report := &CVReport{}
	var totalLoss float64
	var totalCount int64
	for i, outcome := range outcomes {
		if outcome == nil {
			continue
		}
		report.Folds = append(report.Folds, *outcome)
		totalLoss += losses[i]
		totalCount += counts[i]
	}

	if len(report.Folds) == 0 {
		return nil, base.WrapMessage(base.InvalidInput, "no finite results")
	}
	report.AggregateRMSE = math.Sqrt(totalLoss / float64(totalCount))
	return report, nil
}
