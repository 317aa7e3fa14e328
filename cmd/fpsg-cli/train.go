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

import (
	"os"

	"github.com/gorse-io/fpsg/base/log"
	"github.com/gorse-io/fpsg/fpsg"
	"github.com/gorse-io/fpsg/modelio"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trainCfg = fpsg.DefaultTrainConfig()
var validFile, modelOutFile, fpOutFile, fqOutFile string

var trainCmd = &cobra.Command{
	Use:   "train <input>",
	Short: "Train a factor model from a triples file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		problem, err := readTriplesFile(args[0])
		if err != nil {
			return err
		}

		var valid *fpsg.Problem
		if validFile != "" {
			valid, err = readTriplesFile(validFile)
			if err != nil {
				return err
			}
		}

		ctx, stop := withProgressBar(cmd.Context(), "train", trainCfg.NrIters)
		result, err := fpsg.NewTrainer(trainCfg).Fit(ctx, problem, valid, nil)
		stop()
		if err != nil {
			return err
		}

		for _, epoch := range result.Epochs {
			log.Logger().Info("epoch", zap.Int("epoch", epoch.Epoch),
				zap.Float64("train_rmse", epoch.TrainRMSE), zap.Float64("reg", epoch.Reg),
				zap.Bool("has_valid", epoch.HasValid), zap.Float64("valid_rmse", epoch.ValidRMSE))
		}

		if err := writeModelFile(modelOutFile, result.Model); err != nil {
			return err
		}
		if fpOutFile != "" {
			if err := writeFactorFile(fpOutFile, result.Model.P); err != nil {
				return err
			}
		}
		if fqOutFile != "" {
			if err := writeFactorFile(fqOutFile, result.Model.Q); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	trainCfg.AddFlags(trainCmd.Flags())
	trainCmd.Flags().StringVar(&validFile, "valid", "", "validation triples file")
	trainCmd.Flags().StringVar(&modelOutFile, "model-out", "model.txt", "path to write the trained model")
	trainCmd.Flags().StringVar(&fpOutFile, "fp", "", "path to write the P factor matrix (skipped if empty)")
	trainCmd.Flags().StringVar(&fqOutFile, "fq", "", "path to write the Q factor matrix (skipped if empty)")
}

func readTriplesFile(path string) (*fpsg.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	return modelio.ReadTriples(f)
}

func writeModelFile(path string, m *fpsg.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	return modelio.WriteModel(f, m)
}

func writeFactorFile(path string, buf *fpsg.AlignedBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	return modelio.WriteFactorMatrix(f, buf)
}
