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

	"github.com/gorse-io/fpsg/fpsg"
	"github.com/gorse-io/fpsg/modelio"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var predictOutFile string

var predictCmd = &cobra.Command{
	Use:   "predict <model> <queries>",
	Short: "Predict ratings for (user, item) queries against a trained model",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		modelFile, err := os.Open(args[0])
		if err != nil {
			return errors.Trace(err)
		}
		defer modelFile.Close()
		model, err := modelio.ReadModel(modelFile)
		if err != nil {
			return err
		}

		queries, err := os.Open(args[1])
		if err != nil {
			return errors.Trace(err)
		}
		defer queries.Close()

		var out *os.File
		if predictOutFile == "" || predictOutFile == "-" {
			out = os.Stdout
		} else {
			out, err = os.Create(predictOutFile)
			if err != nil {
				return errors.Trace(err)
			}
			defer out.Close()
		}

		return modelio.PredictStream(out, fpsg.NewPredictor(model), queries)
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictOutFile, "out", "-", "path to write predictions (\"-\" for stdout)")
}
