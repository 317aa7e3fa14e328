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
	"fmt"
	"os"

	"github.com/gorse-io/fpsg/fpsg"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var cvCfg = fpsg.DefaultTrainConfig()
var nfold int

var cvCmd = &cobra.Command{
	Use:   "cv <input>",
	Short: "Cross-validate a factor model over a triples file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		problem, err := readTriplesFile(args[0])
		if err != nil {
			return err
		}

		ctx, stop := withProgressBar(cmd.Context(), "cv", nfold)
		report, err := fpsg.CrossValidate(ctx, cvCfg, problem, nfold)
		stop()
		if err != nil {
			return err
		}

		table := tablewriter.NewTable(os.Stdout)
		table.Header("Fold", "RMSE")
		for _, fold := range report.Folds {
			table.Append(fmt.Sprintf("%d", fold.Fold), fmt.Sprintf("%f", fold.RMSE))
		}
		table.Append("Aggregate", fmt.Sprintf("%f", report.AggregateRMSE))
		return table.Render()
	},
}

func init() {
	cvCfg.AddFlags(cvCmd.Flags())
	cvCmd.Flags().IntVar(&nfold, "nfold", 5, "number of cross-validation folds")
}
