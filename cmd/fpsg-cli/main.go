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

	"github.com/gorse-io/fpsg/base/log"
	"github.com/spf13/cobra"
)

var debug bool
var showProgress bool

var rootCmd = &cobra.Command{
	Use:   "fpsg-cli",
	Short: "fpsg: a block-parallel SGD matrix factorization engine",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLogger(cmd.Root().PersistentFlags(), debug)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&showProgress, "progress", false, "show a progress bar")
	log.AddFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(trainCmd, cvCmd, predictCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
