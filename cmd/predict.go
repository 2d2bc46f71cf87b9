// Copyright © 2016 Sidharth Kshatriya
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"log"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore/bpcoretest"
)

// predictCmd represents the predict command: it warms a Predictor's cache
// for one source file ahead of any script load. The real predictor is out
// of scope here and addressed only via the bpcore.Predictor interface; a
// fixture is swapped in so the command is runnable as a smoke test of the
// wiring.
var predictCmd = &cobra.Command{
	Use:   "predict <source-file>",
	Short: "Warm the breakpoint predictor's cache for a source file",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			log.Fatal("please provide a source file path on the command line")
		}

		predictor := bpcoretest.NewFakePredictor()
		if err := predictor.PredictBreakpoints(context.Background(), args[0]); err != nil {
			color.Red("prediction failed: %v", err)
			return
		}

		color.Yellow("js-debug-breakpoints: predicted locations warmed for %s", args[0])
	},
}

func init() {
	RootCmd.AddCommand(predictCmd)
}
