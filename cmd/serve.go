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
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore"
	"github.com/microsoft/js-debug-breakpoints/internal/bpcore/bpcoretest"
)

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("ide-port", defaultIdePort, "port the DAP-speaking IDE connects to")
	serveCmd.Flags().String("cdp-target", defaultCDPTargetURL, "WebSocket endpoint of the CDP-speaking JavaScript runtime")
	serveCmd.Flags().String("entry-mode", "exact", "entry breakpoint install strategy: \"exact\" or \"greedy\"")
	serveCmd.Flags().Int("source-map-timeout-ms", 1000, "per-script source map resolution budget")
	serveCmd.Flags().Int("cumulative-source-map-timeout-ms", 8000, "session-wide source map resolution budget")
}

// serveCmd represents the serve command: it brings up the breakpoint
// coordination core for one debug session. Actual DAP and CDP transports
// are out of scope here; this command wires
// the core against in-memory peers so the command is runnable end-to-end
// as a demonstration harness, and is the integration point a real
// extension host would replace with its socket transports.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the breakpoint coordination core for one debug session",
	Long: `
serve validates the entry-mode and source-map timeout flags into a
Capabilities value, builds a Manager against in-memory runtime and source
container peers, and waits for an interrupt. It opens no DAP or CDP
connection, and the Capabilities value is not passed to the Manager. Wire a
real DAP transport and a real cdp.Transport (see package dap and package cdp)
in front of the core to complete an actual debug adapter.
`,
	Run: func(cmd *cobra.Command, args []string) {
		idePort := viper.GetInt("ide-port")
		cdpTarget := viper.GetString("cdp-target")
		entryMode := bpcore.EntryExact
		if viper.GetString("entry-mode") == "greedy" {
			entryMode = bpcore.EntryGreedy
		}

		caps := bpcore.NewCapabilities()
		panicIf(caps.SetEntryBreakpointMode(entryMode))
		panicIf(caps.SetSourceMapTimeout(viper.GetInt("source-map-timeout-ms")))
		panicIf(caps.SetCumulativeSourceMapTimeout(viper.GetInt("cumulative-source-map-timeout-ms")))

		color.Yellow("js-debug-breakpoints: configured for IDE port %d and CDP target %s (in-memory peers, no connections opened)", idePort, cdpTarget)

		runtime := bpcoretest.NewFakeRuntime()
		container := bpcoretest.NewFakeSourceContainer()
		manager := bpcore.NewManager(Logger, runtime, container, nil)
		defer manager.Close()

		Logger.Info("breakpoint core ready",
			zap.Int("idePort", idePort),
			zap.String("cdpTarget", cdpTarget),
			zap.String("entryMode", entryMode.String()),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		select {
		case <-sigCh:
			color.Yellow("js-debug-breakpoints: shutting down")
		case <-ctx.Done():
		}
	},
}
