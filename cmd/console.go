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
	"encoding/json"
	"fmt"
	"io"
	"os/user"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/microsoft/js-debug-breakpoints/internal/bpcore"
	"github.com/microsoft/js-debug-breakpoints/internal/bpcore/bpcoretest"
)

func init() {
	RootCmd.AddCommand(consoleCmd)
}

// consoleCmd is an interactive REPL over a demo Manager, letting a
// developer poke at setBreakpoints/statistics by hand
// without a real IDE or runtime attached: a readline prompt dispatching
// single-letter commands against live session state.
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactively drive the breakpoint coordination core",
	Run: func(cmd *cobra.Command, args []string) {
		runtime := bpcoretest.NewFakeRuntime()
		container := bpcoretest.NewFakeSourceContainer()
		manager := bpcore.NewManager(Logger, runtime, container, nil)
		defer manager.Close()

		debuggerLoop(manager)
	},
}

func debuggerLoop(manager *bpcore.Manager) {
	currentUser, err := user.Current()
	panicIf(err)

	historyFile := currentUser.HomeDir + "/.js-debug-breakpoints.history"
	rdline, err := readline.NewEx(&readline.Config{
		Prompt:      "(js-debug) ",
		HistoryFile: historyFile,
	})
	panicIf(err)
	defer rdline.Close()

	ctx := context.Background()
	color.Yellow("h <enter> for help")

	for {
		line, err := rdline.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			color.Yellow("Exiting.")
			return
		} else if err != nil {
			fatalIf(err)
		}

		switch {
		case strings.HasPrefix(line, "h"):
			printConsoleHelp()

		case strings.HasPrefix(line, "b "):
			handleSetBreakpoint(ctx, manager, strings.TrimSpace(line[2:]))

		case strings.HasPrefix(line, "s"):
			printStatistics(manager)

		case line == "":
			// ignore blank lines

		default:
			color.Red("unrecognized command %q, try h for help", line)
		}
	}
}

func printConsoleHelp() {
	fmt.Println(`commands:
  b <path>:<line>:<column>   set a breakpoint
  s                          print statistics
  h                          this help
`)
}

func handleSetBreakpoint(ctx context.Context, manager *bpcore.Manager, spec string) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		color.Red("expected <path>:<line>:<column>, got %q", spec)
		return
	}
	line, err := strconv.Atoi(parts[1])
	if err != nil {
		color.Red("bad line number %q", parts[1])
		return
	}
	column, err := strconv.Atoi(parts[2])
	if err != nil {
		color.Red("bad column number %q", parts[2])
		return
	}

	source := bpcore.SourceIdentity{Path: parts[0]}
	results, err := manager.SetBreakpoints(ctx, source, []bpcore.SetBreakpointsRequest{{Line: line, Column: column}})
	if err != nil {
		color.Red("setBreakpoints failed: %v", err)
		return
	}

	out, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(out))
}

func printStatistics(manager *bpcore.Manager) {
	out, _ := json.MarshalIndent(manager.Statistics(), "", "  ")
	fmt.Println(string(out))
}
