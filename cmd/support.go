package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Logger is the process-wide structured logger every command uses. It is
// replaced in initConfig once viper has parsed --verbose, the same moment the
// teacher's engine.VerboseFlag became meaningful in engine/base.go.
var Logger *zap.Logger = zap.NewNop()

// panicIf mirrors engine/base.go's panicIf: a violated invariant inside
// this process is a bug, not a recoverable condition, so it panics loudly
// with a stack trace rather than limping on.
func panicIf(err error) {
	if err != nil {
		panic(fmt.Sprintf("js-debug-breakpoints: \x1b[101mPanic:\x1b[0m %v\n%s\n", err, debug.Stack()))
	}
}

// fatalIf mirrors engine/base.go's fatalIf: a bad CLI argument or
// unreachable runtime prints a clean message and exits, instead of a
// panic's stack trace.
func fatalIf(err error) {
	if err != nil {
		color.Red("js-debug-breakpoints: fatal error: %v", err)
		os.Exit(1)
	}
}
