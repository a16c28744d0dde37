package goroutine

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
)

// StackTraceBufferSize caps the stack captured for a recovered panic
const StackTraceBufferSize = 4096

// Recover logs a panic in the calling goroutine instead of crashing the
// process. It must be invoked directly by defer.
func Recover(name string, logger *zap.SugaredLogger) {
	if r := recover(); r != nil {
		report(name, logger, r)
	}
}

// Go runs fn in a new goroutine. A panic in fn is logged and then handed to
// onPanic, which may be nil.
func Go(name string, logger *zap.SugaredLogger, fn func(), onPanic func(r any)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				report(name, logger, r)
				if onPanic != nil {
					onPanic(r)
				}
			}
		}()
		fn()
	}()
}

func report(name string, logger *zap.SugaredLogger, r any) {
	buf := make([]byte, StackTraceBufferSize)
	n := runtime.Stack(buf, false)

	if logger == nil {
		fmt.Fprintf(os.Stderr, "PANIC in goroutine %s (no logger): %v\n%s\n", name, r, buf[:n])
		return
	}

	logger.Errorw("Goroutine panic recovered",
		"goroutine", name,
		"panic", r,
		"stack", string(buf[:n]))
}
