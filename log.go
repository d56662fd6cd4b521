package quizbank

import (
	"log"
	"sync/atomic"
)

var verboseMode atomic.Bool

// SetVerbose turns verbose logging on or off
func SetVerbose(verbose bool) {
	verboseMode.Store(verbose)
}

// VerboseLog logs only when verbose mode is enabled
func VerboseLog(format string, v ...interface{}) {
	if verboseMode.Load() {
		log.Printf(format, v...)
	}
}
