package deferred

import (
	"sync"

	"github.com/joeycumines/logiface"
)

// globalLogger is the package-level structured logger: the engine is a
// shared, process-wide facility, so its logging configuration is too.
var globalLogger struct {
	sync.RWMutex
	logger *logiface.Logger[logiface.Event]
}

// SetLogger installs the structured logger used to report unhandled
// terminal failures surfaced by the tick worker, logged from its outer
// fault boundary instead of being propagated. A nil logger silences this
// reporting; that is also the default.
func SetLogger(logger *logiface.Logger[logiface.Event]) {
	globalLogger.Lock()
	globalLogger.logger = logger
	globalLogger.Unlock()
}

func getLogger() *logiface.Logger[logiface.Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

// logUnhandledFailure reports an error that reached the end of a chain
// with no next link and no errorback to absorb it, i.e. one that would
// have been re-raised had it occurred under a synchronous Callback/
// Errorback call instead of the tick worker.
func logUnhandledFailure(err error) {
	if err == nil {
		return
	}
	l := getLogger()
	if l == nil {
		return
	}
	l.Err().Err(err).Log("deferred: unhandled failure reached end of chain")
}

// LogWarn reports a non-fatal error using the same installed logger as
// logUnhandledFailure, for use by packages built on top of deferred (the
// framing and EPC layers) that want one shared logging sink rather than
// each standing up its own.
func LogWarn(msg string, err error) {
	l := getLogger()
	if l == nil {
		return
	}
	l.Info().Err(err).Log(msg)
}
