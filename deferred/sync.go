package deferred

import (
	"errors"
	"time"
)

// ErrNotLive is returned by Sync when the associated connection/manager
// stops being live before the awaited Deferred resolves.
var ErrNotLive = errors.New("deferred: connection no longer live while waiting")

// LivenessChecker reports whether the remote side a Deferred is waiting on
// is still usable. The EPC Manager implements this so Sync can stop
// waiting on a call whose connection has died instead of blocking forever.
type LivenessChecker interface {
	Live() bool
}

// pollInterval bounds how often Sync re-checks liveness while waiting.
const pollInterval = 150 * time.Millisecond

// Sync blocks the calling goroutine until d's live tail resolves,
// periodically checking live.Live() so a dead connection doesn't hang the
// caller forever. It returns the resolved value, or an error if the chain
// resolved along the failure path (re-raised the same way a direct
// Callback/Errorback call would) or if the connection died first.
//
// Sync does not itself drive socket I/O: a Connection's read loop runs on
// its own goroutine independent of any caller blocked in Sync, so the
// socket is already being pumped concurrently.
func Sync(live LivenessChecker, d *Deferred) (any, error) {
	done := make(chan struct{})
	var result any
	var failure error
	var once bool

	complete := func(val any, err error) any {
		if once {
			return nil
		}
		once = true
		result, failure = val, err
		close(done)
		return nil
	}

	NextBoth(d,
		func(arg any) any { return complete(arg, nil) },
		func(arg any) any { return complete(nil, toError(arg)) },
	)

	for {
		select {
		case <-done:
			return result, failure
		case <-time.After(pollInterval):
			if live != nil && !live.Live() {
				select {
				case <-done:
					return result, failure
				default:
					return nil, ErrNotLive
				}
			}
		}
	}
}
