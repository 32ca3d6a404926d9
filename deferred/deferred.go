package deferred

import (
	"fmt"
	"sync"
)

// Status is the lifecycle state of a Deferred.
type Status int32

const (
	// StatusUnset indicates the Deferred has not yet resolved (or has
	// forwarded its resolution to a next link).
	StatusUnset Status = iota
	// StatusOK indicates the Deferred resolved along the success path.
	StatusOK
	// StatusNG indicates the Deferred resolved along the failure path.
	StatusNG
)

// Callback is a unary transform installed on a Deferred's success or
// failure path. Its return value determines what happens next:
//
//   - a non-error, non-*Deferred value continues the chain on the success
//     path;
//   - a non-nil error continues the chain on the failure path;
//   - a *Deferred "flattens": its eventual resolution is forwarded to
//     whatever follows the node that returned it.
//
// A panic inside a Callback is recovered and treated as a *PanicError
// failure.
type Callback func(arg any) any

// Deferred is a single-assignment continuation cell with separated success
// (callback) and failure (errorback) paths. See the package doc for the
// execution model.
type Deferred struct {
	mu sync.Mutex

	callback  Callback
	errorback Callback
	next      *Deferred

	// redirect is set when a callback/errorback returned a nested Deferred
	// ("flattening"): once set, this node is an alias for redirect and all
	// future chaining/inspection operates on redirect instead.
	redirect *Deferred

	status Status
	value  any
}

// New creates a Deferred whose success path runs callback (nil means
// pass the value straight through unchanged).
func New(callback Callback) *Deferred {
	return &Deferred{callback: callback}
}

// live follows the redirect chain to the node that is actually resolving,
// implementing nested-Deferred flattening for later chaining/inspection.
func live(d *Deferred) *Deferred {
	for {
		d.mu.Lock()
		r := d.redirect
		d.mu.Unlock()
		if r == nil {
			return d
		}
		d = r
	}
}

// Status reports the current resolution state of d's live tail.
func (d *Deferred) Status() Status {
	d = live(d)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Value reports the most recently resolved value of d's live tail (valid
// only once Status is no longer StatusUnset).
func (d *Deferred) Value() any {
	d = live(d)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Callback synchronously drives d along the success path with arg. If the
// chain terminates in an unhandled failure (no errorback absorbs it and no
// further link exists), the failure is returned to the caller instead of
// merely being logged: a direct invocation re-raises into the caller's own
// fault boundary, as opposed to resolution driven by the tick worker (see
// Post).
func (d *Deferred) Callback(arg any) error {
	return execute(d, StatusOK, arg, false)
}

// Errorback synchronously drives d along the failure path with arg. See
// Callback for the re-raise behavior on an unhandled terminal failure.
func (d *Deferred) Errorback(arg any) error {
	return execute(d, StatusNG, arg, false)
}

// NextCallback creates a new Deferred whose success path runs f and links
// it as d's tail. If d's live tail has already resolved, the stored
// value/status propagates into the new link immediately. The returned
// Deferred is always a fresh node (its own errorback is unset, i.e.
// pass-through) so chains read left-to-right as alternating
// callback/errorback stages.
func NextCallback(d *Deferred, f Callback) *Deferred {
	n := &Deferred{callback: f}
	setNext(d, n)
	return n
}

// NextErrorback is NextCallback's failure-path counterpart: it installs f
// as the new link's errorback.
func NextErrorback(d *Deferred, f Callback) *Deferred {
	n := &Deferred{errorback: f}
	setNext(d, n)
	return n
}

// NextBoth is NextCallback/NextErrorback combined into one new link: it
// installs callback and errorback on the same node before attaching it via
// a single setNext call. Use this whenever both paths need to land on the
// same chain position; attaching them via two separate NextCallback/
// NextErrorback calls would have the second call's setNext overwrite the
// link the first call installed.
func NextBoth(d *Deferred, callback, errorback Callback) *Deferred {
	n := &Deferred{callback: callback, errorback: errorback}
	setNext(d, n)
	return n
}

// setNext installs next as d's live tail's forward link. If that tail is
// already resolved, the stored resolution is cleared from the tail and
// replayed into next under the tick worker's fault boundary, so a chain
// attached after the fact still observes the resolution exactly once.
func setNext(d *Deferred, next *Deferred) {
	d = live(d)
	d.mu.Lock()
	d.next = next
	if d.status == StatusUnset {
		d.mu.Unlock()
		return
	}
	st, val := d.status, d.value
	d.status, d.value = StatusUnset, nil
	d.mu.Unlock()
	execute(next, st, val, true)
}

// Cancel drops d's forward propagation: its callback/errorback become
// pass-through and its forward link is cleared. It does not notify any
// remote peer; see the EPC manager for session-table implications.
func Cancel(d *Deferred) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callback = nil
	d.errorback = nil
	d.next = nil
}

// execute is the central execution rule. fromWorker
// distinguishes resolution driven by the tick worker (or by replaying an
// already-settled tail into a newly attached link) from a direct
// synchronous Callback/Errorback call: only the latter re-raises an
// unhandled terminal failure to its caller instead of merely logging it.
func execute(d *Deferred, which Status, arg any, fromWorker bool) error {
	d = live(d)

	d.mu.Lock()
	var f Callback
	if which == StatusOK {
		f = d.callback
	} else {
		f = d.errorback
	}
	next := d.next
	d.mu.Unlock()

	if f == nil {
		if next != nil {
			return execute(next, which, arg, fromWorker)
		}
		return finish(d, which, arg, fromWorker)
	}

	outcome := invokeSafely(f, arg)

	if nested, ok := outcome.(*Deferred); ok {
		d.mu.Lock()
		n := d.next
		d.redirect = nested
		d.mu.Unlock()
		if n != nil {
			setNext(nested, n)
		}
		return nil
	}

	which2, val := classify(outcome)

	if next != nil {
		Post(next, which2, val)
		return nil
	}
	return finish(d, which2, val, fromWorker)
}

// classify maps a Callback's returned value onto (StatusOK, val) or
// (StatusNG, err).
func classify(outcome any) (Status, any) {
	if err, ok := outcome.(error); ok && err != nil {
		return StatusNG, err
	}
	return StatusOK, outcome
}

func invokeSafely(f Callback, arg any) (outcome any) {
	defer func() {
		if r := recover(); r != nil {
			outcome = &PanicError{Value: r}
		}
	}()
	return f(arg)
}

// finish records d's terminal resolution. On an unhandled failure it either
// logs (tick-worker-driven resolution) or returns the error to the caller
// (direct synchronous invocation).
func finish(d *Deferred, which Status, val any, fromWorker bool) error {
	d.mu.Lock()
	d.status = which
	d.value = val
	d.mu.Unlock()

	if which != StatusNG {
		return nil
	}

	err := toError(val)
	if fromWorker {
		logUnhandledFailure(err)
		return nil
	}
	return err
}

// toError renders a failure value as an error: structured errors pass
// through, strings become generic errors, anything else is stringified.
func toError(val any) error {
	switch v := val.(type) {
	case error:
		return v
	case string:
		return fmt.Errorf("%s", v)
	default:
		return fmt.Errorf("%v", v)
	}
}
