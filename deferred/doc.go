// Package deferred implements a single-assignment continuation cell with
// separate success ("ok") and failure ("ng") paths, chained through a
// process-wide FIFO post-queue drained one entry at a time by a timer-driven
// tick worker.
//
// A Deferred is created with New and extended by chaining NextCallback and
// NextErrorback calls, exactly one of which runs when the node ahead of it
// resolves. Resolution can happen synchronously (Callback/Errorback) or be
// scheduled for the tick worker (Post). If a callback itself returns a
// *Deferred, the chain "flattens": the returned Deferred's eventual result
// is forwarded to whatever comes after the node that produced it, instead
// of that nested Deferred itself becoming the result.
//
// The engine makes no assumption about which goroutine calls in. The tick
// worker runs scheduled (Posted) continuations one at a time, never
// overlapping each other, regardless of how many goroutines call Post.
// Callback and Errorback are the exception: they run the chain inline on
// the calling goroutine, outside that serialization.
package deferred
