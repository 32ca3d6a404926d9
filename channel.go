package emigo

import (
	"sync"

	"github.com/MatthewZMD/emigo/deferred"
	"github.com/MatthewZMD/emigo/sexp"
)

// AnyEvent is the sentinel key that matches every event symbol. It is
// chosen so it cannot collide with a real EPC event symbol (those are
// always Lisp-style bare identifiers).
const AnyEvent = "*any*"

// Event is what an observer's Deferred is resolved with when Channel.Send
// fires: the event symbol and its event-specific argument list.
type Event struct {
	Symbol string
	Args   []sexp.Value
}

// observer pairs a registration key with the Deferred that gets notified.
type observer struct {
	key string
	d   *deferred.Deferred
}

// Channel is a per-connection, append-only event-symbol to observer
// registry: observers are appended in registration order and dispatched in
// that same order, each backed by a Deferred rather than a plain callback
// function.
type Channel struct {
	mu        sync.Mutex
	observers []observer
}

// NewChannel creates an empty Channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Connect registers a new observer for key (or AnyEvent for a wildcard
// observer) and returns its Deferred for further chaining. callback may be
// nil, leaving the Deferred's success path as pass-through until the
// caller chains onto it.
func (c *Channel) Connect(key string, callback deferred.Callback) *deferred.Deferred {
	d := deferred.New(callback)
	c.mu.Lock()
	c.observers = append(c.observers, observer{key: key, d: d})
	c.mu.Unlock()
	return d
}

// Send notifies, in registration order, every observer whose key equals
// eventSymbol or AnyEvent. Notification goes through deferred.Post rather
// than a direct call, so observers of distinct events interleave through
// the post-queue instead of running inline on Send's caller.
func (c *Channel) Send(eventSymbol string, args []sexp.Value) {
	c.mu.Lock()
	matched := make([]*deferred.Deferred, 0, len(c.observers))
	for _, o := range c.observers {
		if o.key == eventSymbol || o.key == AnyEvent {
			matched = append(matched, o.d)
		}
	}
	c.mu.Unlock()

	ev := Event{Symbol: eventSymbol, Args: args}
	for _, d := range matched {
		deferred.Post(d, deferred.StatusOK, ev)
	}
}
