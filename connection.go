package emigo

import (
	"fmt"
	"net"
	"sync"

	"github.com/MatthewZMD/emigo/deferred"
	"github.com/MatthewZMD/emigo/sexp"
)

// Connection owns one net.Conn and drains it into decoded frames, appending
// newly read bytes and then draining whatever complete frames are already
// buffered. It has no EPC semantics of its own; Manager wires the
// channel's events (call/return/return-error/epc-error/methods) to actual
// behaviour.
type Connection struct {
	Name    string
	Channel *Channel

	conn net.Conn
	buf  readBuffer

	mu           sync.Mutex
	closed       bool
	onDisconnect func()
}

// NewConnection wraps conn and returns immediately; its read loop does not
// start until Start is called. onDisconnect, if non-nil, fires exactly
// once, the first time the connection is torn down (by a read error, a
// protocol fatalErr, or an explicit Disconnect call).
//
// Construction and starting are split so a caller (the Server's accept
// loop, or a direct dialer) can finish wiring a Manager onto the
// Connection's Channel before any bytes are drained from the socket; the
// first inbound message must never race the handlers being installed.
func NewConnection(name string, conn net.Conn, onDisconnect func()) *Connection {
	return &Connection{
		Name:         name,
		Channel:      NewChannel(),
		conn:         conn,
		onDisconnect: onDisconnect,
	}
}

// Start begins draining conn on its own goroutine.
func (c *Connection) Start() {
	go c.readLoop()
}

// Live reports whether the underlying socket is still open. It satisfies
// deferred.LivenessChecker so Manager.CallSync can stop waiting once a peer
// disappears mid-call.
func (c *Connection) Live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Send encodes v as one frame and writes it whole to the socket.
func (c *Connection) Send(v sexp.Value) error {
	_, err := c.conn.Write(EncodeFrame(v))
	return err
}

// Disconnect closes the socket. It is idempotent: only the first call has
// any effect, and only the first call fires onDisconnect.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	_ = c.conn.Close()
	if c.onDisconnect != nil {
		c.onDisconnect()
	}
}

func (c *Connection) readLoop() {
	chunk := make([]byte, 64*1024)
	for {
		n, err := c.conn.Read(chunk)
		if n > 0 {
			c.buf.append(chunk[:n])
			if fatal := c.drain(); fatal {
				c.Disconnect()
				return
			}
		}
		if err != nil {
			c.Disconnect()
			return
		}
	}
}

// drain decodes and dispatches every complete frame currently buffered. It
// returns true if a fatal framing error was hit, meaning the caller must
// disconnect (the length header itself was unparseable, so there is no way
// to know where the next frame would even start).
func (c *Connection) drain() (fatal bool) {
	for {
		v, consumed, frameErr, fatalErr := c.buf.next()
		if fatalErr != nil {
			deferred.LogWarn("emigo: fatal framing error, disconnecting", fatalErr)
			return true
		}
		if !consumed {
			return false
		}
		if frameErr != nil {
			deferred.LogWarn("emigo: dropping malformed frame", frameErr)
			continue
		}
		c.dispatch(v)
	}
}

// dispatch splits a decoded top-level list into its leading event symbol
// and remaining arguments, then hands it to the channel. Anything that
// isn't a non-empty list headed by a symbol is not a valid EPC message and
// is dropped with a logged warning rather than crashing the connection.
func (c *Connection) dispatch(v sexp.Value) {
	symbol, args, ok := splitMessage(v)
	if !ok {
		deferred.LogWarn("emigo: dropping non-message frame", fmt.Errorf("emigo: message is not a (symbol . args) list: %s", v.String()))
		return
	}
	c.Channel.Send(symbol, args)
}

func splitMessage(v sexp.Value) (symbol string, args []sexp.Value, ok bool) {
	if v.Kind != sexp.KindList || len(v.List) == 0 {
		return "", nil, false
	}
	head := v.List[0]
	if head.Kind != sexp.KindSymbol {
		return "", nil, false
	}
	return string(head.Sym), v.List[1:], true
}
